package file_store

import (
	"io"
	"io/ioutil"
	"sync"
)

// FakeFileStore keeps written files in memory.
type FakeFileStore struct {
	mu          sync.Mutex
	Directories []string
	Files       map[string][]byte
	Deleted     []string
	DeleteErr   error
}

func NewFakeFileStore() *FakeFileStore {
	return &FakeFileStore{Files: map[string][]byte{}}
}

func (s *FakeFileStore) EnsureDirectory(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Directories = append(s.Directories, dir)
	return nil
}

func (s *FakeFileStore) WriteData(data io.Reader, filePath string) (string, error) {
	content, err := ioutil.ReadAll(data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Files == nil {
		s.Files = map[string][]byte{}
	}
	s.Files[filePath] = content
	return filePath, nil
}

func (s *FakeFileStore) GetUrlFromKey(key string) string {
	return "fake://" + key
}

func (s *FakeFileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.Files, key)
	s.Deleted = append(s.Deleted, key)
	return nil
}

func (s *FakeFileStore) CleanUp() {}
