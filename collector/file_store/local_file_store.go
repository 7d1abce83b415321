package file_store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	TmpFileDirPrefix = "_tmp_file_store_"
)

type LocalFileStore struct {
	folderName string
	// removes the folder on CleanUp, only for stores created by NewTmpLocalFileStore
	temporary bool
}

// NewLocalFileStore stores files under rootDir, which is created if missing.
func NewLocalFileStore(rootDir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(rootDir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "fail to create local file store root "+rootDir)
	}
	return &LocalFileStore{folderName: rootDir}, nil
}

// NewTmpLocalFileStore creates a store under "_tmp_file_store_<bucket>" that is
// removed on CleanUp.
func NewTmpLocalFileStore(bucket string) (*LocalFileStore, error) {
	s, err := NewLocalFileStore(TmpFileDirPrefix + bucket)
	if err != nil {
		return nil, err
	}
	s.temporary = true
	return s, nil
}

func (s *LocalFileStore) Root() string {
	return s.folderName
}

func (s *LocalFileStore) EnsureDirectory(dir string) error {
	return os.MkdirAll(filepath.Join(s.folderName, filepath.FromSlash(dir)), os.ModePerm)
}

func (s *LocalFileStore) WriteData(data io.Reader, filePath string) (string, error) {
	localPath := filepath.Join(s.folderName, filepath.FromSlash(filePath))

	file, err := os.Create(localPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	// Use io.Copy to just dump the data to the file. This supports huge files
	if _, err = io.Copy(file, data); err != nil {
		os.Remove(localPath)
		return "", err
	}

	return filePath, nil
}

func (s *LocalFileStore) GetUrlFromKey(key string) string {
	return fmt.Sprintf("file://%s", filepath.Join(s.folderName, filepath.FromSlash(key)))
}

func (s *LocalFileStore) Delete(key string) error {
	err := os.Remove(filepath.Join(s.folderName, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "fail to delete "+key)
	}
	return nil
}

func (s *LocalFileStore) CleanUp() {
	if s.temporary {
		os.RemoveAll(s.folderName)
	}
}
