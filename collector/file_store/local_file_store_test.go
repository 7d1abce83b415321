package file_store

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileStoreWriteData(t *testing.T) {
	root := filepath.Join(t.TempDir(), "media")
	s, err := NewLocalFileStore(root)
	require.NoError(t, err)

	require.NoError(t, s.EnsureDirectory("instagram/2021-09"))
	key, err := s.WriteData(strings.NewReader("jpeg bytes"), "instagram/2021-09/v-t51-abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, "instagram/2021-09/v-t51-abc.jpg", key)

	content, err := ioutil.ReadFile(filepath.Join(root, "instagram", "2021-09", "v-t51-abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(content))
	assert.True(t, strings.HasPrefix(s.GetUrlFromKey(key), "file://"))

	// non temporary store keeps files
	s.CleanUp()
	_, err = os.Stat(root)
	assert.NoError(t, err)
}

func TestLocalFileStoreDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalFileStore(root)
	require.NoError(t, err)
	require.NoError(t, s.EnsureDirectory("instagram/2021-09"))
	key, err := s.WriteData(strings.NewReader("jpeg bytes"), "instagram/2021-09/a.jpg")
	require.NoError(t, err)

	require.NoError(t, s.Delete(key))
	_, err = os.Stat(filepath.Join(root, "instagram", "2021-09", "a.jpg"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(key))
}

func TestLocalFileStoreWriteIntoMissingDirectoryFails(t *testing.T) {
	s, err := NewLocalFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.WriteData(strings.NewReader("x"), "missing/dir/file.jpg")
	assert.Error(t, err)
}

func TestFakeFileStore(t *testing.T) {
	s := NewFakeFileStore()
	require.NoError(t, s.EnsureDirectory("instagram/2021-09"))
	key, err := s.WriteData(strings.NewReader("data"), "instagram/2021-09/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), s.Files[key])
	assert.Equal(t, []string{"instagram/2021-09"}, s.Directories)
	assert.Equal(t, "fake://instagram/2021-09/a.jpg", s.GetUrlFromKey(key))
}
