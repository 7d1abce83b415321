package file_store

import "io"

// CollectedFileStore persists downloaded media. Paths are slash separated and
// relative to the store root, e.g. "instagram/2021-09/v-t51-abc.jpg".
type CollectedFileStore interface {
	// EnsureDirectory makes sure dir can be written into.
	EnsureDirectory(dir string) error
	// WriteData streams data to filePath and returns the key of the stored file.
	WriteData(data io.Reader, filePath string) (key string, err error)
	GetUrlFromKey(key string) string
	// Delete removes the file stored under key. A missing key is not an error.
	Delete(key string) error
	CleanUp()
}
