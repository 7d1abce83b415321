package cache

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/Luismorlan/instag/model"
	"github.com/Luismorlan/instag/utils"
	"github.com/pkg/errors"
)

type fileCacheEntry struct {
	ExpiresAt time.Time       `json:"expires_at"`
	Posts     []model.RawPost `json:"posts"`
}

// FilePageCache stores one json file per key under dir.
type FilePageCache struct {
	dir string
	now func() time.Time
}

func NewFilePageCache(dir string) (*FilePageCache, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "fail to create cache dir "+dir)
	}
	return &FilePageCache{dir: dir, now: time.Now}, nil
}

func (c *FilePageCache) path(key string) string {
	hash, _ := utils.TextToMd5Hash(key)
	return filepath.Join(c.dir, hash+".json")
}

func (c *FilePageCache) Get(ctx context.Context, key string) ([]model.RawPost, bool, error) {
	data, err := ioutil.ReadFile(c.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "fail to read cache key "+key)
	}
	var entry fileCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, errors.Wrap(err, "corrupted cache entry "+key)
	}
	if !c.now().Before(entry.ExpiresAt) {
		os.Remove(c.path(key))
		return nil, false, nil
	}
	return entry.Posts, true, nil
}

func (c *FilePageCache) Set(ctx context.Context, key string, posts []model.RawPost, ttl time.Duration) error {
	data, err := json.Marshal(fileCacheEntry{ExpiresAt: c.now().Add(ttl), Posts: posts})
	if err != nil {
		return err
	}
	// write then rename so readers never see a partial file
	tmp := c.path(key) + ".tmp"
	if err := ioutil.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "fail to write cache key "+key)
	}
	return os.Rename(tmp, c.path(key))
}
