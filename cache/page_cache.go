package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Luismorlan/instag/model"
)

const (
	DefaultCacheLifetime = time.Hour
	keyPrefix            = "instag"
)

// PageCache keeps fetched feed posts for a bounded time so a resumed batch
// does not hit the network again.
type PageCache interface {
	// Get returns found=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (posts []model.RawPost, found bool, err error)
	Set(ctx context.Context, key string, posts []model.RawPost, ttl time.Duration) error
}

// CacheKey is the key of the posts fetched with kind for target.
func CacheKey(kind model.FetchKind, target string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind.String(), target)
}
