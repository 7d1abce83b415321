package clients

import (
	"context"
	"time"

	"github.com/Luismorlan/instag/model"
)

type Credentials struct {
	Username string
	Password string
}

// ProfilePage is one page of a profile feed. HasMore tells whether
// GetMoreMedias can be called with this page.
type ProfilePage struct {
	Handle    string
	UserId    string
	Medias    []model.RawPost
	EndCursor string
	HasMore   bool
	// Backoff is the minimum wait the source asks for before the next request.
	Backoff time.Duration
}

type HashtagPage struct {
	Tag       string
	Medias    []model.RawPost
	EndCursor string
	HasMore   bool
	Backoff   time.Duration
}

// FeedSource is the social media platform, or a gateway in front of it.
type FeedSource interface {
	Login(ctx context.Context, credentials Credentials) error
	GetProfile(ctx context.Context, handle string) (*ProfilePage, error)
	GetMoreMedias(ctx context.Context, previous *ProfilePage) (*ProfilePage, error)
	GetHashtag(ctx context.Context, tag string) (*HashtagPage, error)
	GetMoreHashtagMedias(ctx context.Context, tag string, cursor string) (*HashtagPage, error)
	GetMediaDetailed(ctx context.Context, shortcode string) (*model.MediaDetailed, error)
}
