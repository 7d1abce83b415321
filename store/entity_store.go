package store

import (
	"context"

	"github.com/Luismorlan/instag/model"
)

// TagStore persists taxonomy terms.
type TagStore interface {
	// FindTagByName returns nil, nil when no tag matches.
	FindTagByName(ctx context.Context, vocabulary, name string) (*model.Tag, error)
	// CreateTag inserts tag unless a tag with the same vocabulary and name
	// exists, in which case created is false and nothing is written.
	CreateTag(ctx context.Context, tag *model.Tag) (created bool, err error)
}

// PostStore persists imported posts with their media.
type PostStore interface {
	// FindPostByExternalId returns the post with its media, nil, nil when no
	// post matches.
	FindPostByExternalId(ctx context.Context, externalId string) (*model.Post, error)
	// CreatePost inserts post with its media and tag links unless a post with
	// the same external id exists, in which case created is false.
	CreatePost(ctx context.Context, post *model.Post) (created bool, err error)
	// UpdatePostCounters saves likes, view count and updated time of post.
	UpdatePostCounters(ctx context.Context, post *model.Post) error
	// ListPosts returns posts newest first, by post date.
	ListPosts(ctx context.Context, limit, offset int) ([]model.Post, error)
	CountPosts(ctx context.Context) (int64, error)
	// DeleteAllPosts removes every post, its media rows and tag links. Tags
	// are kept.
	DeleteAllPosts(ctx context.Context) (int64, error)
}

type EntityStore interface {
	PostStore
	TagStore
}
