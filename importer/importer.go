package importer

import (
	"context"

	"github.com/Luismorlan/instag/collector"
	"github.com/Luismorlan/instag/model"
	"github.com/Luismorlan/instag/store"
	Logger "github.com/Luismorlan/instag/utils/log"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPageSize = 50
)

// Importer is the command style entry point: whole-feed imports that run a
// batch to completion, plus post maintenance.
type Importer struct {
	runner *BatchRunner
	posts  store.PostStore
}

func NewImporter(runner *BatchRunner, posts store.PostStore) *Importer {
	return &Importer{runner: runner, posts: posts}
}

func (i *Importer) Runner() *BatchRunner {
	return i.runner
}

// ImportProfile imports every post of handle's profile and returns how many
// posts were created or updated.
func (i *Importer) ImportProfile(ctx context.Context, handle string) (int, error) {
	return i.run(ctx, BatchRequest{Kind: model.FetchKindProfile, Target: handle, Refresh: true})
}

// ImportTag imports posts of a hashtag feed, reading at most maxPages pages.
func (i *Importer) ImportTag(ctx context.Context, tag string, maxPages int) (int, error) {
	if maxPages <= 0 {
		maxPages = collector.DefaultHashtagMaxPages
	}
	return i.run(ctx, BatchRequest{Kind: model.FetchKindHashtag, Target: tag, MaxPages: maxPages, Refresh: true})
}

func (i *Importer) run(ctx context.Context, req BatchRequest) (int, error) {
	state, err := i.runner.Run(ctx, req, func(s model.BatchState) {
		Logger.Log.WithFields(logrus.Fields{"batch": s.Id, "progress": s.Progress, "max": s.Max}).Debug("batch step done")
	})
	for _, msg := range state.Messages {
		if msg.Level != model.MessageInfo {
			Logger.Log.WithFields(logrus.Fields{"batch": state.Id, "level": msg.Level}).Warn(msg.Text)
		}
	}
	return state.Imported + state.Updated, err
}

// DeleteAll removes every imported post and returns how many were removed.
func (i *Importer) DeleteAll(ctx context.Context) (int64, error) {
	deleted, err := i.posts.DeleteAllPosts(ctx)
	if err != nil {
		return 0, model.NewImportError(model.StorageFailed, "all posts", err)
	}
	Logger.Log.Infof("deleted %d posts", deleted)
	return deleted, nil
}

type PostPage struct {
	Posts    []model.Post `json:"posts"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// ListPosts returns a page of posts, newest first. Pages start at 0.
func (i *Importer) ListPosts(ctx context.Context, page, pageSize int) (*PostPage, error) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	posts, err := i.posts.ListPosts(ctx, pageSize, page*pageSize)
	if err != nil {
		return nil, model.NewImportError(model.StorageFailed, "post list", err)
	}
	total, err := i.posts.CountPosts(ctx)
	if err != nil {
		return nil, model.NewImportError(model.StorageFailed, "post count", err)
	}
	return &PostPage{Posts: posts, Total: total, Page: page, PageSize: pageSize}, nil
}
