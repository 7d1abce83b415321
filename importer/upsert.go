package importer

import (
	"context"
	"time"

	"github.com/Luismorlan/instag/collector"
	"github.com/Luismorlan/instag/model"
	"github.com/Luismorlan/instag/store"
	Logger "github.com/Luismorlan/instag/utils/log"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/sirupsen/logrus"
)

type UpsertResult struct {
	Post    *model.Post
	Created bool
	// non fatal media errors of a newly created post
	Warnings []error
}

// UpsertEngine creates a post the first time its external id is seen and
// only refreshes its counters afterwards.
type UpsertEngine struct {
	store store.PostStore
	media *collector.MediaResolver
	tags  *TagResolver
	now   func() time.Time
}

func NewUpsertEngine(s store.PostStore, media *collector.MediaResolver, tags *TagResolver) *UpsertEngine {
	return &UpsertEngine{store: s, media: media, tags: tags, now: time.Now}
}

func (e *UpsertEngine) SetClock(now func() time.Time) {
	e.now = now
}

// Import normalizes raw and upserts it. Media and tags are only resolved for
// posts not stored yet, so a re-import never downloads again. Tags are
// resolved before any download; media stored for a post that is not created
// in the end is deleted again.
func (e *UpsertEngine) Import(ctx context.Context, raw model.RawPost, fallbackOwner string) (*UpsertResult, error) {
	post := collector.Normalize(raw, fallbackOwner)

	existing, err := e.find(ctx, post.ExternalId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := e.update(ctx, existing, post); err != nil {
			return nil, err
		}
		return &UpsertResult{Post: existing}, nil
	}

	tags, err := e.tags.ResolveTags(ctx, post.Tags)
	if err != nil {
		return nil, err
	}
	media, warnings := e.media.Resolve(ctx, raw)
	record, created, err := e.create(ctx, post, media, tags)
	if err != nil {
		return nil, err
	}
	return &UpsertResult{Post: record, Created: created, Warnings: warnings}, nil
}

// Upsert stores post with already resolved media and tags. Returns whether a
// new record was created.
func (e *UpsertEngine) Upsert(ctx context.Context, post model.ImportablePost, media []model.Media, tags []*model.Tag) (*model.Post, bool, error) {
	existing, err := e.find(ctx, post.ExternalId)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, e.update(ctx, existing, post)
	}
	return e.create(ctx, post, media, tags)
}

func (e *UpsertEngine) find(ctx context.Context, externalId string) (*model.Post, error) {
	existing, err := e.store.FindPostByExternalId(ctx, externalId)
	if err != nil {
		return nil, model.NewImportError(model.StorageFailed, externalId, err)
	}
	return existing, nil
}

func (e *UpsertEngine) update(ctx context.Context, existing *model.Post, post model.ImportablePost) error {
	existing.Likes = post.Likes
	existing.ViewCount = post.ViewCount
	existing.UpdatedAt = e.now()
	if err := e.store.UpdatePostCounters(ctx, existing); err != nil {
		return model.NewImportError(model.StorageFailed, post.ExternalId, err)
	}
	return nil
}

func (e *UpsertEngine) create(ctx context.Context, post model.ImportablePost, media []model.Media, tags []*model.Tag) (*model.Post, bool, error) {
	record := &model.Post{}
	if err := copier.Copy(record, &post); err != nil {
		return nil, false, model.NewImportError(model.StorageFailed, post.ExternalId, err)
	}
	now := e.now()
	record.Id = uuid.New().String()
	record.CreatedAt = now
	record.UpdatedAt = now
	record.Sticky = false
	record.Status = true
	record.Media = media
	record.Tags = tags

	created, err := e.store.CreatePost(ctx, record)
	if err != nil {
		e.media.Discard(media, nil)
		return nil, false, model.NewImportError(model.StorageFailed, post.ExternalId, err)
	}
	if created {
		return record, true, nil
	}

	// lost a race with a concurrent import of the same post
	Logger.Log.WithFields(logrus.Fields{"external_id": post.ExternalId}).
		Warn("post created concurrently, updating instead")
	existing, err := e.find(ctx, post.ExternalId)
	if err != nil {
		e.media.Discard(media, nil)
		return nil, false, err
	}
	if existing == nil {
		e.media.Discard(media, nil)
		return nil, false, model.NewImportError(model.StorageFailed, post.ExternalId, nil)
	}
	// the winner may have stored the same files under the same keys
	e.media.Discard(media, existing.Media)
	return existing, false, e.update(ctx, existing, post)
}
