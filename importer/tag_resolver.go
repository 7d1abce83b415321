package importer

import (
	"context"

	"github.com/Luismorlan/instag/model"
	"github.com/Luismorlan/instag/store"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TagResolver maps hashtag names to tags, creating missing ones.
type TagResolver struct {
	store store.TagStore
}

func NewTagResolver(s store.TagStore) *TagResolver {
	return &TagResolver{store: s}
}

// ResolveTag returns the tag named name in the hashtag vocabulary, creating it
// when it does not exist yet.
func (r *TagResolver) ResolveTag(ctx context.Context, name string) (*model.Tag, error) {
	tag, err := r.store.FindTagByName(ctx, model.TagVocabulary, name)
	if err != nil {
		return nil, model.NewImportError(model.StorageFailed, name, err)
	}
	if tag != nil {
		return tag, nil
	}

	tag = &model.Tag{
		Id:         uuid.New().String(),
		Vocabulary: model.TagVocabulary,
		Name:       name,
	}
	created, err := r.store.CreateTag(ctx, tag)
	if err != nil {
		return nil, model.NewImportError(model.StorageFailed, name, err)
	}
	if created {
		return tag, nil
	}

	// another writer created it between lookup and insert
	tag, err = r.store.FindTagByName(ctx, model.TagVocabulary, name)
	if err == nil && tag == nil {
		err = errors.New("tag vanished after conflicting insert")
	}
	if err != nil {
		return nil, model.NewImportError(model.StorageFailed, name, err)
	}
	return tag, nil
}

// ResolveTags resolves names in order, ignoring repeated names. It stops at
// the first failure.
func (r *TagResolver) ResolveTags(ctx context.Context, names []string) ([]*model.Tag, error) {
	tags := []*model.Tag{}
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		tag, err := r.ResolveTag(ctx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
