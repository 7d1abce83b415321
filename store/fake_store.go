package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Luismorlan/instag/model"
)

// FakeEntityStore is an in memory EntityStore with the same uniqueness rules
// as the database. Errors can be injected per external id or tag name.
type FakeEntityStore struct {
	mu    sync.Mutex
	posts map[string]*model.Post
	tags  map[string]*model.Tag

	FindPostErrs   map[string]error
	CreatePostErrs map[string]error
	UpdatePostErrs map[string]error
	TagErrs        map[string]error

	CreatePostCalls int
	UpdatePostCalls int
	CreateTagCalls  int
}

func NewFakeEntityStore() *FakeEntityStore {
	return &FakeEntityStore{
		posts:          map[string]*model.Post{},
		tags:           map[string]*model.Tag{},
		FindPostErrs:   map[string]error{},
		CreatePostErrs: map[string]error{},
		UpdatePostErrs: map[string]error{},
		TagErrs:        map[string]error{},
	}
}

func tagKey(vocabulary, name string) string {
	return vocabulary + "/" + name
}

func copyPost(p *model.Post) *model.Post {
	c := *p
	c.Media = append([]model.Media(nil), p.Media...)
	c.Tags = append([]*model.Tag(nil), p.Tags...)
	return &c
}

func (s *FakeEntityStore) FindPostByExternalId(ctx context.Context, externalId string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.FindPostErrs[externalId]; ok {
		return nil, err
	}
	p, ok := s.posts[externalId]
	if !ok {
		return nil, nil
	}
	return copyPost(p), nil
}

func (s *FakeEntityStore) CreatePost(ctx context.Context, post *model.Post) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreatePostCalls++
	if err, ok := s.CreatePostErrs[post.ExternalId]; ok {
		return false, err
	}
	if _, ok := s.posts[post.ExternalId]; ok {
		return false, nil
	}
	for i := range post.Media {
		post.Media[i].PostID = post.Id
	}
	s.posts[post.ExternalId] = copyPost(post)
	return true, nil
}

func (s *FakeEntityStore) UpdatePostCounters(ctx context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatePostCalls++
	if err, ok := s.UpdatePostErrs[post.ExternalId]; ok {
		return err
	}
	for _, p := range s.posts {
		if p.Id == post.Id {
			p.Likes = post.Likes
			p.ViewCount = post.ViewCount
			p.UpdatedAt = post.UpdatedAt
		}
	}
	return nil
}

func (s *FakeEntityStore) ListPosts(ctx context.Context, limit, offset int) ([]model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := []model.Post{}
	for _, p := range s.posts {
		posts = append(posts, *copyPost(p))
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Date != posts[j].Date {
			return posts[i].Date > posts[j].Date
		}
		return posts[i].ExternalId < posts[j].ExternalId
	})
	if offset >= len(posts) {
		return []model.Post{}, nil
	}
	posts = posts[offset:]
	if limit >= 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *FakeEntityStore) CountPosts(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.posts)), nil
}

func (s *FakeEntityStore) DeleteAllPosts(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.posts))
	s.posts = map[string]*model.Post{}
	return n, nil
}

func (s *FakeEntityStore) FindTagByName(ctx context.Context, vocabulary, name string) (*model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.TagErrs[name]; ok {
		return nil, err
	}
	t, ok := s.tags[tagKey(vocabulary, name)]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (s *FakeEntityStore) CreateTag(ctx context.Context, tag *model.Tag) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateTagCalls++
	if err, ok := s.TagErrs[tag.Name]; ok {
		return false, err
	}
	key := tagKey(tag.Vocabulary, tag.Name)
	if _, ok := s.tags[key]; ok {
		return false, nil
	}
	s.tags[key] = tag
	return true, nil
}

// Tags returns every stored tag, sorted by name.
func (s *FakeEntityStore) Tags() []*model.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := []*model.Tag{}
	for _, t := range s.tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags
}
