package clients

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/Luismorlan/instag/model"
)

// FakeFeedSource serves pre-seeded pages. Cursors are page indexes.
type FakeFeedSource struct {
	mu sync.Mutex

	ProfilePages map[string][][]model.RawPost
	HashtagPages map[string][][]model.RawPost
	Details      map[string]*model.MediaDetailed

	LoginErr error
	// page index -> error, applied to profile and hashtag fetches
	PageErrs   map[int]error
	DetailErrs map[string]error

	LoginCalls  int
	PageFetches int
	DetailCalls int
}

func NewFakeFeedSource() *FakeFeedSource {
	return &FakeFeedSource{
		ProfilePages: map[string][][]model.RawPost{},
		HashtagPages: map[string][][]model.RawPost{},
		Details:      map[string]*model.MediaDetailed{},
		PageErrs:     map[int]error{},
		DetailErrs:   map[string]error{},
	}
}

func (f *FakeFeedSource) Login(ctx context.Context, credentials Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoginCalls++
	return f.LoginErr
}

func (f *FakeFeedSource) GetProfile(ctx context.Context, handle string) (*ProfilePage, error) {
	return f.profilePage(handle, 0)
}

func (f *FakeFeedSource) GetMoreMedias(ctx context.Context, previous *ProfilePage) (*ProfilePage, error) {
	idx, err := strconv.Atoi(previous.EndCursor)
	if err != nil {
		return nil, err
	}
	return f.profilePage(previous.Handle, idx)
}

func (f *FakeFeedSource) GetHashtag(ctx context.Context, tag string) (*HashtagPage, error) {
	return f.hashtagPage(tag, 0)
}

func (f *FakeFeedSource) GetMoreHashtagMedias(ctx context.Context, tag string, cursor string) (*HashtagPage, error) {
	idx, err := strconv.Atoi(cursor)
	if err != nil {
		return nil, err
	}
	return f.hashtagPage(tag, idx)
}

func (f *FakeFeedSource) GetMediaDetailed(ctx context.Context, shortcode string) (*model.MediaDetailed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DetailCalls++
	if err, ok := f.DetailErrs[shortcode]; ok {
		return nil, err
	}
	detail, ok := f.Details[shortcode]
	if !ok {
		return nil, errors.New("media not found: " + shortcode)
	}
	return detail, nil
}

func (f *FakeFeedSource) page(pages [][]model.RawPost, idx int) ([]model.RawPost, string, bool, error) {
	f.PageFetches++
	if err, ok := f.PageErrs[idx]; ok {
		return nil, "", false, err
	}
	if idx >= len(pages) {
		return nil, "", false, nil
	}
	hasMore := idx+1 < len(pages)
	cursor := ""
	if hasMore {
		cursor = strconv.Itoa(idx + 1)
	}
	return pages[idx], cursor, hasMore, nil
}

func (f *FakeFeedSource) profilePage(handle string, idx int) (*ProfilePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	medias, cursor, hasMore, err := f.page(f.ProfilePages[handle], idx)
	if err != nil {
		return nil, err
	}
	return &ProfilePage{Handle: handle, Medias: medias, EndCursor: cursor, HasMore: hasMore}, nil
}

func (f *FakeFeedSource) hashtagPage(tag string, idx int) (*HashtagPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	medias, cursor, hasMore, err := f.page(f.HashtagPages[tag], idx)
	if err != nil {
		return nil, err
	}
	return &HashtagPage{Tag: tag, Medias: medias, EndCursor: cursor, HasMore: hasMore}, nil
}
