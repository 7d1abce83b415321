package collector

import (
	"context"
	"sync"
	"time"

	"github.com/Luismorlan/instag/collector/clients"
	"github.com/Luismorlan/instag/model"
	Logger "github.com/Luismorlan/instag/utils/log"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPageDelay = time.Second
	// page fetches for a hashtag feed when the caller gives none
	DefaultHashtagMaxPages = 25
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FeedWalker turns a FeedSource's pages into lazy post sequences. It logs in
// before the first page fetch of a sequence until a login succeeds, the
// session is kept afterwards.
type FeedWalker struct {
	source      clients.FeedSource
	credentials clients.Credentials
	pageDelay   time.Duration
	sleep       SleepFunc

	loginMu  sync.Mutex
	loggedIn bool
}

func NewFeedWalker(source clients.FeedSource, credentials clients.Credentials, pageDelay time.Duration) *FeedWalker {
	return &FeedWalker{
		source:      source,
		credentials: credentials,
		pageDelay:   pageDelay,
		sleep:       ContextSleep,
	}
}

// SetSleepFunc replaces the pacing sleep, used by tests.
func (w *FeedWalker) SetSleepFunc(f SleepFunc) {
	w.sleep = f
}

func (w *FeedWalker) Source() clients.FeedSource {
	return w.source
}

func (w *FeedWalker) login(ctx context.Context) error {
	if w.credentials.Username == "" {
		return nil
	}
	w.loginMu.Lock()
	defer w.loginMu.Unlock()
	if w.loggedIn {
		return nil
	}
	if err := w.source.Login(ctx, w.credentials); err != nil {
		Logger.Log.WithFields(logrus.Fields{"username": w.credentials.Username}).
			Warnln("login failed, continue without session:", err)
		return model.NewImportError(model.AuthFailed, w.credentials.Username, err)
	}
	w.loggedIn = true
	return nil
}

// pageFetcher fetches the next page. It returns the page's posts, whether
// another page exists and the backoff the source asked for.
type pageFetcher func(ctx context.Context) (posts []model.RawPost, hasMore bool, backoff time.Duration, err error)

// PostIterator is a pull based, non-restartable sequence of feed pages. Each
// call to Next issues exactly one page fetch.
type PostIterator struct {
	walker   *FeedWalker
	subject  string
	fetch    pageFetcher
	maxPages int

	fetched  int
	done     bool
	page     []model.RawPost
	backoff  time.Duration
	err      error
	warnings []error
}

func (it *PostIterator) Next(ctx context.Context) bool {
	if it.done {
		return false
	}
	if it.maxPages > 0 && it.fetched >= it.maxPages {
		it.done = true
		return false
	}

	if it.fetched == 0 {
		if err := it.walker.login(ctx); err != nil {
			it.warnings = append(it.warnings, err)
		}
	} else {
		wait := it.walker.pageDelay
		if it.backoff > wait {
			wait = it.backoff
		}
		if err := it.walker.sleep(ctx, wait); err != nil {
			it.fail(err)
			return false
		}
	}

	posts, hasMore, backoff, err := it.fetch(ctx)
	it.fetched++
	if err != nil {
		it.fail(err)
		return false
	}
	it.page = posts
	it.backoff = backoff
	if !hasMore {
		it.done = true
	}
	Logger.Log.WithFields(logrus.Fields{"subject": it.subject, "page": it.fetched, "posts": len(posts)}).
		Debug("fetched feed page")
	return true
}

func (it *PostIterator) fail(err error) {
	it.done = true
	it.page = nil
	it.err = model.NewImportError(model.FeedFetchFailed, it.subject, err)
	Logger.Log.WithFields(logrus.Fields{"subject": it.subject, "page": it.fetched}).
		Errorln("fail to fetch feed page:", err)
}

// Page returns the posts of the page fetched by the last successful Next.
func (it *PostIterator) Page() []model.RawPost {
	return it.page
}

// Err is the FeedFetchFailed error that ended the sequence, nil if it ended
// normally.
func (it *PostIterator) Err() error {
	return it.err
}

// Warnings are non fatal errors hit during the walk, e.g. AuthFailed.
func (it *PostIterator) Warnings() []error {
	return it.warnings
}

func (it *PostIterator) PagesFetched() int {
	return it.fetched
}

// ProfilePosts walks a profile feed until the source has no more pages.
func (w *FeedWalker) ProfilePosts(handle string) *PostIterator {
	var current *clients.ProfilePage
	return &PostIterator{
		walker:  w,
		subject: handle,
		fetch: func(ctx context.Context) ([]model.RawPost, bool, time.Duration, error) {
			var (
				page *clients.ProfilePage
				err  error
			)
			if current == nil {
				page, err = w.source.GetProfile(ctx, handle)
			} else {
				page, err = w.source.GetMoreMedias(ctx, current)
			}
			if err != nil {
				return nil, false, 0, err
			}
			current = page
			return page.Medias, page.HasMore, page.Backoff, nil
		},
	}
}

// HashtagPosts walks a hashtag feed for at most maxPages page fetches,
// unbounded when maxPages <= 0.
func (w *FeedWalker) HashtagPosts(tag string, maxPages int) *PostIterator {
	var (
		started bool
		cursor  string
	)
	return &PostIterator{
		walker:   w,
		subject:  tag,
		maxPages: maxPages,
		fetch: func(ctx context.Context) ([]model.RawPost, bool, time.Duration, error) {
			var (
				page *clients.HashtagPage
				err  error
			)
			if !started {
				page, err = w.source.GetHashtag(ctx, tag)
			} else {
				page, err = w.source.GetMoreHashtagMedias(ctx, tag, cursor)
			}
			if err != nil {
				return nil, false, 0, err
			}
			started = true
			cursor = page.EndCursor
			return page.Medias, page.HasMore && cursor != "", page.Backoff, nil
		},
	}
}

// Posts dispatches on kind. maxPages only applies to hashtag feeds.
func (w *FeedWalker) Posts(kind model.FetchKind, target string, maxPages int) *PostIterator {
	if kind == model.FetchKindHashtag {
		return w.HashtagPosts(target, maxPages)
	}
	return w.ProfilePosts(target)
}

// Collect drains it and returns every post pulled, in feed order, together
// with the error that ended the walk. Posts fetched before an error are kept.
func Collect(ctx context.Context, it *PostIterator) ([]model.RawPost, error) {
	posts := []model.RawPost{}
	for it.Next(ctx) {
		posts = append(posts, it.Page()...)
	}
	return posts, it.Err()
}
