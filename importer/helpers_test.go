package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Luismorlan/instag/cache"
	"github.com/Luismorlan/instag/collector"
	"github.com/Luismorlan/instag/collector/clients"
	"github.com/Luismorlan/instag/collector/file_store"
	"github.com/Luismorlan/instag/model"
	"github.com/Luismorlan/instag/monitor"
	"github.com/Luismorlan/instag/store"
)

var testNow = time.Date(2021, 9, 14, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type testEnv struct {
	source *clients.FakeFeedSource
	store  *store.FakeEntityStore
	files  *file_store.FakeFileStore
	cache  *cache.FakePageCache
	events *recordingPublisher
	server *httptest.Server

	walker *collector.FeedWalker
	media  *collector.MediaResolver
	tags   *TagResolver
	engine *UpsertEngine
	runner *BatchRunner
}

// newTestEnv wires the pipeline on fakes. Media urls under /broken/ answer 500.
func newTestEnv(t *testing.T, opts ...BatchRunnerOption) *testEnv {
	env := &testEnv{
		source: clients.NewFakeFeedSource(),
		store:  store.NewFakeEntityStore(),
		files:  file_store.NewFakeFileStore(),
		cache:  cache.NewFakePageCache(),
		events: &recordingPublisher{},
	}
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/broken/") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("bytes of " + r.URL.Path))
	}))
	t.Cleanup(env.server.Close)

	env.walker = collector.NewFeedWalker(env.source, clients.Credentials{Username: "me", Password: "secret"}, 0)
	env.walker.SetSleepFunc(func(ctx context.Context, d time.Duration) error { return nil })
	env.media = collector.NewMediaResolver(env.source, clients.NewDefaultHttpClient(), env.files)
	env.media.SetClock(testClock)
	env.tags = NewTagResolver(env.store)
	env.engine = NewUpsertEngine(env.store, env.media, env.tags)
	env.engine.SetClock(testClock)

	opts = append([]BatchRunnerOption{WithClock(testClock), WithEventPublisher(env.events)}, opts...)
	env.runner = NewBatchRunner(env.walker, env.cache, env.engine, opts...)
	return env
}

func (env *testEnv) mediaUrl(path string) string {
	return env.server.URL + path
}

// imagePost is a single image post with two hashtags.
func (env *testEnv) imagePost(id string) model.RawPost {
	caption := "Post " + id + "! Great day #Sky #sky #evening"
	likes := int64(10)
	return model.RawPost{
		Id:         id,
		Shortcode:  "SC" + id,
		OwnerId:    "1001",
		Caption:    &caption,
		TakenAt:    testNow.Add(-time.Hour),
		Likes:      &likes,
		Type:       model.PostTypeImage,
		DisplayUrl: env.mediaUrl("/v/" + id + ".jpg"),
		Hashtags:   []string{"Sky", "sky", "evening"},
	}
}

func (env *testEnv) imagePosts(prefix string, n int) []model.RawPost {
	posts := []model.RawPost{}
	for i := 0; i < n; i++ {
		posts = append(posts, env.imagePost(prefix+strconv.Itoa(i)))
	}
	return posts
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []monitor.ItemEvent
}

func (p *recordingPublisher) PublishItemEvent(ctx context.Context, event monitor.ItemEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) outcomes() []monitor.ItemOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := []monitor.ItemOutcome{}
	for _, e := range p.events {
		res = append(res, e.Outcome)
	}
	return res
}
