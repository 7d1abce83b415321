package importer

import (
	"context"
	"strings"
	"time"

	"github.com/Luismorlan/instag/cache"
	"github.com/Luismorlan/instag/collector"
	"github.com/Luismorlan/instag/model"
	"github.com/Luismorlan/instag/monitor"
	Logger "github.com/Luismorlan/instag/utils/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultChunkSize = 5
	MaxChunkSize     = 5
)

type BatchRequest struct {
	Kind   model.FetchKind
	Target string
	// items to process, all fetched posts when <= 0
	Limit int
	// page fetches for hashtag feeds, unbounded when <= 0
	MaxPages int
	// skip the cached post list and fetch again
	Refresh bool
}

type BatchRunnerOption func(*BatchRunner)

func WithCacheLifetime(d time.Duration) BatchRunnerOption {
	return func(r *BatchRunner) {
		if d > 0 {
			r.cacheLifetime = d
		}
	}
}

// WithChunkSize sets how many items a Step processes, clamped to 1..5.
func WithChunkSize(n int) BatchRunnerOption {
	return func(r *BatchRunner) {
		r.chunkSize = clampChunkSize(n)
	}
}

func WithEventPublisher(p monitor.EventPublisher) BatchRunnerOption {
	return func(r *BatchRunner) {
		r.publisher = p
	}
}

func WithClock(now func() time.Time) BatchRunnerOption {
	return func(r *BatchRunner) {
		r.now = now
	}
}

func clampChunkSize(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxChunkSize {
		return MaxChunkSize
	}
	return n
}

// BatchRunner drives an import as a resumable sequence of small steps. All
// progress lives in the model.BatchState passed in and returned by each call.
type BatchRunner struct {
	walker        *collector.FeedWalker
	cache         cache.PageCache
	engine        *UpsertEngine
	publisher     monitor.EventPublisher
	cacheLifetime time.Duration
	chunkSize     int
	now           func() time.Time
}

func NewBatchRunner(walker *collector.FeedWalker, pageCache cache.PageCache, engine *UpsertEngine, opts ...BatchRunnerOption) *BatchRunner {
	r := &BatchRunner{
		walker:        walker,
		cache:         pageCache,
		engine:        engine,
		cacheLifetime: cache.DefaultCacheLifetime,
		chunkSize:     DefaultChunkSize,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start fetches the post list, from cache when possible, and returns the
// batch in Processing state, or Finished when there is nothing to process or
// no post could be fetched.
func (r *BatchRunner) Start(ctx context.Context, req BatchRequest) (model.BatchState, error) {
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return model.BatchState{}, errors.New("batch target is empty")
	}

	state := model.BatchState{
		Id:        uuid.New().String(),
		Kind:      req.Kind,
		Target:    target,
		CacheKey:  cache.CacheKey(req.Kind, target),
		Limit:     req.Limit,
		MaxPages:  req.MaxPages,
		Status:    model.BatchNotStarted,
		Messages:  []model.BatchMessage{},
		StartedAt: r.now(),
	}
	logger := Logger.Log.WithFields(logrus.Fields{"batch": state.Id, "kind": state.Kind.String(), "target": target})

	state.Status = model.BatchFetching
	posts, err := r.fetch(ctx, &state, !req.Refresh)
	if err != nil && len(posts) == 0 {
		logger.Errorln("fail to fetch posts:", err)
		state.AddMessage(model.MessageError, "Unable to fetch posts for %s %s: %s", state.Kind, target, err)
		state.Finish(false, r.now())
		return state, nil
	}
	if err != nil {
		logger.Warnln("fetched partial post list:", err)
		state.AddMessage(model.MessageWarning, "Only %d posts could be fetched for %s %s: %s", len(posts), state.Kind, target, err)
	}

	state.SetPosts(posts)
	state.Max = len(posts)
	if req.Limit > 0 && req.Limit < state.Max {
		state.Max = req.Limit
	}
	state.Progress = 0
	state.Status = model.BatchProcessing
	logger.Infof("batch started with %d of %d fetched posts", state.Max, len(posts))

	if state.Max == 0 {
		state.AddMessage(model.MessageInfo, "No posts found for %s %s.", state.Kind, target)
		state.Finish(true, r.now())
	}
	return state, nil
}

// fetch returns the post list of state's target. Only complete walks are
// cached.
func (r *BatchRunner) fetch(ctx context.Context, state *model.BatchState, useCache bool) ([]model.RawPost, error) {
	if useCache {
		cached, found, err := r.cache.Get(ctx, state.CacheKey)
		if err != nil {
			Logger.Log.WithFields(logrus.Fields{"key": state.CacheKey}).Warnln("page cache read failed:", err)
		} else if found {
			return cached, nil
		}
	}

	it := r.walker.Posts(state.Kind, state.Target, state.MaxPages)
	posts, err := collector.Collect(ctx, it)
	for _, warning := range it.Warnings() {
		state.AddMessage(model.MessageWarning, "%s", warning)
	}
	if err != nil {
		return posts, err
	}

	if err := r.cache.Set(ctx, state.CacheKey, posts, r.cacheLifetime); err != nil {
		Logger.Log.WithFields(logrus.Fields{"key": state.CacheKey}).Warnln("page cache write failed:", err)
	}
	return posts, nil
}

// postsFor returns the post list of a processing batch: the list fetched by
// this process, else the cached one, else a new fetch.
func (r *BatchRunner) postsFor(ctx context.Context, state *model.BatchState) ([]model.RawPost, error) {
	if posts := state.Posts(); posts != nil {
		return posts, nil
	}
	posts, err := r.fetch(ctx, state, true)
	if err != nil && len(posts) == 0 {
		return nil, err
	}
	state.SetPosts(posts)
	return posts, nil
}

// Step processes the next chunk of items. A failing item is recorded and
// skipped, it never fails the batch. The returned error is only set when the
// step could not run at all; the returned state is consistent either way.
func (r *BatchRunner) Step(ctx context.Context, state model.BatchState) (model.BatchState, error) {
	if state.IsFinished() {
		return state, nil
	}
	if state.Status != model.BatchProcessing {
		return state, errors.Errorf("batch %s is %s, not processing", state.Id, state.Status)
	}

	posts, err := r.postsFor(ctx, &state)
	if err != nil {
		return state, errors.Wrap(err, "fail to load posts of batch "+state.Id)
	}
	if state.Max > len(posts) {
		state.AddMessage(model.MessageWarning, "Post list shrank from %d to %d posts.", state.Max, len(posts))
		state.Max = len(posts)
	}

	end := state.Progress + r.chunkSize
	if end > state.Max {
		end = state.Max
	}
	for state.Progress < end {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		raw := posts[state.Progress]
		r.processItem(ctx, &state, raw)
		state.Progress++
		state.LastExternalId = raw.Id
	}

	if state.Progress >= state.Max {
		state.AddMessage(model.MessageInfo, "The import has completed successfully: %d created, %d updated, %d failed.",
			state.Imported, state.Updated, state.Failed)
		state.Finish(true, r.now())
		Logger.Log.WithFields(logrus.Fields{
			"batch": state.Id, "created": state.Imported, "updated": state.Updated, "failed": state.Failed,
		}).Info("batch finished")
	}
	return state, nil
}

func (r *BatchRunner) processItem(ctx context.Context, state *model.BatchState, raw model.RawPost) {
	fallbackOwner := ""
	if state.Kind == model.FetchKindProfile {
		fallbackOwner = state.Target
	}
	event := monitor.ItemEvent{
		BatchId:    state.Id,
		Kind:       state.Kind.String(),
		Target:     state.Target,
		ExternalId: raw.Id,
		At:         r.now(),
	}

	res, err := r.engine.Import(ctx, raw, fallbackOwner)
	switch {
	case err != nil:
		state.Failed++
		state.AddMessage(model.MessageError, "Error importing post %s: %s", raw.Id, err)
		Logger.Log.WithFields(logrus.Fields{"batch": state.Id, "external_id": raw.Id}).Errorln("fail to import post:", err)
		event.Outcome = monitor.OutcomeFailed
	case res.Created:
		state.Imported++
		state.AddMessage(model.MessageInfo, "Imported post %s", raw.Id)
		event.Outcome = monitor.OutcomeCreated
	default:
		state.Updated++
		state.AddMessage(model.MessageInfo, "Updated post %s", raw.Id)
		event.Outcome = monitor.OutcomeUpdated
	}
	if res != nil {
		for _, warning := range res.Warnings {
			state.AddMessage(model.MessageWarning, "Post %s: %s", raw.Id, warning)
		}
		event.Warnings = len(res.Warnings)
	}

	if r.publisher != nil {
		if err := r.publisher.PublishItemEvent(ctx, event); err != nil {
			Logger.Log.Warnln("fail to publish item event:", err)
		}
	}
}

// Run drives a batch from Start to Finished. onStep, when set, is called
// after every step. A batch whose fetch failed returns a FeedFetchFailed error.
func (r *BatchRunner) Run(ctx context.Context, req BatchRequest, onStep func(model.BatchState)) (model.BatchState, error) {
	state, err := r.Start(ctx, req)
	if err != nil {
		return state, err
	}
	for !state.IsFinished() {
		if state, err = r.Step(ctx, state); err != nil {
			return state, err
		}
		if onStep != nil {
			onStep(state)
		}
	}
	if !state.Success {
		return state, model.NewImportError(model.FeedFetchFailed, state.Target, errors.New(lastMessage(state)))
	}
	return state, nil
}

func lastMessage(state model.BatchState) string {
	if len(state.Messages) == 0 {
		return "batch failed"
	}
	return state.Messages[len(state.Messages)-1].Text
}
