package importer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Luismorlan/instag/cache"
	"github.com/Luismorlan/instag/model"
	"github.com/Luismorlan/instag/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchTenItemsChunkOneWithTwoFailures(t *testing.T) {
	env := newTestEnv(t, WithChunkSize(1))
	env.source.ProfilePages["natgeo"] = [][]model.RawPost{env.imagePosts("p", 6), env.imagePosts("q", 4)}
	env.store.CreatePostErrs["p2"] = errors.New("constraint violation")
	env.store.CreatePostErrs["q1"] = errors.New("constraint violation")
	ctx := context.Background()

	state, err := env.runner.Start(ctx, BatchRequest{Kind: model.FetchKindProfile, Target: "natgeo", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, model.BatchProcessing, state.Status)
	assert.Equal(t, 10, state.Max)
	assert.Equal(t, 0, state.Progress)

	steps := 0
	for !state.IsFinished() {
		state, err = env.runner.Step(ctx, state)
		require.NoError(t, err)
		steps++
		assert.Equal(t, steps, state.Progress)
		assert.InDelta(t, float64(steps)/10, state.Fraction(), 1e-9)
	}

	assert.Equal(t, 10, steps)
	assert.True(t, state.Success)
	assert.Equal(t, 8, state.Imported)
	assert.Equal(t, 2, state.Failed)
	assert.Equal(t, "q3", state.LastExternalId)
	assert.NotNil(t, state.FinishedAt)

	errorMessages := 0
	for _, msg := range state.Messages {
		if msg.Level == model.MessageError {
			errorMessages++
		}
	}
	assert.Equal(t, 2, errorMessages)
	assert.Len(t, env.events.outcomes(), 10)
	assert.Equal(t, monitor.OutcomeFailed, env.events.outcomes()[2])
}

func TestBatchRespectsLimitAndChunkSize(t *testing.T) {
	env := newTestEnv(t, WithChunkSize(3))
	env.source.ProfilePages["natgeo"] = [][]model.RawPost{env.imagePosts("p", 7)}
	ctx := context.Background()

	state, err := env.runner.Start(ctx, BatchRequest{Kind: model.FetchKindProfile, Target: "natgeo", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, state.Max)

	state, err = env.runner.Step(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Progress)
	assert.False(t, state.IsFinished())

	state, err = env.runner.Step(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, 5, state.Progress)
	assert.True(t, state.IsFinished())
	assert.Equal(t, 5, state.Imported)

	// finished batches are left alone
	again, err := env.runner.Step(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, state.Progress, again.Progress)
}

func TestChunkSizeIsClamped(t *testing.T) {
	assert.Equal(t, 1, NewBatchRunner(nil, nil, nil, WithChunkSize(0)).chunkSize)
	assert.Equal(t, 5, NewBatchRunner(nil, nil, nil, WithChunkSize(50)).chunkSize)
	assert.Equal(t, DefaultChunkSize, NewBatchRunner(nil, nil, nil).chunkSize)
}

func TestBatchFetchFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	env.source.PageErrs[0] = errors.New("503 service unavailable")

	state, err := env.runner.Run(context.Background(), BatchRequest{Kind: model.FetchKindHashtag, Target: "sunset", MaxPages: 3}, nil)

	require.Error(t, err)
	assert.True(t, model.IsImportErrorKind(err, model.FeedFetchFailed))
	assert.True(t, state.IsFinished())
	assert.False(t, state.Success)
	assert.Equal(t, 0, state.Max)
	require.NotEmpty(t, state.Messages)
	assert.Equal(t, model.MessageError, state.Messages[len(state.Messages)-1].Level)
	assert.Empty(t, env.cache.Entries, "failed fetches are not cached")
}

func TestBatchPartialFetchStillImports(t *testing.T) {
	env := newTestEnv(t)
	env.source.ProfilePages["natgeo"] = [][]model.RawPost{env.imagePosts("p", 2), env.imagePosts("q", 2)}
	env.source.PageErrs[1] = errors.New("connection reset")

	state, err := env.runner.Run(context.Background(), BatchRequest{Kind: model.FetchKindProfile, Target: "natgeo"}, nil)

	require.NoError(t, err)
	assert.True(t, state.Success)
	assert.Equal(t, 2, state.Imported)
	assert.Equal(t, model.MessageWarning, state.Messages[0].Level)
	assert.Empty(t, env.cache.Entries)
}

func TestBatchEmptyFeedFinishesImmediately(t *testing.T) {
	env := newTestEnv(t)
	env.source.HashtagPages["nothing"] = [][]model.RawPost{{}}

	state, err := env.runner.Start(context.Background(), BatchRequest{Kind: model.FetchKindHashtag, Target: "nothing"})
	require.NoError(t, err)
	assert.True(t, state.IsFinished())
	assert.True(t, state.Success)
	assert.Equal(t, float64(1), state.Fraction())
}

func TestBatchRejectsEmptyTarget(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.runner.Start(context.Background(), BatchRequest{Kind: model.FetchKindProfile, Target: "  "})
	assert.Error(t, err)
}

func TestBatchReusesCachedPostList(t *testing.T) {
	env := newTestEnv(t, WithCacheLifetime(30*time.Minute))
	env.source.ProfilePages["natgeo"] = [][]model.RawPost{env.imagePosts("p", 2), env.imagePosts("q", 2)}
	ctx := context.Background()

	first, err := env.runner.Start(ctx, BatchRequest{Kind: model.FetchKindProfile, Target: "natgeo"})
	require.NoError(t, err)
	assert.Equal(t, 2, env.source.PageFetches)
	key := cache.CacheKey(model.FetchKindProfile, "natgeo")
	assert.Equal(t, 30*time.Minute, env.cache.TTLs[key])
	assert.Len(t, env.cache.Entries[key], 4)

	second, err := env.runner.Start(ctx, BatchRequest{Kind: model.FetchKindProfile, Target: "natgeo"})
	require.NoError(t, err)
	assert.Equal(t, 2, env.source.PageFetches, "second batch reads the cache")
	assert.NotEqual(t, first.Id, second.Id)
	assert.Equal(t, 4, second.Max)

	_, err = env.runner.Start(ctx, BatchRequest{Kind: model.FetchKindProfile, Target: "natgeo", Refresh: true})
	require.NoError(t, err)
	assert.Equal(t, 4, env.source.PageFetches)

	// same target, other kind, other key
	env.source.HashtagPages["natgeo"] = [][]model.RawPost{env.imagePosts("h", 1)}
	tagState, err := env.runner.Start(ctx, BatchRequest{Kind: model.FetchKindHashtag, Target: "natgeo"})
	require.NoError(t, err)
	assert.Equal(t, 1, tagState.Max)
}

func TestBatchResumesFromSerializedState(t *testing.T) {
	env := newTestEnv(t, WithChunkSize(2))
	env.source.ProfilePages["natgeo"] = [][]model.RawPost{env.imagePosts("p", 4)}
	ctx := context.Background()

	state, err := env.runner.Start(ctx, BatchRequest{Kind: model.FetchKindProfile, Target: "natgeo"})
	require.NoError(t, err)
	state, err = env.runner.Step(ctx, state)
	require.NoError(t, err)

	data, err := json.Marshal(state)
	require.NoError(t, err)
	var resumed model.BatchState
	require.NoError(t, json.Unmarshal(data, &resumed))

	resumed, err = env.runner.Step(ctx, resumed)
	require.NoError(t, err)
	assert.True(t, resumed.IsFinished())
	assert.Equal(t, 4, resumed.Imported)
	assert.Equal(t, 1, env.source.PageFetches, "resumed step reads the cached list")
}

func TestBatchStepRequiresProcessingState(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.runner.Step(context.Background(), model.BatchState{Id: "x", Status: model.BatchNotStarted})
	assert.Error(t, err)
}

func TestBatchStopsBetweenItemsWhenCancelled(t *testing.T) {
	env := newTestEnv(t)
	env.source.ProfilePages["natgeo"] = [][]model.RawPost{env.imagePosts("p", 3)}

	state, err := env.runner.Start(context.Background(), BatchRequest{Kind: model.FetchKindProfile, Target: "natgeo"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state, err = env.runner.Step(ctx, state)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, state.Progress)
	assert.Equal(t, model.BatchProcessing, state.Status)
}

func TestBatchRecordsAuthFailureAndContinues(t *testing.T) {
	env := newTestEnv(t)
	env.source.LoginErr = errors.New("bad password")
	env.source.ProfilePages["natgeo"] = [][]model.RawPost{env.imagePosts("p", 1)}

	state, err := env.runner.Run(context.Background(), BatchRequest{Kind: model.FetchKindProfile, Target: "natgeo"}, nil)
	require.NoError(t, err)
	assert.True(t, state.Success)
	assert.Equal(t, 1, state.Imported)
	assert.Equal(t, model.MessageWarning, state.Messages[0].Level)
	assert.Contains(t, state.Messages[0].Text, string(model.AuthFailed))
}

func TestBatchReportsMediaWarnings(t *testing.T) {
	env := newTestEnv(t)
	post := env.imagePost("1")
	post.DisplayUrl = env.mediaUrl("/broken/1.jpg")
	env.source.ProfilePages["natgeo"] = [][]model.RawPost{{post}}

	state, err := env.runner.Run(context.Background(), BatchRequest{Kind: model.FetchKindProfile, Target: "natgeo"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Imported)
	assert.Equal(t, 0, state.Failed)

	warnings := 0
	for _, msg := range state.Messages {
		if msg.Level == model.MessageWarning {
			warnings++
			assert.Contains(t, msg.Text, string(model.MediaDownloadFailed))
		}
	}
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 1, env.events.events[0].Warnings)
}
