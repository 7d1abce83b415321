package server

import (
	"sync"
	"time"

	"github.com/Luismorlan/instag/model"
	"github.com/pkg/errors"
)

// DefaultFinishedBatchTTL is how long a finished batch stays readable.
const DefaultFinishedBatchTTL = 30 * time.Minute

var (
	ErrBatchNotFound = errors.New("batch not found")
	ErrBatchBusy     = errors.New("batch is being stepped")
)

// BatchRegistry holds the state of batches started through the API between
// steps. A batch can only be stepped by one request at a time. Finished
// batches are evicted once they are older than the TTL.
type BatchRegistry struct {
	mu      sync.Mutex
	batches map[string]model.BatchState
	busy    map[string]bool

	ttl time.Duration
	now func() time.Time
}

func NewBatchRegistry() *BatchRegistry {
	return NewBatchRegistryWithTTL(DefaultFinishedBatchTTL, time.Now)
}

func NewBatchRegistryWithTTL(ttl time.Duration, now func() time.Time) *BatchRegistry {
	return &BatchRegistry{
		batches: map[string]model.BatchState{},
		busy:    map[string]bool{},
		ttl:     ttl,
		now:     now,
	}
}

func (r *BatchRegistry) Put(state model.BatchState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictExpired()
	r.store(state)
}

func (r *BatchRegistry) Get(id string) (model.BatchState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictExpired()
	state, ok := r.batches[id]
	if !ok {
		return model.BatchState{}, ErrBatchNotFound
	}
	return state, nil
}

// Checkout returns the batch and marks it busy until Return is called.
func (r *BatchRegistry) Checkout(id string) (model.BatchState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictExpired()
	state, ok := r.batches[id]
	if !ok {
		return model.BatchState{}, ErrBatchNotFound
	}
	if r.busy[id] {
		return model.BatchState{}, ErrBatchBusy
	}
	r.busy[id] = true
	return state, nil
}

func (r *BatchRegistry) Return(state model.BatchState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(state)
	delete(r.busy, state.Id)
}

func (r *BatchRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictExpired()
	return len(r.batches)
}

// store keeps a finished batch without its fetched posts.
func (r *BatchRegistry) store(state model.BatchState) {
	if state.IsFinished() {
		state.SetPosts(nil)
	}
	r.batches[state.Id] = state
}

// evictExpired must be called with mu held. Busy batches are never evicted.
func (r *BatchRegistry) evictExpired() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for id, state := range r.batches {
		if !state.IsFinished() || state.FinishedAt == nil || r.busy[id] {
			continue
		}
		if state.FinishedAt.Before(cutoff) {
			delete(r.batches, id)
		}
	}
}
