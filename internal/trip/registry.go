package trip

import (
	"context"
	"strconv"
	"sync"

	"backend-staysafe/internal/store"
)

// Registry hands out one controller per (activity, principal) pair so that
// concurrent requests for the same trip share in-flight guards.
type Registry struct {
	st     store.Store
	track  Tracking
	events Publisher

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewRegistry(st store.Store, track Tracking, events Publisher) *Registry {
	return &Registry{
		st:          st,
		track:       track,
		events:      events,
		controllers: map[string]*Controller{},
	}
}

// Acquire returns the controller for the activity, loading the record on
// first use.
func (r *Registry) Acquire(ctx context.Context, activityID, principal int) (*Controller, error) {
	key := registryKey(activityID, principal)

	r.mu.Lock()
	if c, ok := r.controllers[key]; ok {
		r.mu.Unlock()
		return c, nil
	}
	r.mu.Unlock()

	act, err := r.st.GetActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// a concurrent Acquire may have won the race
	if c, ok := r.controllers[key]; ok {
		return c, nil
	}
	c := NewController(act, principal, r.st, r.track, r.events)
	r.controllers[key] = c
	return c, nil
}

// Release drops the controller and lets it clean up its tracking session.
func (r *Registry) Release(activityID, principal int) {
	key := registryKey(activityID, principal)

	r.mu.Lock()
	c, ok := r.controllers[key]
	delete(r.controllers, key)
	r.mu.Unlock()

	if ok {
		c.Cleanup()
	}
}

func registryKey(activityID, principal int) string {
	return strconv.Itoa(activityID) + ":" + strconv.Itoa(principal)
}
