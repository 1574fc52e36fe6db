package mapstate

import (
	"context"
	"sync"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/route"
	"backend-staysafe/internal/store"
)

// Registry keeps one map view per user and feeds activity change events
// into the right one. It satisfies the event publisher contract so it can
// sit alongside the stream hub on the publish path.
type Registry struct {
	st  store.Store
	eta *route.Engine

	mu    sync.Mutex
	views map[int]*Reconciler
}

func NewRegistry(st store.Store, eta *route.Engine) *Registry {
	return &Registry{st: st, eta: eta, views: map[int]*Reconciler{}}
}

// For returns the user's view, creating it on first use.
func (r *Registry) For(userID int) *Reconciler {
	r.mu.Lock()
	defer r.mu.Unlock()
	view, ok := r.views[userID]
	if !ok {
		view = New(r.st, r.eta)
		r.views[userID] = view
	}
	return view
}

// Publish routes an activity change event to its owner's view.
func (r *Registry) Publish(act activity.Activity) {
	r.For(act.UserID).Apply(context.Background(), act)
}
