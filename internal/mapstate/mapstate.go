// Package mapstate derives the live map presentation from activity change
// events: which trip is displayed and whether a route overlay is drawn.
// Events for trips other than the displayed one are ignored outright.
package mapstate

import (
	"context"
	"log"
	"sync"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/route"
	"backend-staysafe/internal/shared/geo"
	"backend-staysafe/internal/store"
)

// Snapshot is the current presentation: the shown trip, if any, and its
// route overlay, if one is drawn.
type Snapshot struct {
	Activity *activity.Activity
	Route    *route.Route
}

type Reconciler struct {
	st  store.Store
	eta *route.Engine

	mu      sync.Mutex
	shown   *activity.Activity
	overlay *route.Route
	origin  geo.Point
	dest    geo.Point
	hasEnds bool
}

func New(st store.Store, eta *route.Engine) *Reconciler {
	return &Reconciler{st: st, eta: eta}
}

// Show makes the trip the displayed one, resolving its endpoints for later
// route recomputes. A trip already underway gets its overlay immediately.
func (r *Reconciler) Show(ctx context.Context, act activity.Activity) error {
	from, err := r.st.GetLocation(ctx, act.FromID)
	if err != nil {
		return err
	}
	to, err := r.st.GetLocation(ctx, act.ToID)
	if err != nil {
		return err
	}

	origin := geo.Point{Lat: from.Latitude, Lng: from.Longitude}
	dest := geo.Point{Lat: to.Latitude, Lng: to.Longitude}

	var overlay *route.Route
	if act.HasStarted() {
		overlay = r.computeOverlay(ctx, act, origin, dest)
	}

	r.mu.Lock()
	shown := act
	r.shown = &shown
	r.overlay = overlay
	r.origin = origin
	r.dest = dest
	r.hasEnds = true
	r.mu.Unlock()
	return nil
}

// Apply reconciles one activity change event into the presentation.
func (r *Reconciler) Apply(ctx context.Context, event activity.Activity) {
	r.mu.Lock()
	if r.shown == nil || r.shown.ID != event.ID {
		r.mu.Unlock()
		return
	}
	origin, dest, hasEnds := r.origin, r.dest, r.hasEnds
	r.mu.Unlock()

	var overlay *route.Route
	if event.HasStarted() && hasEnds {
		overlay = r.computeOverlay(ctx, event, origin, dest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// the displayed trip may have changed while the route was computing
	if r.shown == nil || r.shown.ID != event.ID {
		return
	}
	if event.IsTerminated() {
		r.shown = nil
		r.overlay = nil
		r.hasEnds = false
		return
	}
	shown := event
	r.shown = &shown
	r.overlay = overlay
}

// Clear drops the displayed trip.
func (r *Reconciler) Clear() {
	r.mu.Lock()
	r.shown = nil
	r.overlay = nil
	r.hasEnds = false
	r.mu.Unlock()
}

// Snapshot returns a copy of the current presentation.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var snap Snapshot
	if r.shown != nil {
		shown := *r.shown
		snap.Activity = &shown
	}
	if r.overlay != nil {
		overlay := *r.overlay
		snap.Route = &overlay
	}
	return snap
}

func (r *Reconciler) computeOverlay(ctx context.Context, act activity.Activity, origin, dest geo.Point) *route.Route {
	if r.eta == nil {
		return nil
	}
	mode := activity.ModeFromDescription(act.Description)
	rt, err := r.eta.ComputeETA(ctx, origin, dest, mode)
	if err != nil {
		log.Printf("mapstate: route overlay for activity %d: %v", act.ID, err)
		return nil
	}
	return &rt
}
