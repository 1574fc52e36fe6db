// Package route computes travel estimates against an external directions
// provider and decides when a recomputed ETA is worth persisting.
package route

import (
	"context"
	"errors"
	"time"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/shared/geo"
)

const (
	// ArrivalCutoffM is the distance to the destination below which the trip
	// counts as arrived and ETA recomputes stop.
	ArrivalCutoffM = 100.0
	// DriftGate is the minimum difference between the stored and recomputed
	// arrival time before an update is persisted.
	DriftGate = 60 * time.Second
)

var ErrRouteUnavailable = errors.New("no route found")

// Route is one result from the directions provider.
type Route struct {
	Duration time.Duration
	Polyline string
}

// Directions is the external provider contract.
type Directions interface {
	Route(ctx context.Context, origin, dest geo.Point, mode activity.TransportMode) (Route, error)
}

type Engine struct {
	dir Directions
	now func() time.Time
}

func NewEngine(dir Directions) *Engine {
	return &Engine{dir: dir, now: time.Now}
}

// ComputeETA asks the provider for a route between two coordinates.
func (e *Engine) ComputeETA(ctx context.Context, origin, dest geo.Point, mode activity.TransportMode) (Route, error) {
	return e.dir.Route(ctx, origin, dest, mode)
}

// MaybeUpdateETA recomputes the activity's arrival time from newOrigin and
// reports whether the result should be persisted. The recomputation is
// skipped near the destination, and discarded when it drifts less than the
// gate from the currently stored arrival time.
func (e *Engine) MaybeUpdateETA(ctx context.Context, act activity.Activity, newOrigin, dest geo.Point) (activity.Activity, bool, error) {
	if geo.DistanceM(newOrigin, dest) < ArrivalCutoffM {
		return act, false, nil
	}

	mode := activity.ModeFromDescription(act.Description)
	r, err := e.dir.Route(ctx, newOrigin, dest, mode)
	if err != nil {
		return act, false, err
	}

	newArrival := e.now().Add(r.Duration)

	stored, err := activity.ParseTime(act.Arrive)
	if err != nil {
		// No parsable stored ETA to compare against; leave the record alone.
		return act, false, nil
	}

	drift := stored.Sub(newArrival)
	if drift < 0 {
		drift = -drift
	}
	if drift < DriftGate {
		return act, false, nil
	}

	act.Arrive = activity.FormatTime(newArrival)
	return act, true, nil
}
