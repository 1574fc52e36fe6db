// Package trip orchestrates the lifecycle of a single journey: planning,
// status control, live refresh and the handoff to position tracking.
package trip

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/store"
)

var (
	// ErrInFlight means the same control operation is already running for
	// this trip.
	ErrInFlight = errors.New("operation already in flight")
	// ErrNotOwner means the caller does not own the activity.
	ErrNotOwner = errors.New("activity does not belong to caller")
)

// Tracking is the slice of the tracker the trip layer drives.
type Tracking interface {
	Start(activityID int)
	StartActivity(ctx context.Context, act activity.Activity) (activity.Activity, error)
	PauseActivity(ctx context.Context, act activity.Activity) (activity.Activity, error)
	EndActivity(ctx context.Context, act activity.Activity, status activity.Status) (activity.Activity, error)
	Stop()
}

// Publisher receives every persisted activity change.
type Publisher interface {
	Publish(act activity.Activity)
}

// Controller manages one activity on behalf of one principal. Each control
// operation validates the transition against the current ordinal before any
// I/O and refuses to run twice concurrently.
type Controller struct {
	st        store.Store
	track     Tracking
	events    Publisher
	principal int

	mu        sync.Mutex
	act       activity.Activity
	positions []activity.Position
	ending    bool
	pausing   bool
	resuming  bool
}

func NewController(act activity.Activity, principal int, st store.Store, track Tracking, events Publisher) *Controller {
	return &Controller{
		st:        st,
		track:     track,
		events:    events,
		principal: principal,
		act:       act,
	}
}

// Activity returns the controller's view of the trip.
func (c *Controller) Activity() activity.Activity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.act
}

// Positions returns the samples from the last Refresh.
func (c *Controller) Positions() []activity.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positions
}

// Start moves a planned trip to Started and begins tracking.
func (c *Controller) Start(ctx context.Context) (activity.Activity, error) {
	if err := c.begin(&c.resuming); err != nil {
		return activity.Activity{}, err
	}
	defer c.clear(&c.resuming)

	act, err := c.snapshotFor(activity.Started)
	if err != nil {
		return activity.Activity{}, err
	}

	updated, err := c.track.StartActivity(ctx, act)
	if err != nil {
		return activity.Activity{}, err
	}
	c.setActivity(updated)
	c.publish(updated)
	return updated, nil
}

// Pause suspends a started trip and stops tracking. The stored record keeps
// its positions; resuming later starts a fresh tracking session.
func (c *Controller) Pause(ctx context.Context) (activity.Activity, error) {
	if err := c.begin(&c.pausing); err != nil {
		return activity.Activity{}, err
	}
	defer c.clear(&c.pausing)

	act, err := c.snapshotFor(activity.Paused)
	if err != nil {
		return activity.Activity{}, err
	}

	updated, err := c.track.PauseActivity(ctx, act)
	if err != nil {
		return activity.Activity{}, err
	}
	c.setActivity(updated)
	c.publish(updated)
	return updated, nil
}

// Resume restarts a paused trip and reconciles the rest of the user's
// activities: any other trip still marked Started is paused, since only one
// trip may track at a time. It returns the trips it paused along the way.
func (c *Controller) Resume(ctx context.Context) ([]activity.Activity, error) {
	if err := c.begin(&c.resuming); err != nil {
		return nil, err
	}
	defer c.clear(&c.resuming)

	act, err := c.snapshotFor(activity.Started)
	if err != nil {
		return nil, err
	}

	all, err := c.st.ListUserActivities(ctx, c.principal)
	if err != nil {
		return nil, err
	}

	updated, err := c.track.StartActivity(ctx, act)
	if err != nil {
		return nil, err
	}
	c.setActivity(updated)
	c.publish(updated)

	var affected []activity.Activity
	for _, other := range all {
		if other.ID == updated.ID || !other.HasStarted() {
			continue
		}
		other.SetStatus(activity.Paused)
		persisted, err := c.st.UpdateActivity(ctx, other)
		if err != nil {
			// leave the stray trip alone; the next resume reconciles again
			continue
		}
		c.publish(persisted)
		affected = append(affected, persisted)
	}
	return affected, nil
}

// Cancel abandons the trip from any non-terminal state.
func (c *Controller) Cancel(ctx context.Context) (activity.Activity, error) {
	return c.end(ctx, activity.Cancelled)
}

// Close completes a trip that is underway or paused.
func (c *Controller) Close(ctx context.Context) (activity.Activity, error) {
	return c.end(ctx, activity.Completed)
}

func (c *Controller) end(ctx context.Context, status activity.Status) (activity.Activity, error) {
	if err := c.begin(&c.ending); err != nil {
		return activity.Activity{}, err
	}
	defer c.clear(&c.ending)

	act, err := c.snapshotFor(status)
	if err != nil {
		return activity.Activity{}, err
	}

	updated, err := c.track.EndActivity(ctx, act, status)
	if err != nil {
		return activity.Activity{}, err
	}
	c.setActivity(updated)
	c.publish(updated)
	return updated, nil
}

// Refresh re-reads the activity and its position history from the store.
func (c *Controller) Refresh(ctx context.Context) (activity.Activity, []activity.Position, error) {
	c.mu.Lock()
	id := c.act.ID
	c.mu.Unlock()

	act, err := c.st.GetActivity(ctx, id)
	if err != nil {
		return activity.Activity{}, nil, err
	}
	positions, err := c.st.ListPositions(ctx, id)
	if err != nil {
		return activity.Activity{}, nil, err
	}

	c.mu.Lock()
	c.act = act
	c.positions = positions
	c.mu.Unlock()
	return act, positions, nil
}

// Cleanup releases the tracking session held on behalf of this controller.
// The stored record is left as-is.
func (c *Controller) Cleanup() {
	c.mu.Lock()
	act := c.act
	c.mu.Unlock()

	if act.UserID == c.principal && (act.HasStarted() || act.IsPaused()) {
		c.track.Stop()
	}
}

func (c *Controller) begin(flag *bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if *flag {
		return ErrInFlight
	}
	*flag = true
	return nil
}

func (c *Controller) clear(flag *bool) {
	c.mu.Lock()
	*flag = false
	c.mu.Unlock()
}

// snapshotFor checks ownership and that the transition is legal, returning a
// copy of the activity to operate on.
func (c *Controller) snapshotFor(target activity.Status) (activity.Activity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.act.UserID != c.principal {
		return activity.Activity{}, ErrNotOwner
	}
	if !c.act.StatusID.CanTransitionTo(target) {
		return activity.Activity{}, fmt.Errorf("%w: %s to %s",
			activity.ErrInvalidTransition, c.act.StatusID.Name(), target.Name())
	}
	return c.act, nil
}

func (c *Controller) setActivity(act activity.Activity) {
	c.mu.Lock()
	c.act = act
	c.mu.Unlock()
}

func (c *Controller) publish(act activity.Activity) {
	if c.events != nil {
		c.events.Publish(act)
	}
}
