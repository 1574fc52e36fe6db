// Package tracker runs the periodic position sampling loop for an active
// trip. At most one session runs at a time; starting a new one replaces the
// old, and updates still in flight from a replaced session are discarded.
package tracker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/location"
	"backend-staysafe/internal/metrics"
	"backend-staysafe/internal/route"
	"backend-staysafe/internal/shared/geo"
	"backend-staysafe/internal/store"

	"github.com/google/uuid"
)

const (
	// MovementThresholdM gates position recording; samples closer than this
	// to the last recorded point are dropped.
	MovementThresholdM = 100.0
	// DefaultInterval is the sampling cadence.
	DefaultInterval = 30 * time.Second
)

// Publisher receives the updated activity whenever the loop persists a
// change.
type Publisher interface {
	Publish(act activity.Activity)
}

// session is one tracking run, identified so that results from a replaced
// session can be told apart from the current one.
type session struct {
	id         string
	activityID int
	act        activity.Activity
	loaded     bool
	dest       geo.Point
	hasDest    bool
	last       *geo.Point
	stop       chan struct{}
	stopOnce   sync.Once
	permit     Token
}

type Tracker struct {
	store   store.Store
	source  location.Source
	eta     *route.Engine
	permit  Permit
	events  Publisher
	metrics *metrics.Collector

	// Interval is the tick cadence; override before Start.
	Interval time.Duration

	mu      sync.Mutex
	sess    *session
	lastErr error
}

func New(st store.Store, src location.Source, eng *route.Engine, permit Permit, events Publisher, m *metrics.Collector) *Tracker {
	if permit == nil {
		permit = NoopPermit{}
	}
	return &Tracker{
		store:    st,
		source:   src,
		eta:      eng,
		permit:   permit,
		events:   events,
		metrics:  m,
		Interval: DefaultInterval,
	}
}

// Start begins tracking the given activity, replacing any session already
// running. The first sample is recorded immediately regardless of movement.
func (t *Tracker) Start(activityID int) {
	sess := &session{
		id:         uuid.NewString(),
		activityID: activityID,
		stop:       make(chan struct{}),
	}
	sess.permit = t.permit.Begin(fmt.Sprintf("tracking-%d", activityID))

	t.mu.Lock()
	prev := t.sess
	t.sess = sess
	t.lastErr = nil
	t.mu.Unlock()

	if prev != nil {
		t.end(prev)
	}
	if t.metrics != nil {
		t.metrics.TrackingActive.Set(1)
	}
	go t.run(sess)
}

// Stop ends the current session. Safe to call when nothing is running.
func (t *Tracker) Stop() {
	t.mu.Lock()
	sess := t.sess
	t.sess = nil
	t.mu.Unlock()

	if sess == nil {
		return
	}
	t.end(sess)
	if t.metrics != nil {
		t.metrics.TrackingActive.Set(0)
	}
}

// Active reports whether a tracking session is currently running.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess != nil
}

// ActivityID returns the id of the activity being tracked, or 0 when idle.
func (t *Tracker) ActivityID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess == nil {
		return 0
	}
	return t.sess.activityID
}

// LastError returns the current session's standing tracking error, if any.
// It clears once the failing call succeeds on a later tick.
func (t *Tracker) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// StartActivity persists the Started status and begins the tracking loop.
func (t *Tracker) StartActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	act.SetStatus(activity.Started)
	updated, err := t.store.UpdateActivity(ctx, act)
	if err != nil {
		return activity.Activity{}, err
	}
	t.Start(updated.ID)
	return updated, nil
}

// PauseActivity persists the Paused status and stops the loop.
func (t *Tracker) PauseActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	act.SetStatus(activity.Paused)
	updated, err := t.store.UpdateActivity(ctx, act)
	if err != nil {
		return activity.Activity{}, err
	}
	t.Stop()
	return updated, nil
}

// EndActivity persists a terminal status and stops the loop.
func (t *Tracker) EndActivity(ctx context.Context, act activity.Activity, status activity.Status) (activity.Activity, error) {
	act.SetStatus(status)
	updated, err := t.store.UpdateActivity(ctx, act)
	if err != nil {
		return activity.Activity{}, err
	}
	t.Stop()
	return updated, nil
}

func (t *Tracker) end(sess *session) {
	sess.stopOnce.Do(func() {
		close(sess.stop)
		t.permit.End(sess.permit)
	})
}

func (t *Tracker) isCurrent(sess *session) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess == sess
}

// noteError records the error for callers to surface, or clears it.
func (t *Tracker) noteError(sess *session, err error) {
	t.mu.Lock()
	if t.sess == sess {
		t.lastErr = err
	}
	t.mu.Unlock()
}

func (t *Tracker) run(sess *session) {
	ctx := context.Background()
	t.tick(ctx, sess, true)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-sess.stop:
			return
		case <-ticker.C:
			t.tick(ctx, sess, false)
		}
	}
}

// loadSession fetches the activity and its destination. A failure is not
// fatal: recording a position only needs the activity id, so the loop keeps
// sampling and retries the load on later ticks with ETA recomputes disabled
// until the details arrive.
func (t *Tracker) loadSession(ctx context.Context, sess *session) {
	if !sess.loaded {
		act, err := t.store.GetActivity(ctx, sess.activityID)
		if err != nil {
			err = fmt.Errorf("failed to load activity details: %w", err)
			log.Printf("tracker: %v", err)
			if t.metrics != nil {
				t.metrics.StoreErrors.Inc()
			}
			t.noteError(sess, err)
			return
		}
		sess.act = act
		sess.loaded = true
		t.noteError(sess, nil)
	}

	// A missing destination record only disables ETA recomputes; positions
	// are still recorded.
	loc, err := t.store.GetLocation(ctx, sess.act.ToID)
	if err != nil {
		log.Printf("tracker: destination %d unavailable: %v", sess.act.ToID, err)
		return
	}
	sess.dest = geo.Point{Lat: loc.Latitude, Lng: loc.Longitude}
	sess.hasDest = true
}

func (t *Tracker) tick(ctx context.Context, sess *session, force bool) {
	if !t.isCurrent(sess) {
		return
	}

	if !sess.loaded || !sess.hasDest {
		t.loadSession(ctx, sess)
	}

	fix, ok := t.source.Current()
	if !ok {
		log.Printf("tracker: unable to obtain current location")
		t.skip("no_fix")
		return
	}

	if force || sess.last == nil || geo.DistanceM(*sess.last, fix.Point) > MovementThresholdM {
		t.record(ctx, sess, fix)
	} else {
		t.skip("below_threshold")
	}

	t.refreshETA(ctx, sess, fix)
}

func (t *Tracker) record(ctx context.Context, sess *session, fix location.Fix) {
	pos := activity.Position{
		ID:         activity.PlaceholderID,
		ActivityID: sess.activityID,
		Latitude:   fix.Point.Lat,
		Longitude:  fix.Point.Lng,
		Timestamp:  fix.Time.Unix(),
	}
	if _, err := t.store.CreatePosition(ctx, pos); err != nil {
		log.Printf("tracker: failed to record position: %v", err)
		if t.metrics != nil {
			t.metrics.StoreErrors.Inc()
		}
		return
	}

	p := fix.Point
	sess.last = &p
	if t.metrics != nil {
		t.metrics.PositionsRecorded.Inc()
	}
}

func (t *Tracker) refreshETA(ctx context.Context, sess *session, fix location.Fix) {
	if !sess.hasDest {
		t.skip("no_destination")
		return
	}

	updated, apply, err := t.eta.MaybeUpdateETA(ctx, sess.act, fix.Point, sess.dest)
	if err != nil {
		log.Printf("tracker: eta recompute: %v", err)
		if t.metrics != nil {
			t.metrics.RouteErrors.Inc()
		}
		return
	}
	if !apply {
		if t.metrics != nil {
			t.metrics.ETARecomputes.WithLabelValues("held").Inc()
		}
		return
	}

	// The recompute may have raced a session replacement; a stale session
	// must not write through.
	if !t.isCurrent(sess) {
		return
	}

	persisted, err := t.store.UpdateActivity(ctx, updated)
	if err != nil {
		log.Printf("tracker: persist eta: %v", err)
		if t.metrics != nil {
			t.metrics.StoreErrors.Inc()
		}
		return
	}
	sess.act = persisted
	if t.metrics != nil {
		t.metrics.ETARecomputes.WithLabelValues("applied").Inc()
	}
	t.publish(persisted)
}

func (t *Tracker) skip(reason string) {
	if t.metrics != nil {
		t.metrics.TicksSkipped.WithLabelValues(reason).Inc()
	}
}

func (t *Tracker) publish(act activity.Activity) {
	if t.events == nil {
		return
	}
	t.events.Publish(act)
	if t.metrics != nil {
		t.metrics.EventsPublished.Inc()
	}
}
