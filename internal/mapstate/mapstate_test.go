package mapstate

import (
	"context"
	"testing"
	"time"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/route"
	"backend-staysafe/internal/shared/geo"
	"backend-staysafe/internal/store"
)

type locStore struct {
	locations map[int]activity.Location
}

func (s *locStore) GetActivity(context.Context, int) (activity.Activity, error) {
	return activity.Activity{}, store.ErrNotFound
}

func (s *locStore) CreateActivity(_ context.Context, act activity.Activity) (activity.Activity, error) {
	return act, nil
}

func (s *locStore) UpdateActivity(_ context.Context, act activity.Activity) (activity.Activity, error) {
	return act, nil
}

func (s *locStore) ListUserActivities(context.Context, int) ([]activity.Activity, error) {
	return nil, nil
}

func (s *locStore) GetLocation(_ context.Context, id int) (activity.Location, error) {
	loc, ok := s.locations[id]
	if !ok {
		return activity.Location{}, store.ErrNotFound
	}
	return loc, nil
}

func (s *locStore) CreateLocation(_ context.Context, loc activity.Location) (activity.Location, error) {
	return loc, nil
}

func (s *locStore) CreatePosition(_ context.Context, pos activity.Position) (activity.Position, error) {
	return pos, nil
}

func (s *locStore) ListPositions(context.Context, int) ([]activity.Position, error) {
	return nil, nil
}

type stubDirections struct {
	polyline string
}

func (d stubDirections) Route(context.Context, geo.Point, geo.Point, activity.TransportMode) (route.Route, error) {
	return route.Route{Duration: 10 * time.Minute, Polyline: d.polyline}, nil
}

func testStore() *locStore {
	return &locStore{locations: map[int]activity.Location{
		201: {ID: 201, Name: "Home", Latitude: 51.4014, Longitude: -0.3046},
		202: {ID: 202, Name: "Campus", Latitude: 51.45, Longitude: -0.30},
	}}
}

func tripWith(status activity.Status) activity.Activity {
	act := activity.Activity{
		ID:          1,
		Name:        "Trip to campus",
		UserID:      7,
		Description: "Trip using Car",
		FromID:      201,
		ToID:        202,
	}
	act.SetStatus(status)
	return act
}

func TestShowPlannedTripHasNoOverlay(t *testing.T) {
	r := New(testStore(), route.NewEngine(stubDirections{polyline: "abc"}))
	if err := r.Show(context.Background(), tripWith(activity.Planned)); err != nil {
		t.Fatalf("show: %v", err)
	}

	snap := r.Snapshot()
	if snap.Activity == nil || snap.Activity.ID != 1 {
		t.Fatalf("trip not shown: %+v", snap)
	}
	if snap.Route != nil {
		t.Fatalf("planned trip must not draw a route")
	}
}

func TestStartedEventDrawsOverlay(t *testing.T) {
	r := New(testStore(), route.NewEngine(stubDirections{polyline: "abc"}))
	if err := r.Show(context.Background(), tripWith(activity.Planned)); err != nil {
		t.Fatalf("show: %v", err)
	}

	r.Apply(context.Background(), tripWith(activity.Started))

	snap := r.Snapshot()
	if snap.Activity == nil || !snap.Activity.HasStarted() {
		t.Fatalf("trip not updated: %+v", snap)
	}
	if snap.Route == nil || snap.Route.Polyline != "abc" {
		t.Fatalf("route overlay missing: %+v", snap.Route)
	}
}

func TestPausedEventClearsOverlayKeepsTrip(t *testing.T) {
	r := New(testStore(), route.NewEngine(stubDirections{polyline: "abc"}))
	if err := r.Show(context.Background(), tripWith(activity.Started)); err != nil {
		t.Fatalf("show: %v", err)
	}
	if r.Snapshot().Route == nil {
		t.Fatalf("started trip should draw its route on show")
	}

	r.Apply(context.Background(), tripWith(activity.Paused))

	snap := r.Snapshot()
	if snap.Activity == nil || !snap.Activity.IsPaused() {
		t.Fatalf("trip not kept: %+v", snap)
	}
	if snap.Route != nil {
		t.Fatalf("paused trip must not keep its route overlay")
	}
}

func TestTerminalEventClearsEverything(t *testing.T) {
	for _, status := range []activity.Status{activity.Cancelled, activity.Completed} {
		r := New(testStore(), route.NewEngine(stubDirections{polyline: "abc"}))
		if err := r.Show(context.Background(), tripWith(activity.Started)); err != nil {
			t.Fatalf("show: %v", err)
		}

		r.Apply(context.Background(), tripWith(status))

		snap := r.Snapshot()
		if snap.Activity != nil || snap.Route != nil {
			t.Fatalf("%v event left state behind: %+v", status, snap)
		}
	}
}

func TestEventsForOtherTripsIgnored(t *testing.T) {
	r := New(testStore(), route.NewEngine(stubDirections{polyline: "abc"}))
	if err := r.Show(context.Background(), tripWith(activity.Started)); err != nil {
		t.Fatalf("show: %v", err)
	}

	other := tripWith(activity.Completed)
	other.ID = 99
	r.Apply(context.Background(), other)

	snap := r.Snapshot()
	if snap.Activity == nil || snap.Activity.ID != 1 || !snap.Activity.HasStarted() {
		t.Fatalf("foreign event disturbed the view: %+v", snap)
	}
}

func TestClear(t *testing.T) {
	r := New(testStore(), nil)
	if err := r.Show(context.Background(), tripWith(activity.Planned)); err != nil {
		t.Fatalf("show: %v", err)
	}
	r.Clear()
	if snap := r.Snapshot(); snap.Activity != nil {
		t.Fatalf("clear left state: %+v", snap)
	}
}

func TestRegistryRoutesEventsByOwner(t *testing.T) {
	reg := NewRegistry(testStore(), route.NewEngine(stubDirections{polyline: "abc"}))

	mine := tripWith(activity.Started)
	if err := reg.For(7).Show(context.Background(), mine); err != nil {
		t.Fatalf("show: %v", err)
	}

	// an event owned by user 9 must not touch user 7's view
	foreign := tripWith(activity.Completed)
	foreign.UserID = 9
	foreign.ID = 1
	reg.Publish(foreign)
	if snap := reg.For(7).Snapshot(); snap.Activity == nil {
		t.Fatalf("foreign user's event cleared the view")
	}

	done := tripWith(activity.Completed)
	reg.Publish(done)
	if snap := reg.For(7).Snapshot(); snap.Activity != nil {
		t.Fatalf("owner's terminal event must clear the view")
	}
}

func TestRegistrySharesViewPerUser(t *testing.T) {
	reg := NewRegistry(testStore(), nil)
	if reg.For(7) != reg.For(7) {
		t.Fatalf("same user must share a view")
	}
	if reg.For(7) == reg.For(8) {
		t.Fatalf("different users must not share views")
	}
}
