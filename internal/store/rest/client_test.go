package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/store"
)

func TestGetAndUpdateActivity(t *testing.T) {
	act := activity.Activity{ID: 42, Name: "Trip to work", UserID: 7, StatusID: activity.Planned, StatusName: "Planned"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/activities/42":
			_ = json.NewEncoder(w).Encode(act)
		case r.Method == http.MethodPut && r.URL.Path == "/activities/42":
			var got activity.Activity
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(got)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)

	loaded, err := c.GetActivity(context.Background(), 42)
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	if loaded.ID != 42 || loaded.UserID != 7 {
		t.Fatalf("unexpected activity: %+v", loaded)
	}

	loaded.SetStatus(activity.Started)
	updated, err := c.UpdateActivity(context.Background(), loaded)
	if err != nil {
		t.Fatalf("update activity: %v", err)
	}
	if updated.StatusID != activity.Started || updated.StatusName != "Started" {
		t.Fatalf("unexpected updated status: %+v", updated)
	}
}

func TestCreateActivityAndLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/activities":
			var act activity.Activity
			_ = json.NewDecoder(r.Body).Decode(&act)
			act.ID = 99
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(act)
		case r.Method == http.MethodPost && r.URL.Path == "/locations":
			var loc activity.Location
			_ = json.NewDecoder(r.Body).Decode(&loc)
			loc.ID = 12
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(loc)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)

	act, err := c.CreateActivity(context.Background(), activity.Activity{ID: activity.PlaceholderID, Name: "Trip"})
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	if act.ID != 99 {
		t.Fatalf("expected server-assigned id, got %d", act.ID)
	}

	loc, err := c.CreateLocation(context.Background(), activity.Location{Name: "Home"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	if loc.ID != 12 {
		t.Fatalf("expected server-assigned location id, got %d", loc.ID)
	}
}

func TestPositionRoundTripSorted(t *testing.T) {
	var stored []activity.Position

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/positions":
			var pos activity.Position
			_ = json.NewDecoder(r.Body).Decode(&pos)
			pos.ID = len(stored) + 1
			stored = append(stored, pos)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(pos)
		case r.Method == http.MethodGet && r.URL.Path == "/positions/activities/5":
			// deliberately reversed to prove client-side ordering
			reversed := make([]activity.Position, 0, len(stored))
			for i := len(stored) - 1; i >= 0; i-- {
				reversed = append(reversed, stored[i])
			}
			_ = json.NewEncoder(w).Encode(reversed)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)

	first := activity.Position{ActivityID: 5, Latitude: 51.4014, Longitude: -0.3046, Timestamp: 1000}
	second := activity.Position{ActivityID: 5, Latitude: 51.4023, Longitude: -0.3050, Timestamp: 2000}
	for _, pos := range []activity.Position{first, second} {
		if _, err := c.CreatePosition(context.Background(), pos); err != nil {
			t.Fatalf("create position: %v", err)
		}
	}

	positions, err := c.ListPositions(context.Background(), 5)
	if err != nil {
		t.Fatalf("list positions: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].Timestamp != 1000 || positions[1].Timestamp != 2000 {
		t.Fatalf("positions not in timestamp order: %+v", positions)
	}
	if positions[0].Latitude != first.Latitude || positions[0].Longitude != first.Longitude {
		t.Fatalf("coordinates did not round-trip: %+v", positions[0])
	}
}

func TestErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/activities/404":
			w.WriteHeader(http.StatusNotFound)
		case "/activities/500":
			w.WriteHeader(http.StatusInternalServerError)
		case "/activities/1":
			_, _ = w.Write([]byte("{not json"))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)

	if _, err := c.GetActivity(context.Background(), 404); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := c.GetActivity(context.Background(), 500); !errors.Is(err, store.ErrRejected) {
		t.Fatalf("expected rejected, got %v", err)
	}
	if _, err := c.GetActivity(context.Background(), 1); !errors.Is(err, store.ErrDecode) {
		t.Fatalf("expected decode failure, got %v", err)
	}

	srv.Close()
	if _, err := c.GetActivity(context.Background(), 1); !errors.Is(err, store.ErrNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
}
