package location

import (
	"testing"
	"time"

	"backend-staysafe/internal/shared/geo"
)

func TestManagerCachesLatestFix(t *testing.T) {
	m := NewManager()

	if _, ok := m.Current(); ok {
		t.Fatalf("expected no fix before any update")
	}

	m.Update(Fix{Point: geo.Point{Lat: 51.4, Lng: -0.3}, Time: time.Unix(1000, 0)})
	m.Update(Fix{Point: geo.Point{Lat: 51.5, Lng: -0.2}, Time: time.Unix(2000, 0)})

	fix, ok := m.Current()
	if !ok {
		t.Fatalf("expected a fix")
	}
	if fix.Point.Lat != 51.5 || fix.Time.Unix() != 2000 {
		t.Fatalf("expected latest fix, got %+v", fix)
	}

	m.Clear()
	if _, ok := m.Current(); ok {
		t.Fatalf("expected no fix after clear")
	}
}

func TestNATSSourceHandleMessage(t *testing.T) {
	s := &NATSSource{Manager: NewManager()}

	s.handleMessage([]byte(`{"deviceId":"dev-1","lat":51.4014,"lng":-0.3046,"timestamp":"2026-08-30T08:00:00Z"}`))

	fix, ok := s.Current()
	if !ok {
		t.Fatalf("expected a fix after message")
	}
	if fix.Point.Lat != 51.4014 || fix.Point.Lng != -0.3046 {
		t.Fatalf("unexpected fix: %+v", fix)
	}
	if fix.Time.UTC().Hour() != 8 {
		t.Fatalf("unexpected timestamp: %v", fix.Time)
	}
}

func TestNATSSourceDropsMalformed(t *testing.T) {
	s := &NATSSource{Manager: NewManager()}

	s.handleMessage([]byte(`{not json`))
	if _, ok := s.Current(); ok {
		t.Fatalf("malformed message must not produce a fix")
	}
}

func TestNATSSourceDefaultsTimestamp(t *testing.T) {
	s := &NATSSource{Manager: NewManager()}

	s.handleMessage([]byte(`{"deviceId":"dev-1","lat":1,"lng":2}`))
	fix, ok := s.Current()
	if !ok || fix.Time.IsZero() {
		t.Fatalf("expected defaulted timestamp, got %+v ok=%v", fix, ok)
	}
}
