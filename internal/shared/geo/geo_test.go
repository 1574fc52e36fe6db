package geo

import "testing"

func TestHaversineKm(t *testing.T) {
	// Kingston upon Thames (51.4014, -0.3046) to central London (51.5074, -0.1278) ~ 16-18 km
	d := HaversineKm(51.4014, -0.3046, 51.5074, -0.1278)
	if d < 14 || d > 20 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceM(t *testing.T) {
	a := Point{Lat: 51.4014, Lng: -0.3046}
	if d := DistanceM(a, a); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}

	// ~0.001 degrees latitude is roughly 111 meters
	b := Point{Lat: a.Lat + 0.001, Lng: a.Lng}
	d := DistanceM(a, b)
	if d < 100 || d > 125 {
		t.Fatalf("unexpected distance: %v", d)
	}
}
