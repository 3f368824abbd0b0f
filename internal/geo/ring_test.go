package geo

import (
	"math"
	"testing"
)

const tolerance = 1e-9

var testCenter = LatLng{48.9219, 24.7082}

func haversineKm(a LatLng, b LngLat) float64 {
	lat1, lat2 := toRad(a.Lat()), toRad(b.Lat())
	dLat := lat2 - lat1
	dLng := toRad(b.Lng() - a.Lng())
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func TestGeodesicRing_PointCount(t *testing.T) {
	ring := GeodesicRing(testCenter, 2, 64)
	if len(ring) != 65 {
		t.Fatalf("expected 65 points, got %d", len(ring))
	}
}

func TestGeodesicRing_Closed(t *testing.T) {
	for _, r := range []float64{0.5, 2, 5, 10, 42} {
		ring := GeodesicRing(testCenter, r, 64)
		first, last := ring[0], ring[len(ring)-1]
		if math.Abs(first.Lng()-last.Lng()) > tolerance || math.Abs(first.Lat()-last.Lat()) > tolerance {
			t.Errorf("radius %v: ring not closed, first=%v last=%v", r, first, last)
		}
	}
}

func TestGeodesicRing_DistanceFromCenter(t *testing.T) {
	ring := GeodesicRing(testCenter, 5, 64)
	for i, p := range ring {
		d := haversineKm(testCenter, p)
		if math.Abs(d-5) > 1e-6 {
			t.Errorf("point %d: expected 5km from center, got %f", i, d)
		}
	}
}

func TestGeodesicRing_FirstPointDueNorth(t *testing.T) {
	ring := GeodesicRing(testCenter, 2, 64)
	if math.Abs(ring[0].Lng()-testCenter.Lng()) > tolerance {
		t.Errorf("expected bearing 0 to keep longitude, got %f", ring[0].Lng())
	}
	if ring[0].Lat() <= testCenter.Lat() {
		t.Errorf("expected bearing 0 north of center, got %f", ring[0].Lat())
	}
}

func TestGeodesicRing_ZeroRadius(t *testing.T) {
	ring := GeodesicRing(testCenter, 0, 64)
	if len(ring) != 65 {
		t.Fatalf("expected 65 points, got %d", len(ring))
	}
	for i, p := range ring {
		if p.Lat() != testCenter.Lat() || p.Lng() != testCenter.Lng() {
			t.Errorf("point %d: expected center, got %v", i, p)
		}
	}
}

func TestGeodesicRing_Deterministic(t *testing.T) {
	a := GeodesicRing(testCenter, 3.3, 32)
	b := GeodesicRing(testCenter, 3.3, 32)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestGeodesicRing_DefaultSampleCount(t *testing.T) {
	ring := GeodesicRing(testCenter, 1, 0)
	if len(ring) != DefaultSampleCount+1 {
		t.Errorf("expected %d points, got %d", DefaultSampleCount+1, len(ring))
	}
}

func TestGeodesicRing_StorageOrder(t *testing.T) {
	ring := GeodesicRing(LatLng{10, 100}, 1, 8)
	// longitude first: every X should sit near 100, every Y near 10
	for _, p := range ring {
		if math.Abs(p[0]-100) > 0.1 || math.Abs(p[1]-10) > 0.1 {
			t.Fatalf("expected [lng, lat] order, got %v", p)
		}
	}
}
