package geo

import (
	"errors"
	"testing"
)

func TestBuildAnnulus_NoHole(t *testing.T) {
	a, err := BuildAnnulus(testCenter, 2, 0, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.HasHole() {
		t.Error("expected no inner ring")
	}
	if got := len(a.Polygon()); got != 1 {
		t.Errorf("expected 1 ring, got %d", got)
	}
}

func TestBuildAnnulus_WithHole(t *testing.T) {
	a, err := BuildAnnulus(testCenter, 5, 2, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poly := a.Polygon()
	if len(poly) != 2 {
		t.Fatalf("expected 2 rings, got %d", len(poly))
	}

	direct := GeodesicRing(testCenter, 2, 64)
	inner := poly[1]
	if len(inner) != len(direct) {
		t.Fatalf("expected %d inner points, got %d", len(direct), len(inner))
	}
	for i := range inner {
		if inner[i] != direct[len(direct)-1-i] {
			t.Fatalf("inner point %d is not the reverse of the direct ring", i)
		}
	}

	outer := GeodesicRing(testCenter, 5, 64)
	for i := range outer {
		if poly[0][i] != outer[i] {
			t.Fatalf("outer point %d differs from direct ring", i)
		}
	}
}

func TestBuildAnnulus_Degenerate(t *testing.T) {
	cases := []struct {
		name         string
		outer, inner float64
	}{
		{"zero outer", 0, 0},
		{"negative outer", -1, 0},
		{"negative inner", 2, -1},
		{"inner equals outer", 2, 2},
		{"inner above outer", 2, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildAnnulus(testCenter, tc.outer, tc.inner, 64)
			if !errors.Is(err, ErrDegenerateAnnulus) {
				t.Errorf("expected ErrDegenerateAnnulus, got %v", err)
			}
		})
	}
}

func TestAnnulus_Geom(t *testing.T) {
	a, err := BuildAnnulus(testCenter, 5, 2, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := a.Geom()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.NumInteriorRings() != 1 {
		t.Errorf("expected 1 interior ring, got %d", g.NumInteriorRings())
	}
	if n := g.ExteriorRing().Coordinates().Length(); n != 17 {
		t.Errorf("expected 17 exterior points, got %d", n)
	}
}

func TestZoomForRadius(t *testing.T) {
	cases := []struct {
		radius float64
		zoom   int
	}{
		{0.5, 14},
		{2, 14},
		{2.01, 13},
		{5, 13},
		{5.5, 12},
		{10, 12},
		{10.1, 11},
		{20, 11},
		{25, 10},
	}
	for _, tc := range cases {
		if got := ZoomForRadius(tc.radius); got != tc.zoom {
			t.Errorf("ZoomForRadius(%v): expected %d, got %d", tc.radius, tc.zoom, got)
		}
	}
}
