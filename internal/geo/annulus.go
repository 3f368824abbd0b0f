package geo

import (
	"errors"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrDegenerateAnnulus is returned for a non-positive outer radius, a negative
// inner radius, or an inner radius that is not smaller than the outer one.
var ErrDegenerateAnnulus = errors.New("degenerate annulus")

// Annulus is the coverage between two concentric radii around a center.
// Values handed out by the ring cache are shared and must not be mutated.
type Annulus struct {
	Center  LatLng
	OuterKm float64
	InnerKm float64
	Outer   Ring
	// Inner is reversed relative to Outer and nil when InnerKm is zero.
	Inner Ring
}

// BuildAnnulus generates the outer ring and, for a positive inner radius,
// the reversed inner ring.
func BuildAnnulus(center LatLng, outerKm, innerKm float64, n int) (*Annulus, error) {
	if outerKm <= 0 || innerKm < 0 || innerKm >= outerKm {
		return nil, fmt.Errorf("%w: outer=%v inner=%v", ErrDegenerateAnnulus, outerKm, innerKm)
	}

	a := &Annulus{
		Center:  center,
		OuterKm: outerKm,
		InnerKm: innerKm,
		Outer:   GeodesicRing(center, outerKm, n),
	}
	if innerKm > 0 {
		a.Inner = GeodesicRing(center, innerKm, n).Reversed()
	}
	return a, nil
}

// HasHole reports whether the annulus carries an inner ring.
func (a *Annulus) HasHole() bool {
	return a.Inner != nil
}

// Polygon returns the annulus as a storage-order polygon.
func (a *Annulus) Polygon() Polygon {
	if a.Inner == nil {
		return Polygon{a.Outer}
	}
	return Polygon{a.Outer, a.Inner}
}

// Geom returns the annulus as a simplefeatures polygon.
func (a *Annulus) Geom() (geom.Polygon, error) {
	return a.Polygon().Geom()
}
