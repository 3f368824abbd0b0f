package geo

import (
	"errors"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Storage-facing geometry is always longitude first (GeoJSON order). The map
// surface is latitude first. Swap and SwapRings are the only places where one
// order becomes the other.

// ErrNotPolygon is returned when GeoJSON input is not a Polygon.
var ErrNotPolygon = errors.New("geometry is not a polygon")

// LngLat is a vertex in storage order.
type LngLat [2]float64

// Lng returns the longitude.
func (p LngLat) Lng() float64 { return p[0] }

// Lat returns the latitude.
func (p LngLat) Lat() float64 { return p[1] }

// Swap converts the vertex to map order.
func (p LngLat) Swap() LatLng { return LatLng{p[1], p[0]} }

// LatLng is a vertex in map order.
type LatLng [2]float64

// Lat returns the latitude.
func (p LatLng) Lat() float64 { return p[0] }

// Lng returns the longitude.
func (p LatLng) Lng() float64 { return p[1] }

// Swap converts the vertex to storage order.
func (p LatLng) Swap() LngLat { return LngLat{p[1], p[0]} }

// Ring is a closed sequence of storage-order vertices.
type Ring []LngLat

// Reversed returns a copy of the ring with the vertex order reversed.
func (r Ring) Reversed() Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// Polygon is an outer ring followed by optional holes, in storage order.
type Polygon []Ring

// Outer returns the exterior ring, or nil for an empty polygon.
func (p Polygon) Outer() Ring {
	if len(p) == 0 {
		return nil
	}
	return p[0]
}

// Empty reports whether the polygon lacks a usable exterior ring.
func (p Polygon) Empty() bool {
	return len(p.Outer()) == 0
}

// ToMap swaps every vertex of every ring into map order.
func (p Polygon) ToMap() [][]LatLng {
	out := make([][]LatLng, len(p))
	for i, ring := range p {
		mapped := make([]LatLng, len(ring))
		for j, v := range ring {
			mapped[j] = v.Swap()
		}
		out[i] = mapped
	}
	return out
}

// FromMap swaps map-order rings back into a storage-order polygon.
func FromMap(rings [][]LatLng) Polygon {
	out := make(Polygon, len(rings))
	for i, ring := range rings {
		stored := make(Ring, len(ring))
		for j, v := range ring {
			stored[j] = v.Swap()
		}
		out[i] = stored
	}
	return out
}

// Geom converts the polygon into a simplefeatures polygon (X=lng, Y=lat).
func (p Polygon) Geom() (geom.Polygon, error) {
	rings := make([]geom.LineString, 0, len(p))
	for i, ring := range p {
		flat := make([]float64, 0, 2*len(ring))
		for _, v := range ring {
			flat = append(flat, v[0], v[1])
		}
		ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY), geom.DisableAllValidations)
		if err != nil {
			return geom.Polygon{}, fmt.Errorf("ring %d: %w", i, err)
		}
		rings = append(rings, ls)
	}
	return geom.NewPolygon(rings, geom.DisableAllValidations)
}

// PolygonFromGeom extracts the rings of a simplefeatures polygon.
func PolygonFromGeom(g geom.Polygon) Polygon {
	if g.IsEmpty() {
		return nil
	}
	out := make(Polygon, 0, 1+g.NumInteriorRings())
	out = append(out, ringFromLineString(g.ExteriorRing()))
	for i := 0; i < g.NumInteriorRings(); i++ {
		out = append(out, ringFromLineString(g.InteriorRingN(i)))
	}
	return out
}

func ringFromLineString(ls geom.LineString) Ring {
	seq := ls.Coordinates()
	ring := make(Ring, seq.Length())
	for i := range ring {
		xy := seq.GetXY(i)
		ring[i] = LngLat{xy.X, xy.Y}
	}
	return ring
}

// MarshalJSON encodes the polygon as a GeoJSON Polygon geometry.
func (p Polygon) MarshalJSON() ([]byte, error) {
	g, err := p.Geom()
	if err != nil {
		return nil, err
	}
	return g.MarshalJSON()
}

// UnmarshalJSON decodes a GeoJSON Polygon geometry.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	parsed, err := ParseGeoJSONPolygon(data)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseGeoJSONPolygon parses a GeoJSON Polygon geometry object.
func ParseGeoJSONPolygon(data []byte) (Polygon, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	g, err := geom.UnmarshalGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geometry: %w", err)
	}
	poly, ok := g.AsPolygon()
	if !ok {
		return nil, ErrNotPolygon
	}
	return PolygonFromGeom(poly), nil
}

// Contains reports whether the storage-order polygon covers the point.
func (p Polygon) Contains(lat, lng float64) bool {
	if p.Empty() {
		return false
	}
	g, err := p.Geom()
	if err != nil {
		return false
	}
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: lng, Y: lat},
		Type: geom.DimXY,
	})
	if err != nil {
		return false
	}
	return geom.Intersects(g.AsGeometry(), pt.AsGeometry())
}

// Centroid averages the exterior ring vertices, skipping the closing vertex.
func (p Polygon) Centroid() (LatLng, error) {
	outer := p.Outer()
	if len(outer) < 4 {
		return LatLng{}, errors.New("polygon must have at least 3 vertices")
	}
	var lat, lng float64
	count := len(outer) - 1
	for _, v := range outer[:count] {
		lng += v.Lng()
		lat += v.Lat()
	}
	return LatLng{lat / float64(count), lng / float64(count)}, nil
}

// Bounds is an axis-aligned box in map order.
type Bounds struct {
	SouthWest LatLng `json:"southWest"`
	NorthEast LatLng `json:"northEast"`
}

// Center returns the midpoint of the box.
func (b Bounds) Center() LatLng {
	return LatLng{
		(b.SouthWest.Lat() + b.NorthEast.Lat()) / 2,
		(b.SouthWest.Lng() + b.NorthEast.Lng()) / 2,
	}
}

// BoundsOf computes the bounding box of map-order rings.
func BoundsOf(rings [][]LatLng) (Bounds, bool) {
	var b Bounds
	found := false
	for _, ring := range rings {
		for _, v := range ring {
			if !found {
				b = Bounds{SouthWest: v, NorthEast: v}
				found = true
				continue
			}
			b.SouthWest = LatLng{min(b.SouthWest.Lat(), v.Lat()), min(b.SouthWest.Lng(), v.Lng())}
			b.NorthEast = LatLng{max(b.NorthEast.Lat(), v.Lat()), max(b.NorthEast.Lng(), v.Lng())}
		}
	}
	return b, found
}

// ToWebMercator projects a WGS84 point into EPSG:3857 metres.
func ToWebMercator(p LatLng) (x, y float64) {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ = f(p.Lng(), p.Lat(), 0)
	return x, y
}
