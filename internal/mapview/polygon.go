package mapview

import (
	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/layer"
)

// Polygon is a shape on a Map.
type Polygon struct {
	id      int
	m       *Map
	rings   [][]geo.LatLng
	color   string
	label   string
	style   layer.StyleRecord
	onClick func()
	removed bool
}

// SetStyle replaces the path options.
func (p *Polygon) SetStyle(color string, style layer.StyleRecord) {
	p.color = color
	p.style = style
}

// Remove takes the polygon off the map.
func (p *Polygon) Remove() {
	if p.removed {
		return
	}
	p.removed = true
	p.m.remove(p)
}

// Rings returns the rings in map order.
func (p *Polygon) Rings() [][]geo.LatLng {
	return p.rings
}

// Bounds returns the bounding box of the polygon.
func (p *Polygon) Bounds() (geo.Bounds, bool) {
	return geo.BoundsOf(p.rings)
}

// Contains reports whether pt lies inside the polygon, holes excluded.
func (p *Polygon) Contains(pt geo.LatLng) bool {
	return geo.FromMap(p.rings).Contains(pt.Lat(), pt.Lng())
}

func (p *Polygon) ID() int                  { return p.id }
func (p *Polygon) Color() string            { return p.color }
func (p *Polygon) Label() string            { return p.label }
func (p *Polygon) Style() layer.StyleRecord { return p.style }
func (p *Polygon) Removed() bool            { return p.removed }
