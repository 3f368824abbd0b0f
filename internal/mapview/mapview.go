// Package mapview is an in-process map surface. It keeps the polygons, view
// and drawing-tool state a browser map would hold, so the layer manager and
// the editor can run headless (CLI, tests) and export what they drew.
package mapview

import (
	"errors"
	"math"

	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/layer"
)

// ErrNotDrawing is returned by Draw when the freehand tool is disabled.
var ErrNotDrawing = errors.New("draw tool is not enabled")

const (
	tileSize   = 256
	maxZoom    = 18
	worldWidth = 2 * 20037508.342789244
)

// Map implements layer.Surface and layer.DrawTool.
type Map struct {
	width, height int

	center geo.LatLng
	zoom   int

	shapes []*Polygon
	nextID int

	drawing  bool
	drawOpts layer.DrawOptions

	fitted        *geo.Bounds
	invalidations int

	clickHandlers  []func(geo.LatLng)
	createHandlers []func(layer.Shape)
}

// New creates a map of the given pixel size centered on center.
func New(width, height int, center geo.LatLng, zoom int) *Map {
	return &Map{width: width, height: height, center: center, zoom: zoom}
}

// AddPolygon adds a polygon to the map.
func (m *Map) AddPolygon(rings [][]geo.LatLng, opts layer.ShapeOptions) layer.Shape {
	return m.addPolygon(rings, opts)
}

func (m *Map) addPolygon(rings [][]geo.LatLng, opts layer.ShapeOptions) *Polygon {
	m.nextID++
	p := &Polygon{
		id:      m.nextID,
		m:       m,
		rings:   rings,
		color:   opts.Color,
		style:   opts.Style,
		label:   opts.Label,
		onClick: opts.OnClick,
	}
	m.shapes = append(m.shapes, p)
	return p
}

func (m *Map) remove(p *Polygon) {
	for i, s := range m.shapes {
		if s == p {
			m.shapes = append(m.shapes[:i], m.shapes[i+1:]...)
			return
		}
	}
}

// SetView moves the viewport.
func (m *Map) SetView(center geo.LatLng, zoom int) {
	m.center = center
	m.zoom = zoom
}

// View returns the viewport center and zoom.
func (m *Map) View() (geo.LatLng, int) {
	return m.center, m.zoom
}

// FitBounds centers on b at the largest zoom that shows it within the
// padded viewport.
func (m *Map) FitBounds(b geo.Bounds, padding int) {
	fitted := b
	m.fitted = &fitted
	m.center = b.Center()
	m.zoom = m.zoomForBounds(b, padding)
}

func (m *Map) zoomForBounds(b geo.Bounds, padding int) int {
	x1, y1 := geo.ToWebMercator(b.SouthWest)
	x2, y2 := geo.ToWebMercator(b.NorthEast)
	dx, dy := math.Abs(x2-x1), math.Abs(y2-y1)

	w := float64(m.width - 2*padding)
	h := float64(m.height - 2*padding)
	if w <= 0 || h <= 0 {
		return 0
	}
	if dx == 0 && dy == 0 {
		return maxZoom
	}

	// pixels per metre at zoom 0 is tileSize/worldWidth
	scale := math.Inf(1)
	if dx > 0 {
		scale = w / dx
	}
	if dy > 0 {
		scale = math.Min(scale, h/dy)
	}
	zoom := int(math.Floor(math.Log2(scale * worldWidth / tileSize)))
	return max(0, min(maxZoom, zoom))
}

// FittedBounds returns the last bounds passed to FitBounds.
func (m *Map) FittedBounds() (geo.Bounds, bool) {
	if m.fitted == nil {
		return geo.Bounds{}, false
	}
	return *m.fitted, true
}

// InvalidateSize records a container resize.
func (m *Map) InvalidateSize() {
	m.invalidations++
}

// Invalidations returns how many times InvalidateSize ran.
func (m *Map) Invalidations() int {
	return m.invalidations
}

// EnableDraw turns the freehand polygon tool on.
func (m *Map) EnableDraw(opts layer.DrawOptions) {
	m.drawing = true
	m.drawOpts = opts
}

// DisableDraw turns the freehand polygon tool off.
func (m *Map) DisableDraw() {
	m.drawing = false
}

// Drawing reports whether the freehand tool is enabled and with which options.
func (m *Map) Drawing() (bool, layer.DrawOptions) {
	return m.drawing, m.drawOpts
}

// OnClick registers a listener for clicks not handled by a shape.
func (m *Map) OnClick(fn func(geo.LatLng)) {
	m.clickHandlers = append(m.clickHandlers, fn)
}

// OnCreate registers a listener for polygons completed with the draw tool.
func (m *Map) OnCreate(fn func(layer.Shape)) {
	m.createHandlers = append(m.createHandlers, fn)
}

// Click delivers a click at pt to the topmost clickable shape covering it.
// When no shape handles it, the map's own listeners run. It reports whether
// a shape handled the click.
func (m *Map) Click(pt geo.LatLng) bool {
	for i := len(m.shapes) - 1; i >= 0; i-- {
		s := m.shapes[i]
		if s.onClick != nil && s.Contains(pt) {
			s.onClick()
			return true
		}
	}
	for _, fn := range m.clickHandlers {
		fn(pt)
	}
	return false
}

// Draw completes a freehand polygon through the vertices (map order),
// closing the ring if needed, and fires the create listeners.
func (m *Map) Draw(vertices []geo.LatLng) (*Polygon, error) {
	if !m.drawing {
		return nil, ErrNotDrawing
	}
	if len(vertices) < 3 {
		return nil, errors.New("polygon needs at least 3 vertices")
	}
	ring := append([]geo.LatLng(nil), vertices...)
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}

	rec := layer.StyleRecord{FillOpacity: m.drawOpts.FillOpacity, Weight: m.drawOpts.Weight, Opacity: 1}
	p := m.addPolygon([][]geo.LatLng{ring}, layer.ShapeOptions{Color: m.drawOpts.Color, Style: rec})
	for _, fn := range m.createHandlers {
		fn(p)
	}
	return p, nil
}

// Shapes returns the polygons currently on the map, oldest first.
func (m *Map) Shapes() []*Polygon {
	return append([]*Polygon(nil), m.shapes...)
}
