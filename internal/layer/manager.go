// Package layer keeps the live mapping from zone identity to the shape drawn
// for it, and owns every style change applied to those shapes.
package layer

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/zonekit/deliveryzones/internal/cache"
	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/model"
)

// DefaultViewRadiusKm is the smallest radius the view is fitted to after a render.
const DefaultViewRadiusKm = 10.0

// FitPadding is the pixel padding used when focusing a shape.
const FitPadding = 20

// RenderedShape associates one zone with the shape drawn for it.
type RenderedShape struct {
	Zone  model.Zone
	Shape Shape
	Style Style
	// InnerKm and OuterKm are set for radius zones.
	InnerKm float64
	OuterKm float64
}

// Manager renders zones onto a Surface.
type Manager struct {
	surface Surface
	rings   *cache.RingCache
	logger  *slog.Logger

	shapes map[string]*RenderedShape
	order  []string

	defaultViewRadiusKm float64
	onSelect            func(model.Zone)
	beforeTeardown      []func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithDefaultViewRadius overrides DefaultViewRadiusKm.
func WithDefaultViewRadius(km float64) Option {
	return func(m *Manager) {
		if km > 0 {
			m.defaultViewRadiusKm = km
		}
	}
}

// NewManager creates a manager drawing onto surface with geometry from rings.
func NewManager(surface Surface, rings *cache.RingCache, opts ...Option) *Manager {
	m := &Manager{
		surface:             surface,
		rings:               rings,
		logger:              slog.Default(),
		shapes:              make(map[string]*RenderedShape),
		defaultViewRadiusKm: DefaultViewRadiusKm,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnZoneSelected sets the callback fired when a rendered shape is clicked.
func (m *Manager) OnZoneSelected(fn func(model.Zone)) {
	m.onSelect = fn
}

// OnTeardown registers a hook run before RenderAll removes the current
// shapes, while Owns still reports them.
func (m *Manager) OnTeardown(fn func()) {
	m.beforeTeardown = append(m.beforeTeardown, fn)
}

// RenderAll replaces every rendered shape. Radius zones are sorted by radius
// and each is drawn as the annulus between the previous radius and its own;
// polygon zones are drawn from their stored geometry.
func (m *Manager) RenderAll(zones []model.Zone, center model.Center) error {
	for _, fn := range m.beforeTeardown {
		fn()
	}
	for _, id := range m.order {
		m.shapes[id].Shape.Remove()
	}
	m.shapes = make(map[string]*RenderedShape)
	m.order = m.order[:0]

	var radiusZones, polygonZones []model.Zone
	for _, z := range zones {
		if z.Kind() == model.KindPolygon {
			polygonZones = append(polygonZones, z)
		} else {
			radiusZones = append(radiusZones, z)
		}
	}

	sort.SliceStable(radiusZones, func(i, j int) bool {
		ri, _ := radiusZones[i].Radius()
		rj, _ := radiusZones[j].Radius()
		return ri < rj
	})

	var errs []error
	prev := 0.0
	for _, z := range radiusZones {
		r, _ := z.Radius()
		if r <= prev {
			m.logger.Warn("Skipping radius zone without area", "zone", z.ID, "radius", r, "previous", prev)
			continue
		}
		a, err := m.rings.Annulus(center.LatLng(), r, prev)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rs := m.add(z, a.Polygon())
		rs.InnerKm, rs.OuterKm = prev, r
		prev = r
	}

	for _, z := range polygonZones {
		poly, _ := z.Geometry()
		if poly.Empty() {
			m.logger.Warn("Skipping polygon zone without geometry", "zone", z.ID)
			continue
		}
		m.add(z, poly)
	}

	if len(zones) > 0 {
		maxRadius := m.defaultViewRadiusKm
		for _, z := range radiusZones {
			if r, _ := z.Radius(); r > maxRadius {
				maxRadius = r
			}
		}
		m.surface.SetView(center.LatLng(), geo.ZoomForRadius(maxRadius))
	}

	m.logger.Debug("Rendered zones", "shapes", len(m.order), "radius", len(radiusZones), "polygon", len(polygonZones))
	return errors.Join(errs...)
}

func (m *Manager) add(z model.Zone, poly geo.Polygon) *RenderedShape {
	rs := &RenderedShape{Zone: z, Style: StyleDefault}
	id := z.ID
	rs.Shape = m.surface.AddPolygon(poly.ToMap(), ShapeOptions{
		Color: z.Color,
		Style: StyleDefault.Record(),
		Label: z.Name,
		OnClick: func() {
			if m.onSelect != nil {
				if current, ok := m.shapes[id]; ok {
					m.onSelect(current.Zone)
				}
			}
		},
	})
	m.shapes[id] = rs
	m.order = append(m.order, id)
	return rs
}

// SetStyle applies style to the shape rendered for zoneID.
func (m *Manager) SetStyle(zoneID string, style Style) bool {
	rs, ok := m.shapes[zoneID]
	if !ok {
		return false
	}
	rs.Style = style
	rs.Shape.SetStyle(rs.Zone.Color, style.Record())
	return true
}

// Highlight marks the shape for zoneID as highlighted and resets every other
// shape to default. An empty zoneID clears all highlighting.
func (m *Manager) Highlight(zoneID string) {
	for _, id := range m.order {
		if id == zoneID {
			m.SetStyle(id, StyleHighlighted)
		} else {
			m.SetStyle(id, StyleDefault)
		}
	}
}

// Focus fits the view to the shape rendered for zoneID.
func (m *Manager) Focus(zoneID string) bool {
	rs, ok := m.shapes[zoneID]
	if !ok {
		return false
	}
	b, ok := rs.Shape.Bounds()
	if !ok {
		return false
	}
	m.surface.FitBounds(b, FitPadding)
	m.surface.InvalidateSize()
	return true
}

// Shape returns the rendered shape for zoneID.
func (m *Manager) Shape(zoneID string) (*RenderedShape, bool) {
	rs, ok := m.shapes[zoneID]
	return rs, ok
}

// Owns reports whether s is one of the currently rendered shapes.
func (m *Manager) Owns(s Shape) bool {
	if s == nil {
		return false
	}
	for _, rs := range m.shapes {
		if rs.Shape == s {
			return true
		}
	}
	return false
}

// Shapes returns the rendered shapes in render order.
func (m *Manager) Shapes() []*RenderedShape {
	out := make([]*RenderedShape, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.shapes[id])
	}
	return out
}

// Len returns the number of rendered shapes.
func (m *Manager) Len() int {
	return len(m.order)
}
