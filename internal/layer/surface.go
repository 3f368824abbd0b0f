package layer

import "github.com/zonekit/deliveryzones/internal/geo"

// Shape is a polygon owned by the map surface.
type Shape interface {
	SetStyle(color string, style StyleRecord)
	Remove()
	// Rings returns the shape's rings in map order.
	Rings() [][]geo.LatLng
	Bounds() (geo.Bounds, bool)
}

// ShapeOptions describes a polygon to add to the surface.
type ShapeOptions struct {
	Color string
	Style StyleRecord
	Label string
	// OnClick fires for clicks on the shape. A handled click does not reach
	// the map's own click listeners.
	OnClick func()
}

// Surface is the subset of a map library the layer manager renders through.
type Surface interface {
	AddPolygon(rings [][]geo.LatLng, opts ShapeOptions) Shape
	SetView(center geo.LatLng, zoom int)
	FitBounds(b geo.Bounds, padding int)
	InvalidateSize()
}

// DrawOptions configures the freehand polygon tool.
type DrawOptions struct {
	Color        string
	Snappable    bool
	SnapDistance int
	FillOpacity  float64
	Weight       int
}

// DrawTool is the map's freehand polygon tool.
type DrawTool interface {
	EnableDraw(opts DrawOptions)
	DisableDraw()
}
