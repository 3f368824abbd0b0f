// Package editor drives the interactive zone editing session: which zone is
// loaded into the form, which rendered shape is the edit target, and whether
// the freehand polygon tool is active.
package editor

import (
	"errors"
	"log/slog"

	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/layer"
	"github.com/zonekit/deliveryzones/internal/model"
)

// ErrNotDrawing is returned when a drawn polygon arrives while the session
// did not start drawing.
var ErrNotDrawing = errors.New("editor is not drawing")

const (
	DefaultColor    = "#22c55e"
	DefaultRadiusKm = 2.0
	SnapDistance    = 20
)

// State is the editing session state.
type State int

const (
	// Idle: the form holds a fresh zone.
	Idle State = iota
	// SelectedExisting: a persisted zone is loaded into the form.
	SelectedExisting
	// DrawingNew: the freehand tool is enabled and nothing is finished yet.
	DrawingNew
	// DraftDrawn: a drawn polygon is held as the form's pending geometry.
	DraftDrawn
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SelectedExisting:
		return "selected"
	case DrawingNew:
		return "drawing"
	case DraftDrawn:
		return "draft"
	default:
		return "unknown"
	}
}

// Layers is what the session needs from the layer manager.
type Layers interface {
	Highlight(zoneID string)
	Shape(zoneID string) (*layer.RenderedShape, bool)
	SetStyle(zoneID string, style layer.Style) bool
	Focus(zoneID string) bool
	Owns(s layer.Shape) bool
	OnTeardown(fn func())
}

// Config holds the form defaults.
type Config struct {
	DefaultColor    string
	DefaultRadiusKm float64
	Logger          *slog.Logger
}

// Session is the single edit session.
type Session struct {
	layers Layers
	tool   layer.DrawTool
	cfg    Config
	logger *slog.Logger

	state   State
	editing *model.Zone
	form    model.ZoneDraft

	// target is either a shape borrowed from the layer manager (targetID set)
	// or a freehand draft that was never persisted.
	target   layer.Shape
	targetID string
}

// New creates a session in the Idle state with a default form.
func New(layers Layers, tool layer.DrawTool, cfg Config) *Session {
	if cfg.DefaultColor == "" {
		cfg.DefaultColor = DefaultColor
	}
	if cfg.DefaultRadiusKm <= 0 {
		cfg.DefaultRadiusKm = DefaultRadiusKm
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		layers: layers,
		tool:   tool,
		cfg:    cfg,
		logger: logger,
		form:   model.NewDraft(cfg.DefaultColor, cfg.DefaultRadiusKm, 1),
	}

	// A full re-render destroys every borrowed shape.
	layers.OnTeardown(func() {
		if s.target != nil && s.layers.Owns(s.target) {
			s.target = nil
			s.targetID = ""
		}
	})
	return s
}

// New resets the form to a fresh zone with the given priority.
func (s *Session) New(priority int) {
	if s.state == DrawingNew {
		s.tool.DisableDraw()
	}
	s.editing = nil
	s.form = model.NewDraft(s.cfg.DefaultColor, s.cfg.DefaultRadiusKm, priority)
	s.cleanup(layer.StyleDefault)
	s.layers.Highlight("")
	s.setState(Idle)
}

// Select loads an existing zone into the form. A polygon zone's rendered
// shape becomes the edit target and the view fits to it.
func (s *Session) Select(z model.Zone) {
	if s.state == DrawingNew {
		s.tool.DisableDraw()
	}
	zone := z
	s.editing = &zone
	s.form = model.DraftFromZone(z)

	s.cleanup(layer.StyleDefault)
	s.layers.Highlight(z.ID)

	if poly, ok := z.Geometry(); ok && !poly.Empty() {
		if rs, ok := s.layers.Shape(z.ID); ok {
			s.target = rs.Shape
			s.targetID = z.ID
			s.layers.SetStyle(z.ID, layer.StyleEdit)
			s.layers.Focus(z.ID)
		}
	}
	s.setState(SelectedExisting)
}

// StartDrawing discards any prior draft and enables the freehand tool in
// the form's color.
func (s *Session) StartDrawing() {
	s.cleanup(s.restoreStyle())

	color := s.form.Color
	if color == "" {
		color = s.cfg.DefaultColor
	}
	s.tool.EnableDraw(layer.DrawOptions{
		Color:        color,
		Snappable:    true,
		SnapDistance: SnapDistance,
		FillOpacity:  0.3,
		Weight:       2,
	})
	s.setState(DrawingNew)
}

// OnPolygonDrawn captures a completed freehand polygon as the form's pending
// geometry. The shape's rings are in map order and are swapped here.
func (s *Session) OnPolygonDrawn(shape layer.Shape) error {
	if s.state != DrawingNew {
		shape.Remove()
		return ErrNotDrawing
	}
	s.tool.DisableDraw()

	s.target = shape
	s.targetID = ""
	s.form.CustomGeometry = geo.FromMap(shape.Rings())
	s.setState(DraftDrawn)
	return nil
}

// CancelDrawing disables the tool and discards the draft. The form keeps the
// selected zone, if any, with its stored geometry.
func (s *Session) CancelDrawing() {
	s.tool.DisableDraw()
	s.cleanup(s.restoreStyle())
	s.form.CustomGeometry = nil
	if s.editing != nil {
		if poly, ok := s.editing.Geometry(); ok && s.form.ZoneType == model.KindPolygon {
			s.form.CustomGeometry = poly
		}
		s.setState(SelectedExisting)
		return
	}
	s.setState(Idle)
}

// OnZoneTypeChanged switches the form's zone kind. A finished draft is kept
// while the form stays polygon kind.
func (s *Session) OnZoneTypeChanged(kind model.Kind) {
	s.form.ZoneType = kind

	if s.state == DrawingNew || (s.state == DraftDrawn && kind != model.KindPolygon) {
		s.CancelDrawing()
	}

	if kind != model.KindPolygon {
		s.cleanup(s.restoreStyle())
		s.form.CustomGeometry = nil
	}

	if kind == model.KindPolygon {
		s.form.RadiusKm = nil
	} else if !s.form.HasRadius() {
		r := s.cfg.DefaultRadiusKm
		s.form.RadiusKm = &r
	}
}

// UpdateForm edits the form fields in place.
func (s *Session) UpdateForm(fn func(d *model.ZoneDraft)) {
	fn(&s.form)
}

// Form returns the current form.
func (s *Session) Form() model.ZoneDraft {
	return s.form
}

// Editing returns the persisted zone loaded into the form.
func (s *Session) Editing() (model.Zone, bool) {
	if s.editing == nil {
		return model.Zone{}, false
	}
	return *s.editing, true
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Target returns the current edit target shape, or nil.
func (s *Session) Target() layer.Shape {
	return s.target
}

// HasDraft reports whether an unsaved freehand polygon exists.
func (s *Session) HasDraft() bool {
	return s.target != nil && s.targetID == ""
}

func (s *Session) restoreStyle() layer.Style {
	if s.editing != nil {
		return layer.StyleHighlighted
	}
	return layer.StyleDefault
}

// cleanup releases the edit target: a borrowed shape goes back to restore
// style, a draft is removed from the map.
func (s *Session) cleanup(restore layer.Style) {
	if s.target == nil {
		return
	}
	if s.targetID != "" && s.layers.Owns(s.target) {
		s.layers.SetStyle(s.targetID, restore)
	} else {
		s.target.Remove()
	}
	s.target = nil
	s.targetID = ""
}

func (s *Session) setState(next State) {
	if next != s.state {
		s.logger.Debug("Edit session transition", "from", s.state.String(), "to", next.String())
	}
	s.state = next
}
