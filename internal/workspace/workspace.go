// Package workspace is the long-lived editor context: it owns the service
// center, the ring cache, the layer manager and the edit session, and runs
// every map callback through a single dispatcher loop.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zonekit/deliveryzones/internal/cache"
	"github.com/zonekit/deliveryzones/internal/config"
	"github.com/zonekit/deliveryzones/internal/debounce"
	"github.com/zonekit/deliveryzones/internal/dispatcher"
	"github.com/zonekit/deliveryzones/internal/editor"
	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/layer"
	"github.com/zonekit/deliveryzones/internal/logging"
	"github.com/zonekit/deliveryzones/internal/model"
	"github.com/zonekit/deliveryzones/internal/storage"
)

// Loop events.
const (
	EventZoneSelected    = "zone.selected"
	EventPolygonDrawn    = "zone.drawn"
	EventMapClicked      = "map.clicked"
	EventResized         = "map.resized"
	EventProbeClassified = "probe.classified"
)

// InitialZoom is the zoom the view starts at once the center is known.
const InitialZoom = 13

// DefaultCenter is shown until the backend reports the real center.
var DefaultCenter = model.Center{Lat: 48.9219, Lng: 24.7082}

// ErrNoSelection is returned by DeleteZone when no persisted zone is loaded.
var ErrNoSelection = errors.New("no zone selected")

// Map is the map surface the workspace draws on and listens to.
type Map interface {
	layer.Surface
	layer.DrawTool
	OnClick(fn func(geo.LatLng))
	OnCreate(fn func(layer.Shape))
}

// Dependencies holds everything the workspace is built from.
type Dependencies struct {
	Backend storage.Backend
	Map     Map
	Loop    *dispatcher.Dispatcher
	Logger  *slog.Logger

	MapConfig    config.MapConfig
	EditorConfig config.EditorConfig

	// OnNotice receives every user-facing message.
	OnNotice func(Notice)
}

// Workspace is the single editor context.
type Workspace struct {
	deps Dependencies
	// base logs from goroutines other than the loop; logger adds live state
	// and must only be used on the loop.
	base   *slog.Logger
	logger *slog.Logger

	// ctx scopes async work started from loop events
	ctx context.Context

	center model.Center
	zones  []model.Zone

	rings   *cache.RingCache
	layers  *layer.Manager
	session *editor.Session

	resize  *debounce.Debouncer
	resized bool

	probes    map[string]*Probe
	probeSeq  int
	onProbe   func(Probe)
	notices   []Notice
	noticesMu sync.Mutex
}

// New builds a workspace and registers its loop handlers. Call Init before
// use.
func New(deps Dependencies) *Workspace {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MapConfig.SampleCount <= 0 {
		deps.MapConfig.SampleCount = geo.DefaultSampleCount
	}

	center := DefaultCenter
	if deps.MapConfig.CenterLat != 0 || deps.MapConfig.CenterLng != 0 {
		center = model.Center{Lat: deps.MapConfig.CenterLat, Lng: deps.MapConfig.CenterLng}
	}

	w := &Workspace{
		deps:   deps,
		base:   deps.Logger,
		ctx:    context.Background(),
		center: center,
		rings:  cache.NewRingCache(deps.MapConfig.SampleCount),
		resize: debounce.New(deps.MapConfig.ResizeDebounce),
		probes: make(map[string]*Probe),
	}
	w.logger = slog.New(logging.NewContextHandler(deps.Logger.Handler(), w.logAttrs))

	w.layers = layer.NewManager(deps.Map, w.rings,
		layer.WithLogger(w.logger.With("component", "layer")),
		layer.WithDefaultViewRadius(deps.MapConfig.DefaultRadiusKm),
	)
	w.session = editor.New(w.layers, deps.Map, editor.Config{
		DefaultColor:    deps.EditorConfig.DefaultColor,
		DefaultRadiusKm: deps.EditorConfig.DefaultRadiusKm,
		Logger:          w.logger.With("component", "editor"),
	})

	w.layers.OnZoneSelected(func(z model.Zone) { w.post(EventZoneSelected, z) })
	deps.Map.OnCreate(func(s layer.Shape) { w.post(EventPolygonDrawn, s) })
	deps.Map.OnClick(func(pt geo.LatLng) { w.post(EventMapClicked, pt) })

	loop := deps.Loop
	loop.Register(EventZoneSelected, w.handleZoneSelected, dispatcher.Logged())
	loop.Register(EventPolygonDrawn, w.handlePolygonDrawn, dispatcher.Logged())
	loop.Register(EventMapClicked, w.handleMapClicked, dispatcher.Logged())
	loop.Register(EventResized, w.handleResized)
	loop.Register(EventProbeClassified, w.handleProbeClassified, dispatcher.Logged())

	return w
}

// Init loads the center and zones concurrently, then renders. A failed
// fetch leaves that part at its previous value (the default center before
// the first load) and is reported through a
// notice; Init still resets the form.
func (w *Workspace) Init(ctx context.Context) error {
	w.ctx = ctx

	var (
		center   model.Center
		zones    []model.Zone
		centerOK bool
		zonesOK  bool
	)

	var g errgroup.Group
	g.Go(func() error {
		c, err := w.deps.Backend.GetCenter(ctx)
		if err != nil {
			return fmt.Errorf("failed to load center: %w", err)
		}
		center, centerOK = c, true
		return nil
	})
	g.Go(func() error {
		zs, err := w.deps.Backend.ListZones(ctx)
		if err != nil {
			return fmt.Errorf("failed to load zones: %w", err)
		}
		zones, zonesOK = zs, true
		return nil
	})
	err := g.Wait()

	if centerOK {
		w.center = center
	}
	w.deps.Map.SetView(w.center.LatLng(), InitialZoom)
	if zonesOK {
		w.zones = zones
		if rerr := w.layers.RenderAll(zones, w.center); rerr != nil {
			w.logger.Warn("Some zones could not be rendered", "error", rerr)
		}
	}
	if err != nil {
		w.logger.Error("Initial load failed", "error", err)
		w.notify(errorMessage(err, MsgLoadFailed), true)
	}

	w.session.New(len(w.zones) + 1)
	return err
}

// LoadZones fetches the zone list and re-renders it.
func (w *Workspace) LoadZones(ctx context.Context) error {
	zones, err := w.deps.Backend.ListZones(ctx)
	if err != nil {
		w.logger.Error("Failed to load zones", "error", err)
		w.notify(errorMessage(err, MsgLoadFailed), true)
		return fmt.Errorf("failed to load zones: %w", err)
	}
	w.zones = zones
	if err := w.layers.RenderAll(zones, w.center); err != nil {
		w.logger.Warn("Some zones could not be rendered", "error", err)
	}
	return nil
}

// UpdateCenter moves the service center: persist, recalculate radius zones
// server-side, clear the ring cache, reload. An empty address keeps the
// current one. Nothing changes locally unless the first two steps succeed.
func (w *Workspace) UpdateCenter(ctx context.Context, lat, lng float64, address string) error {
	if address == "" {
		address = w.center.Address
	}
	next := model.Center{Lat: lat, Lng: lng, Address: address}
	if err := model.ValidateCenter(next); err != nil {
		w.notify(errorMessage(err, MsgCenterFailed), true)
		return err
	}

	saved, err := w.deps.Backend.UpdateCenter(ctx, next)
	if err != nil {
		w.logger.Error("Failed to update center", "error", err)
		w.notify(errorMessage(err, MsgCenterFailed), true)
		return fmt.Errorf("failed to update center: %w", err)
	}
	res, err := w.deps.Backend.RecalculateAll(ctx)
	if err != nil {
		w.logger.Error("Failed to recalculate zones", "error", err)
		w.notify(errorMessage(err, MsgCenterFailed), true)
		return fmt.Errorf("failed to recalculate zones: %w", err)
	}
	w.logger.Info("Recalculated zones", "updated", res.ZonesUpdated)

	w.center = saved
	w.rings.Reset()

	if err := w.LoadZones(ctx); err != nil {
		// keep the displayed rings on the new center
		if rerr := w.layers.RenderAll(w.zones, w.center); rerr != nil {
			w.logger.Warn("Some zones could not be rendered", "error", rerr)
		}
		return err
	}
	w.notify(MsgCenterUpdated, false)
	return nil
}

// SaveZone validates the form and creates or updates the zone, then reloads
// and resets the form.
func (w *Workspace) SaveZone(ctx context.Context) error {
	form := w.session.Form()
	if err := form.Validate(); err != nil {
		w.notify(errorMessage(err, MsgSaveFailed), true)
		return err
	}

	editing, isEdit := w.session.Editing()
	var err error
	if isEdit {
		_, err = w.deps.Backend.UpdateZone(ctx, editing.ID, form)
	} else {
		_, err = w.deps.Backend.CreateZone(ctx, form)
	}
	if err != nil {
		w.logger.Error("Failed to save zone", "error", err, "update", isEdit)
		w.notify(errorMessage(err, MsgSaveFailed), true)
		return fmt.Errorf("failed to save zone: %w", err)
	}

	if err := w.LoadZones(ctx); err != nil {
		return err
	}
	if isEdit {
		w.notify(MsgZoneUpdated, false)
	} else {
		w.notify(MsgZoneCreated, false)
	}
	w.session.New(len(w.zones) + 1)
	return nil
}

// DeleteZone deletes the zone loaded into the form.
func (w *Workspace) DeleteZone(ctx context.Context) error {
	editing, ok := w.session.Editing()
	if !ok {
		return ErrNoSelection
	}

	if err := w.deps.Backend.DeleteZone(ctx, editing.ID); err != nil {
		w.logger.Error("Failed to delete zone", "zone", editing.ID, "error", err)
		w.notify(errorMessage(err, MsgDeleteFailed), true)
		return fmt.Errorf("failed to delete zone: %w", err)
	}

	if err := w.LoadZones(ctx); err != nil {
		return err
	}
	w.notify(MsgZoneDeleted, false)
	w.session.New(len(w.zones) + 1)
	return nil
}

// OnResize handles a map container resize. The first one is applied at
// once; later ones collapse into a single InvalidateSize after the
// debounce delay.
func (w *Workspace) OnResize() {
	if !w.resized {
		w.resized = true
		w.deps.Map.InvalidateSize()
		return
	}
	w.resize.Trigger(func() { w.post(EventResized, nil) })
}

// Close drops pending timers.
func (w *Workspace) Close() {
	w.resize.Cancel()
}

// Center returns the current service center.
func (w *Workspace) Center() model.Center { return w.center }

// Zones returns the last loaded zone list.
func (w *Workspace) Zones() []model.Zone { return w.zones }

// Session returns the edit session.
func (w *Workspace) Session() *editor.Session { return w.session }

// Layers returns the layer manager.
func (w *Workspace) Layers() *layer.Manager { return w.layers }

// Annuli returns the ring polygons currently cached for the center. Callers
// must not modify them.
func (w *Workspace) Annuli() []*geo.Annulus { return w.rings.Annuli() }

// Highlight marks one zone as highlighted; "" clears.
func (w *Workspace) Highlight(zoneID string) { w.layers.Highlight(zoneID) }

func (w *Workspace) post(command string, payload any) {
	err := w.deps.Loop.Post(dispatcher.Event{Command: command, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		w.base.Error("Dropped loop event", "command", command, "error", err)
	}
}

func (w *Workspace) handleZoneSelected(e dispatcher.Event) (any, error) {
	z, ok := e.Payload.(model.Zone)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", e.Payload)
	}
	w.session.Select(z)
	return nil, nil
}

func (w *Workspace) handlePolygonDrawn(e dispatcher.Event) (any, error) {
	s, ok := e.Payload.(layer.Shape)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", e.Payload)
	}
	if err := w.session.OnPolygonDrawn(s); err != nil {
		return nil, err
	}
	w.notify(MsgPolygonDrawn, false)
	return nil, nil
}

func (w *Workspace) handleMapClicked(e dispatcher.Event) (any, error) {
	pt, ok := e.Payload.(geo.LatLng)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", e.Payload)
	}
	return w.PlaceProbe(w.ctx, pt), nil
}

func (w *Workspace) handleResized(dispatcher.Event) (any, error) {
	w.deps.Map.InvalidateSize()
	return nil, nil
}

func (w *Workspace) logAttrs() []slog.Attr {
	// records logged while New is still wiring things up
	if w.layers == nil || w.session == nil {
		return nil
	}
	return []slog.Attr{
		slog.Float64("center_lat", w.center.Lat),
		slog.Float64("center_lng", w.center.Lng),
		slog.Int("shapes", w.layers.Len()),
		slog.String("editor", w.session.State().String()),
	}
}
