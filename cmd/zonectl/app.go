package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/zonekit/deliveryzones/internal/config"
	"github.com/zonekit/deliveryzones/internal/dispatcher"
	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/logging"
	"github.com/zonekit/deliveryzones/internal/mapview"
	"github.com/zonekit/deliveryzones/internal/storage"
	"github.com/zonekit/deliveryzones/internal/workspace"
)

type app struct {
	backend storage.Backend
	loop    *dispatcher.Dispatcher
	m       *mapview.Map
	ws      *workspace.Workspace
}

func newApp(ctx context.Context) (*app, error) {
	mapCfg := config.GetMapConfig()

	backend, err := storage.NewBackend(config.GetStorageConfig(), storage.Options{
		API:         config.GetAPIConfig(),
		DB:          config.GetDBConfig(),
		SampleCount: mapCfg.SampleCount,
		Logger:      DBLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(ctx); err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}

	loop, err := dispatcher.New(logging.NewDispatcherLogger(DBLogger), dispatcher.DefaultQueueSize)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to create event loop: %w", err)
	}

	m := mapview.New(mapCfg.Width, mapCfg.Height, geo.LatLng{mapCfg.CenterLat, mapCfg.CenterLng}, workspace.InitialZoom)
	ws := workspace.New(workspace.Dependencies{
		Backend:      backend,
		Map:          m,
		Loop:         loop,
		Logger:       Logger,
		MapConfig:    mapCfg,
		EditorConfig: config.GetEditorConfig(),
		OnNotice: func(n workspace.Notice) {
			if n.IsError {
				fmt.Fprintln(os.Stderr, "error:", n.Message)
			} else {
				fmt.Fprintln(os.Stderr, n.Message)
			}
		},
	})

	if err := ws.Init(ctx); err != nil {
		ws.Close()
		backend.Close()
		return nil, err
	}
	return &app{backend: backend, loop: loop, m: m, ws: ws}, nil
}

func (a *app) close() {
	a.ws.Close()
	if err := a.backend.Close(); err != nil {
		Logger.Warn("Failed to close storage backend", "error", err)
	}
}

func (a *app) render() error {
	data, err := a.m.GeoJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func (a *app) listZones(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tRADIUS\tPRIORITY\tENABLED\tFEE")
	for _, z := range a.ws.Zones() {
		radius := "-"
		if r, ok := z.Radius(); ok {
			radius = strconv.FormatFloat(r, 'f', -1, 64) + " km"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\t%.2f\n",
			z.ID, z.Name, z.Kind(), radius, z.Priority, z.Enabled, z.DeliveryFee)
	}
	return tw.Flush()
}

func (a *app) moveCenter(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("center needs <lat> <lng>")
	}
	pt, err := parseLatLng(args[0], args[1])
	if err != nil {
		return err
	}
	address := ""
	if len(args) > 2 {
		address = args[2]
	}
	if err := a.ws.UpdateCenter(ctx, pt.Lat(), pt.Lng(), address); err != nil {
		return err
	}
	return writeJSON(a.ws.Center())
}

func (a *app) probe(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("probe needs <lat> <lng>")
	}
	pt, err := parseLatLng(args[0], args[1])
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var resolved *workspace.Probe
	a.ws.OnProbeResolved(func(p workspace.Probe) {
		resolved = &p
		cancel()
	})
	a.ws.PlaceProbe(ctx, pt)

	if err := a.loop.Run(loopCtx); resolved == nil {
		return err
	}
	if resolved.Err != nil {
		return resolved.Err
	}
	return writeJSON(resolved.Result)
}

func parseLatLng(latArg, lngArg string) (geo.LatLng, error) {
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil {
		return geo.LatLng{}, fmt.Errorf("invalid latitude %q: %w", latArg, err)
	}
	lng, err := strconv.ParseFloat(lngArg, 64)
	if err != nil {
		return geo.LatLng{}, fmt.Errorf("invalid longitude %q: %w", lngArg, err)
	}
	return geo.LatLng{lat, lng}, nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
