package workspace

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/zonekit/deliveryzones/internal/dispatcher"
	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/model"
)

// Probe is an address-check marker. Its classification arrives
// asynchronously and is matched back by ID.
type Probe struct {
	ID      string
	Point   geo.LatLng
	Pending bool
	Result  model.Classification
	Err     error

	seq int
}

type probeResult struct {
	id     string
	result model.Classification
	err    error
}

// PlaceProbe drops a marker at pt and starts classifying it. The result is
// applied on the loop; it is discarded if the probe is gone by then.
func (w *Workspace) PlaceProbe(ctx context.Context, pt geo.LatLng) string {
	id := uuid.NewString()
	w.probeSeq++
	w.probes[id] = &Probe{ID: id, Point: pt, Pending: true, seq: w.probeSeq}

	backend := w.deps.Backend
	go func() {
		res, err := backend.ClassifyPoint(ctx, pt.Lat(), pt.Lng())
		w.post(EventProbeClassified, probeResult{id: id, result: res, err: err})
	}()
	return id
}

// RemoveProbe removes a marker. A classification still in flight for it is
// dropped when it arrives.
func (w *Workspace) RemoveProbe(id string) bool {
	if _, ok := w.probes[id]; !ok {
		return false
	}
	delete(w.probes, id)
	return true
}

// Probe returns a copy of the probe with the given ID.
func (w *Workspace) Probe(id string) (Probe, bool) {
	p, ok := w.probes[id]
	if !ok {
		return Probe{}, false
	}
	return *p, true
}

// Probes returns all probes in placement order.
func (w *Workspace) Probes() []Probe {
	out := make([]Probe, 0, len(w.probes))
	for _, p := range w.probes {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// OnProbeResolved sets a callback fired on the loop when a probe's
// classification has been applied.
func (w *Workspace) OnProbeResolved(fn func(Probe)) {
	w.onProbe = fn
}

func (w *Workspace) handleProbeClassified(e dispatcher.Event) (any, error) {
	r, ok := e.Payload.(probeResult)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", e.Payload)
	}

	p, ok := w.probes[r.id]
	if !ok {
		w.logger.Debug("Discarding classification for removed probe", "probe", r.id)
		return nil, nil
	}

	p.Pending = false
	p.Result, p.Err = r.result, r.err
	if r.err != nil {
		w.logger.Warn("Probe classification failed", "probe", r.id, "error", r.err)
	}

	if w.onProbe != nil {
		w.onProbe(*p)
	}
	return nil, nil
}
