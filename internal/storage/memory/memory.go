// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/zonekit/deliveryzones/internal/coverage"
	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/model"
)

// Config holds configuration for the memory backend.
type Config struct {
	// Seed loads the demo center and zones on Init.
	Seed        bool
	SampleCount int
}

// Backend keeps zones and the center in process memory. Nothing survives a
// restart.
type Backend struct {
	cfg Config

	center model.Center
	zones  map[string]coverage.Stored
	seq    map[string]uint64
	next   uint64

	mu sync.RWMutex
}

// New creates a new memory backend
func New(cfg Config) *Backend {
	if cfg.SampleCount <= 0 {
		cfg.SampleCount = geo.DefaultSampleCount
	}
	return &Backend{
		cfg:    cfg,
		center: DemoCenter,
		zones:  make(map[string]coverage.Stored),
		seq:    make(map[string]uint64),
	}
}

// Init seeds demo data when configured
func (b *Backend) Init(ctx context.Context) error {
	if !b.cfg.Seed {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.center = DemoCenter
	for _, z := range DemoZones() {
		if err := b.put(z); err != nil {
			return fmt.Errorf("failed to seed zone %s: %w", z.ID, err)
		}
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// GetCenter returns the service center
func (b *Backend) GetCenter(ctx context.Context) (model.Center, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.center, nil
}

// UpdateCenter replaces the service center. Radius zones keep their old
// geometry until RecalculateAll.
func (b *Backend) UpdateCenter(ctx context.Context, center model.Center) (model.Center, error) {
	if err := model.ValidateCenter(center); err != nil {
		return model.Center{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.center = center
	return center, nil
}

// RecalculateAll redraws radius zones around the current center
func (b *Backend) RecalculateAll(ctx context.Context) (model.RecalcResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]string, 0, len(b.zones))
	all := make([]coverage.Stored, 0, len(b.zones))
	for id, s := range b.zones {
		ids = append(ids, id)
		all = append(all, s)
	}

	out, updated := coverage.Recalculate(all, b.center, b.cfg.SampleCount)
	for i, id := range ids {
		b.zones[id] = out[i]
	}
	return coverage.RecalcResult(updated), nil
}

// ListZones returns every zone ordered by priority
func (b *Backend) ListZones(ctx context.Context) ([]model.Zone, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	zones := make([]model.Zone, 0, len(b.zones))
	for _, id := range b.idsInInsertOrder() {
		zones = append(zones, b.zones[id].Zone)
	}
	coverage.SortByPriority(zones)
	return zones, nil
}

// CreateZone validates and stores a new zone under a fresh identity
func (b *Backend) CreateZone(ctx context.Context, d model.ZoneDraft) (model.Zone, error) {
	z, err := d.Zone(uuid.NewString())
	if err != nil {
		return model.Zone{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.put(z); err != nil {
		return model.Zone{}, err
	}
	return z, nil
}

// UpdateZone replaces an existing zone
func (b *Backend) UpdateZone(ctx context.Context, id string, d model.ZoneDraft) (model.Zone, error) {
	z, err := d.Zone(id)
	if err != nil {
		return model.Zone{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.zones[id]; !ok {
		return model.Zone{}, fmt.Errorf("%w: %s", model.ErrZoneNotFound, id)
	}
	if err := b.put(z); err != nil {
		return model.Zone{}, err
	}
	return z, nil
}

// DeleteZone removes a zone
func (b *Backend) DeleteZone(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.zones[id]; !ok {
		return fmt.Errorf("%w: %s", model.ErrZoneNotFound, id)
	}
	delete(b.zones, id)
	delete(b.seq, id)
	return nil
}

// ClassifyPoint finds the enabled zone covering the point
func (b *Backend) ClassifyPoint(ctx context.Context, lat, lng float64) (model.Classification, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	all := make([]coverage.Stored, 0, len(b.zones))
	for _, id := range b.idsInInsertOrder() {
		all = append(all, b.zones[id])
	}
	return coverage.Classify(all, lat, lng), nil
}

// put stores z with geometry derived from the current center. Caller holds mu.
func (b *Backend) put(z model.Zone) error {
	s, err := coverage.Prepare(z, b.center, b.cfg.SampleCount)
	if err != nil {
		return err
	}
	if _, ok := b.seq[z.ID]; !ok {
		b.next++
		b.seq[z.ID] = b.next
	}
	b.zones[z.ID] = s
	return nil
}

func (b *Backend) idsInInsertOrder() []string {
	ids := make([]string, 0, len(b.seq))
	for id := range b.seq {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return b.seq[ids[i]] < b.seq[ids[j]] })
	return ids
}
