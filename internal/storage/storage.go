// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/zonekit/deliveryzones/internal/model"
)

// Backend is the zone and center store the workspace reads and mutates.
// The remote API client and the local stores all satisfy it.
type Backend interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error

	// Center
	GetCenter(ctx context.Context) (model.Center, error)
	UpdateCenter(ctx context.Context, center model.Center) (model.Center, error)
	RecalculateAll(ctx context.Context) (model.RecalcResult, error)

	// Zones
	ListZones(ctx context.Context) ([]model.Zone, error)
	CreateZone(ctx context.Context, d model.ZoneDraft) (model.Zone, error)
	UpdateZone(ctx context.Context, id string, d model.ZoneDraft) (model.Zone, error)
	DeleteZone(ctx context.Context, id string) error

	// Lookup
	ClassifyPoint(ctx context.Context, lat, lng float64) (model.Classification, error)
}
