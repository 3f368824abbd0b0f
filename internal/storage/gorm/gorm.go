// Package gormstorage implements the storage.Backend interface on a GORM
// database (SQLite or PostgreSQL). It stores the same geometry the lookup
// service would, so it can answer classification requests locally.
package gormstorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zonekit/deliveryzones/internal/coverage"
	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/model"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
	// DefaultCenter is written when the database has no center yet.
	DefaultCenter model.Center
	SampleCount   int
	// Close releases the connection; nil when the caller owns it.
	Close func() error
}

// Backend implements storage.Backend on GORM.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.SampleCount <= 0 {
		deps.SampleCount = geo.DefaultSampleCount
	}
	return &Backend{deps: deps}
}

// Init migrates the schema and writes the default center if none exists.
func (b *Backend) Init(ctx context.Context) error {
	db := b.deps.DB.WithContext(ctx)

	b.deps.Logger.Info().Msg("Migrating schema")
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	var count int64
	if err := db.Model(&CenterRecord{}).Where("id = ?", centerID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to read center: %w", err)
	}
	if count == 0 {
		c := b.deps.DefaultCenter
		if err := db.Create(&CenterRecord{ID: centerID, Lat: c.Lat, Lng: c.Lng, Address: c.Address}).Error; err != nil {
			return fmt.Errorf("failed to create default center: %w", err)
		}
		b.deps.Logger.Info().Float64("lat", c.Lat).Float64("lng", c.Lng).Msg("Created default center")
	}

	b.deps.Logger.Info().Msg("Database setup complete")
	return nil
}

// Close releases the connection when the backend owns it.
func (b *Backend) Close() error {
	if b.deps.Close == nil {
		return nil
	}
	return b.deps.Close()
}

// GetCenter returns the service center.
func (b *Backend) GetCenter(ctx context.Context) (model.Center, error) {
	return b.center(b.deps.DB.WithContext(ctx))
}

func (b *Backend) center(db *gorm.DB) (model.Center, error) {
	var rec CenterRecord
	err := db.First(&rec, "id = ?", centerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b.deps.DefaultCenter, nil
	}
	if err != nil {
		return model.Center{}, fmt.Errorf("failed to read center: %w", err)
	}
	return model.Center{Lat: rec.Lat, Lng: rec.Lng, Address: rec.Address}, nil
}

// UpdateCenter upserts the service center. Radius zones keep their old
// geometry until RecalculateAll.
func (b *Backend) UpdateCenter(ctx context.Context, c model.Center) (model.Center, error) {
	if err := model.ValidateCenter(c); err != nil {
		return model.Center{}, err
	}

	rec := CenterRecord{ID: centerID, Lat: c.Lat, Lng: c.Lng, Address: c.Address}
	err := b.deps.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"lat", "lng", "address", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return model.Center{}, fmt.Errorf("failed to update center: %w", err)
	}
	b.deps.Logger.Debug().Float64("lat", c.Lat).Float64("lng", c.Lng).Msg("Center updated")
	return c, nil
}

// RecalculateAll redraws the stored geometry of every radius zone around
// the current center in one transaction.
func (b *Backend) RecalculateAll(ctx context.Context) (model.RecalcResult, error) {
	updated := 0
	err := b.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		center, err := b.center(tx)
		if err != nil {
			return err
		}

		var recs []ZoneRecord
		if err := tx.Where("zone_type = ?", string(model.KindRadius)).Find(&recs).Error; err != nil {
			return fmt.Errorf("failed to load radius zones: %w", err)
		}

		all := make([]coverage.Stored, 0, len(recs))
		for _, r := range recs {
			s, err := r.stored()
			if err != nil {
				return err
			}
			all = append(all, s)
		}

		out, n := coverage.Recalculate(all, center, b.deps.SampleCount)
		for i, s := range out {
			rec, err := newZoneRecord(s)
			if err != nil {
				return err
			}
			rec.CreatedAt = recs[i].CreatedAt
			if err := tx.Save(&rec).Error; err != nil {
				return fmt.Errorf("failed to save zone %s: %w", rec.ID, err)
			}
		}
		updated = n
		return nil
	})
	if err != nil {
		return model.RecalcResult{}, err
	}

	b.deps.Logger.Info().Int("zones", updated).Msg("Recalculated radius zones")
	return coverage.RecalcResult(updated), nil
}

// ListZones returns every zone ordered by priority.
func (b *Backend) ListZones(ctx context.Context) ([]model.Zone, error) {
	all, err := b.load(b.deps.DB.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	zones := make([]model.Zone, 0, len(all))
	for _, s := range all {
		zones = append(zones, s.Zone)
	}
	return zones, nil
}

func (b *Backend) load(db *gorm.DB) ([]coverage.Stored, error) {
	var recs []ZoneRecord
	if err := db.Order("priority asc").Order("created_at asc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	all := make([]coverage.Stored, 0, len(recs))
	for _, r := range recs {
		s, err := r.stored()
		if err != nil {
			b.deps.Logger.Warn().Err(err).Str("zone", r.ID).Msg("Skipping unreadable zone")
			continue
		}
		all = append(all, s)
	}
	return all, nil
}

// CreateZone validates and stores a new zone.
func (b *Backend) CreateZone(ctx context.Context, d model.ZoneDraft) (model.Zone, error) {
	z, err := d.Zone(uuid.NewString())
	if err != nil {
		return model.Zone{}, err
	}

	db := b.deps.DB.WithContext(ctx)
	rec, err := b.record(db, z)
	if err != nil {
		return model.Zone{}, err
	}
	if err := db.Create(&rec).Error; err != nil {
		return model.Zone{}, fmt.Errorf("failed to create zone: %w", err)
	}
	return z, nil
}

// UpdateZone replaces an existing zone.
func (b *Backend) UpdateZone(ctx context.Context, id string, d model.ZoneDraft) (model.Zone, error) {
	z, err := d.Zone(id)
	if err != nil {
		return model.Zone{}, err
	}

	err = b.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing ZoneRecord
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", model.ErrZoneNotFound, id)
			}
			return fmt.Errorf("failed to read zone: %w", err)
		}

		rec, err := b.record(tx, z)
		if err != nil {
			return err
		}
		rec.CreatedAt = existing.CreatedAt
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("failed to update zone: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Zone{}, err
	}
	return z, nil
}

// DeleteZone removes a zone.
func (b *Backend) DeleteZone(ctx context.Context, id string) error {
	res := b.deps.DB.WithContext(ctx).Delete(&ZoneRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete zone: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", model.ErrZoneNotFound, id)
	}
	return nil
}

// ClassifyPoint finds the enabled zone covering the point.
func (b *Backend) ClassifyPoint(ctx context.Context, lat, lng float64) (model.Classification, error) {
	var recs []ZoneRecord
	if err := b.deps.DB.WithContext(ctx).Where("enabled = ?", true).Find(&recs).Error; err != nil {
		return model.Classification{}, fmt.Errorf("failed to load zones: %w", err)
	}
	all := make([]coverage.Stored, 0, len(recs))
	for _, r := range recs {
		s, err := r.stored()
		if err != nil {
			continue
		}
		all = append(all, s)
	}
	return coverage.Classify(all, lat, lng), nil
}

func (b *Backend) record(db *gorm.DB, z model.Zone) (ZoneRecord, error) {
	center, err := b.center(db)
	if err != nil {
		return ZoneRecord{}, err
	}
	s, err := coverage.Prepare(z, center, b.deps.SampleCount)
	if err != nil {
		return ZoneRecord{}, err
	}
	return newZoneRecord(s)
}
