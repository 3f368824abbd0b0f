package gormstorage

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/zonekit/deliveryzones/internal/coverage"
	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/model"
)

const centerID = "delivery_center"

// ZoneRecord is a persisted zone with the geometry points are matched against.
type ZoneRecord struct {
	ID                    string `gorm:"primaryKey;size:36"`
	Name                  string `gorm:"size:128"`
	ZoneType              string `gorm:"size:16;index"`
	RadiusKm              *float64
	Geometry              datatypes.JSON
	AnchorLat             *float64
	AnchorLng             *float64
	Color                 string `gorm:"size:16"`
	DeliveryFee           float64
	MinOrderAmount        float64
	FreeDeliveryThreshold *float64
	Enabled               bool `gorm:"index"`
	Priority              int  `gorm:"index"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (ZoneRecord) TableName() string {
	return "delivery_zones"
}

// CenterRecord is the single service center row.
type CenterRecord struct {
	ID        string `gorm:"primaryKey;size:32"`
	Lat       float64
	Lng       float64
	Address   string `gorm:"size:256"`
	UpdatedAt time.Time
}

func (CenterRecord) TableName() string {
	return "delivery_centers"
}

// Models lists every table the store migrates.
var Models = []any{&ZoneRecord{}, &CenterRecord{}}

func newZoneRecord(s coverage.Stored) (ZoneRecord, error) {
	raw, err := json.Marshal(s.Geometry)
	if err != nil {
		return ZoneRecord{}, fmt.Errorf("failed to encode geometry of zone %s: %w", s.Zone.ID, err)
	}

	z := s.Zone
	rec := ZoneRecord{
		ID:                    z.ID,
		Name:                  z.Name,
		ZoneType:              string(z.Kind()),
		Geometry:              datatypes.JSON(raw),
		Color:                 z.Color,
		DeliveryFee:           z.DeliveryFee,
		MinOrderAmount:        z.MinOrderAmount,
		FreeDeliveryThreshold: z.FreeDeliveryThreshold,
		Enabled:               z.Enabled,
		Priority:              z.Priority,
	}
	if r, ok := z.Radius(); ok {
		rec.RadiusKm = &r
	}
	if s.Anchor != nil {
		lat, lng := s.Anchor.Lat(), s.Anchor.Lng()
		rec.AnchorLat, rec.AnchorLng = &lat, &lng
	}
	return rec, nil
}

func (r ZoneRecord) stored() (coverage.Stored, error) {
	poly, err := geo.ParseGeoJSONPolygon(r.Geometry)
	if err != nil {
		return coverage.Stored{}, fmt.Errorf("zone %s: %w", r.ID, err)
	}

	z := model.Zone{
		ID:                    r.ID,
		Name:                  r.Name,
		Color:                 r.Color,
		DeliveryFee:           r.DeliveryFee,
		MinOrderAmount:        r.MinOrderAmount,
		FreeDeliveryThreshold: r.FreeDeliveryThreshold,
		Enabled:               r.Enabled,
		Priority:              r.Priority,
	}
	switch model.Kind(r.ZoneType) {
	case model.KindPolygon:
		z.Shape = model.PolygonShape{Geometry: poly}
	default:
		var radius float64
		if r.RadiusKm != nil {
			radius = *r.RadiusKm
		}
		z.Shape = model.RadiusShape{RadiusKm: radius}
	}

	s := coverage.Stored{Zone: z, Geometry: poly}
	if r.AnchorLat != nil && r.AnchorLng != nil {
		s.Anchor = &geo.LatLng{*r.AnchorLat, *r.AnchorLng}
	}
	return s, nil
}
