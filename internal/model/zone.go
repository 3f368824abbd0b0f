// Package model holds the delivery-zone domain types shared by the editor,
// the layer manager and the storage backends.
package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zonekit/deliveryzones/internal/geo"
)

// ErrZoneNotFound is returned by stores for an unknown zone identity.
var ErrZoneNotFound = errors.New("zone not found")

// Kind tags the two zone variants.
type Kind string

const (
	KindRadius  Kind = "radius"
	KindPolygon Kind = "polygon"
)

// Center is the single service center all radius zones are drawn around.
type Center struct {
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng     float64 `json:"lng" validate:"gte=-180,lte=180"`
	Address string  `json:"address"`
}

// LatLng returns the center in map order.
func (c Center) LatLng() geo.LatLng {
	return geo.LatLng{c.Lat, c.Lng}
}

// Shape is the variant-specific part of a zone: RadiusShape or PolygonShape.
type Shape interface {
	Kind() Kind
	isShape()
}

// RadiusShape is a ring around the service center.
type RadiusShape struct {
	RadiusKm float64
}

func (RadiusShape) Kind() Kind { return KindRadius }
func (RadiusShape) isShape()   {}

// PolygonShape is a free-form area in storage order.
type PolygonShape struct {
	Geometry geo.Polygon
}

func (PolygonShape) Kind() Kind { return KindPolygon }
func (PolygonShape) isShape()   {}

// Zone is a persisted delivery zone. ID is assigned by the store.
type Zone struct {
	ID                    string
	Name                  string
	Color                 string
	DeliveryFee           float64
	MinOrderAmount        float64
	FreeDeliveryThreshold *float64
	Enabled               bool
	Priority              int
	Shape                 Shape
}

// Kind returns the variant tag, defaulting to radius for a zone without shape.
func (z Zone) Kind() Kind {
	if z.Shape == nil {
		return KindRadius
	}
	return z.Shape.Kind()
}

// Radius returns the radius of a radius zone.
func (z Zone) Radius() (float64, bool) {
	s, ok := z.Shape.(RadiusShape)
	return s.RadiusKm, ok
}

// Geometry returns the stored polygon of a polygon zone.
func (z Zone) Geometry() (geo.Polygon, bool) {
	s, ok := z.Shape.(PolygonShape)
	return s.Geometry, ok
}

// zoneWire is the JSON form used by the zone API.
type zoneWire struct {
	ID                    string          `json:"_id,omitempty"`
	Name                  string          `json:"name"`
	ZoneType              Kind            `json:"zone_type"`
	RadiusKm              *float64        `json:"radius_km,omitempty"`
	Geometry              json.RawMessage `json:"geometry,omitempty"`
	Color                 string          `json:"color"`
	DeliveryFee           float64         `json:"delivery_fee"`
	MinOrderAmount        float64         `json:"min_order_amount"`
	FreeDeliveryThreshold *float64        `json:"free_delivery_threshold"`
	Enabled               bool            `json:"enabled"`
	Priority              int             `json:"priority"`
}

// MarshalJSON encodes the zone in the API's flat, tagged form.
func (z Zone) MarshalJSON() ([]byte, error) {
	w := zoneWire{
		ID:                    z.ID,
		Name:                  z.Name,
		ZoneType:              z.Kind(),
		Color:                 z.Color,
		DeliveryFee:           z.DeliveryFee,
		MinOrderAmount:        z.MinOrderAmount,
		FreeDeliveryThreshold: z.FreeDeliveryThreshold,
		Enabled:               z.Enabled,
		Priority:              z.Priority,
	}
	switch s := z.Shape.(type) {
	case RadiusShape:
		r := s.RadiusKm
		w.RadiusKm = &r
	case PolygonShape:
		raw, err := s.Geometry.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to encode zone geometry: %w", err)
		}
		w.Geometry = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the API form. A radius zone never keeps geometry,
// even when the server sends its precomputed circle.
func (z *Zone) UnmarshalJSON(data []byte) error {
	var w zoneWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*z = Zone{
		ID:                    w.ID,
		Name:                  w.Name,
		Color:                 w.Color,
		DeliveryFee:           w.DeliveryFee,
		MinOrderAmount:        w.MinOrderAmount,
		FreeDeliveryThreshold: w.FreeDeliveryThreshold,
		Enabled:               w.Enabled,
		Priority:              w.Priority,
	}

	switch w.ZoneType {
	case KindPolygon:
		poly, err := geo.ParseGeoJSONPolygon(w.Geometry)
		if err != nil {
			return fmt.Errorf("zone %q: %w", w.ID, err)
		}
		z.Shape = PolygonShape{Geometry: poly}
	case KindRadius, "":
		var r float64
		if w.RadiusKm != nil {
			r = *w.RadiusKm
		}
		z.Shape = RadiusShape{RadiusKm: r}
	default:
		return fmt.Errorf("zone %q: unknown zone_type %q", w.ID, w.ZoneType)
	}
	return nil
}

// Classification is the lookup service's answer for a point.
type Classification struct {
	ZoneID                string   `json:"zone_id,omitempty"`
	ZoneName              string   `json:"zone_name,omitempty"`
	DeliveryFee           float64  `json:"delivery_fee"`
	MinOrderAmount        float64  `json:"min_order_amount"`
	FreeDeliveryThreshold *float64 `json:"free_delivery_threshold"`
	Coordinates           *Point   `json:"coordinates,omitempty"`
	Available             bool     `json:"available"`
	Message               string   `json:"message"`
}

// Point is a bare coordinate echoed back by the lookup service.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RecalcResult reports a server-side recalculation of radius zone geometry.
type RecalcResult struct {
	Status       string `json:"status"`
	ZonesUpdated int    `json:"zones_updated"`
	Message      string `json:"message"`
}
