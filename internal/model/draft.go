package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/zonekit/deliveryzones/internal/geo"
)

var validate = validator.New()

// ValidationError is a user-facing input problem caught before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ZoneDraft is the editing form: a zone not yet persisted, or the pending
// changes to an existing one.
type ZoneDraft struct {
	Name                  string      `json:"name"`
	ZoneType              Kind        `json:"zone_type" validate:"oneof=radius polygon"`
	RadiusKm              *float64    `json:"radius_km" validate:"omitempty,gt=0,lte=50"`
	CustomGeometry        geo.Polygon `json:"custom_geometry,omitempty"`
	Color                 string      `json:"color" validate:"omitempty,hexcolor"`
	DeliveryFee           float64     `json:"delivery_fee" validate:"gte=0"`
	MinOrderAmount        float64     `json:"min_order_amount" validate:"gte=0"`
	FreeDeliveryThreshold *float64    `json:"free_delivery_threshold" validate:"omitempty,gte=0"`
	Enabled               bool        `json:"enabled"`
	Priority              int         `json:"priority" validate:"gte=0"`
}

// NewDraft returns the form for a fresh radius zone.
func NewDraft(color string, radiusKm float64, priority int) ZoneDraft {
	r := radiusKm
	return ZoneDraft{
		ZoneType: KindRadius,
		RadiusKm: &r,
		Color:    color,
		Enabled:  true,
		Priority: priority,
	}
}

// DraftFromZone loads an existing zone into the form.
func DraftFromZone(z Zone) ZoneDraft {
	d := ZoneDraft{
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
		d.RadiusKm = &r
	case PolygonShape:
		d.CustomGeometry = s.Geometry
	}
	return d
}

// HasRadius reports whether a positive radius is set.
func (d ZoneDraft) HasRadius() bool {
	return d.RadiusKm != nil && *d.RadiusKm > 0
}

// Validate checks the variant requirements first, then field ranges.
func (d ZoneDraft) Validate() error {
	switch d.ZoneType {
	case KindRadius:
		if !d.HasRadius() {
			return &ValidationError{Field: "radius_km", Message: "enter the zone radius"}
		}
	case KindPolygon:
		if d.CustomGeometry.Empty() {
			return &ValidationError{Field: "custom_geometry", Message: "draw the zone on the map"}
		}
	}

	if err := validate.Struct(d); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return &ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("%s %s", fe.Field(), validationMessage(fe)),
			}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// Zone materializes the draft into a zone with the given identity.
func (d ZoneDraft) Zone(id string) (Zone, error) {
	if err := d.Validate(); err != nil {
		return Zone{}, err
	}
	z := Zone{
		ID:                    id,
		Name:                  d.Name,
		Color:                 d.Color,
		DeliveryFee:           d.DeliveryFee,
		MinOrderAmount:        d.MinOrderAmount,
		FreeDeliveryThreshold: d.FreeDeliveryThreshold,
		Enabled:               d.Enabled,
		Priority:              d.Priority,
	}
	if d.ZoneType == KindPolygon {
		z.Shape = PolygonShape{Geometry: d.CustomGeometry}
	} else {
		z.Shape = RadiusShape{RadiusKm: *d.RadiusKm}
	}
	return z, nil
}

// ValidateCenter range-checks a center update.
func ValidateCenter(c Center) error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return &ValidationError{Field: ve[0].Field(), Message: fmt.Sprintf("%s %s", ve[0].Field(), validationMessage(ve[0]))}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "hexcolor":
		return "must be a hex color"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
