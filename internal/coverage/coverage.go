// Package coverage implements the lookup service's side of the zone
// contract for the local stores: the stored geometry of each zone and the
// classification of a point against it.
package coverage

import (
	"fmt"
	"math"
	"sort"

	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/model"
)

const (
	MessageOutside = "Coordinates are outside delivery zones"
	messageZone    = "Zone: %s"
)

// Circle approximates a radius zone the way the lookup service stores it:
// an equirectangular circle of n points plus the closing point.
func Circle(center geo.LatLng, radiusKm float64, n int) geo.Polygon {
	if n <= 0 {
		n = geo.DefaultSampleCount
	}
	latFactor := radiusKm / geo.EarthRadiusKm * 180 / math.Pi
	lngFactor := latFactor / math.Cos(center.Lat()*math.Pi/180)

	ring := make(geo.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		ring = append(ring, geo.LngLat{
			center.Lng() + lngFactor*math.Sin(angle),
			center.Lat() + latFactor*math.Cos(angle),
		})
	}
	ring = append(ring, ring[0])
	return geo.Polygon{ring}
}

// Stored is a zone together with the geometry the lookup service matches
// points against.
type Stored struct {
	Zone     model.Zone
	Geometry geo.Polygon
	// Anchor is the circle center for radius zones and the centroid for
	// polygon zones. It is nil when no centroid could be computed.
	Anchor *geo.LatLng
}

// Prepare derives the stored geometry of a draft. Radius zones are drawn
// around center; polygon zones keep their drawn geometry.
func Prepare(z model.Zone, center model.Center, n int) (Stored, error) {
	s := Stored{Zone: z}
	switch shape := z.Shape.(type) {
	case model.RadiusShape:
		if shape.RadiusKm <= 0 {
			return Stored{}, fmt.Errorf("zone %q: radius must be positive", z.ID)
		}
		c := center.LatLng()
		s.Geometry = Circle(c, shape.RadiusKm, n)
		s.Anchor = &c
	case model.PolygonShape:
		if shape.Geometry.Empty() {
			return Stored{}, fmt.Errorf("zone %q: polygon has no geometry", z.ID)
		}
		s.Geometry = shape.Geometry
		if c, err := shape.Geometry.Centroid(); err == nil {
			s.Anchor = &c
		}
	default:
		return Stored{}, fmt.Errorf("zone %q: unknown shape %T", z.ID, z.Shape)
	}
	return s, nil
}

// Recalculate redraws every radius zone around center and reports how many
// changed. Polygon zones are returned untouched.
func Recalculate(zones []Stored, center model.Center, n int) ([]Stored, int) {
	out := make([]Stored, len(zones))
	updated := 0
	for i, s := range zones {
		out[i] = s
		if s.Zone.Kind() != model.KindRadius {
			continue
		}
		if next, err := Prepare(s.Zone, center, n); err == nil {
			out[i] = next
			updated++
		}
	}
	return out, updated
}

// RecalcResult builds the service's reply for a recalculation.
func RecalcResult(updated int) model.RecalcResult {
	if updated == 0 {
		return model.RecalcResult{
			Status:  "recalculated",
			Message: "No radius zones to recalculate. Polygon zones are not affected by center changes.",
		}
	}
	return model.RecalcResult{
		Status:       "recalculated",
		ZonesUpdated: updated,
		Message:      "Only radius zones were recalculated. Polygon zones unchanged.",
	}
}

// Classify finds the enabled zone covering the point. Overlaps resolve to
// the lowest priority number.
func Classify(zones []Stored, lat, lng float64) model.Classification {
	candidates := make([]Stored, 0, len(zones))
	for _, s := range zones {
		if s.Zone.Enabled && s.Geometry.Contains(lat, lng) {
			candidates = append(candidates, s)
		}
	}

	res := model.Classification{Coordinates: &model.Point{Lat: lat, Lng: lng}}
	if len(candidates) == 0 {
		res.Message = MessageOutside
		return res
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Zone.Priority < candidates[j].Zone.Priority
	})
	z := candidates[0].Zone
	res.ZoneID = z.ID
	res.ZoneName = z.Name
	res.DeliveryFee = z.DeliveryFee
	res.MinOrderAmount = z.MinOrderAmount
	res.FreeDeliveryThreshold = z.FreeDeliveryThreshold
	res.Available = true
	res.Message = fmt.Sprintf(messageZone, z.Name)
	return res
}

// SortByPriority orders zones the way the list endpoint returns them.
func SortByPriority(zones []model.Zone) {
	sort.SliceStable(zones, func(i, j int) bool {
		return zones[i].Priority < zones[j].Priority
	})
}
