package mapview

import (
	"encoding/json"
	"fmt"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/zonekit/deliveryzones/internal/geo"
)

// GeoJSON exports the polygons on the map as a FeatureCollection, converting
// each shape back to storage order. The shape id becomes the feature id.
func (m *Map) GeoJSON() ([]byte, error) {
	fc := make(geom.GeoJSONFeatureCollection, 0, len(m.shapes))
	for _, p := range m.shapes {
		g, err := geo.FromMap(p.rings).Geom()
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", p.id, err)
		}
		fc = append(fc, geom.GeoJSONFeature{
			Geometry: g.AsGeometry(),
			ID:       p.id,
			Properties: map[string]any{
				"label":       p.label,
				"color":       p.color,
				"weight":      p.style.Weight,
				"opacity":     p.style.Opacity,
				"fillOpacity": p.style.FillOpacity,
				"dashArray":   p.style.DashArray,
			},
		})
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feature collection: %w", err)
	}
	return data, nil
}
