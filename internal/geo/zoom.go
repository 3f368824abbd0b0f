package geo

// ZoomForRadius maps the largest zone radius to a map zoom level. The
// thresholds are strict: exactly 5 km stays at zoom 13.
func ZoomForRadius(radiusKm float64) int {
	switch {
	case radiusKm > 20:
		return 10
	case radiusKm > 10:
		return 11
	case radiusKm > 5:
		return 12
	case radiusKm > 2:
		return 13
	default:
		return 14
	}
}
