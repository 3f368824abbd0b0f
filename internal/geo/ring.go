package geo

import "math"

// EarthRadiusKm is the spherical Earth radius used for ring generation.
const EarthRadiusKm = 6371.0

// DefaultSampleCount is the number of bearings sampled around a ring.
const DefaultSampleCount = 64

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// GeodesicRing approximates the geodesic circle of radiusKm around center
// with n+1 vertices at bearings i*360/n, i = 0..n. The last bearing is 360°,
// so the ring closes on its first vertex. A zero radius yields n+1 copies of
// the center.
func GeodesicRing(center LatLng, radiusKm float64, n int) Ring {
	if n <= 0 {
		n = DefaultSampleCount
	}
	ring := make(Ring, n+1)

	if radiusKm == 0 {
		for i := range ring {
			ring[i] = center.Swap()
		}
		return ring
	}

	angDist := radiusKm / EarthRadiusKm
	latRad := toRad(center.Lat())
	lngRad := toRad(center.Lng())
	sinLat, cosLat := math.Sin(latRad), math.Cos(latRad)
	sinAng, cosAng := math.Sin(angDist), math.Cos(angDist)

	for i := 0; i <= n; i++ {
		bearing := toRad(float64(i) * 360 / float64(n))
		lat2 := math.Asin(sinLat*cosAng + cosLat*sinAng*math.Cos(bearing))
		lng2 := lngRad + math.Atan2(
			math.Sin(bearing)*sinAng*cosLat,
			cosAng-sinLat*math.Sin(lat2),
		)
		ring[i] = LngLat{toDeg(lng2), toDeg(lat2)}
	}
	return ring
}
