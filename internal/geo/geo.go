// Package geo holds the great-circle helpers used for proximity discovery.
// All distances are in meters unless a name says otherwise.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by MongoDB's spherical queries.
const EarthRadiusMeters = 6378100.0

// MetersPerDegree is the length of one degree of latitude on the same sphere.
const MetersPerDegree = EarthRadiusMeters * math.Pi / 180

func rad(d float64) float64 { return d * math.Pi / 180 }

func deg(r float64) float64 { return r * 180 / math.Pi }

// HaversineMeters returns the great-circle distance between two points given in degrees.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	φ1, φ2 := rad(lat1), rad(lat2)
	Δφ := rad(lat2 - lat1)
	Δλ := rad(lng2 - lng1)
	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

func KmToMeters(km float64) float64 { return km * 1000 }

func MetersToKm(m float64) float64 { return m / 1000 }

// RoundKm rounds a kilometer value to two decimals for display.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// Box is a lat/lng bounding box used as a cheap pre-filter before the exact
// haversine check.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox returns a box that contains every point within radiusMeters of
// (lat, lng) on the sphere HaversineMeters uses. The longitude span is the
// widest the circle reaches, asin(sin(r/R)/cos(lat)); when the circle covers a
// pole the box spans every longitude.
func BoundingBox(lat, lng, radiusMeters float64) Box {
	angular := radiusMeters / EarthRadiusMeters
	dLat := radiusMeters / MetersPerDegree
	b := Box{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
		MinLng: -180,
		MaxLng: 180,
	}
	if lat+dLat >= 90 || lat-dLat <= -90 || angular >= math.Pi/2 {
		return b
	}
	if s := math.Sin(angular) / math.Cos(rad(lat)); s < 1 {
		dLng := deg(math.Asin(s))
		b.MinLng, b.MaxLng = lng-dLng, lng+dLng
	}
	return b
}

// Contains reports whether the point lies inside the box. Boxes that cross the
// antimeridian are handled by wrapping the longitude.
func (b Box) Contains(lat, lng float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	if lng >= b.MinLng && lng <= b.MaxLng {
		return true
	}
	return lng+360 <= b.MaxLng || lng-360 >= b.MinLng
}
