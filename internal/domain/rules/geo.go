package rules

import (
	"math"

	"github.com/ivankudzin/kinmatch/internal/domain/model"
)

const EarthRadiusKM = 6371.0

func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(v float64) float64 { return v * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

// DistanceBetween returns nil unless both profiles carry coordinates.
func DistanceBetween(a, b model.Profile) *float64 {
	if !a.HasLocation() || !b.HasLocation() {
		return nil
	}
	d := HaversineKM(*a.Lat, *a.Lon, *b.Lat, *b.Lon)
	return &d
}
