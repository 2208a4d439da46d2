package geospatial

import (
	"fmt"
	"math"
)

// Speeds are the constant average speeds, in km/h, used for travel estimates.
//
// The resulting times are planning-grade approximations over the straight-line
// distance. They ignore roads, terrain and traffic and are not routed
// navigation times.
type Speeds struct {
	WalkingKmh float64 `mapstructure:"walking_kmh" json:"walking_kmh"`
	DrivingKmh float64 `mapstructure:"driving_kmh" json:"driving_kmh"`
	TransitKmh float64 `mapstructure:"transit_kmh" json:"transit_kmh"`
}

// DefaultSpeeds are placeholder averages, not measured values.
var DefaultSpeeds = Speeds{WalkingKmh: 5, DrivingKmh: 40, TransitKmh: 25}

// TravelTime is an estimate in whole minutes per mode.
type TravelTime struct {
	Walking int
	Driving int
	Transit int
}

// Estimate converts a distance into minutes per mode: round(distance / speed * 60).
func (s Speeds) Estimate(distanceKm float64) TravelTime {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm <= 0 {
		return TravelTime{}
	}
	return TravelTime{
		Walking: minutesAt(distanceKm, s.WalkingKmh),
		Driving: minutesAt(distanceKm, s.DrivingKmh),
		Transit: minutesAt(distanceKm, s.TransitKmh),
	}
}

func minutesAt(distanceKm, kmh float64) int {
	if kmh <= 0 || math.IsNaN(kmh) {
		return 0
	}
	return int(math.Round(distanceKm / kmh * 60))
}

// FormatMinutes renders a duration the way the map toasts show it.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%d min", m)
}
