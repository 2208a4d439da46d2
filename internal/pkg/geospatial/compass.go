package geospatial

import "math"

// Compass is one of the eight principal wind directions.
type Compass string

const (
	North     Compass = "N"
	NorthEast Compass = "NE"
	East      Compass = "E"
	SouthEast Compass = "SE"
	South     Compass = "S"
	SouthWest Compass = "SW"
	West      Compass = "W"
	NorthWest Compass = "NW"
)

var compassPoints = [8]Compass{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// CompassDirection buckets a bearing into the nearest 45° sector.
// Any real bearing is accepted; NaN maps to North.
func CompassDirection(bearing float64) Compass {
	if math.IsNaN(bearing) || math.IsInf(bearing, 0) {
		return North
	}
	idx := int(math.Round(normalizeDegrees(bearing)/45)) % 8
	return compassPoints[idx]
}
