package geospatial_test

import (
	"math"
	"testing"

	"github.com/samirrijal/tourmap/internal/pkg/geospatial"
)

type coords struct {
	lat float64
	lon float64
}

var (
	devonTower     = coords{35.4669626, -97.5280147}
	anthemBrewing  = coords{35.4674537, -97.5331325}
	gatewayOfIndia = coords{18.9220, 72.8347}
	calangute      = coords{15.5438, 73.7555}
	panjimUser     = coords{15.5, 73.8}
	tajMahal       = coords{27.1751, 78.0421}
	reykjavik      = coords{64.1334904, -21.8524423}
	tokyo          = coords{35.5092405, 139.7698121}
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	t.Parallel()

	// Short distance: rounded to metres
	dist := math.Round(geospatial.HaversineKm(devonTower.lat, devonTower.lon, anthemBrewing.lat, anthemBrewing.lon) * 1000)
	if dist != 467 {
		t.Errorf("expected 467 meters between Devon Tower and Anthem Brewing, got %f", dist)
	}

	// Very long distance
	dist = math.Round(geospatial.HaversineKm(reykjavik.lat, reykjavik.lon, tokyo.lat, tokyo.lon) * 1000)
	if dist != 8818082 {
		t.Errorf("expected 8818082 meters between Reykjavík and Tokyo, got %f", dist)
	}

	// User near Panjim to Calangute Beach
	km := geospatial.HaversineKm(panjimUser.lat, panjimUser.lon, calangute.lat, calangute.lon)
	if math.Abs(km-6.8155) > 0.001 {
		t.Errorf("expected ~6.8155 km to Calangute, got %f", km)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	t.Parallel()

	points := []coords{devonTower, anthemBrewing, gatewayOfIndia, calangute, tajMahal, reykjavik, tokyo, {-33.86, 151.21}, {0, 0}, {89.9, 179.9}}
	for _, a := range points {
		for _, b := range points {
			ab := geospatial.HaversineKm(a.lat, a.lon, b.lat, b.lon)
			ba := geospatial.HaversineKm(b.lat, b.lon, a.lat, a.lon)
			if math.Abs(ab-ba) > 1e-6 {
				t.Errorf("distance not symmetric for %v/%v: %f vs %f", a, b, ab, ba)
			}
		}
		if d := geospatial.HaversineKm(a.lat, a.lon, a.lat, a.lon); d != 0 {
			t.Errorf("expected 0 for identical points %v, got %f", a, d)
		}
	}
}

func TestHaversineKm_Antipodal(t *testing.T) {
	t.Parallel()

	halfCircumference := math.Pi * 6371
	cases := []struct{ a, b coords }{
		{coords{0, 0}, coords{0, 180}},
		{coords{90, 0}, coords{-90, 0}},
		{coords{15.5, 73.8}, coords{-15.5, -106.2}},
	}
	for _, tc := range cases {
		d := geospatial.HaversineKm(tc.a.lat, tc.a.lon, tc.b.lat, tc.b.lon)
		if math.IsNaN(d) || math.Abs(d-halfCircumference) > 1e-6 {
			t.Errorf("expected %f km between antipodes %v and %v, got %f", halfCircumference, tc.a, tc.b, d)
		}
	}
}

func TestInitialBearing(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		from, to coords
		want     float64
	}{
		{"due north", coords{0, 0}, coords{1, 0}, 0},
		{"due east", coords{0, 0}, coords{0, 1}, 90},
		{"due south", coords{1, 0}, coords{0, 0}, 180},
		{"due west", coords{0, 1}, coords{0, 0}, 270},
		{"identical", calangute, calangute, 0},
		{"calangute from panjim", panjimUser, calangute, 315.616},
	}
	for _, tc := range cases {
		got := geospatial.InitialBearing(tc.from.lat, tc.from.lon, tc.to.lat, tc.to.lon)
		if math.Abs(got-tc.want) > 0.001 {
			t.Errorf("%s: expected bearing %f, got %f", tc.name, tc.want, got)
		}
		if got < 0 || got >= 360 {
			t.Errorf("%s: bearing %f outside [0, 360)", tc.name, got)
		}
	}
}

func TestInitialBearing_WrapsNearNorth(t *testing.T) {
	t.Parallel()

	// Slightly west of due north must land just under 360, never at 360.
	got := geospatial.InitialBearing(10, 0, 11, -1e-9)
	if got < 359 || got >= 360 {
		t.Errorf("expected bearing just below 360, got %f", got)
	}
	if dir := geospatial.CompassDirection(got); dir != geospatial.North {
		t.Errorf("expected N, got %s", dir)
	}
}

func TestCompassDirection(t *testing.T) {
	t.Parallel()

	cases := map[float64]geospatial.Compass{
		0:     geospatial.North,
		22.4:  geospatial.North,
		22.6:  geospatial.NorthEast,
		90:    geospatial.East,
		135:   geospatial.SouthEast,
		180:   geospatial.South,
		225:   geospatial.SouthWest,
		270:   geospatial.West,
		315.6: geospatial.NorthWest,
		337.4: geospatial.NorthWest,
		337.6: geospatial.North,
		359.9: geospatial.North,
		-45:   geospatial.NorthWest,
		-90:   geospatial.West,
	}
	for bearing, want := range cases {
		if got := geospatial.CompassDirection(bearing); got != want {
			t.Errorf("CompassDirection(%v): expected %s, got %s", bearing, want, got)
		}
	}
}

func TestCompassDirection_Periodic(t *testing.T) {
	t.Parallel()

	for i := 0; i < 150; i++ {
		b := -719.9 + float64(i)*10
		if a, c := geospatial.CompassDirection(b), geospatial.CompassDirection(b+360); a != c {
			t.Errorf("CompassDirection(%v)=%s but CompassDirection(%v)=%s", b, a, b+360, c)
		}
	}
}

func TestEstimate(t *testing.T) {
	t.Parallel()

	speeds := geospatial.DefaultSpeeds

	if got := speeds.Estimate(0); got != (geospatial.TravelTime{}) {
		t.Errorf("expected zero travel time for zero distance, got %+v", got)
	}

	got := speeds.Estimate(6.8155)
	want := geospatial.TravelTime{Walking: 82, Driving: 10, Transit: 16}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	got = speeds.Estimate(40)
	if got.Driving != 60 || got.Walking != 480 || got.Transit != 96 {
		t.Errorf("unexpected estimate for 40 km: %+v", got)
	}
}

func TestEstimate_DegenerateInputs(t *testing.T) {
	t.Parallel()

	speeds := geospatial.DefaultSpeeds
	for _, d := range []float64{1e-7, -1, math.NaN(), math.Inf(1)} {
		got := speeds.Estimate(d)
		if got.Walking < 0 || got.Driving < 0 || got.Transit < 0 {
			t.Errorf("negative minutes for distance %v: %+v", d, got)
		}
		if got != (geospatial.TravelTime{}) {
			t.Errorf("expected zero minutes for distance %v, got %+v", d, got)
		}
	}

	custom := geospatial.Speeds{WalkingKmh: 4, DrivingKmh: 0, TransitKmh: -3}
	got := custom.Estimate(2)
	if got.Walking != 30 || got.Driving != 0 || got.Transit != 0 {
		t.Errorf("unexpected estimate with custom speeds: %+v", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	t.Parallel()

	if got := geospatial.FormatMinutes(12); got != "12 min" {
		t.Errorf("expected '12 min', got %q", got)
	}
}
