package geo

import (
	"math"
	"testing"
)

// TestDistanceMiles checks the haversine against a known city pair.
func TestDistanceMiles(t *testing.T) {
	// New York City to Philadelphia is roughly 80.5 miles great-circle.
	nycLat, nycLon := 40.7128, -74.0060
	phlLat, phlLon := 39.9526, -75.1652

	distance := DistanceMiles(nycLat, nycLon, phlLat, phlLon)
	if distance < 78 || distance > 83 {
		t.Errorf("Expected NYC-Philadelphia distance around 80.5 miles, got %.2f", distance)
	}
	t.Logf("NYC-Philadelphia: %.2f miles", distance)

	// Symmetric in both directions
	reverse := DistanceMiles(phlLat, phlLon, nycLat, nycLon)
	if math.Abs(distance-reverse) > 1e-9 {
		t.Errorf("Expected symmetric distances, got %.10f vs %.10f", distance, reverse)
	}

	// Identical points are zero miles apart
	if d := DistanceMiles(nycLat, nycLon, nycLat, nycLon); d != 0 {
		t.Errorf("Expected zero distance for identical points, got %f", d)
	}
}

func TestRoundMiles(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.04, 1.0},
		{1.05, 1.1},
		{12.349, 12.3},
		{99.96, 100.0},
	}

	for _, c := range cases {
		if got := RoundMiles(c.in); got != c.want {
			t.Errorf("RoundMiles(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
