package geofence

import (
	"math"
	"testing"
)

func TestDistanceZero(t *testing.T) {
	if d := Distance(48.8584, 2.2945, 48.8584, 2.2945); d != 0 {
		t.Errorf("distance to itself = %v, want 0", d)
	}
}

func TestDistanceKnownPairs(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
	}{
		{"Paris to London", 48.8566, 2.3522, 51.5074, -0.1278, 343.5},
		{"equator degree of longitude", 0, 0, 0, 1, 111.19},
		{"across the antimeridian", 0, 179.5, 0, -179.5, 111.19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKm) > tt.wantKm*0.01 {
				t.Errorf("distance = %.2f km, want about %.2f km", got, tt.wantKm)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Distance(48.8566, 2.3522, 41.9028, 12.4964)
	b := Distance(41.9028, 12.4964, 48.8566, 2.3522)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}
