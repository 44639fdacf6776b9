package core

import (
	"math"
	"testing"
)

func TestVec3DistanceTo(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 2}
	if got := a.DistanceTo(Vec3{}); got != 3 {
		t.Fatalf("DistanceTo = %v, want 3", got)
	}
	if got := a.Norm(); got != 3 {
		t.Fatalf("Norm = %v, want 3", got)
	}
}

// The ellipsoid used by go-satellite differs from the mean radius by a few
// kilometres, so only coarse bounds are asserted here.
func TestGeodeticToECEF_SurfaceRadius(t *testing.T) {
	for _, g := range []Geodetic{
		{LatitudeDeg: 0, LongitudeDeg: 0},
		{LatitudeDeg: 45, LongitudeDeg: -120},
		{LatitudeDeg: -89, LongitudeDeg: 179},
	} {
		got := GeodeticToECEF(g).Norm()
		if math.Abs(got-EarthRadiusKm) > 30 {
			t.Fatalf("|ECEF(%+v)| = %.1f km, want ~%.0f", g, got, EarthRadiusKm)
		}
	}
}

func TestGeodeticToECEF_AltitudeAddsRadially(t *testing.T) {
	low := GeodeticToECEF(Geodetic{LatitudeDeg: 30, LongitudeDeg: 60, AltitudeKm: 0})
	high := GeodeticToECEF(Geodetic{LatitudeDeg: 30, LongitudeDeg: 60, AltitudeKm: 2000})
	if d := high.Norm() - low.Norm(); math.Abs(d-2000) > 30 {
		t.Fatalf("radial delta = %.1f km, want ~2000", d)
	}
	if d := low.DistanceTo(high); math.Abs(d-2000) > 30 {
		t.Fatalf("distance = %.1f km, want ~2000", d)
	}
}

func TestGeodeticToECEF_Hemispheres(t *testing.T) {
	north := GeodeticToECEF(Geodetic{LatitudeDeg: 60, LongitudeDeg: 10})
	south := GeodeticToECEF(Geodetic{LatitudeDeg: -60, LongitudeDeg: 10})
	if north.Z <= 0 || south.Z >= 0 {
		t.Fatalf("unexpected Z signs: north=%.1f south=%.1f", north.Z, south.Z)
	}

	// Points on opposite meridians are roughly a diameter apart.
	east := GeodeticToECEF(Geodetic{LatitudeDeg: 0, LongitudeDeg: 90})
	west := GeodeticToECEF(Geodetic{LatitudeDeg: 0, LongitudeDeg: -90})
	if d := east.DistanceTo(west); math.Abs(d-2*EarthRadiusKm) > 60 {
		t.Fatalf("antipodal distance = %.1f km", d)
	}
}
