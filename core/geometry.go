package core

import (
	"math"

	satellite "github.com/joshuaferrara/go-satellite"
)

// EarthRadiusKm is the mean Earth radius used for altitude derivation and
// display geometry (kilometres).
const EarthRadiusKm = 6371.0

const degToRad = math.Pi / 180.0

// Vec3 is an ECEF-style vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Geodetic is a point given by latitude/longitude in degrees and altitude in
// kilometres above the surface.
type Geodetic struct {
	LatitudeDeg  float64
	LongitudeDeg float64
	AltitudeKm   float64
}

// LatLon is a bare surface coordinate in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// referenceJD pins the ECI<->ECEF rotation. Positions in this module are
// illustrative and time-independent, so any fixed epoch works; J2000 keeps it
// recognisable.
var referenceJD = satellite.JDay(2000, 1, 1, 12, 0, 0)

// GeodeticToECEF converts a geodetic point to ECEF kilometres using the
// go-satellite ellipsoid helpers (LLA -> ECI -> ECEF at a fixed epoch).
func GeodeticToECEF(g Geodetic) Vec3 {
	gmst := satellite.ThetaG_JD(referenceJD)
	eci := satellite.LLAToECI(satellite.LatLong{
		Latitude:  g.LatitudeDeg * degToRad,
		Longitude: g.LongitudeDeg * degToRad,
	}, g.AltitudeKm, referenceJD)
	ecef := satellite.ECIToECEF(eci, gmst)
	return Vec3{X: ecef.X, Y: ecef.Y, Z: ecef.Z}
}
