package core

import (
	"math"
	"strconv"

	"github.com/signalsfoundry/orbitwatch/model"
)

// EarthMuKm3PerS2 is Earth's standard gravitational parameter.
const EarthMuKm3PerS2 = 398600.4418

const secondsPerDay = 86400.0

// Risk thresholds used by ClassifyRisk.
const (
	CriticalAltitudeKm   = 500.0
	LEOCeilingKm         = 2000.0
	UnstableEccentricity = 0.01
)

// DeriveAltitude converts mean motion (rev/day) to an altitude above the mean
// Earth radius using Kepler's third law.
//
// The input is not validated. Zero yields +Inf and NaN stays NaN; callers that
// care must check upstream.
func DeriveAltitude(meanMotionRevPerDay float64) float64 {
	n := meanMotionRevPerDay * 2 * math.Pi / secondsPerDay
	semiMajorAxis := math.Cbrt(EarthMuKm3PerS2 / (n * n))
	return semiMajorAxis - EarthRadiusKm
}

// ClassifyRisk maps altitude and eccentricity to a tier. The eccentricity test
// is OR'd into the first branch, so an elongated orbit is high risk at any
// altitude.
func ClassifyRisk(altitudeKm, eccentricity float64) model.RiskTier {
	if altitudeKm < CriticalAltitudeKm || eccentricity > UnstableEccentricity {
		return model.RiskHigh
	}
	if altitudeKm < LEOCeilingKm {
		return model.RiskMedium
	}
	return model.RiskLow
}

// DeriveRecord turns one raw element set into a display record. The tier is
// classified from the unrounded altitude; the stored altitude is rounded.
func DeriveRecord(raw model.RawElementSet, pos LatLon, placeholder bool) model.DebrisRecord {
	altitude := DeriveAltitude(raw.MeanMotion)

	name := raw.ObjectName
	if name == "" {
		name = model.UnknownName
	}

	inclination := ""
	if raw.Inclination != nil {
		inclination = strconv.FormatFloat(*raw.Inclination, 'f', 2, 64)
	}

	return model.DebrisRecord{
		Name:                name,
		CatalogID:           raw.NoradCatID,
		AltitudeKm:          roundHalfUp(altitude),
		InclinationDeg:      inclination,
		RiskTier:            ClassifyRisk(altitude, raw.Eccentricity),
		Latitude:            pos.Lat,
		Longitude:           pos.Lon,
		PositionPlaceholder: placeholder,
	}
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
