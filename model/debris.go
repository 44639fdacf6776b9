package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// RiskTier is the coarse three-level attention class assigned to a tracked
// object. It is not a calibrated collision probability.
type RiskTier string

const (
	RiskHigh   RiskTier = "high"
	RiskMedium RiskTier = "medium"
	RiskLow    RiskTier = "low"
)

// RiskAll is the filter selector that matches every tier. It is never
// assigned to a record.
const RiskAll = "all"

// UnknownName is substituted when a raw element set carries no object name.
const UnknownName = "Unknown"

// Tiers lists the risk tiers in descending severity.
var Tiers = []RiskTier{RiskHigh, RiskMedium, RiskLow}

// Valid reports whether t is one of the three defined tiers.
func (t RiskTier) Valid() bool {
	switch t {
	case RiskHigh, RiskMedium, RiskLow:
		return true
	}
	return false
}

// ParseRiskTier accepts a tier name in any case.
func ParseRiskTier(s string) (RiskTier, error) {
	t := RiskTier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown risk tier %q", s)
	}
	return t, nil
}

// DebrisRecord is a derived, display-ready view of one tracked object.
//
// Latitude and Longitude are illustrative only. Live records get uniformly
// random placeholders (PositionPlaceholder is true) because a real ground
// track needs orbit propagation; sample records carry fixed values.
type DebrisRecord struct {
	Name           string   `json:"name"`
	CatalogID      int      `json:"catalogId"`
	AltitudeKm     float64  `json:"altitudeKm"`
	InclinationDeg string   `json:"inclinationDeg"`
	RiskTier       RiskTier `json:"riskTier"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`

	PositionPlaceholder bool `json:"positionPlaceholder,omitempty"`
}

// CatalogIDString is the decimal form used for search matching.
func (r DebrisRecord) CatalogIDString() string {
	return fmt.Sprintf("%d", r.CatalogID)
}

// MarshalJSON writes a non-finite AltitudeKm (left by a degenerate mean
// motion) as null so the rest of the record still encodes.
func (r DebrisRecord) MarshalJSON() ([]byte, error) {
	type plain DebrisRecord
	out := struct {
		plain
		AltitudeKm *float64 `json:"altitudeKm"`
	}{plain: plain(r)}
	if !math.IsInf(r.AltitudeKm, 0) && !math.IsNaN(r.AltitudeKm) {
		out.AltitudeKm = &r.AltitudeKm
	}
	return json.Marshal(out)
}
