package model

// RawElementSet is one entry of a general-perturbations JSON feed. Only the
// fields needed for derivation are decoded; the rest of the feed is ignored.
//
// Inclination is a pointer so a missing value can be told apart from 0°.
type RawElementSet struct {
	ObjectName   string   `json:"OBJECT_NAME"`
	NoradCatID   int      `json:"NORAD_CAT_ID"`
	MeanMotion   float64  `json:"MEAN_MOTION"`  // revolutions per day
	Inclination  *float64 `json:"INCLINATION"`  // degrees
	Eccentricity float64  `json:"ECCENTRICITY"` // unitless
}
