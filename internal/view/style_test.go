package view

import (
	"math"
	"testing"

	"github.com/signalsfoundry/orbitwatch/model"
)

func TestStyleFor(t *testing.T) {
	cases := []struct {
		tier  model.RiskTier
		hex   string
		alpha float64
		size  float64
	}{
		{model.RiskHigh, "#ff0000", 0.9, 6},
		{model.RiskMedium, "#ffff00", 0.8, 4},
		{model.RiskLow, "#00ff88", 0.7, 3},
	}
	for _, tc := range cases {
		st := StyleFor(tc.tier)
		if st.Color.Hex() != tc.hex || st.Color.A != tc.alpha {
			t.Errorf("%s color = %s/%v, want %s/%v", tc.tier, st.Color.Hex(), st.Color.A, tc.hex, tc.alpha)
		}
		if st.Outline.Hex() != tc.hex || st.Outline.A != 0.3 || st.OutlineWidth != 2 {
			t.Errorf("%s outline = %+v width %v", tc.tier, st.Outline, st.OutlineWidth)
		}
		if st.Size != tc.size {
			t.Errorf("%s size = %v, want %v", tc.tier, st.Size, tc.size)
		}
	}
}

func TestNearFarScalar(t *testing.T) {
	cases := []struct {
		dist, want float64
	}{
		{0, 1},
		{1_000, 1},
		{25_500, 0.75},
		{50_000, 0.5},
		{1e9, 0.5},
	}
	for _, tc := range cases {
		if got := DistanceScale.Scale(tc.dist); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Scale(%v) = %v, want %v", tc.dist, got, tc.want)
		}
	}

	degenerate := NearFarScalar{Near: 10, NearValue: 2, Far: 10, FarValue: 1}
	if got := degenerate.Scale(100); got != 2 {
		t.Fatalf("degenerate Scale = %v, want NearValue", got)
	}
}

func TestAdvisoryPerTier(t *testing.T) {
	seen := map[string]bool{}
	for _, tier := range model.Tiers {
		msg := Advisory(tier)
		if msg == "" || seen[msg] {
			t.Fatalf("advisory for %s = %q", tier, msg)
		}
		seen[msg] = true
	}
}
