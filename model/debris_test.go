package model

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestDebrisRecordMarshalJSON(t *testing.T) {
	rec := DebrisRecord{Name: "ISS", CatalogID: 25544, AltitudeKm: 420, InclinationDeg: "51.65", RiskTier: RiskHigh}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back DebrisRecord
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != rec {
		t.Fatalf("decoded %+v, want %+v", back, rec)
	}
	if strings.Contains(string(b), "positionPlaceholder") {
		t.Fatalf("false placeholder flag should be omitted: %s", b)
	}
}

func TestDebrisRecordMarshalJSON_NonFiniteAltitude(t *testing.T) {
	for _, alt := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		b, err := json.Marshal(DebrisRecord{Name: "BAD", CatalogID: 2, AltitudeKm: alt, RiskTier: RiskLow})
		if err != nil {
			t.Fatalf("Marshal(altitude %v): %v", alt, err)
		}
		if !strings.Contains(string(b), `"altitudeKm":null`) {
			t.Fatalf("altitude %v encoded as %s, want null", alt, b)
		}
		if !strings.Contains(string(b), `"name":"BAD"`) {
			t.Fatalf("record fields lost: %s", b)
		}
	}
}

func TestParseRiskTier(t *testing.T) {
	if got, err := ParseRiskTier(" High "); err != nil || got != RiskHigh {
		t.Fatalf("ParseRiskTier(High) = %q, %v", got, err)
	}
	if _, err := ParseRiskTier("all"); err == nil {
		t.Fatalf("ParseRiskTier(all) should fail; all is a selector, not a tier")
	}
}
