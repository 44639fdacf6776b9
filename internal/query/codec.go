package query

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/orbitwatch/catalog"
	"github.com/signalsfoundry/orbitwatch/model"
)

// Field names shared by the server and client.
const (
	fieldName        = "name"
	fieldCatalogID   = "catalogId"
	fieldAltitude    = "altitudeKm"
	fieldInclination = "inclinationDeg"
	fieldRiskTier    = "riskTier"
	fieldLatitude    = "latitude"
	fieldLongitude   = "longitude"
	fieldPlaceholder = "positionPlaceholder"

	fieldSearch   = "search"
	fieldRisk     = "risk"
	fieldRecords  = "records"
	fieldMatched  = "matched"
	fieldTotal    = "total"
	fieldHighRisk = "highRisk"
	fieldLEO      = "leo"
)

func recordToStruct(r model.DebrisRecord) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldName:        structpb.NewStringValue(r.Name),
		fieldCatalogID:   structpb.NewNumberValue(float64(r.CatalogID)),
		fieldAltitude:    structpb.NewNumberValue(r.AltitudeKm),
		fieldInclination: structpb.NewStringValue(r.InclinationDeg),
		fieldRiskTier:    structpb.NewStringValue(string(r.RiskTier)),
		fieldLatitude:    structpb.NewNumberValue(r.Latitude),
		fieldLongitude:   structpb.NewNumberValue(r.Longitude),
		fieldPlaceholder: structpb.NewBoolValue(r.PositionPlaceholder),
	}}
}

func structToRecord(s *structpb.Struct) (model.DebrisRecord, error) {
	f := s.GetFields()
	tier, err := model.ParseRiskTier(f[fieldRiskTier].GetStringValue())
	if err != nil {
		return model.DebrisRecord{}, err
	}
	return model.DebrisRecord{
		Name:                f[fieldName].GetStringValue(),
		CatalogID:           int(f[fieldCatalogID].GetNumberValue()),
		AltitudeKm:          f[fieldAltitude].GetNumberValue(),
		InclinationDeg:      f[fieldInclination].GetStringValue(),
		RiskTier:            tier,
		Latitude:            f[fieldLatitude].GetNumberValue(),
		Longitude:           f[fieldLongitude].GetNumberValue(),
		PositionPlaceholder: f[fieldPlaceholder].GetBoolValue(),
	}, nil
}

func recordsToList(recs []model.DebrisRecord) *structpb.ListValue {
	vals := make([]*structpb.Value, 0, len(recs))
	for _, r := range recs {
		vals = append(vals, structpb.NewStructValue(recordToStruct(r)))
	}
	return &structpb.ListValue{Values: vals}
}

func listToRecords(l *structpb.ListValue) ([]model.DebrisRecord, error) {
	out := make([]model.DebrisRecord, 0, len(l.GetValues()))
	for i, v := range l.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("record %d is not an object", i)
		}
		r, err := structToRecord(s)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func statsToStruct(st catalog.Stats) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldTotal:    structpb.NewNumberValue(float64(st.Total)),
		fieldHighRisk: structpb.NewNumberValue(float64(st.HighRisk)),
		fieldLEO:      structpb.NewNumberValue(float64(st.LEO)),
	}}
}

func structToStats(s *structpb.Struct) catalog.Stats {
	f := s.GetFields()
	return catalog.Stats{
		Total:    int(f[fieldTotal].GetNumberValue()),
		HighRisk: int(f[fieldHighRisk].GetNumberValue()),
		LEO:      int(f[fieldLEO].GetNumberValue()),
	}
}
