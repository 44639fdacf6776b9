package query

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/signalsfoundry/orbitwatch/catalog"
	"github.com/signalsfoundry/orbitwatch/model"
)

// Client is a typed wrapper over a connection to the catalog service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// ListDebris returns the records matching search and risk, plus the size of
// the full catalog.
func (c *Client) ListDebris(ctx context.Context, search, risk string, opts ...grpc.CallOption) ([]model.DebrisRecord, int, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldSearch: structpb.NewStringValue(search),
		fieldRisk:   structpb.NewStringValue(risk),
	}}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listDebrisMethod, in, out, opts...); err != nil {
		return nil, 0, err
	}
	recs, err := listToRecords(out.GetFields()[fieldRecords].GetListValue())
	if err != nil {
		return nil, 0, fmt.Errorf("decode ListDebris response: %w", err)
	}
	return recs, int(out.GetFields()[fieldTotal].GetNumberValue()), nil
}

// GetDebris returns one record.
func (c *Client) GetDebris(ctx context.Context, catalogID int, opts ...grpc.CallOption) (model.DebrisRecord, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getDebrisMethod, wrapperspb.Int64(int64(catalogID)), out, opts...); err != nil {
		return model.DebrisRecord{}, err
	}
	rec, err := structToRecord(out)
	if err != nil {
		return model.DebrisRecord{}, fmt.Errorf("decode GetDebris response: %w", err)
	}
	return rec, nil
}

// GetStatistics returns the catalog summary.
func (c *Client) GetStatistics(ctx context.Context, opts ...grpc.CallOption) (catalog.Stats, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getStatisticsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return catalog.Stats{}, err
	}
	return structToStats(out), nil
}
