// Package query exposes the loaded catalog over a read-only gRPC service.
package query

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/signalsfoundry/orbitwatch/catalog"
	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/internal/observability"
	"github.com/signalsfoundry/orbitwatch/model"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "orbitwatch.v1.CatalogService"

// CatalogReader is the read side of the catalog store.
type CatalogReader interface {
	All() []model.DebrisRecord
	Lookup(catalogID int) (model.DebrisRecord, bool)
	Stats() catalog.Stats
}

// CatalogServer is the service contract.
type CatalogServer interface {
	ListDebris(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetDebris(ctx context.Context, in *wrapperspb.Int64Value) (*structpb.Struct, error)
	GetStatistics(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
}

// CatalogService implements CatalogServer over a CatalogReader. It applies
// its own filter per request and never changes the store's filter inputs.
type CatalogService struct {
	store CatalogReader
	log   logging.Logger
}

// NewCatalogService binds the service to a store.
func NewCatalogService(store CatalogReader, log logging.Logger) *CatalogService {
	if log == nil {
		log = logging.Noop()
	}
	return &CatalogService{store: store, log: log}
}

func (s *CatalogService) ensureReady() error {
	if s == nil || s.store == nil {
		return ToStatusError(ErrNotReady)
	}
	return nil
}

// ListDebris filters the full catalog by the request's "search" and "risk"
// fields.
func (s *CatalogService) ListDebris(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	fields := in.GetFields()
	for k, v := range fields {
		if _, ok := v.GetKind().(*structpb.Value_StringValue); !ok {
			return nil, ToStatusError(fmt.Errorf("%w: field %q must be a string", ErrInvalidArgument, k))
		}
	}
	risk, err := catalog.ParseRiskSelector(fields[fieldRisk].GetStringValue())
	if err != nil {
		return nil, ToStatusError(err)
	}
	criteria := catalog.Criteria{Search: fields[fieldSearch].GetStringValue(), Risk: risk}

	_, span := startChildSpan(ctx, "catalog.Filter",
		attribute.String("search", criteria.Search),
		attribute.String("risk", criteria.Risk),
	)
	all := s.store.All()
	matched := catalog.Filter(all, criteria)
	span.SetAttributes(attribute.Int("matched", len(matched)))
	span.End()

	if log := logging.LoggerFromContext(ctx); log != nil {
		log.Debug(ctx, "listed debris", logging.Int("matched", len(matched)), logging.Int("total", len(all)))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldRecords: structpb.NewListValue(recordsToList(matched)),
		fieldMatched: structpb.NewNumberValue(float64(len(matched))),
		fieldTotal:   structpb.NewNumberValue(float64(len(all))),
	}}, nil
}

// GetDebris returns one record by catalog ID.
func (s *CatalogService) GetDebris(ctx context.Context, in *wrapperspb.Int64Value) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if in.GetValue() <= 0 {
		return nil, ToStatusError(fmt.Errorf("%w: catalog id must be positive", ErrInvalidArgument))
	}
	rec, ok := s.store.Lookup(int(in.GetValue()))
	if !ok {
		return nil, ToStatusError(fmt.Errorf("%w: catalog id %d", ErrNotFound, in.GetValue()))
	}
	return recordToStruct(rec), nil
}

// GetStatistics summarises the full catalog.
func (s *CatalogService) GetStatistics(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	return statsToStruct(s.store.Stats()), nil
}

// RegisterCatalogServer registers srv on a gRPC server.
func RegisterCatalogServer(r grpc.ServiceRegistrar, srv CatalogServer) {
	r.RegisterService(&ServiceDesc, srv)
}

// NewServer builds a gRPC server with the standard interceptor chain and the
// catalog service registered. collector may be nil.
func NewServer(svc CatalogServer, log logging.Logger, collector *observability.Collector, opts ...grpc.ServerOption) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(log),
		TracingUnaryServerInterceptor(),
	}
	if collector != nil {
		interceptors = append(interceptors, collector.UnaryServerInterceptor())
	}
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	}, opts...)

	server := grpc.NewServer(opts...)
	RegisterCatalogServer(server, svc)
	return server
}
