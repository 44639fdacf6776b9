package query

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/signalsfoundry/orbitwatch/catalog"
	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/internal/observability"
	"github.com/signalsfoundry/orbitwatch/model"
)

func fixtureStore(t *testing.T) *catalog.Store {
	t.Helper()
	s := catalog.NewStore()
	s.Load([]model.DebrisRecord{
		{Name: "COSMOS 2251 DEB", CatalogID: 34427, AltitudeKm: 780, InclinationDeg: "74.04", RiskTier: model.RiskMedium, Latitude: 10, Longitude: 20},
		{Name: "FENGYUN 1C DEB", CatalogID: 29228, AltitudeKm: 450, InclinationDeg: "98.60", RiskTier: model.RiskHigh, Latitude: -30, Longitude: 100},
		{Name: "COSMOS 1408 DEB", CatalogID: 49863, AltitudeKm: 470, InclinationDeg: "82.56", RiskTier: model.RiskHigh, Latitude: 45, Longitude: -60},
		{Name: "GEO R/B", CatalogID: 11111, AltitudeKm: 35786, InclinationDeg: "0.05", RiskTier: model.RiskLow},
	})
	return s
}

func startBufServer(t *testing.T, svc CatalogServer, collector *observability.Collector) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := NewServer(svc, logging.Noop(), collector)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestListDebris_FiltersWithoutTouchingStore(t *testing.T) {
	store := fixtureStore(t)
	client := startBufServer(t, NewCatalogService(store, nil), nil)
	ctx := testContext(t)

	recs, total, err := client.ListDebris(ctx, "cosmos", "HIGH")
	if err != nil {
		t.Fatalf("ListDebris: %v", err)
	}
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	if len(recs) != 1 || recs[0].CatalogID != 49863 {
		t.Fatalf("records = %+v, want only COSMOS 1408 DEB", recs)
	}
	if recs[0].RiskTier != model.RiskHigh || recs[0].InclinationDeg != "82.56" || recs[0].Latitude != 45 {
		t.Fatalf("record not round-tripped: %+v", recs[0])
	}

	if c := store.Criteria(); c.Search != "" || c.Risk != model.RiskAll {
		t.Fatalf("store criteria changed to %+v", c)
	}
	if got := len(store.Filtered()); got != 4 {
		t.Fatalf("store filtered = %d, want 4", got)
	}
}

func TestListDebris_EmptyRequestReturnsAll(t *testing.T) {
	client := startBufServer(t, NewCatalogService(fixtureStore(t), nil), nil)

	recs, total, err := client.ListDebris(testContext(t), "", "")
	if err != nil {
		t.Fatalf("ListDebris: %v", err)
	}
	if len(recs) != total || total != 4 {
		t.Fatalf("len = %d total = %d, want 4/4", len(recs), total)
	}
	if recs[0].CatalogID != 34427 || recs[3].CatalogID != 11111 {
		t.Fatalf("order not preserved: %+v", recs)
	}
}

func TestListDebris_RejectsUnknownRisk(t *testing.T) {
	client := startBufServer(t, NewCatalogService(fixtureStore(t), nil), nil)

	_, _, err := client.ListDebris(testContext(t), "", "extreme")
	if code := status.Code(err); code != codes.InvalidArgument {
		t.Fatalf("code = %v, want InvalidArgument (err=%v)", code, err)
	}
}

func TestListDebris_RejectsNonStringField(t *testing.T) {
	svc := NewCatalogService(fixtureStore(t), nil)
	req := &structpb.Struct{Fields: map[string]*structpb.Value{fieldSearch: structpb.NewNumberValue(3)}}

	_, err := svc.ListDebris(context.Background(), req)
	if code := status.Code(err); code != codes.InvalidArgument {
		t.Fatalf("code = %v, want InvalidArgument", code)
	}
}

func TestGetDebris(t *testing.T) {
	client := startBufServer(t, NewCatalogService(fixtureStore(t), nil), nil)
	ctx := testContext(t)

	rec, err := client.GetDebris(ctx, 29228)
	if err != nil {
		t.Fatalf("GetDebris: %v", err)
	}
	if rec.Name != "FENGYUN 1C DEB" || rec.AltitudeKm != 450 {
		t.Fatalf("GetDebris = %+v", rec)
	}

	if _, err := client.GetDebris(ctx, 1); status.Code(err) != codes.NotFound {
		t.Fatalf("missing id code = %v, want NotFound", status.Code(err))
	}
	if _, err := client.GetDebris(ctx, 0); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("zero id code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestGetStatistics(t *testing.T) {
	client := startBufServer(t, NewCatalogService(fixtureStore(t), nil), nil)

	st, err := client.GetStatistics(testContext(t))
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	want := catalog.Stats{Total: 4, HighRisk: 2, LEO: 3}
	if st != want {
		t.Fatalf("GetStatistics = %+v, want %+v", st, want)
	}
}

func TestService_NotReadyWithoutStore(t *testing.T) {
	client := startBufServer(t, NewCatalogService(nil, nil), nil)

	_, err := client.GetStatistics(testContext(t))
	if code := status.Code(err); code != codes.Unavailable {
		t.Fatalf("code = %v, want Unavailable", code)
	}

	_, err = NewCatalogService(nil, nil).GetDebris(context.Background(), wrapperspb.Int64(1))
	if code := status.Code(err); code != codes.Unavailable {
		t.Fatalf("direct call code = %v, want Unavailable", code)
	}
}

type capturingServer struct {
	CatalogServer
	requestID string
}

func (c *capturingServer) GetStatistics(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
	c.requestID = logging.RequestIDFromContext(ctx)
	if logging.LoggerFromContext(ctx) == nil {
		return nil, status.Error(codes.Internal, "no request logger")
	}
	return c.CatalogServer.GetStatistics(ctx, in)
}

func TestNewServer_PropagatesRequestIDAndRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	srv := &capturingServer{CatalogServer: NewCatalogService(fixtureStore(t), nil)}
	client := startBufServer(t, srv, collector)

	ctx := metadata.AppendToOutgoingContext(testContext(t), RequestIDMetadataKey, "req-42")
	var header metadata.MD
	if _, err := client.GetStatistics(ctx, grpc.Header(&header)); err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if srv.requestID != "req-42" {
		t.Fatalf("request id = %q, want req-42", srv.requestID)
	}
	if got := header.Get(RequestIDMetadataKey); len(got) != 1 || got[0] != "req-42" {
		t.Fatalf("response header %s = %v, want [req-42]", RequestIDMetadataKey, got)
	}

	got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues(ServiceName, "GetStatistics", codes.OK.String()))
	if got != 1 {
		t.Fatalf("rpc counter = %v, want 1", got)
	}
}

func TestNewServer_GeneratesAndEchoesRequestID(t *testing.T) {
	srv := &capturingServer{CatalogServer: NewCatalogService(fixtureStore(t), nil)}
	client := startBufServer(t, srv, nil)

	var header metadata.MD
	if _, err := client.GetStatistics(testContext(t), grpc.Header(&header)); err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if srv.requestID == "" {
		t.Fatalf("no request id generated")
	}
	if got := header.Get(RequestIDMetadataKey); len(got) != 1 || got[0] != srv.requestID {
		t.Fatalf("response header %s = %v, want [%s]", RequestIDMetadataKey, got, srv.requestID)
	}
}
