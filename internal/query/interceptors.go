package query

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/internal/observability"
)

// RequestIDMetadataKey carries the request ID in both directions: read from
// incoming metadata and echoed in the response header.
const RequestIDMetadataKey = "x-request-id"

// RequestIDUnaryServerInterceptor gives every catalog RPC a request ID, taken
// from inbound metadata when the caller sent one. The handler's context
// carries a logger tagged with the ID and the short RPC name, and the ID is
// sent back as a response header so proxy and gRPC logs can be joined.
func RequestIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if incoming := incomingRequestID(ctx); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}
		_, rpc := observability.SplitMethod(info.FullMethod)
		ctx, reqLog := logging.WithRequestLogger(ctx, base.With(logging.String("rpc", rpc)))
		ctx = logging.ContextWithLogger(ctx, reqLog)

		// Fails only outside a real transport (direct handler calls in tests).
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDMetadataKey, logging.RequestIDFromContext(ctx)))

		start := time.Now()
		resp, err := handler(ctx, req)
		reqLog.Debug(ctx, "catalog rpc done",
			logging.String("code", status.Code(err).String()),
			logging.Int("duration_ms", int(time.Since(start).Milliseconds())),
		)
		return resp, err
	}
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(RequestIDMetadataKey); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
