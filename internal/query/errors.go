package query

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/orbitwatch/catalog"
)

var (
	// ErrNotFound is returned when a catalog ID is not loaded.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for malformed requests.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotReady is returned before a catalog is attached.
	ErrNotReady = errors.New("catalog not ready")
)

// ToStatusError maps catalog errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, catalog.ErrInvalidRiskFilter):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, ErrNotReady):
		return status.Error(codes.Unavailable, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
