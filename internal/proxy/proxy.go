// Package proxy serves the element feed to browsers and the terminal client:
// GET /debris forwards the upstream body, with CORS enabled.
package proxy

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/internal/observability"
)

// DefaultAddr is the fixed local listen address.
const DefaultAddr = ":3000"

// RequestIDHeader carries the per-request ID back to the caller.
const RequestIDHeader = "X-Request-ID"

// RawFetcher returns the upstream feed body. *feed.Client satisfies it.
type RawFetcher interface {
	FetchRaw(ctx context.Context) ([]byte, error)
}

// Option configures the app.
type Option func(*server)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCollector records request metrics and serves /metrics.
func WithCollector(c *observability.Collector) Option {
	return func(s *server) { s.metrics = c }
}

type server struct {
	upstream RawFetcher
	log      logging.Logger
	metrics  *observability.Collector
}

// NewApp builds the fiber app.
func NewApp(upstream RawFetcher, opts ...Option) *fiber.App {
	s := &server{upstream: upstream, log: logging.Noop()}
	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{
		AppName:               "orbitwatch-proxy",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	app.Use(s.requestContext)
	if s.metrics != nil {
		app.Use(s.recordMetrics)
		app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	app.Get("/debris", s.getDebris)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func (s *server) getDebris(c *fiber.Ctx) error {
	ctx := c.UserContext()
	log := logging.LoggerFromContext(ctx)
	if log == nil {
		log = s.log
	}

	body, err := s.upstream.FetchRaw(ctx)
	if err != nil {
		log.Error(ctx, "upstream fetch failed", logging.Err(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch data",
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(body)
}

// requestContext attaches a request ID and a request-scoped logger.
func (s *server) requestContext(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if id := c.Get(RequestIDHeader); id != "" {
		ctx = logging.ContextWithRequestID(ctx, id)
	}
	ctx, log := logging.WithRequestLogger(ctx, s.log)
	ctx = logging.ContextWithLogger(ctx, log)
	c.SetUserContext(ctx)
	c.Set(RequestIDHeader, logging.RequestIDFromContext(ctx))
	return c.Next()
}

func (s *server) recordMetrics(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	code := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		} else {
			code = fiber.StatusInternalServerError
		}
	}
	route := ""
	if r := c.Route(); r != nil {
		route = r.Path
	}
	s.metrics.ObserveHTTP(c.Method(), route, code, time.Since(start))
	return err
}
