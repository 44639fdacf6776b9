// Package feed fetches raw orbital element sets over HTTP.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/internal/observability"
	"github.com/signalsfoundry/orbitwatch/model"
)

// DefaultURL is the public active-objects feed.
const DefaultURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=json"

// DefaultTimeout bounds one fetch.
const DefaultTimeout = 30 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 64 << 20

var (
	// ErrUnexpectedStatus is returned for a non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
	// ErrMalformedPayload is returned when the body is not a JSON array of
	// element sets.
	ErrMalformedPayload = errors.New("malformed element payload")
)

// FetchObserver records fetch outcomes. *observability.Collector satisfies it.
type FetchObserver interface {
	ObserveUpstreamFetch(outcome string, d time.Duration)
}

// Client fetches the element feed.
type Client struct {
	url     string
	http    *http.Client
	log     logging.Logger
	metrics FetchObserver
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithObserver records outcomes against obs.
func WithObserver(obs FetchObserver) Option {
	return func(c *Client) { c.metrics = obs }
}

// New builds a client for url; an empty url means DefaultURL.
func New(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url: url,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   DefaultTimeout,
		},
		log: logging.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the feed address.
func (c *Client) URL() string { return c.url }

// FetchRaw returns the body of a successful response after checking that it
// is well-formed JSON.
func (c *Client) FetchRaw(ctx context.Context) ([]byte, error) {
	start := time.Now()
	body, outcome, err := c.get(ctx)
	if err == nil && !json.Valid(body) {
		outcome, err = observability.OutcomeDecode, errors.Wrap(ErrMalformedPayload, "response is not JSON")
	}
	c.observe(ctx, outcome, start, err)
	return body, err
}

// Fetch returns the decoded element sets.
func (c *Client) Fetch(ctx context.Context) ([]model.RawElementSet, error) {
	start := time.Now()
	body, outcome, err := c.get(ctx)
	var sets []model.RawElementSet
	if err == nil {
		if derr := json.Unmarshal(body, &sets); derr != nil {
			outcome = observability.OutcomeDecode
			err = errors.Wrap(fmt.Errorf("%w: %v", ErrMalformedPayload, derr), "decode element sets")
		} else if sets == nil {
			// "null" decodes without error but is not an array.
			outcome = observability.OutcomeDecode
			err = errors.Wrap(ErrMalformedPayload, "decode element sets: null payload")
		}
	}
	c.observe(ctx, outcome, start, err)
	if err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *Client) get(ctx context.Context) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, observability.OutcomeTransport, errors.Wrap(err, "build feed request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, observability.OutcomeTransport, errors.Wrap(err, "fetch element feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, observability.OutcomeStatus, errors.Wrapf(ErrUnexpectedStatus, "element feed returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, observability.OutcomeTransport, errors.Wrap(err, "read element feed")
	}
	return body, observability.OutcomeOK, nil
}

func (c *Client) observe(ctx context.Context, outcome string, start time.Time, err error) {
	elapsed := time.Since(start)
	if c.metrics != nil {
		c.metrics.ObserveUpstreamFetch(outcome, elapsed)
	}
	if err != nil {
		c.log.Warn(ctx, "element feed fetch failed",
			logging.String("url", c.url),
			logging.String("outcome", outcome),
			logging.Err(err),
		)
		return
	}
	c.log.Debug(ctx, "element feed fetched",
		logging.String("url", c.url),
		logging.Int("duration_ms", int(elapsed.Milliseconds())),
	)
}
