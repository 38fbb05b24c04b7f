// Package upstream is the HTTP client for the registration API and the main
// wallet API. It owns the wire contracts and nothing else: callers interpret
// status codes and error codes.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/oops"

	"github.com/congo-pay/merchant_portal/internal/metrics"
)

// APIKeyHeader carries the caller's session API key on wallet API calls.
const APIKeyHeader = "X-Api-Key"

// RequestIDHeader forwards the portal request id to upstream services.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID returns a context whose upstream calls carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored by WithRequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Config locates the upstream services.
type Config struct {
	RegisterURL string
	MainURL     string
	MiniURL     string
	// Timeout bounds each call; zero leaves calls bounded only by the context.
	Timeout time.Duration
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Client talks to the upstream services. It never retries.
type Client struct {
	register *resty.Client
	main     *resty.Client
	mini     *resty.Client
	logger   *slog.Logger
}

// New builds a client. MiniURL is optional and only used by probes.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		register: newResty(cfg.RegisterURL, cfg),
		main:     newResty(cfg.MainURL, cfg),
		logger:   logger,
	}
	if cfg.MiniURL != "" {
		c.mini = newResty(cfg.MiniURL, cfg)
	}
	return c
}

func newResty(baseURL string, cfg Config) *resty.Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetHeader("Accept", "*/*").
		SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}
	if cfg.Transport != nil {
		rc.SetTransport(cfg.Transport)
	}
	return rc
}

// call executes one request. Transport failures and 5xx replies come back as
// CodeUnavailable errors; other non-2xx replies as *StatusError (a 5xx
// error also unwraps to its *StatusError).
func (c *Client) call(ctx context.Context, rc *resty.Client, method, endpoint, apiKey string, body any) ([]byte, int, error) {
	req := rc.R().SetContext(ctx)
	if apiKey != "" {
		req.SetHeader(APIKeyHeader, apiKey)
	}
	if id := RequestIDFrom(ctx); id != "" {
		req.SetHeader(RequestIDHeader, id)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, oops.In("upstream").With("endpoint", endpoint).Wrapf(err, "encode request")
		}
		req.SetBody(payload)
	}

	start := time.Now()
	resp, err := req.Execute(method, endpoint)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordUpstream(endpoint, metrics.OutcomeUnavailable, elapsed)
		c.logger.Warn("upstream call failed",
			slog.String("endpoint", endpoint),
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)
		return nil, 0, unavailable(endpoint, err)
	}

	status := resp.StatusCode()
	c.logger.Debug("upstream call",
		slog.String("endpoint", endpoint),
		slog.Int("status", status),
		slog.Duration("duration", elapsed),
	)

	switch {
	case resp.IsSuccess():
		metrics.RecordUpstream(endpoint, metrics.OutcomeOK, elapsed)
		return resp.Body(), status, nil
	case status >= http.StatusInternalServerError:
		metrics.RecordUpstream(endpoint, metrics.OutcomeUnavailable, elapsed)
		return nil, status, unavailable(endpoint, &StatusError{Endpoint: endpoint, Status: status, Body: resp.Body()})
	default:
		metrics.RecordUpstream(endpoint, metrics.OutcomeRejected, elapsed)
		return nil, status, &StatusError{Endpoint: endpoint, Status: status, Body: resp.Body()}
	}
}

func decode(endpoint string, raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return oops.In("upstream").With("endpoint", endpoint).Wrapf(err, "decode response")
	}
	return nil
}

func (c *Client) walletCall(ctx context.Context, method, endpoint, apiKey string, body, out any) error {
	if apiKey == "" {
		return fmt.Errorf("%s: %w", endpoint, ErrMissingAPIKey)
	}
	raw, _, err := c.call(ctx, c.main, method, endpoint, apiKey, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(endpoint, raw, out)
}
