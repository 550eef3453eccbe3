// Package storefront is the HTTP client for the storefront API. The Telegram
// bot and the voice client use it for the catalog, promo validation, order
// submission, tracking, text generation and voice session descriptors.
//
// Calls go through a circuit breaker: server errors and transport failures
// count against it, collaborator rejections (4xx) do not.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
	provider       = "storefront"
)

var tracer = otel.Tracer("luxecore/storefront")

var (
	// ErrNotFound is returned for a 404 on a resource lookup.
	ErrNotFound = errors.New("storefront: not found")
	// ErrUnavailable wraps transport failures, 5xx responses and an open breaker.
	ErrUnavailable = errors.New("storefront: unavailable")
)

// APIError is a non-2xx answer carrying the API's error envelope.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("storefront: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("storefront: status %d", e.Status)
}

// Config holds client settings.
type Config struct {
	BaseURL  string        // e.g. http://localhost:8080/api
	Timeout  time.Duration // per request
	Source   string        // order source tag sent with submissions (web|bot)
	ClientID string        // X-Client-ID header; scopes idempotency keys and rate limits
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// Client talks to the storefront API. Safe for concurrent use.
type Client struct {
	baseURL  string
	source   string
	clientID string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[response]
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// New builds a Client. m may be nil.
func New(cfg Config, m *metrics.Metrics, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := log.With().Str("component", "storefront").Logger()
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		source:   cfg.Source,
		clientID: cfg.ClientID,
		http:     &http.Client{Timeout: timeout},
		metrics:  m,
		log:      logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        provider,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return c
}

// do performs one request through the breaker. Non-2xx answers below 500 are
// returned as *APIError; everything else that fails wraps ErrUnavailable.
func (c *Client) do(ctx context.Context, op, method, path string, in any, hdr http.Header, out any) (*response, error) {
	ctx, span := tracer.Start(ctx, "storefront."+op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.request.method", method), attribute.String("url.path", path)))
	defer span.End()

	start := time.Now()
	res, err := c.breaker.Execute(func() (response, error) {
		return c.roundTrip(ctx, method, path, in, hdr)
	})
	c.metrics.ObserveUpstream(provider, op, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unavailable")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", res.status))
	if res.status >= 400 {
		return &res, decodeAPIError(res)
	}
	if out != nil && res.status != http.StatusNoContent && len(res.body) > 0 {
		if err := json.Unmarshal(res.body, out); err != nil {
			return &res, fmt.Errorf("%w: %s: decode response: %v", ErrUnavailable, op, err)
		}
	}
	return &res, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in any, hdr http.Header) (response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return response{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return response{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.clientID != "" {
		req.Header.Set("X-Client-ID", c.clientID)
	}
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	r := response{status: resp.StatusCode, header: resp.Header, body: data}
	if resp.StatusCode >= 500 {
		return r, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, decodeAPIError(r))
	}
	return r, nil
}

func decodeAPIError(r response) *APIError {
	var env struct {
		Error     string `json:"error"`
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
	}
	_ = json.Unmarshal(r.body, &env)
	return &APIError{Status: r.status, Code: env.Code, Message: env.Error, RequestID: env.RequestID}
}

func query(kv ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			v.Set(kv[i], kv[i+1])
		}
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func itoa(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}
