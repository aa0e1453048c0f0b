package downstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/baechuer/tour-eats/internal/logger"
	"github.com/baechuer/tour-eats/middleware"
)

const (
	upstreamGoogle = "google_places"
	upstreamNaver  = "naver_search"
	upstreamImage  = "image_fetch"
)

type ClientConfig struct {
	// Upstream labels logs, spans and metrics.
	Upstream string
	Timeout  time.Duration
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

func DefaultClientConfig(upstream string) ClientConfig {
	return ClientConfig{
		Upstream:     upstream,
		Timeout:      10 * time.Second,
		MaxBodyBytes: 2 << 20,
	}
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client wraps outbound calls to one upstream. Every call carries the
// inbound request id, runs under its own timeout, is traced and counted, and
// has its transport failures collapsed into ErrTimeout or ErrUnavailable.
type Client struct {
	baseClient *http.Client
	config     ClientConfig
}

func NewClient(config ClientConfig) *Client {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 2 << 20
	}
	return &Client{
		baseClient: &http.Client{
			// per-request deadlines come from the context
			Timeout: 0,
			Transport: &middleware.TracingTransport{
				Base:     config.Transport,
				Upstream: config.Upstream,
			},
		},
		config: config,
	}
}

// Get issues a GET and reads the body before the timeout is released.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.config.Upstream, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		req.Header.Set(middleware.HeaderXRequestID, reqID)
	}

	// the query string may hold an API key, so only host and path are logged
	log := logger.Ctx(ctx).With().
		Str("upstream", c.config.Upstream).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Logger()

	start := time.Now()
	resp, err := c.baseClient.Do(req)
	if err != nil {
		mapped := c.mapError(err)
		c.observe(mapped.Error(), start)
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("downstream_request_failed")
		return nil, mapped
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes+1))
	if err != nil {
		mapped := c.mapError(err)
		c.observe(mapped.Error(), start)
		log.Warn().Err(err).Int("status", resp.StatusCode).Msg("downstream_read_failed")
		return nil, mapped
	}
	if int64(len(body)) > c.config.MaxBodyBytes {
		c.observe("too_large", start)
		log.Warn().Int64("limit", c.config.MaxBodyBytes).Msg("downstream_response_too_large")
		return nil, ErrTooLarge
	}

	c.observe(strconv.Itoa(resp.StatusCode), start)
	log.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("downstream_request_completed")

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) observe(status string, start time.Time) {
	upstreamRequestsTotal.WithLabelValues(c.config.Upstream, status).Inc()
	upstreamRequestDuration.WithLabelValues(c.config.Upstream).Observe(time.Since(start).Seconds())
}

func (c *Client) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}
	var nerr interface{ Timeout() bool }
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrTimeout
	}
	// connection refused, DNS failures and the like
	return ErrUnavailable
}
