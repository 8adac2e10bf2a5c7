// Package client provides the upstream HTTP client for the token endpoint.
package client

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"gigachat-oauth-relay/internal/config"
	"gigachat-oauth-relay/internal/metrics"
	"gigachat-oauth-relay/internal/model"
)

// TokenClient sends token requests to the upstream identity endpoint.
type TokenClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewTokenClient creates a TokenClient with connection pooling and timeouts.
// Certificate verification is skipped unless cfg.Upstream.TLSVerify is set.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewTokenClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *TokenClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: !cfg.Upstream.TLSVerify, //nolint:gosec // upstream chain is not trusted by the deployment CA bundle
		},
	}

	return &TokenClient{
		httpClient: &http.Client{
			Transport:     transport,
			Timeout:       time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
			CheckRedirect: limitRedirects(cfg.Upstream.MaxRedirects),
		},
		logger:  logger.With("component", "token_client"),
		metrics: m,
	}
}

// limitRedirects follows up to limit redirects. Go already drops the
// Authorization header when a redirect leaves the original host.
//
// Method handling is net/http's: 307 and 308 replay the POST with its body,
// while 301, 302 and 303 continue as a GET without a body. This differs from
// curl -X POST -L, which keeps POST on every hop.
func limitRedirects(limit int) func(*http.Request, []*http.Request) error {
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return errors.New("stopped after " + strconv.Itoa(limit) + " redirects")
		}
		return nil
	}
}

// Do executes a request against the upstream and returns the raw response.
// Any non-nil error means the exchange did not complete; the upstream's own
// HTTP status is never turned into an error. The caller is responsible for
// closing the response body.
func (c *TokenClient) Do(req *http.Request) (*model.UpstreamResponse, error) {
	c.logger.Debug("upstream request",
		"method", req.Method,
		"host", req.URL.Host,
		"content_length", req.ContentLength,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via UpstreamResponse
	duration := time.Since(start).Seconds()

	if c.metrics != nil {
		c.metrics.UpstreamDuration.Observe(duration)
	}

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamFailures.Inc()
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	}

	c.logger.Debug("upstream response",
		"status", resp.StatusCode,
		"duration_ms", int64(duration*1000),
	)

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}
