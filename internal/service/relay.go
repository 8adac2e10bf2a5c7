// Package service implements the token request relay.
package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"gigachat-oauth-relay/internal/config"
	"gigachat-oauth-relay/internal/model"
)

// ErrRouteNotFound is returned for requests that do not target the relay route.
var ErrRouteNotFound = errors.New("route not found")

// ErrMissingCredential is returned when the Authorization header is absent or
// does not carry the Basic scheme.
var ErrMissingCredential = errors.New("missing or malformed Authorization header")

// TransportError reports that the upstream exchange did not complete.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

const (
	basicPrefix = "Basic "
	rqUIDHeader = "RqUID"
	userAgent   = "gigachat-oauth-relay/1.0"

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Doer executes a prepared upstream request.
type Doer interface {
	Do(req *http.Request) (*model.UpstreamResponse, error)
}

// RelayService forwards token requests to the upstream identity endpoint.
type RelayService struct {
	client       Doer
	logger       *slog.Logger
	upstreamURL  string
	route        string
	bodyMaxBytes int64
	strictStatus bool
	genRqUID     bool
}

// NewRelayService creates a RelayService. It accepts any Doer so the
// upstream can be replaced in tests; in production it is a *client.TokenClient.
func NewRelayService(c Doer, cfg *config.Config, logger *slog.Logger) *RelayService {
	return &RelayService{
		client:       c,
		logger:       logger.With("component", "relay_service"),
		upstreamURL:  cfg.Upstream.URL,
		route:        cfg.Relay.Path,
		bodyMaxBytes: cfg.Server.BodyMaxBytes,
		strictStatus: cfg.Upstream.StrictStatus,
		genRqUID:     cfg.Relay.GenerateRqUID,
	}
}

// Relay forwards one token request and returns the outcome to write back.
//
// Errors are ErrRouteNotFound, ErrMissingCredential, a *TransportError when
// the upstream exchange failed, or any other error for local failures.
// No upstream call is made unless the route and credential are valid.
func (s *RelayService) Relay(in *model.InboundRequest) (*model.RelayOutcome, error) {
	if in.Path != s.route || in.Method != http.MethodPost {
		return nil, ErrRouteNotFound
	}

	token, ok := basicToken(in.Header)
	if !ok {
		return nil, ErrMissingCredential
	}

	body, err := s.readBody(in.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(in.Ctx, http.MethodPost, s.upstreamURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = s.upstreamHeader(in.Header, token)

	s.logger.Debug("relaying token request",
		"body_bytes", len(body),
		"rquid", req.Header.Get(rqUIDHeader),
	)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read upstream response: %w", err)}
	}

	status := http.StatusOK
	if s.strictStatus {
		status = resp.StatusCode
	}
	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Warn("upstream returned error status",
			"upstream_status", resp.StatusCode,
			"relayed_status", status,
		)
	}

	return &model.RelayOutcome{
		StatusCode:  status,
		ContentType: contentTypeJSON,
		Body:        payload,
	}, nil
}

// basicToken returns the opaque credential following "Basic ".
func basicToken(h http.Header) (string, bool) {
	auth := h.Get("Authorization")
	if !strings.HasPrefix(auth, basicPrefix) {
		return "", false
	}
	return auth[len(basicPrefix):], true
}

func (s *RelayService) readBody(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	if s.bodyMaxBytes <= 0 {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		return body, nil
	}
	body, err := io.ReadAll(io.LimitReader(r, s.bodyMaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if int64(len(body)) > s.bodyMaxBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", s.bodyMaxBytes)
	}
	return body, nil
}

func (s *RelayService) upstreamHeader(src http.Header, token string) http.Header {
	dst := make(http.Header)
	dst.Set("Content-Type", contentTypeForm)
	dst.Set("Accept", contentTypeJSON)
	dst.Set("Authorization", basicPrefix+token)
	dst.Set("User-Agent", userAgent)

	if id := src.Get(rqUIDHeader); id != "" {
		dst.Set(rqUIDHeader, id)
	} else if s.genRqUID {
		dst.Set(rqUIDHeader, uuid.NewString())
	}
	return dst
}
