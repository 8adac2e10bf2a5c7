// Package handler exposes the relay over HTTP with Echo.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gigachat-oauth-relay/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// statusResponse is the body of GET /relay/status.
type statusResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	UpstreamURL  string `json:"upstream_url"`
	RelayPath    string `json:"relay_path"`
	StrictStatus bool   `json:"strict_status"`
	TLSVerify    bool   `json:"tls_verify"`
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns relay status information.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Status:       "ok",
		Version:      string(h.version),
		UpstreamURL:  h.cfg.Upstream.URL,
		RelayPath:    h.cfg.Relay.Path,
		StrictStatus: h.cfg.Upstream.StrictStatus,
		TLSVerify:    h.cfg.Upstream.TLSVerify,
	})
}
