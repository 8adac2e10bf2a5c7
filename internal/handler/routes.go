package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gigachat-oauth-relay/internal/config"
	"gigachat-oauth-relay/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
//
// Every registered path also gets a RouteNotFound handler so unsupported
// methods answer 404 instead of Echo's 405. On the relay path that handler
// is the relay itself, which rejects anything but POST.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, relay *RelayHandler, health *HealthHandler, m *metrics.Metrics) {
	e.GET("/healthz", health.Healthz)
	e.RouteNotFound("/healthz", notFound)
	e.GET("/relay/status", health.Status)
	e.RouteNotFound("/relay/status", notFound)

	e.Any(cfg.Relay.Path, relay.Handle)
	e.RouteNotFound(cfg.Relay.Path, relay.Handle)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
		e.RouteNotFound(cfg.Metrics.Path, notFound)
	}
}

func notFound(echo.Context) error {
	return echo.ErrNotFound
}
