package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"gigachat-oauth-relay/internal/model"
	"gigachat-oauth-relay/internal/service"
)

const missingCredentialMessage = "Missing Authorization header"

// Relayer forwards one token request.
type Relayer interface {
	Relay(in *model.InboundRequest) (*model.RelayOutcome, error)
}

// RelayHandler serves the token relay route.
type RelayHandler struct {
	service Relayer
	logger  *slog.Logger
}

// NewRelayHandler creates a RelayHandler.
func NewRelayHandler(svc *service.RelayService, logger *slog.Logger) *RelayHandler {
	return newRelayHandler(svc, logger)
}

func newRelayHandler(svc Relayer, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{
		service: svc,
		logger:  logger.With("component", "relay_handler"),
	}
}

// Handle relays the token request and writes exactly one response.
func (h *RelayHandler) Handle(c echo.Context) error {
	req := c.Request()

	out, err := h.service.Relay(&model.InboundRequest{
		Ctx:    req.Context(),
		Method: req.Method,
		Path:   req.URL.Path,
		Header: req.Header,
		Body:   req.Body,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Blob(out.StatusCode, out.ContentType, out.Body)
}

func (h *RelayHandler) mapError(c echo.Context, err error) error {
	path := c.Request().URL.Path

	if errors.Is(err, service.ErrRouteNotFound) {
		return echo.ErrNotFound
	}

	if errors.Is(err, service.ErrMissingCredential) {
		h.logger.Warn("rejected token request", "err", err, "path", path)
		return c.String(http.StatusBadRequest, missingCredentialMessage)
	}

	var te *service.TransportError
	if errors.As(err, &te) {
		h.logger.Error("upstream transport failure", "err", err, "path", path)
		return c.String(http.StatusInternalServerError, "Upstream request failed: "+te.Error())
	}

	h.logger.Error("relay failed", "err", err, "path", path)
	return c.String(http.StatusInternalServerError, err.Error())
}
