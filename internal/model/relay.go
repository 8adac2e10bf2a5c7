// Package model defines request-scoped types shared by the relay layers.
package model

import (
	"context"
	"io"
	"net/http"
)

// InboundRequest is a client token request as received by the relay route.
type InboundRequest struct {
	Ctx    context.Context
	Method string
	Path   string
	Header http.Header
	Body   io.Reader
}

// RelayOutcome is the response written back to the client, either the
// upstream body or a locally synthesized error.
type RelayOutcome struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// UpstreamResponse is the raw response from the token endpoint.
// The receiver is responsible for closing Body.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
