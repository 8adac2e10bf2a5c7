package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e := echo.New()
	e.Use(RequestLogger(logger))
	e.POST("/oauth", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/oauth", strings.NewReader("scope=GIGACHAT_API_PERS"))
	req.Header.Set("Authorization", "Basic c2VjcmV0")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	line := buf.String()
	for _, want := range []string{"level=INFO", "method=POST", "path=/oauth", "status=200"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
	for _, secret := range []string{"c2VjcmV0", "GIGACHAT_API_PERS"} {
		if strings.Contains(line, secret) {
			t.Errorf("log line leaks %q: %q", secret, line)
		}
	}
}

func TestRequestLogger_ErrorStatusLevels(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantLevel string
	}{
		{"not found", echo.ErrNotFound, http.StatusNotFound, "level=WARN"},
		{"internal", echo.NewHTTPError(http.StatusInternalServerError, "boom"), http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := echo.New()
			e.Use(RequestLogger(slog.New(slog.NewTextHandler(&buf, nil))))
			e.POST("/oauth", func(c echo.Context) error {
				return tt.err
			})

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/oauth", http.NoBody))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(buf.String(), tt.wantLevel) {
				t.Errorf("log line %q, want %s", buf.String(), tt.wantLevel)
			}
		})
	}
}

func TestRequestLogger_RecoveredPanic(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Logger.SetOutput(io.Discard)
	e.Use(RequestLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	e.Use(echomw.Recover())
	e.POST("/oauth", func(echo.Context) error {
		panic("nil map write")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/oauth", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	line := buf.String()
	for _, want := range []string{"level=ERROR", "path=/oauth", "status=500"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}
