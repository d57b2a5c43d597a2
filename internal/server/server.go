// Package server provides the openfeed HTTP API, built on Echo v4. It
// exposes each feed operation as an RPC-style endpoint and maps taxonomy
// errors onto HTTP statuses.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/louisbranch/openfeed/internal/auth"
	apperrors "github.com/louisbranch/openfeed/internal/errors"
	"github.com/louisbranch/openfeed/internal/feed/service"
	"github.com/louisbranch/openfeed/internal/platform/timeouts"
)

// Server wraps the Echo instance and application dependencies.
type Server struct {
	echo   *echo.Echo
	addr   string
	feed   *service.Service
	issuer *auth.Issuer
}

// New creates a configured Echo server with all routes registered.
func New(addr string, feed *service.Service, issuer *auth.Issuer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true // We log the listen address ourselves.
	e.Server.ReadHeaderTimeout = timeouts.ReadHeader

	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("openfeed"))

	s := &Server{
		echo:   e,
		addr:   addr,
		feed:   feed,
		issuer: issuer,
	}

	s.registerRoutes()
	return s
}

const identityContextKey = "identity"

// actingIdentity retrieves the identity set by the auth middleware.
func actingIdentity(c echo.Context) string {
	if identity, ok := c.Get(identityContextKey).(string); ok {
		return identity
	}
	return ""
}

// requireAuth is middleware that validates a Bearer access token and sets
// the acting identity on the request.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractBearer(c)
		if token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error":   "AUTH_REQUIRED",
				"message": "Authorization header with Bearer token is required",
			})
		}

		identity, err := s.issuer.ValidateAccessToken(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error":   "INVALID_TOKEN",
				"message": "Invalid or expired access token",
			})
		}

		c.Set(identityContextKey, identity)
		return next(c)
	}
}

// requireRefresh is middleware that validates a Bearer refresh token.
func (s *Server) requireRefresh(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractBearer(c)
		if token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error":   "AUTH_REQUIRED",
				"message": "Authorization header with Bearer token is required",
			})
		}

		identity, err := s.issuer.ValidateRefreshToken(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error":   "INVALID_TOKEN",
				"message": "Invalid or expired refresh token",
			})
		}

		c.Set(identityContextKey, identity)
		return next(c)
	}
}

// extractBearer extracts the Bearer token from the Authorization header.
func extractBearer(c echo.Context) string {
	h := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// writeOperationError renders a failed mutation as taxonomy-coded JSON.
func writeOperationError(c echo.Context, err error) error {
	code := apperrors.GetCode(err)
	message := "internal error"
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	return c.JSON(code.HTTPStatus(), map[string]string{
		"error":   string(code),
		"message": message,
	})
}

// Start begins listening for HTTP requests. It blocks until the context
// is cancelled, then performs a graceful shutdown allowing in-flight
// requests to complete.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("openfeed server listening on %s", s.addr)
		if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Println("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}
