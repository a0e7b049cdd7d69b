package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tradehub/internal/model"
	"tradehub/pkg/jwtutil"
	"tradehub/pkg/logger"
	"tradehub/prometheus"
)

const viewerContextKey = "viewer"

// OptionalAuth resolves the viewer profile from a bearer token when one
// is presented, and lets the request through anonymously when not.
// Listing and detail reads are open to anonymous browsing; a malformed
// token is still rejected rather than silently downgraded.
func OptionalAuth(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}
			return authenticate(c, next, jwtUtil, authHeader)
		}
	}
}

// RequireViewer rejects anonymous requests. Applied on top of
// OptionalAuth for the mutating routes: browsing is free, the write
// path is gated.
func RequireViewer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Viewer(c) == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}
		return next(c)
	}
}

func authenticate(c echo.Context, next echo.HandlerFunc, jwtUtil *jwtutil.JWTUtil, authHeader string) error {
	log := logger.FromEcho(c)
	prometheus.AuthAttemptsCounter.Inc()

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		log.Warn("Invalid Authorization header format")
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
	}

	claims, err := jwtUtil.ValidateToken(parts[1])
	if err != nil {
		log.Warn("Invalid JWT token", zap.Error(err))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	profile, err := claims.Profile()
	if err != nil {
		log.Warn("Malformed viewer profile in token", zap.Error(err))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	c.Set(viewerContextKey, profile)
	return next(c)
}

// Viewer returns the authenticated viewer profile, or nil for an
// anonymous request.
func Viewer(c echo.Context) *model.ViewerProfile {
	profile, ok := c.Get(viewerContextKey).(*model.ViewerProfile)
	if !ok {
		return nil
	}
	return profile
}

// SetViewer stores a viewer profile on the context. Exposed for handler
// tests.
func SetViewer(c echo.Context, profile *model.ViewerProfile) {
	c.Set(viewerContextKey, profile)
}
