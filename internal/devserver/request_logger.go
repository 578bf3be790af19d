package devserver

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Skotchmaster/momento/internal/logging"
	"github.com/labstack/echo/v4"
)

const (
	kindProxy  = "proxy"
	kindStatic = "static"
	kindHealth = "health"
)

func routeKind(path string) string {
	switch {
	case path == APIMount || strings.HasPrefix(path, APIMount+"/"):
		return kindProxy
	case strings.HasPrefix(path, "/health/"):
		return kindHealth
	default:
		return kindStatic
	}
}

// RequestLogger writes one line per request, tagged with the route kind.
// Proxied requests also carry the upstream target so a failing backend is
// visible without reading the proxy error line.
func RequestLogger(base *slog.Logger, apiTarget string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			kind := routeKind(req.URL.Path)

			attrs := []any{"kind", kind, "method", req.Method, "url", req.URL.RequestURI()}
			if kind == kindProxy {
				attrs = append(attrs, "api_target", apiTarget)
			}
			if rid := requestID(c); rid != "" {
				attrs = append(attrs, "request_id", rid)
			}
			l := base.With(attrs...)
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
				l = l.With("error", err.Error())
			}

			res := c.Response()
			l.Log(req.Context(), levelFor(kind, res.Status), "request completed",
				"status", res.Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", res.Size,
			)
			return nil
		}
	}
}

func levelFor(kind string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case kind == kindHealth:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func requestID(c echo.Context) string {
	if rid := c.Request().Header.Get(echo.HeaderXRequestID); rid != "" {
		return rid
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
