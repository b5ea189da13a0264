package middleware

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
)

// Logger writes one structured line per request. Health probes and metric scrapes log at debug.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			log := logger.WithContext(req.Context()).WithFields(map[string]any{
				"method":      req.Method,
				"route":       c.Path(),
				"uri":         req.RequestURI,
				"status":      res.Status,
				"duration_ms": time.Since(start).Milliseconds(),
				"bytes_out":   res.Size,
				"user_agent":  req.UserAgent(),
			})

			switch {
			case res.Status >= http.StatusInternalServerError:
				log.Error("Request failed")
			case isProbe(c.Path()):
				log.Debug("Request")
			default:
				log.Info("Request")
			}
			return nil
		}
	}
}

func isProbe(route string) bool {
	switch route {
	case "/metrics", "/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready":
		return true
	}
	return false
}
