// middleware/request_logger.go
package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger writes one structured line per request.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Render now so the logged status is the one sent.
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			if identity, ok := IdentityFrom(c); ok {
				fields = append(fields, zap.String("user_id", identity.ID()))
			}

			switch {
			case res.Status >= 500:
				logger.Error("Request", fields...)
			case res.Status >= 400:
				logger.Warn("Request", fields...)
			default:
				logger.Info("Request", fields...)
			}
			return nil
		}
	}
}
