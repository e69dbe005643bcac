package middleware

import (
	"time"

	"github.com/henriquelv/pharma-well-care/internal/logging"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger はリクエストごとのロガーをcontextに入れ、終わったら1行残す。
// RequestIDミドルウェアより後ろに置くこと。
func RequestLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			l := base.With(
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.String("uri", req.RequestURI),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			if uid := ActorID(c); uid > 0 {
				fields = append(fields, zap.Int64("user_id", uid))
			}

			switch {
			case status >= 500:
				l.Error("request", fields...)
			case status >= 400:
				l.Warn("request", fields...)
			default:
				l.Info("request", fields...)
			}
			return nil
		}
	}
}
