package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestIDKey is the fiber local populated by the requestid middleware.
const RequestIDKey = "requestid"

// RequestLogger logs every request and records its metrics. A handler error
// is rendered through the app's error handler first so the final status is
// the one logged.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)
		status := c.Response().StatusCode()

		path := c.Path()
		if route := c.Route(); route != nil && route.Path != "" {
			path = route.Path
		}
		metrics.RecordRequest(path, c.Method(), status, elapsed)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("ip", c.IP()),
		}
		if id, ok := c.Locals(RequestIDKey).(string); ok {
			fields = append(fields, zap.String("request_id", id))
		}
		logger.Info("request", fields...)
		return nil
	}
}
