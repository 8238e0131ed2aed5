package observability

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// RequestLogger logs each request once it has been handled and feeds metrics with the
// matched route pattern, so /api/tickets/:id is counted as one route.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
		}
		method := RequestMethod(c)
		metrics.RecordRequest(RouteOf(c), method, status, duration)

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", RequestPath(c)),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return err
	}
}

// RouteOf is the matched route pattern, or the request path when nothing matched.
// The result is safe to keep after the handler returns.
func RouteOf(c *fiber.Ctx) string {
	if route := c.Route().Path; route != "" && route != "/" {
		return utils.CopyString(route)
	}
	return RequestPath(c)
}

// RequestPath copies the request path out of fiber's pooled buffer.
func RequestPath(c *fiber.Ctx) string {
	return utils.CopyString(c.Path())
}

// RequestMethod copies the request method out of fiber's pooled buffer.
func RequestMethod(c *fiber.Ctx) string {
	return utils.CopyString(c.Method())
}
