package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RequestIDLocalsKey is where the requestid middleware stores the id.
const RequestIDLocalsKey = "requestid"

// RequestLogger logs one line per request and attaches a request-scoped
// logger to the user context, so log.Ctx in lower layers carries the id.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqLogger := log.With().
			Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Logger()
		c.SetUserContext(reqLogger.WithContext(c.UserContext()))

		err := c.Next()
		if err != nil {
			// Render through the app's ErrorHandler now so the status is final.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := reqLogger.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = reqLogger.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			event = reqLogger.Warn()
		}
		event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request completed")

		return nil
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(RequestIDLocalsKey).(string); ok {
		return id
	}
	return ""
}
