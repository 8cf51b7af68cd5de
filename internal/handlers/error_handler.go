package handlers

import (
	"productos/pkg/response"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog/log"
)

// ErrorHandler renders every error that reaches fiber as an envelope.
// Unexpected errors are logged and answered with a generic 500 that leaks no
// internal detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr *response.Error
	if errors.As(err, &apiErr) {
		return apiErr.Render(c)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return response.Fail(c, fiberErr.Code, utils.StatusMessage(fiberErr.Code), fiberErr.Message)
	}

	log.Ctx(c.UserContext()).Error().Err(err).Msg("unhandled error")
	return response.Fail(c, fiber.StatusInternalServerError, "Error interno del servidor", "Ha ocurrido un error inesperado")
}
