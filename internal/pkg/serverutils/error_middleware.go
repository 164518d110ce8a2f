package serverutils

import (
	"errors"

	"ai-tutoring-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware translates errors bubbling out of controllers
// into JSON envelopes. Only caller mistakes (validation, invalid
// filters) become 400s; everything else is a 500 without internals.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).
				JSON(ErrorResponse("Invalid request", validationErr.Messages))
		}

		if errors.Is(err, store.ErrInvalidFilter) {
			return ctx.Status(fiber.StatusBadRequest).
				JSON(ErrorResponse(err.Error(), nil))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).
				JSON(ErrorResponse(fiberErr.Message, nil))
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse("Internal server error", nil))
	}
}
