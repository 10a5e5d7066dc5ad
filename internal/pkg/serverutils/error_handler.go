package serverutils

import (
	"errors"

	"symptom-checker-be/internal/constant"
	"symptom-checker-be/pkg/interview"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error onto an HTTP status and a user-facing message.
func StatusFor(err error) (int, string) {
	var (
		fiberErr *fiber.Error
		reqErr   *RequestError
		valErr   *interview.ValidationError
		gwErr    *interview.GatewayError
		stateErr *interview.StateError
	)

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.As(err, &reqErr):
		return fiber.StatusBadRequest, reqErr.Error()
	case errors.As(err, &valErr):
		return fiber.StatusUnprocessableEntity, valErr.Message
	case errors.As(err, &gwErr):
		return fiber.StatusBadGateway, "The diagnosis service is unavailable, please try again"
	case errors.As(err, &stateErr), errors.Is(err, interview.ErrStaleResponse):
		return fiber.StatusConflict, "Unexpected state, please refresh"
	case errors.Is(err, constant.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

// ErrorHandlerMiddleware turns handler errors into the JSON error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return writeError(ctx, err)
	}
}

// ErrorHandler is the same mapping for fiber.Config so errors raised outside
// the middleware chain (404 routes, body limit) share the envelope.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	return writeError(ctx, err)
}

func writeError(ctx *fiber.Ctx, err error) error {
	code, msg := StatusFor(err)

	var valErr *interview.ValidationError
	if errors.As(err, &valErr) && valErr.Field != "" {
		return ctx.Status(code).JSON(FieldErrorResponse(code, msg, map[string]string{valErr.Field: valErr.Message}))
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return ctx.Status(code).JSON(FieldErrorResponse(code, "Invalid request", reqErr.Fields))
	}
	return ctx.Status(code).JSON(ErrorResponse(code, msg))
}
