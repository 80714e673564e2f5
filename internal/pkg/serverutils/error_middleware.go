package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"org-diagnostics-be/internal/pkg/apperror"
)

// statusOf maps application error classifications to HTTP statuses.
func statusOf(code apperror.Code) int {
	switch code {
	case apperror.CodeNotFound:
		return fiber.StatusNotFound
	case apperror.CodeAccessDenied:
		return fiber.StatusForbidden
	case apperror.CodeInvalidInput:
		return fiber.StatusBadRequest
	case apperror.CodeNoNextStage:
		return fiber.StatusConflict
	case apperror.CodeProviderError:
		return fiber.StatusBadGateway
	case apperror.CodeInvalidExtraction:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware turns errors bubbling out of handlers into the
// standard envelope. Internal failures are not echoed back verbatim.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			status := statusOf(appErr.Code)
			return ctx.Status(status).JSON(ErrorResponse(status, appErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
	}
}
