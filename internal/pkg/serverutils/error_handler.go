package serverutils

import (
	"errors"

	"whiteboard-relay/internal/constant"
	"whiteboard-relay/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders errors returned by later handlers as
// {message, error} JSON with a status derived from the error kind.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status, body := ErrorResponse(err)
		return ctx.Status(status).JSON(body)
	}
}

// ErrorResponse maps an error onto an HTTP status and body.
func ErrorResponse(err error) (int, dto.ErrorResponse) {
	var fiberErr *fiber.Error
	switch {
	case errors.Is(err, constant.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Message: constant.MessageNoteNotFound}
	case errors.Is(err, constant.ErrMalformedPayload):
		return fiber.StatusBadRequest, dto.ErrorResponse{Message: constant.MessageInvalidPayload, Error: err.Error()}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, dto.ErrorResponse{Message: fiberErr.Message}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error", Error: err.Error()}
	}
}
