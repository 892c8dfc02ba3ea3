package response

import (
	"errors"

	"casa-empenos/internal/core/domain"
	"casa-empenos/internal/pkg/pagination"

	"github.com/gofiber/fiber/v2"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Success sends a success response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Paginated sends a success response with a paginated payload
func Paginated(c *fiber.Ctx, data interface{}, params *pagination.Params, total int64) error {
	return c.JSON(Response{
		Success: true,
		Data:    pagination.NewResponse(data, params, total),
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict sends a 409 conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

// FromError maps a domain error to its HTTP status.
// Unknown errors are reported as 500 without leaking details.
func FromError(c *fiber.Ctx, err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		return InternalServerError(c, "Internal server error")
	}
	return ErrorWithCode(c, StatusFor(de.Kind), de.Code, de.Message)
}

// StatusFor returns the HTTP status for an error kind
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidInput:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case domain.KindForbidden:
		return fiber.StatusForbidden
	case domain.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorWithCode sends an error response carrying a machine-readable code
func ErrorWithCode(c *fiber.Ctx, statusCode int, code, message string) error {
	if statusCode == fiber.StatusInternalServerError {
		message = "Internal server error"
	}
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   message,
		Code:    code,
	})
}
