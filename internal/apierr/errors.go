package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Error is one entry of the service error taxonomy. Code is the HTTP status
// the transport layer reports; Message is the only detail a caller ever sees.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Authentication failures are never distinguished to the caller.
var (
	ErrUnauthorized = &Error{Code: http.StatusUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &Error{Code: http.StatusForbidden, Message: "forbidden"}
)

func NotFound(entity string) *Error {
	return &Error{Code: http.StatusNotFound, Message: entity + " not found"}
}

func AlreadyExists(message string) *Error {
	return &Error{Code: http.StatusConflict, Message: message}
}

func Validation(format string, args ...any) *Error {
	return &Error{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Response is the wire envelope: {statusCode, data} on success,
// {statusCode, message} on failure.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message,omitempty"`
}

// OK writes a success envelope.
func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Response{StatusCode: http.StatusOK, Data: data})
}

// Respond translates a taxonomy error into its envelope. Anything outside
// the taxonomy is logged with its cause and reported as a generic internal
// error.
func Respond(c echo.Context, err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return c.JSON(apiErr.Code, Response{StatusCode: apiErr.Code, Message: apiErr.Message})
	}
	zap.L().Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, Response{
		StatusCode: http.StatusInternalServerError,
		Message:    "internal error",
	})
}
