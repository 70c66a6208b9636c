// Package httpx defines the API error type and the response envelope
// shared by every handler.  Handlers raise *httpx.Error at the point of
// detection and let it propagate; the Echo error handler serializes all
// failures uniformly and never leaks internals to the client.
package httpx

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error is a typed API failure carrying the HTTP status to respond
// with.  It represents the closed taxonomy: 400 BadRequest,
// 401 Unauthorized, 403 Forbidden, 404 NotFound, 409 Conflict,
// 500 Internal.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError builds an API error with an explicit status.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error   { return NewError(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return NewError(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error    { return NewError(http.StatusForbidden, message) }
func NotFound(message string) *Error     { return NewError(http.StatusNotFound, message) }
func Conflict(message string) *Error     { return NewError(http.StatusConflict, message) }
func Internal(message string) *Error     { return NewError(http.StatusInternalServerError, message) }

// Envelope is the uniform response body: {success, message, data}.
// Failures always carry data:null.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorHandler is installed as Echo's HTTPErrorHandler.  Typed API
// errors keep their status and message; echo's own errors (404 route
// miss, 405, body binding) are passed through; anything else becomes an
// opaque 500.  Stack traces and internal error strings never reach the
// client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal Server Error"

	var apiErr *Error
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Status
		message = apiErr.Message
	case errors.As(err, &echoErr):
		status = echoErr.Code
		if s, ok := echoErr.Message.(string); ok {
			message = s
		} else {
			message = http.StatusText(echoErr.Code)
		}
	default:
		log.Printf("httpx: unhandled error: %v", err)
	}

	if status >= http.StatusInternalServerError {
		log.Printf("httpx: %d on %s %s: %v", status, c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, Envelope{Success: false, Message: message, Data: nil})
}
