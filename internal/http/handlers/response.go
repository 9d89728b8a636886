// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelopes and helpers shared by every
// endpoint. Success bodies are wrapped in RestResult; errors carry the same
// integer code as the HTTP status.
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "code": 200, "message": "ok", "data": { "id": 3, "name": "Menus" } }
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{ "code": 404, "message": "menu not found", "request_id": "123e4567-..." }
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-menu-backend/internal/failure"
	"github.com/tbourn/go-menu-backend/internal/http/middleware"
	"github.com/tbourn/go-menu-backend/internal/services"
	"github.com/tbourn/go-menu-backend/internal/validation"
)

// ErrorResponse is the error envelope returned by all endpoints. It mirrors
// middleware.ErrorBody for the OpenAPI documentation.
type ErrorResponse struct {
	// HTTP status, repeated in the body
	Code int `json:"code" example:"400"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"name must not be blank"`
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// RestResult is the success envelope.
type RestResult struct {
	Code    int    `json:"code" example:"200"`
	Message string `json:"message" example:"ok"`
	Data    any    `json:"data,omitempty"`
}

// fail aborts the request with an error envelope. Server errors are also
// logged with the request-scoped logger.
func fail(c *gin.Context, status int, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("message", msg).
			Msg("api error")
	}
	middleware.WriteError(c, status, msg)
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, msg string) { fail(c, status, msg) }

// ok writes data inside a RestResult.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, RestResult{Code: status, Message: "ok", Data: data})
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// raise reports err for the Failures middleware to translate and stops the
// chain.
func raise(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// serviceError answers a MenuService error. Missing menus are a plain 404;
// bad parent references are body violations on parent_id; anything else is
// raised as an unexpected failure.
func serviceError(c *gin.Context, err error) {
	lang := validation.Locale(c)
	switch {
	case errors.Is(err, services.ErrMenuNotFound):
		fail(c, http.StatusNotFound, MsgMenuNotFound)
	case errors.Is(err, services.ErrParentNotFound):
		raise(c, failure.NewBodyViolation("parent_id", validation.Message(lang, "exists", "")))
	case errors.Is(err, services.ErrSelfParent):
		raise(c, failure.NewBodyViolation("parent_id", validation.Message(lang, "self", "")))
	default:
		raise(c, err)
	}
}
