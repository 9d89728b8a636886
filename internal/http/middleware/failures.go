// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file hosts Failures, the single exit point for error responses.
// Handlers and middleware downstream of it report problems with c.Error and
// abort; Failures classifies the last error, translates it, counts it, and
// writes the envelope
//
//	{ "code": <status>, "message": "...", "request_id": "..." }
package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-menu-backend/internal/failure"
)

// ErrorBody is the JSON envelope of every error response.
type ErrorBody struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError aborts the request with status and an ErrorBody carrying msg.
func WriteError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Code:      status,
		Message:   msg,
		RequestID: RequestIDFrom(c),
	})
}

// Failures translates errors pushed onto the Gin context into responses.
// Diagnostics go to the request-scoped logger. If a handler already wrote a
// response the error is still recorded but the body is left alone.
func Failures(tr *failure.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		f := failure.Classify(last.Err)
		resp := tr.WithRecorder(failure.ZerologRecorder(LoggerFrom(c))).Translate(f)
		httpFailures.WithLabelValues(f.Category().String(), strconv.Itoa(resp.Status)).Inc()

		if c.Writer.Written() {
			return
		}
		WriteError(c, resp.Status, resp.Message)
	}
}
