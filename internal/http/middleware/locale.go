package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/tbourn/go-menu-backend/internal/validation"
)

// Locale negotiates the response language from Accept-Language, falling back
// to def, and stores it for validation messages.
func Locale(def language.Tag) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(validation.LocaleKey, validation.Match(c.GetHeader("Accept-Language"), def))
		c.Next()
	}
}
