// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the authentication and authorization collaborators. The
// caller presents a principal in the X-User-ID header; Authenticate resolves
// it to an unlocked account and RequirePermission checks the permission
// strings granted through the account's menus. Both report problems as
// failures for the Failures middleware to translate.
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-menu-backend/internal/domain"
	"github.com/tbourn/go-menu-backend/internal/failure"
	"github.com/tbourn/go-menu-backend/internal/services"
)

// HeaderUserID carries the caller's principal.
const HeaderUserID = "X-User-ID"

// Principals resolves principals and their permissions.
type Principals interface {
	Principal(ctx context.Context, username string) (*domain.User, error)
	Permissions(ctx context.Context, username string) (map[string]struct{}, error)
}

// Authenticate establishes the caller's identity and stores it under
// "userID". Missing, unknown, or locked principals raise an
// AuthenticationFailure.
func Authenticate(p Principals) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if principal == "" {
			abortWith(c, failure.NewAuthentication("no principal presented"))
			return
		}
		u, err := p.Principal(c.Request.Context(), principal)
		switch {
		case errors.Is(err, services.ErrUnknownPrincipal):
			abortWith(c, failure.NewAuthentication("unknown account"))
			return
		case err != nil:
			abortWith(c, err)
			return
		case u.Locked:
			abortWith(c, failure.NewAuthentication("account is locked"))
			return
		}
		c.Set(userIDKey, u.Username)
		c.Next()
	}
}

// RequirePermission raises an AuthorizationFailure unless the authenticated
// principal holds perm. It must run after Authenticate.
func RequirePermission(perm string, p Principals) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := UserIDFrom(c)
		if principal == "" {
			abortWith(c, failure.NewAuthentication("no principal presented"))
			return
		}
		perms, err := p.Permissions(c.Request.Context(), principal)
		if err != nil {
			abortWith(c, err)
			return
		}
		if _, ok := perms[perm]; !ok {
			abortWith(c, failure.NewAuthorization("subject does not have permission ["+perm+"]"))
			return
		}
		c.Next()
	}
}

func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
