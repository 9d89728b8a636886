package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/tbourn/go-menu-backend/internal/domain"
	"github.com/tbourn/go-menu-backend/internal/services"
	"github.com/tbourn/go-menu-backend/internal/validation"
)

type fakePrincipals struct {
	users map[string]*domain.User
	perms map[string][]string
	err   error
}

func (f fakePrincipals) Principal(_ context.Context, username string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, services.ErrUnknownPrincipal
	}
	return u, nil
}

func (f fakePrincipals) Permissions(_ context.Context, username string) (map[string]struct{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]struct{}{}
	for _, p := range f.perms[username] {
		out[p] = struct{}{}
	}
	return out, nil
}

func newAuthEngine(p Principals, perm string) *gin.Engine {
	r := newEngine(Authenticate(p))
	r.GET("/menus", RequirePermission(perm, p), func(c *gin.Context) {
		c.String(http.StatusOK, UserIDFrom(c))
	})
	return r
}

func authRequest(r http.Handler, principal string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/menus", nil)
	if principal != "" {
		req.Header.Set(HeaderUserID, principal)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	_ = captureLogger(t)
	p := fakePrincipals{
		users: map[string]*domain.User{
			"admin":  {Username: "admin"},
			"guest":  {Username: "guest"},
			"former": {Username: "former", Locked: true},
		},
		perms: map[string][]string{
			"admin":  {"menu:list", "menu:add"},
			"guest":  {"menu:view"},
			"former": {"menu:list"},
		},
	}
	r := newAuthEngine(p, "menu:list")

	cases := []struct {
		principal string
		status    int
		msg       string
	}{
		{"", 405, "no principal presented"},
		{"ghost", 405, "unknown account"},
		{"former", 405, "account is locked"},
		{"guest", 405, "subject does not have permission [menu:list]"},
	}
	for _, tc := range cases {
		w := authRequest(r, tc.principal)
		if w.Code != tc.status {
			t.Fatalf("%q: status = %d; want %d", tc.principal, w.Code, tc.status)
		}
		if body := decodeError(t, w); body.Message != tc.msg {
			t.Fatalf("%q: message = %q; want %q", tc.principal, body.Message, tc.msg)
		}
	}

	w := authRequest(r, "admin")
	if w.Code != http.StatusOK || w.Body.String() != "admin" {
		t.Fatalf("admin: %d %q", w.Code, w.Body.String())
	}
}

func TestAuthenticate_LookupErrorIsUnclassified(t *testing.T) {
	_ = captureLogger(t)
	r := newAuthEngine(fakePrincipals{err: errors.New("db down")}, "menu:list")
	w := authRequest(r, "admin")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRequirePermission_WithoutAuthenticate(t *testing.T) {
	_ = captureLogger(t)
	r := newEngine()
	r.GET("/x", RequirePermission("menu:list", fakePrincipals{}), func(c *gin.Context) { c.Status(200) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLocale_Negotiates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Locale(language.English))
	r.GET("/l", func(c *gin.Context) { c.String(200, validation.Locale(c).String()) })

	for accept, want := range map[string]string{
		"":             "en",
		"zh-CN,zh":     "zh-Hans",
		"fr-FR":        "en",
		"en-US,en;q=1": "en",
	} {
		req := httptest.NewRequest(http.MethodGet, "/l", nil)
		if accept != "" {
			req.Header.Set("Accept-Language", accept)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Body.String() != want {
			t.Fatalf("Accept-Language %q -> %q; want %q", accept, w.Body.String(), want)
		}
	}
}
