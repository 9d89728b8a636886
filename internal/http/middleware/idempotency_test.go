package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type lookupCall struct {
	userID, scope, key string
}

func newIdemEngine(lookup IdempotencyLookup) *gin.Engine {
	r := newEngine(func(c *gin.Context) {
		c.Set(userIDKey, "alice")
		c.Next()
	}, IdempotencyValidator(IdempotencyOptions{Scope: "menus", MaxLen: 16}, lookup))
	r.POST("/menus", func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		id, replay := ReplayOf(c)
		c.String(http.StatusOK, key+"|"+strconv.FormatBool(replay)+"|"+strconv.Itoa(id)+"|"+strconv.FormatBool(IsRateBypass(c)))
	})
	return r
}

func postWithKey(r http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/menus", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyValidator_NoHeader_NoLookup(t *testing.T) {
	called := false
	r := newIdemEngine(func(context.Context, string, string, string, time.Time) (int, bool, error) {
		called = true
		return 0, false, nil
	})
	w := postWithKey(r, "")
	if w.Code != http.StatusOK || w.Body.String() != "|false|0|false" || called {
		t.Fatalf("unexpected: %d %q called=%v", w.Code, w.Body.String(), called)
	}
}

func TestIdempotencyValidator_InvalidKeyIsParamViolation(t *testing.T) {
	_ = captureLogger(t)
	r := newIdemEngine(nil)
	for _, key := range []string{strings.Repeat("k", 17), "has space", "bad/slash"} {
		w := postWithKey(r, key)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%q: status = %d", key, w.Code)
		}
		if body := decodeError(t, w); body.Message != "Idempotency-Key is invalid" {
			t.Fatalf("%q: message = %q", key, body.Message)
		}
	}
}

func TestIdempotencyValidator_MissAndHit(t *testing.T) {
	var calls []lookupCall
	r := newIdemEngine(func(_ context.Context, userID, scope, key string, now time.Time) (int, bool, error) {
		calls = append(calls, lookupCall{userID, scope, key})
		if now.IsZero() {
			t.Fatalf("lookup time must be set")
		}
		return 42, key == "seen", nil
	})

	if w := postWithKey(r, "fresh"); w.Body.String() != "fresh|false|0|false" {
		t.Fatalf("miss: %q", w.Body.String())
	}
	if w := postWithKey(r, "seen"); w.Body.String() != "seen|true|42|true" {
		t.Fatalf("hit: %q", w.Body.String())
	}
	if len(calls) != 2 || calls[1] != (lookupCall{"alice", "menus", "seen"}) {
		t.Fatalf("unexpected lookup calls: %+v", calls)
	}
}
