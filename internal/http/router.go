// Package httpapi wires the HTTP transport (Gin) to the menu service,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, failure translation, panic
// recovery, metrics, compression, CORS, security headers, authentication,
// idempotency, and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-menu-backend/docs" // swagger spec
	"github.com/tbourn/go-menu-backend/internal/config"
	"github.com/tbourn/go-menu-backend/internal/domain"
	"github.com/tbourn/go-menu-backend/internal/failure"
	"github.com/tbourn/go-menu-backend/internal/http/handlers"
	"github.com/tbourn/go-menu-backend/internal/http/middleware"
	"github.com/tbourn/go-menu-backend/internal/repo"
	"github.com/tbourn/go-menu-backend/internal/services"
	"github.com/tbourn/go-menu-backend/internal/validation"
)

// Permissions guarding the menu routes.
const (
	PermMenuList   = "menu:list"
	PermMenuView   = "menu:view"
	PermMenuAdd    = "menu:add"
	PermMenuUpdate = "menu:update"
	PermMenuDelete = "menu:delete"
)

// menuRepoShim adapts the repository free functions to the services.MenuRepo
// interface expected by the MenuService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type menuRepoShim struct{}

func (menuRepoShim) CreateMenu(ctx context.Context, db *gorm.DB, m *domain.Menu) error {
	return repo.CreateMenu(ctx, db, m)
}

func (menuRepoShim) GetMenu(ctx context.Context, db *gorm.DB, id int) (*domain.Menu, error) {
	return repo.GetMenu(ctx, db, id)
}

func (menuRepoShim) UpdateMenu(ctx context.Context, db *gorm.DB, m *domain.Menu) error {
	return repo.UpdateMenu(ctx, db, m)
}

func (menuRepoShim) UpdateMenuSelective(ctx context.Context, db *gorm.DB, id int, cols map[string]any) error {
	return repo.UpdateMenuSelective(ctx, db, id, cols)
}

func (menuRepoShim) DeleteMenu(ctx context.Context, db *gorm.DB, id int) error {
	return repo.DeleteMenu(ctx, db, id)
}

func (menuRepoShim) CountMenus(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountMenus(ctx, db)
}

func (menuRepoShim) ListMenusPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Menu, error) {
	return repo.ListMenusPage(ctx, db, offset, limit)
}

func (menuRepoShim) FindUserMenu(ctx context.Context, db *gorm.DB, principal string) ([]domain.Menu, error) {
	return repo.FindUserMenu(ctx, db, principal)
}

func (menuRepoShim) GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	return repo.GetUserByUsername(ctx, db, username)
}

func (menuRepoShim) MenusStats(ctx context.Context, db *gorm.DB) (int64, int64, *time.Time, error) {
	return repo.MenusStats(ctx, db)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the menu API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: request-scoped logger, access log with PII scrubbing
//  4. Metrics and gzip: wrap everything that writes a response
//  5. Failures: translate the last c.Error into the error envelope
//  6. Recovery: turn panics into unclassified failures for Failures
//  7. Body size limiter, CORS and security headers
//  8. Locale negotiation for violation messages
//
// Inside the API group: Authenticate, then the Idempotency-Key validator
// (before rate limiting so replays bypass it), then the rate limiter, then
// per-route permission checks.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Prometheus metrics and response compression
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 5) Failure translation
	r.Use(middleware.Failures(failure.New(nil)))

	// 6) Panic recovery
	r.Use(middleware.Recovery())

	// 7) Body limit (1 MiB), CORS, security headers
	r.Use(limitBody(1 << 20))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 8) Locale
	r.Use(middleware.Locale(validation.Match(cfg.DefaultLocale.String(), validation.Supported[0])))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.MsgRouteNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.MsgMethodNotAllowed)
	})

	// Liveness, metrics, docs
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	menuSvc := services.NewMenuService(db, menuRepoShim{}, cfg.PermCacheSize, cfg.PermCacheTTL)
	h := handlers.New(menuSvc, rememberCreate(db, cfg.IdempotencyTTL))
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(
		middleware.Authenticate(menuSvc),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{
			Scope:  handlers.IdempotencyScope,
			MaxLen: 200,
		}, lookupCreate(db)),
		rl.Handler(),
	)
	{
		perm := func(p string) gin.HandlerFunc { return middleware.RequirePermission(p, menuSvc) }

		api.GET("/menus", perm(PermMenuList), h.ListMenus)
		api.POST("/menus", perm(PermMenuAdd), h.CreateMenu)
		api.GET("/menus/:id", perm(PermMenuView), h.GetMenu)
		api.PUT("/menus/:id", perm(PermMenuUpdate), h.UpdateMenu)
		api.PATCH("/menus/:id", perm(PermMenuUpdate), h.PatchMenu)
		api.DELETE("/menus/:id", perm(PermMenuDelete), h.DeleteMenu)

		api.GET("/user/menus", h.FindUserMenu)
	}
}

// lookupCreate resolves Idempotency-Key records for the validator.
func lookupCreate(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, userID, scope, key string, now time.Time) (int, bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, repo.IdemKey{Principal: userID, Scope: scope, Key: key}, now)
		if errors.Is(err, repo.ErrNotFound) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		return rec.ResourceID, true, nil
	}
}

// rememberCreate stores the menu a keyed create produced. A duplicate means a
// concurrent request with the same key got there first, which is fine.
func rememberCreate(db *gorm.DB, ttl time.Duration) handlers.IdempotencyRecorder {
	return func(ctx context.Context, userID, scope, key string, resourceID, status int) error {
		_, err := repo.CreateIdempotency(ctx, db, repo.IdemKey{Principal: userID, Scope: scope, Key: key}, resourceID, status, ttl)
		if errors.Is(err, repo.ErrDuplicate) {
			return nil
		}
		return err
	}
}

// corsMiddleware returns the CORS handlers: allow-all when no origins are
// configured, otherwise an allowlist that echoes matching origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization",
		middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	methods := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	expose := []string{"X-Request-ID", "Content-Length", "ETag", "Idempotent-Replay"}

	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     allowHeaders,
				ExposeHeaders:    expose,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    expose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody caps the request body size for all endpoints to maxBytes using
// http.MaxBytesReader. Oversized bodies fail to decode and surface as a body
// violation.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
