// Menu HTTP handlers.
//
// This file exposes REST endpoints for menu resources:
//   - GET    /menus          (list, paginated, ETag support)
//   - POST   /menus          (create, Idempotency-Key replay)
//   - GET    /menus/{id}     (read)
//   - PUT    /menus/{id}     (full update)
//   - PATCH  /menus/{id}     (partial update)
//   - DELETE /menus/{id}     (soft delete)
//   - GET    /user/menus     (menus visible to the caller)
//
// Handlers are transport-thin: they validate input, call the menu service,
// and translate results into HTTP responses. Validation problems are raised
// as failures and rendered by the Failures middleware.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-menu-backend/internal/domain"
	"github.com/tbourn/go-menu-backend/internal/http/middleware"
	"github.com/tbourn/go-menu-backend/internal/services"
	"github.com/tbourn/go-menu-backend/internal/validation"
)

//
// Service contracts (context-aware)
//

// MenuService defines the menu operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MenuService interface {
	Create(ctx context.Context, in services.MenuInput) (*domain.Menu, error)
	Get(ctx context.Context, id int) (*domain.Menu, error)
	Update(ctx context.Context, id int, in services.MenuInput) (*domain.Menu, error)
	Patch(ctx context.Context, id int, p services.MenuPatch) (*domain.Menu, error)
	Delete(ctx context.Context, id int) error
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Menu, int64, error)
	// Stats feeds the list ETag.
	Stats(ctx context.Context) (count, deleted int64, maxUpdatedAt *time.Time, err error)
	// UserMenus returns the menus granted to principal, optionally of one type.
	UserMenus(ctx context.Context, principal string, menuType *int) ([]domain.Menu, error)
}

// IdempotencyRecorder stores the resource a keyed create produced so that a
// retry can be replayed.
type IdempotencyRecorder func(ctx context.Context, userID, scope, key string, resourceID, status int) error

// IdempotencyScope is the scope menu create keys are recorded under.
const IdempotencyScope = "menus"

//
// Handler wiring
//

// Handlers groups the menu HTTP endpoints.
type Handlers struct {
	menuSvc  MenuService
	remember IdempotencyRecorder
}

// New constructs Handlers. remember may be nil, in which case keyed creates
// are not recorded.
func New(menuSvc MenuService, remember IdempotencyRecorder) *Handlers {
	return &Handlers{menuSvc: menuSvc, remember: remember}
}

//
// DTOs
//

// MenuRequest is the JSON payload for creating or fully updating a menu.
type MenuRequest struct {
	ParentID int    `json:"parent_id" binding:"gte=0" example:"1"`
	Name     string `json:"name" binding:"notblank,max=64" example:"Menus"`
	URL      string `json:"url" binding:"omitempty,startswith=/,max=255" example:"/system/menus"`
	Perms    string `json:"perms" binding:"max=500" example:"menu:list,menu:view"`
	Type     *int   `json:"type" binding:"required,oneof=0 1 2" example:"1"`
	Icon     string `json:"icon" binding:"max=64" example:"menu"`
	OrderNum int    `json:"order_num" binding:"gte=0" example:"1"`
}

// PatchMenuRequest is the JSON payload for a partial update. Omitted fields
// are left unchanged.
type PatchMenuRequest struct {
	ParentID *int    `json:"parent_id" binding:"omitempty,gte=0"`
	Name     *string `json:"name" binding:"omitempty,notblank,max=64"`
	URL      *string `json:"url" binding:"omitempty,max=255"`
	Perms    *string `json:"perms" binding:"omitempty,max=500"`
	Type     *int    `json:"type" binding:"omitempty,oneof=0 1 2"`
	Icon     *string `json:"icon" binding:"omitempty,max=64"`
	OrderNum *int    `json:"order_num" binding:"omitempty,gte=0"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListMenusResponse wraps a page of menus and pagination information.
type ListMenusResponse struct {
	Menus      []domain.Menu `json:"menus"`
	Pagination Pagination    `json:"pagination"`
}

func (r MenuRequest) input() services.MenuInput {
	in := services.MenuInput{
		ParentID: r.ParentID,
		Name:     r.Name,
		URL:      r.URL,
		Perms:    r.Perms,
		Icon:     r.Icon,
		OrderNum: r.OrderNum,
	}
	if r.Type != nil {
		in.Type = *r.Type
	}
	return in
}

func (r PatchMenuRequest) patch() services.MenuPatch {
	return services.MenuPatch{
		ParentID: r.ParentID,
		Name:     r.Name,
		URL:      r.URL,
		Perms:    r.Perms,
		Type:     r.Type,
		Icon:     r.Icon,
		OrderNum: r.OrderNum,
	}
}

//
// Helpers
//

// menuID validates the :id path parameter for the handler called method.
func menuID(c *gin.Context, method string) (int, bool) {
	p := validation.Params(method, validation.Locale(c))
	id := p.Int("id", c.Param("id"), "min=1")
	if err := p.Err(); err != nil {
		raise(c, err)
		return 0, false
	}
	return id, true
}

// pagination validates page and page_size, applying defaults when absent.
func pagination(c *gin.Context) (page, pageSize int, valid bool) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
	)
	p := validation.Params("ListMenus", validation.Locale(c))
	page, okPage := p.OptionalInt("page", c.Query("page"), "min=1")
	pageSize, okSize := p.OptionalInt("page_size", c.Query("page_size"), "min=1,max=100")
	if err := p.Err(); err != nil {
		raise(c, err)
		return 0, 0, false
	}
	if !okPage {
		page = defaultPage
	}
	if !okSize {
		pageSize = defaultPageSize
	}
	return page, pageSize, true
}

//
// Handlers
//

// ListMenus godoc
// @ID          listMenus
// @Summary     List menus (paginated)
// @Description Returns a page of menus ordered by parent, order number, and id. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Menus
// @Produce     json
//
// @Param       X-User-ID      header  string  true  "Principal"                    example(admin)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"   example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.RestResult{data=handlers.ListMenusResponse}
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid parameters"
// @Failure     405  {object} handlers.ErrorResponse "Not authenticated or not permitted"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /menus [get]
func (h *Handlers) ListMenus(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize, valid := pagination(c)
	if !valid {
		return
	}

	// ETag pre-check (best effort).
	if count, deleted, maxTS, err := h.menuSvc.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"menus:%d:%d:%d:%d:%d"`, count, deleted, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.menuSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		raise(c, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListMenusResponse{
		Menus: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// CreateMenu godoc
// @ID          createMenu
// @Summary     Create a menu
// @Description Creates a menu. With an Idempotency-Key, a retried request returns the menu the first request created.
// @Tags        Menus
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true   "Principal"        example(admin)
// @Param       Idempotency-Key  header  string  false  "Idempotency key"  example(create-menu-42)
// @Param       body             body    handlers.MenuRequest  true  "Menu payload"
//
// @Success     200  {object}  handlers.RestResult{data=domain.Menu}
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid body or parameters"
// @Failure     405  {object}  handlers.ErrorResponse  "Not authenticated or not permitted"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /menus [post]
func (h *Handlers) CreateMenu(c *gin.Context) {
	ctx := c.Request.Context()

	if id, replay := middleware.ReplayOf(c); replay {
		if m, err := h.menuSvc.Get(ctx, id); err == nil {
			c.Header("Idempotent-Replay", "true")
			ok(c, http.StatusOK, m)
			return
		}
		// The recorded menu is gone; treat the request as new.
	}

	var req MenuRequest
	if err := validation.BindJSON(c, &req); err != nil {
		raise(c, err)
		return
	}

	m, err := h.menuSvc.Create(ctx, req.input())
	if err != nil {
		serviceError(c, err)
		return
	}

	if key, present := middleware.GetIdempotencyKey(c); present && h.remember != nil {
		if err := h.remember(ctx, middleware.UserIDFrom(c), IdempotencyScope, key, m.ID, http.StatusOK); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("idempotency_key", key).Msg("idempotency record not stored")
		}
	}
	ok(c, http.StatusOK, m)
}

// GetMenu godoc
// @ID          getMenu
// @Summary     Get a menu
// @Tags        Menus
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Principal"  example(admin)
// @Param       id         path    int     true  "Menu ID"    minimum(1)
//
// @Success     200  {object} handlers.RestResult{data=domain.Menu}
// @Failure     400  {object} handlers.ErrorResponse "Invalid id"
// @Failure     404  {object} handlers.ErrorResponse "Menu not found"
// @Failure     405  {object} handlers.ErrorResponse "Not authenticated or not permitted"
// @Router      /menus/{id} [get]
func (h *Handlers) GetMenu(c *gin.Context) {
	id, valid := menuID(c, "GetMenu")
	if !valid {
		return
	}
	m, err := h.menuSvc.Get(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// UpdateMenu godoc
// @ID          updateMenu
// @Summary     Replace a menu
// @Description Overwrites every writable field of the menu.
// @Tags        Menus
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Principal"  example(admin)
// @Param       id         path    int     true  "Menu ID"    minimum(1)
// @Param       body       body    handlers.MenuRequest  true  "Menu payload"
//
// @Success     200  {object} handlers.RestResult{data=domain.Menu}
// @Failure     400  {object} handlers.ErrorResponse "Invalid body or parameters"
// @Failure     404  {object} handlers.ErrorResponse "Menu not found"
// @Failure     405  {object} handlers.ErrorResponse "Not authenticated or not permitted"
// @Router      /menus/{id} [put]
func (h *Handlers) UpdateMenu(c *gin.Context) {
	id, valid := menuID(c, "UpdateMenu")
	if !valid {
		return
	}
	var req MenuRequest
	if err := validation.BindJSON(c, &req); err != nil {
		raise(c, err)
		return
	}
	m, err := h.menuSvc.Update(c.Request.Context(), id, req.input())
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// PatchMenu godoc
// @ID          patchMenu
// @Summary     Update some fields of a menu
// @Tags        Menus
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Principal"  example(admin)
// @Param       id         path    int     true  "Menu ID"    minimum(1)
// @Param       body       body    handlers.PatchMenuRequest  true  "Fields to change"
//
// @Success     200  {object} handlers.RestResult{data=domain.Menu}
// @Failure     400  {object} handlers.ErrorResponse "Invalid body or parameters"
// @Failure     404  {object} handlers.ErrorResponse "Menu not found"
// @Failure     405  {object} handlers.ErrorResponse "Not authenticated or not permitted"
// @Router      /menus/{id} [patch]
func (h *Handlers) PatchMenu(c *gin.Context) {
	id, valid := menuID(c, "PatchMenu")
	if !valid {
		return
	}
	var req PatchMenuRequest
	if err := validation.BindJSON(c, &req); err != nil {
		raise(c, err)
		return
	}
	m, err := h.menuSvc.Patch(c.Request.Context(), id, req.patch())
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// DeleteMenu godoc
// @ID          deleteMenu
// @Summary     Delete a menu
// @Description Soft-deletes the menu and revokes it from every role.
// @Tags        Menus
//
// @Param       X-User-ID  header  string  true  "Principal"  example(admin)
// @Param       id         path    int     true  "Menu ID"    minimum(1)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid id"
// @Failure     404  {object} handlers.ErrorResponse "Menu not found"
// @Failure     405  {object} handlers.ErrorResponse "Not authenticated or not permitted"
// @Router      /menus/{id} [delete]
func (h *Handlers) DeleteMenu(c *gin.Context) {
	id, valid := menuID(c, "DeleteMenu")
	if !valid {
		return
	}
	if err := h.menuSvc.Delete(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}

// FindUserMenu godoc
// @ID          findUserMenu
// @Summary     Menus visible to the caller
// @Description Returns the distinct menus granted to the caller through any role, ordered by order number.
// @Tags        Menus
// @Produce     json
//
// @Param       X-User-ID  header  string  true   "Principal"   example(guest)
// @Param       type       query   int     false  "Menu type (0 catalog, 1 menu, 2 button)"  Enums(0, 1, 2)
//
// @Success     200  {object} handlers.RestResult{data=[]domain.Menu}
// @Failure     400  {object} handlers.ErrorResponse "Invalid type"
// @Failure     405  {object} handlers.ErrorResponse "Not authenticated"
// @Router      /user/menus [get]
func (h *Handlers) FindUserMenu(c *gin.Context) {
	p := validation.Params("FindUserMenu", validation.Locale(c))
	t, present := p.OptionalInt("type", c.Query("type"), "oneof=0 1 2")
	if err := p.Err(); err != nil {
		raise(c, err)
		return
	}
	var menuType *int
	if present {
		menuType = &t
	}
	menus, err := h.menuSvc.UserMenus(c.Request.Context(), middleware.UserIDFrom(c), menuType)
	if err != nil {
		raise(c, err)
		return
	}
	ok(c, http.StatusOK, menus)
}
