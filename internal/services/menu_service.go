// Package services – MenuService
//
// This file implements the MenuService, which manages the menu tree and the
// per-principal view of it. It normalizes names and permission lists, checks
// parent references, and coordinates repository operations. The menus and
// permissions visible to each principal are cached in an expiring LRU that
// is purged on every write.
//
// Predictable cases return sentinel errors (ErrMenuNotFound,
// ErrParentNotFound); anything else is wrapped with a stack trace so the
// translator can log where it came from.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-menu-backend/internal/domain"
)

// MenuRepo defines the repository contract required by MenuService.
type MenuRepo interface {
	CreateMenu(ctx context.Context, db *gorm.DB, m *domain.Menu) error
	GetMenu(ctx context.Context, db *gorm.DB, id int) (*domain.Menu, error)
	UpdateMenu(ctx context.Context, db *gorm.DB, m *domain.Menu) error
	UpdateMenuSelective(ctx context.Context, db *gorm.DB, id int, cols map[string]any) error
	DeleteMenu(ctx context.Context, db *gorm.DB, id int) error
	CountMenus(ctx context.Context, db *gorm.DB) (int64, error)
	ListMenusPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Menu, error)

	// FindUserMenu returns the distinct menus granted to principal.
	FindUserMenu(ctx context.Context, db *gorm.DB, principal string) ([]domain.Menu, error)
	// GetUserByUsername resolves a principal to its account.
	GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)
	// MenusStats feeds the list ETag.
	MenusStats(ctx context.Context, db *gorm.DB) (count, deleted int64, maxUpdatedAt *time.Time, err error)
}

// MenuInput carries every writable field of a menu.
type MenuInput struct {
	ParentID int
	Name     string
	URL      string
	Perms    string
	Type     int
	Icon     string
	OrderNum int
}

// MenuPatch carries the fields of a partial update; nil means unchanged.
type MenuPatch struct {
	ParentID *int
	Name     *string
	URL      *string
	Perms    *string
	Type     *int
	Icon     *string
	OrderNum *int
}

// MenuService provides menu CRUD and per-principal menu lookups.
type MenuService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the menu repository used by this service.
	Repo MenuRepo

	cache *expirable.LRU[string, []domain.Menu]

	// gen counts purges. A lookup only caches its result if no write purged
	// the cache while it was reading.
	mu  sync.Mutex
	gen uint64
}

// NewMenuService constructs a MenuService whose per-principal cache holds up
// to cacheSize entries for ttl. A cacheSize <= 0 disables caching.
func NewMenuService(db *gorm.DB, r MenuRepo, cacheSize int, ttl time.Duration) *MenuService {
	s := &MenuService{DB: db, Repo: r}
	if cacheSize > 0 {
		s.cache = expirable.NewLRU[string, []domain.Menu](cacheSize, nil, ttl)
	}
	return s
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("services/MenuService").Start(ctx, name, trace.WithAttributes(attrs...))
}

// Create inserts a new menu after normalizing it and checking its parent.
func (s *MenuService) Create(ctx context.Context, in MenuInput) (*domain.Menu, error) {
	ctx, span := startSpan(ctx, "Create", attribute.Int("menu.parent_id", in.ParentID))
	defer span.End()

	m := in.toMenu()
	if err := s.checkParent(ctx, 0, m.ParentID); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateMenu(ctx, s.DB, m); err != nil {
		return nil, pkgerrors.Wrap(err, "create menu")
	}
	s.purge()
	return m, nil
}

// Get returns the menu with id, or ErrMenuNotFound.
func (s *MenuService) Get(ctx context.Context, id int) (*domain.Menu, error) {
	ctx, span := startSpan(ctx, "Get", attribute.Int("menu.id", id))
	defer span.End()

	m, err := s.Repo.GetMenu(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, "get menu")
	}
	return m, nil
}

// Update overwrites every writable field of menu id.
func (s *MenuService) Update(ctx context.Context, id int, in MenuInput) (*domain.Menu, error) {
	ctx, span := startSpan(ctx, "Update", attribute.Int("menu.id", id))
	defer span.End()

	m := in.toMenu()
	m.ID = id
	if err := s.checkParent(ctx, id, m.ParentID); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateMenu(ctx, s.DB, m); err != nil {
		return nil, notFound(err, "update menu")
	}
	s.purge()
	return s.Get(ctx, id)
}

// Patch writes only the fields set in p.
func (s *MenuService) Patch(ctx context.Context, id int, p MenuPatch) (*domain.Menu, error) {
	ctx, span := startSpan(ctx, "Patch", attribute.Int("menu.id", id))
	defer span.End()

	if p.ParentID != nil {
		if err := s.checkParent(ctx, id, *p.ParentID); err != nil {
			return nil, err
		}
	}
	if err := s.Repo.UpdateMenuSelective(ctx, s.DB, id, p.columns()); err != nil {
		return nil, notFound(err, "patch menu")
	}
	s.purge()
	return s.Get(ctx, id)
}

// Delete soft-deletes menu id and revokes its grants.
func (s *MenuService) Delete(ctx context.Context, id int) error {
	ctx, span := startSpan(ctx, "Delete", attribute.Int("menu.id", id))
	defer span.End()

	if err := s.Repo.DeleteMenu(ctx, s.DB, id); err != nil {
		return notFound(err, "delete menu")
	}
	s.purge()
	return nil
}

// ListPage returns a page of menus and the total count. Invalid page or
// pageSize values fall back to 1 and 20.
func (s *MenuService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Menu, int64, error) {
	ctx, span := startSpan(ctx, "ListPage",
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountMenus(ctx, s.DB)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count menus")
	}
	if total == 0 {
		return []domain.Menu{}, 0, nil
	}
	items, err := s.Repo.ListMenusPage(ctx, s.DB, offset, pageSize)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list menus")
	}
	return items, total, nil
}

// Stats returns the fingerprint inputs for the menu list.
func (s *MenuService) Stats(ctx context.Context) (count, deleted int64, maxUpdatedAt *time.Time, err error) {
	count, deleted, maxUpdatedAt, err = s.Repo.MenusStats(ctx, s.DB)
	if err != nil {
		err = pkgerrors.Wrap(err, "menu stats")
	}
	return
}

// UserMenus returns the menus visible to principal, optionally restricted to
// one menu type.
func (s *MenuService) UserMenus(ctx context.Context, principal string, menuType *int) ([]domain.Menu, error) {
	ctx, span := startSpan(ctx, "UserMenus", attribute.String("user.id", principal))
	defer span.End()

	all, err := s.userMenus(ctx, principal)
	if err != nil {
		return nil, err
	}
	if menuType == nil {
		return all, nil
	}
	out := make([]domain.Menu, 0, len(all))
	for _, m := range all {
		if m.Type == *menuType {
			out = append(out, m)
		}
	}
	return out, nil
}

// Permissions returns the set of permission strings principal holds.
func (s *MenuService) Permissions(ctx context.Context, principal string) (map[string]struct{}, error) {
	menus, err := s.userMenus(ctx, principal)
	if err != nil {
		return nil, err
	}
	perms := make(map[string]struct{})
	for _, m := range menus {
		for _, p := range splitPerms(m.Perms) {
			perms[p] = struct{}{}
		}
	}
	return perms, nil
}

// Principal resolves username to its account, or ErrUnknownPrincipal.
func (s *MenuService) Principal(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.Repo.GetUserByUsername(ctx, s.DB, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownPrincipal
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "lookup principal")
	}
	return u, nil
}

func (s *MenuService) userMenus(ctx context.Context, principal string) ([]domain.Menu, error) {
	if s.cache == nil {
		menus, err := s.Repo.FindUserMenu(ctx, s.DB, principal)
		return menus, pkgerrors.Wrap(err, "find user menus")
	}
	if v, ok := s.cache.Get(principal); ok {
		return v, nil
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	menus, err := s.Repo.FindUserMenu(ctx, s.DB, principal)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find user menus")
	}

	s.mu.Lock()
	if s.gen == gen {
		s.cache.Add(principal, menus)
	}
	s.mu.Unlock()
	return menus, nil
}

func (s *MenuService) checkParent(ctx context.Context, id, parentID int) error {
	if parentID == 0 {
		return nil
	}
	if id != 0 && parentID == id {
		return ErrSelfParent
	}
	if _, err := s.Repo.GetMenu(ctx, s.DB, parentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParentNotFound
		}
		return pkgerrors.Wrap(err, "lookup parent menu")
	}
	return nil
}

func (s *MenuService) purge() {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.gen++
	s.cache.Purge()
	s.mu.Unlock()
}

// notFound maps a missing row to ErrMenuNotFound and wraps everything else.
func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMenuNotFound
	}
	return pkgerrors.Wrap(err, op)
}

func (in MenuInput) toMenu() *domain.Menu {
	return &domain.Menu{
		ParentID: in.ParentID,
		Name:     normalizeName(in.Name),
		URL:      strings.TrimSpace(in.URL),
		Perms:    normalizePerms(in.Perms),
		Type:     in.Type,
		Icon:     strings.TrimSpace(in.Icon),
		OrderNum: in.OrderNum,
	}
}

func (p MenuPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.ParentID != nil {
		cols["parent_id"] = *p.ParentID
	}
	if p.Name != nil {
		cols["name"] = normalizeName(*p.Name)
	}
	if p.URL != nil {
		cols["url"] = strings.TrimSpace(*p.URL)
	}
	if p.Perms != nil {
		cols["perms"] = normalizePerms(*p.Perms)
	}
	if p.Type != nil {
		cols["type"] = *p.Type
	}
	if p.Icon != nil {
		cols["icon"] = strings.TrimSpace(*p.Icon)
	}
	if p.OrderNum != nil {
		cols["order_num"] = *p.OrderNum
	}
	return cols
}

// normalizeName trims whitespace and collapses inner runs to one space.
func normalizeName(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// normalizePerms trims each comma-separated permission and drops blanks.
func normalizePerms(s string) string {
	return strings.Join(splitPerms(s), ",")
}

func splitPerms(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
