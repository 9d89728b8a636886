// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Menu model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a menu is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - CreateMenu(ctx, db, m) -> error
//   - GetMenu(ctx, db, id) -> *domain.Menu, error
//   - UpdateMenu(ctx, db, m) -> error                      (every column)
//   - UpdateMenuSelective(ctx, db, id, cols) -> error      (given columns only)
//   - DeleteMenu(ctx, db, id) -> error                     (soft delete)
//   - CountMenus / ListMenusPage                           (pagination)
//   - FindUserMenu(ctx, db, principal) -> []domain.Menu    (menus granted to a user)
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-menu-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// menuColumns lists the writable columns of a full update.
var menuColumns = []string{"parent_id", "name", "url", "perms", "type", "icon", "order_num", "updated_at"}

// CreateMenu inserts m and fills in its generated ID and timestamps.
func CreateMenu(ctx context.Context, db *gorm.DB, m *domain.Menu) error {
	m.ID = 0
	return db.WithContext(ctx).Create(m).Error
}

// GetMenu fetches a single live menu by ID, or ErrNotFound.
func GetMenu(ctx context.Context, db *gorm.DB, id int) (*domain.Menu, error) {
	var m domain.Menu
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMenu overwrites every writable column of the menu identified by
// m.ID, zero values included. Returns ErrNotFound if no live row matched.
func UpdateMenu(ctx context.Context, db *gorm.DB, m *domain.Menu) error {
	m.UpdatedAt = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Menu{}).
		Where("id = ?", m.ID).
		Select(menuColumns).
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateMenuSelective writes only the columns present in cols (column name
// to value). An empty cols is a no-op that still checks existence.
func UpdateMenuSelective(ctx context.Context, db *gorm.DB, id int, cols map[string]any) error {
	if len(cols) == 0 {
		_, err := GetMenu(ctx, db, id)
		return err
	}
	res := db.WithContext(ctx).
		Model(&domain.Menu{}).
		Where("id = ?", id).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteMenu soft-deletes the menu and removes its role grants in one
// transaction. Returns ErrNotFound if no live row matched.
func DeleteMenu(ctx context.Context, db *gorm.DB, id int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Menu{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("menu_id = ?", id).Delete(&domain.RoleMenu{}).Error
	})
}

// CountMenus returns the number of live menus.
func CountMenus(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Menu{}).Count(&total).Error
	return total, err
}

// ListMenusPage returns a page of live menus ordered by (parent_id, order_num, id).
func ListMenusPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Menu, error) {
	var out []domain.Menu
	err := db.WithContext(ctx).
		Order("parent_id ASC, order_num ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// FindUserMenu returns the distinct live menus granted to principal through
// any of its roles, ordered by (order_num, id). Unknown principals get an
// empty slice.
func FindUserMenu(ctx context.Context, db *gorm.DB, principal string) ([]domain.Menu, error) {
	out := []domain.Menu{}
	err := db.WithContext(ctx).
		Model(&domain.Menu{}).
		Distinct("menus.*").
		Joins("JOIN role_menus rm ON rm.menu_id = menus.id").
		Joins("JOIN user_roles ur ON ur.role_id = rm.role_id").
		Joins("JOIN users u ON u.id = ur.user_id").
		Where("u.username = ?", principal).
		Order("menus.order_num ASC, menus.id ASC").
		Find(&out).Error
	return out, err
}
