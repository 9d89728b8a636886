// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users, roles,
// and the grants that link them to menus.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-menu-backend/internal/domain"
)

// GetUserByUsername fetches the user whose principal is username, or
// ErrNotFound.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser inserts username or updates its locked flag when it already
// exists, returning the stored row.
func UpsertUser(ctx context.Context, db *gorm.DB, username string, locked bool) (*domain.User, error) {
	u := &domain.User{Username: username, Locked: locked}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"locked", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return nil, err
	}
	return GetUserByUsername(ctx, db, username)
}

// FirstOrCreateRole returns the role called name, creating it when missing.
func FirstOrCreateRole(ctx context.Context, db *gorm.DB, name string) (*domain.Role, error) {
	r := domain.Role{}
	err := db.WithContext(ctx).Where(domain.Role{Name: name}).FirstOrCreate(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// AssignRole links userID to roleID. Existing links are left untouched.
func AssignRole(ctx context.Context, db *gorm.DB, userID, roleID int) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&domain.UserRole{UserID: userID, RoleID: roleID}).Error
}

// GrantMenu links roleID to menuID. Existing grants are left untouched.
func GrantMenu(ctx context.Context, db *gorm.DB, roleID, menuID int) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&domain.RoleMenu{RoleID: roleID, MenuID: menuID}).Error
}
