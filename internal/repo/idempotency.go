// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file stores the outcome of keyed create requests so a
// client retrying POST /menus with the same Idempotency-Key gets the menu it
// already created instead of a second copy.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-menu-backend/internal/domain"
)

// ErrDuplicate reports that a live record already exists for the IdemKey,
// usually because a concurrent retry recorded it first.
var ErrDuplicate = errors.New("duplicate")

// IdemKey identifies one keyed request: the principal that sent it, the
// collection it created in (e.g. "menus") and the client's key. Keys are
// private to a principal and a collection.
type IdemKey struct {
	Principal string
	Scope     string
	Key       string
}

func (k IdemKey) where(tx *gorm.DB) *gorm.DB {
	return tx.Where("user_id = ? AND scope = ? AND key = ?", k.Principal, k.Scope, k.Key)
}

// GetIdempotency returns the record for k that is still live at now, or
// ErrNotFound. A blank scope never matches.
func GetIdempotency(ctx context.Context, db *gorm.DB, k IdemKey, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(k.Scope) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := k.where(db.WithContext(ctx)).Where("expires_at > ?", now).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency remembers that the request identified by k produced
// menu menuID with status. The record lives for ttl. An expired record for
// the same k is replaced; a live one yields ErrDuplicate.
func CreateIdempotency(ctx context.Context, db *gorm.DB, k IdemKey, menuID, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:         uuid.NewString(),
		UserID:     k.Principal,
		Scope:      k.Scope,
		Key:        k.Key,
		ResourceID: menuID,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := k.where(tx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// isUniqueViolation also matches the plain-text errors glebarez/sqlite
// returns for UNIQUE constraints.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") || strings.Contains(low, "constraint failed: unique")
}
