package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-menu-backend/internal/domain"
)

func insertIdempotency(t *testing.T, db *gorm.DB, id string, k IdemKey, menuID int, expires time.Time) {
	t.Helper()
	rec := &domain.Idempotency{
		ID:         id,
		UserID:     k.Principal,
		Scope:      k.Scope,
		Key:        k.Key,
		ResourceID: menuID,
		Status:     200,
		CreatedAt:  expires.Add(-time.Hour),
		ExpiresAt:  expires,
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert %s: %v", id, err)
	}
}

func TestGetIdempotency(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()
	now := time.Now().UTC()

	live := IdemKey{Principal: "admin", Scope: "menus", Key: "create-1"}
	stale := IdemKey{Principal: "admin", Scope: "menus", Key: "create-0"}
	insertIdempotency(t, db, "live", live, 7, now.Add(time.Hour))
	insertIdempotency(t, db, "stale", stale, 3, now.Add(-time.Minute))

	rec, err := GetIdempotency(ctx, db, live, now)
	if err != nil || rec.ResourceID != 7 || rec.Status != 200 {
		t.Fatalf("live record = %+v, %v", rec, err)
	}

	misses := map[string]IdemKey{
		"expired":         stale,
		"unknown key":     {Principal: "admin", Scope: "menus", Key: "nope"},
		"other principal": {Principal: "guest", Scope: "menus", Key: "create-1"},
		"other scope":     {Principal: "admin", Scope: "roles", Key: "create-1"},
		"blank scope":     {Principal: "admin", Scope: "  ", Key: "create-1"},
	}
	for name, k := range misses {
		if rec, err := GetIdempotency(ctx, db, k, now); rec != nil || !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: got (%v, %v); want ErrNotFound", name, rec, err)
		}
	}
}

func TestCreateIdempotency_LiveRecordIsDuplicate(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()
	k := IdemKey{Principal: "admin", Scope: "menus", Key: "create-9"}
	start := time.Now().UTC()

	rec, err := CreateIdempotency(ctx, db, k, 9, 200, 90*time.Minute)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || rec.UserID != "admin" || rec.Scope != "menus" || rec.Key != "create-9" || rec.ResourceID != 9 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.ExpiresAt.After(start) || !rec.ExpiresAt.Before(start.Add(2*time.Hour)) {
		t.Fatalf("unexpected ExpiresAt: %v", rec.ExpiresAt)
	}

	if _, err := CreateIdempotency(ctx, db, k, 10, 200, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second create: want ErrDuplicate, got %v", err)
	}
	got, _ := GetIdempotency(ctx, db, k, time.Now().UTC())
	if got == nil || got.ResourceID != 9 {
		t.Fatalf("first record must win, got %+v", got)
	}
}

func TestCreateIdempotency_ReplacesExpiredRecord(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()
	k := IdemKey{Principal: "admin", Scope: "menus", Key: "reused"}
	insertIdempotency(t, db, "old", k, 1, time.Now().UTC().Add(-time.Minute))

	rec, err := CreateIdempotency(ctx, db, k, 2, 200, time.Hour)
	if err != nil {
		t.Fatalf("reusing an expired key: %v", err)
	}
	got, err := GetIdempotency(ctx, db, k, time.Now().UTC())
	if err != nil || got.ID != rec.ID || got.ResourceID != 2 {
		t.Fatalf("replacement = %+v, %v", got, err)
	}
	var n int64
	db.Model(&domain.Idempotency{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected the expired row to be gone, count=%d", n)
	}
}

func TestCreateIdempotency_NoTable(t *testing.T) {
	db := newTestDB(t) // not migrated
	_, err := CreateIdempotency(context.Background(), db, IdemKey{"admin", "menus", "k"}, 1, 200, time.Minute)
	if err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected a plain error for a missing table, got %v", err)
	}
}
