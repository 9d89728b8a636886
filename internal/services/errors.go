// Package services defines the business logic for menus and the principals
// that can see them. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Menu-related errors.
var (
	// ErrMenuNotFound indicates that the requested menu does not exist or has
	// been deleted.
	ErrMenuNotFound = errors.New("menu not found")

	// ErrParentNotFound is returned when a create or update names a parent
	// menu that does not exist.
	ErrParentNotFound = errors.New("parent menu not found")

	// ErrSelfParent is returned when an update makes a menu its own parent.
	ErrSelfParent = errors.New("menu cannot be its own parent")
)

// Principal-related errors.
var (
	// ErrUnknownPrincipal indicates that no account matches the presented
	// principal.
	ErrUnknownPrincipal = errors.New("unknown principal")
)
