// Package handlers defines the fixed client-facing messages of responses
// that are written directly rather than translated from a failure.
//
// Validation and security problems never use these: they are raised as
// failures and rendered by the failure translator. Only outcomes with no
// failure category (missing resources, unmatched routes) are answered here.
package handlers

const (
	MsgRouteNotFound    = "route not found"
	MsgMethodNotAllowed = "method not allowed"
	MsgMenuNotFound     = "menu not found"
)
