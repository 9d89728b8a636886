// Package failure is the single error-translation layer of the API. Handlers,
// validation, and security middleware raise typed failures (they implement
// error and are returned or pushed onto the Gin context); the Translator maps
// each one to a Response with a status code and a human-readable message.
//
// Failure categories:
//   - Unclassified:   any unexpected error (catch-all, 500)
//   - ParamViolation: simple-parameter validation (path/query/header), 400
//   - BodyViolation:  structured-body binding validation, 400
//   - Authentication: the caller could not be identified, 405
//   - Authorization:  the caller lacks a permission, 405
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Category identifies which translation rule applies to a Failure.
type Category int

const (
	// Unclassified is the catch-all category. It must stay the zero value so
	// that an unknown Failure resolves to it.
	Unclassified Category = iota
	ParamViolation
	BodyViolation
	Authentication
	Authorization

	numCategories
)

// String returns the metric/log label for c.
func (c Category) String() string {
	switch c {
	case ParamViolation:
		return "param_violation"
	case BodyViolation:
		return "body_violation"
	case Authentication:
		return "authentication"
	case Authorization:
		return "authorization"
	default:
		return "unclassified"
	}
}

// Failure is an application-level signal that a request cannot complete
// normally. The set of implementations is closed to this package.
type Failure interface {
	error
	Category() Category
	failure()
}

// FieldViolation is a single constraint failure tied to one input field.
//
// Path is set by simple-parameter validation ("GetMenu.id"), Field by body
// binding ("name"). Message is appended verbatim to the derived label, so it
// carries its own leading space when the locale needs one.
type FieldViolation struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// UnclassifiedFailure wraps any error that no specific rule claims.
type UnclassifiedFailure struct {
	Err error
}

func (f *UnclassifiedFailure) Error() string {
	if f.Err == nil {
		return "unclassified failure"
	}
	return f.Err.Error()
}

func (f *UnclassifiedFailure) Unwrap() error      { return f.Err }
func (f *UnclassifiedFailure) Category() Category { return Unclassified }
func (*UnclassifiedFailure) failure()             {}

// ParamViolationFailure reports violations from simple-parameter binding.
type ParamViolationFailure struct {
	Violations []FieldViolation
}

func (f *ParamViolationFailure) Error() string {
	return "parameter validation failed: " + describe(f.Violations, func(v FieldViolation) string { return v.Path })
}

func (f *ParamViolationFailure) Category() Category { return ParamViolation }
func (*ParamViolationFailure) failure()             {}

// BodyViolationFailure reports violations from structured-body binding.
type BodyViolationFailure struct {
	Violations []FieldViolation
}

func (f *BodyViolationFailure) Error() string {
	return "body validation failed: " + describe(f.Violations, func(v FieldViolation) string { return v.Field })
}

func (f *BodyViolationFailure) Category() Category { return BodyViolation }
func (*BodyViolationFailure) failure()             {}

// AuthenticationFailure is raised when the caller's identity cannot be
// established.
type AuthenticationFailure struct {
	Message string
}

func (f *AuthenticationFailure) Error() string      { return f.Message }
func (f *AuthenticationFailure) Category() Category { return Authentication }
func (*AuthenticationFailure) failure()             {}

// AuthorizationFailure is raised when an identified caller lacks permission.
type AuthorizationFailure struct {
	Message string
}

func (f *AuthorizationFailure) Error() string      { return f.Message }
func (f *AuthorizationFailure) Category() Category { return Authorization }
func (*AuthorizationFailure) failure()             {}

// PanicError carries a recovered panic value and the goroutine stack at the
// point of recovery. It travels inside an UnclassifiedFailure.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// NewAuthentication returns an AuthenticationFailure with msg.
func NewAuthentication(msg string) *AuthenticationFailure {
	return &AuthenticationFailure{Message: msg}
}

// NewAuthorization returns an AuthorizationFailure with msg.
func NewAuthorization(msg string) *AuthorizationFailure {
	return &AuthorizationFailure{Message: msg}
}

// NewBodyViolation returns a BodyViolationFailure for a single field.
func NewBodyViolation(field, msg string) *BodyViolationFailure {
	return &BodyViolationFailure{Violations: []FieldViolation{{Field: field, Message: msg}}}
}

// Classify resolves err to a Failure. Specific failure types are matched
// anywhere in the wrap chain; everything else, nil included, is Unclassified.
func Classify(err error) Failure {
	var (
		pv  *ParamViolationFailure
		bv  *BodyViolationFailure
		atn *AuthenticationFailure
		atz *AuthorizationFailure
	)
	switch {
	case errors.As(err, &pv):
		return pv
	case errors.As(err, &bv):
		return bv
	case errors.As(err, &atn):
		return atn
	case errors.As(err, &atz):
		return atz
	}
	var uf *UnclassifiedFailure
	if errors.As(err, &uf) {
		return uf
	}
	return &UnclassifiedFailure{Err: err}
}

func describe(vs []FieldViolation, name func(FieldViolation) string) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, name(v)+":"+v.Message)
	}
	return strings.Join(parts, "; ")
}
