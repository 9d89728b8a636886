// Package validation is the request-validation collaborator of the failure
// translator. Simple parameters (path, query, header) are checked with
// ParamChecker and surface as failure.ParamViolationFailure; JSON bodies are
// bound with BindJSON and surface as failure.BodyViolationFailure.
//
// Both share gin's go-playground/validator engine, configured to report JSON
// field names, and render messages in the caller's negotiated locale.
package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"golang.org/x/text/language"

	"github.com/tbourn/go-menu-backend/internal/failure"
)

// LocaleKey is the gin context key holding the request's language.Tag.
const LocaleKey = "locale"

// engine returns gin's validator, configured once in init.
func engine() *validator.Validate {
	v, _ := binding.Validator.Engine().(*validator.Validate)
	return v
}

func init() {
	v := engine()
	if v == nil {
		return
	}
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("notblank", validators.NotBlank)
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// Locale returns the language stored by the locale middleware, or the
// fallback locale negotiated from Accept-Language.
func Locale(c *gin.Context) language.Tag {
	if v, ok := c.Get(LocaleKey); ok {
		if tag, ok := v.(language.Tag); ok {
			return tag
		}
	}
	return Match(c.GetHeader("Accept-Language"), Supported[0])
}

// ParamChecker accumulates simple-parameter violations for one handler.
// Paths are "<method>.<name>" so the translator labels them by name.
type ParamChecker struct {
	method string
	lang   language.Tag
	vs     []failure.FieldViolation
}

// Params starts a checker for the handler called method.
func Params(method string, lang language.Tag) *ParamChecker {
	return &ParamChecker{method: method, lang: lang}
}

// Var validates value against a validator tag expression ("min=1",
// "omitempty,oneof=0 1 2").
func (p *ParamChecker) Var(name string, value any, tag string) *ParamChecker {
	err := engine().Var(value, tag)
	if err == nil {
		return p
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		p.add(name, keyInvalid, "")
		return p
	}
	for _, fe := range ves {
		p.add(name, messageKey(fe), fe.Param())
	}
	return p
}

// Int parses raw as a base-10 integer and validates it against tag. A value
// that does not parse is reported as "must be a number" and 0 is returned.
func (p *ParamChecker) Int(name, raw, tag string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		p.add(name, keyNumber, "")
		return 0
	}
	p.Var(name, n, tag)
	return n
}

// OptionalInt is Int for parameters that may be absent. ok reports whether
// raw was present and valid.
func (p *ParamChecker) OptionalInt(name, raw, tag string) (n int, ok bool) {
	if strings.TrimSpace(raw) == "" {
		return 0, false
	}
	before := len(p.vs)
	n = p.Int(name, raw, tag)
	return n, len(p.vs) == before
}

// Invalid records a generic "is invalid" violation for name, for checks
// that have no validator tag.
func (p *ParamChecker) Invalid(name string) *ParamChecker {
	p.add(name, keyInvalid, "")
	return p
}

// Err returns the accumulated violations as a ParamViolationFailure, or nil.
func (p *ParamChecker) Err() error {
	if len(p.vs) == 0 {
		return nil
	}
	out := make([]failure.FieldViolation, len(p.vs))
	copy(out, p.vs)
	return &failure.ParamViolationFailure{Violations: out}
}

func (p *ParamChecker) add(name, key, param string) {
	p.vs = append(p.vs, failure.FieldViolation{
		Path:    p.method + "." + name,
		Message: Message(p.lang, key, param),
	})
}

// BindJSON decodes the request body into dst and runs its `binding` tags.
// Any problem is returned as a BodyViolationFailure whose fields are JSON
// names, in the order the validator reported them.
func BindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindWith(dst, binding.JSON)
	if err == nil {
		return nil
	}
	lang := Locale(c)

	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		vs := make([]failure.FieldViolation, 0, len(ves))
		for _, fe := range ves {
			vs = append(vs, failure.FieldViolation{
				Field:   fe.Field(),
				Message: Message(lang, messageKey(fe), fe.Param()),
			})
		}
		return &failure.BodyViolationFailure{Violations: vs}
	}

	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return failure.NewBodyViolation(ute.Field, Message(lang, keyType, ""))
	}

	// Syntax errors, an empty body, and anything else the decoder rejects.
	return failure.NewBodyViolation("body", Message(lang, keyJSON, ""))
}

// messageKey maps a validator tag to a catalog key. Length constraints on
// strings read differently from numeric bounds.
func messageKey(fe validator.FieldError) string {
	tag := fe.Tag()
	if fe.Kind() == reflect.String {
		switch tag {
		case "min", "max", "len":
			return tag + "_len"
		}
	}
	return tag
}
