// Package inputval validates decoded request bodies with struct tags.
//
// Field names in messages are the json names, so errors can be returned to
// API clients as-is.
package inputval

import (
	"errors"
	"net/mail"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// FieldError is a single failed rule.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// Errors collects every failed rule of one struct.
type Errors []FieldError

func (v Errors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.message()
	}
	return strings.Join(parts, "; ")
}

func (fe FieldError) message() string {
	switch fe.Tag {
	case "required":
		return fe.Field + " is required"
	case "email":
		return fe.Field + " must be a valid email address"
	case "min":
		return fe.Field + " must be at least " + fe.Param
	case "max":
		return fe.Field + " must be at most " + fe.Param
	case "oneof":
		return fe.Field + " must be one of: " + fe.Param
	case "url":
		return fe.Field + " must be a valid URL"
	}
	if fe.Param != "" {
		return fe.Field + " failed on " + fe.Tag + "=" + fe.Param
	}
	return fe.Field + " failed on " + fe.Tag
}

// Struct validates s against its `validate` tags. It returns Errors on rule
// failures and the underlying error for anything else.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make(Errors, 0, len(ve))
		for _, fe := range ve {
			out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
		}
		return out
	}
	return err
}

// Var validates a single value against a tag expression such as "required,email".
func Var(v any, tag string) error {
	return get().Var(v, tag)
}

func get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return isHex24(fl.Field().String())
		})
	})
	return validate
}

func isHex24(s string) bool {
	if len(s) != 24 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsValidEmail reports whether s is a bare address (no display name) with a
// well-formed local part and domain.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok {
		return false
	}
	for _, part := range []string{local, domain} {
		if part == "" || strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}
