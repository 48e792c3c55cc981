// Package inputval validates form input structs with `validate` struct tags
// and turns the failures into user-facing messages.
//
// Each field may carry a `label` tag used in messages and a `form` tag naming
// the HTML input the message belongs to:
//
//	type basicInput struct {
//		Title string `validate:"required,max=200" label:"Title" form:"title"`
//	}
//
// Besides the built-in rules, httpurl accepts only absolute http or https
// URLs.
package inputval

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		})
	})
	return validate
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string // form input name
	Message string
}

// Result collects the failures of one Validate call in struct field order.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// First returns the first message, or "".
func (r *Result) First() string {
	if !r.HasErrors() {
		return ""
	}
	return r.Errors[0].Message
}

// ByField maps each form input to its first message.
func (r *Result) ByField() map[string]string {
	out := map[string]string{}
	if r == nil {
		return out
	}
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Validate runs the struct's `validate` tags. A non-struct value yields an
// empty result.
func Validate(v any) *Result {
	res := &Result{}
	err := engine().Struct(v)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return res
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, fe := range verrs {
		label, field := fe.StructField(), strings.ToLower(fe.StructField())
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if l := sf.Tag.Get("label"); l != "" {
				label = l
			}
			if f := sf.Tag.Get("form"); f != "" {
				field = f
			}
		}
		res.Errors = append(res.Errors, FieldError{Field: field, Message: message(fe, label)})
	}
	return res
}

func message(fe validator.FieldError, label string) string {
	list := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "max":
		if list {
			return fmt.Sprintf("%s can have at most %s entries.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		if list {
			return fmt.Sprintf("%s needs at least %s entries.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "httpurl":
		return label + " must be a full http:// or https:// address."
	case "numeric", "number":
		return label + " must be a number."
	case "datetime":
		return label + " must be a date in YYYY-MM-DD form."
	case "oneof":
		return label + " is not one of the allowed values."
	default:
		return label + " is invalid."
	}
}

// IsValidHTTPURL reports whether s (trimmed) is an absolute http(s) URL
// with a host.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
