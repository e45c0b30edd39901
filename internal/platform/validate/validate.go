package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError represents a single field validation failure. Location names
// where the value came from, such as "query.limit".
type FieldError struct {
	Field    string
	Location string
	Message  string
	Value    string
}

// ValidationError is returned when input validation fails.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AppValidator wraps go-playground/validator for Echo's Validator interface.
type AppValidator struct {
	v *validator.Validate
}

// New creates a new AppValidator.
func New() *AppValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := tagName(fld, "json"); name != "" {
			return name
		}
		if name := tagName(fld, "query"); name != "" {
			return name
		}
		if name := tagName(fld, "param"); name != "" {
			return name
		}
		return fld.Name
	})

	return &AppValidator{v: v}
}

// Validate validates the given struct and returns a *ValidationError on failure.
func (av *AppValidator) Validate(i any) error {
	err := av.v.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		t := reflect.TypeOf(i)
		fields := make([]FieldError, len(ve))
		for idx, fe := range ve {
			fields[idx] = FieldError{
				Field:    fe.Field(),
				Location: location(t, fe),
				Message:  buildMessage(fe),
				Value:    fmt.Sprintf("%v", fe.Value()),
			}
		}
		return &ValidationError{
			Message: "validation failed",
			Fields:  fields,
		}
	}

	return &ValidationError{Message: err.Error()}
}

func tagName(fld reflect.StructField, tag string) string {
	name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
	if name == "" || name == "-" {
		return ""
	}
	return name
}

// sources maps binding tags to the request part they read from.
var sources = []struct{ tag, prefix string }{
	{"query", "query."},
	{"param", "path."},
	{"json", "body."},
}

// location resolves the request location of a top-level field of t. Nested
// fields fall back to the field name.
func location(t reflect.Type, fe validator.FieldError) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return fe.Field()
	}
	f, ok := t.FieldByName(fe.StructField())
	if !ok {
		return fe.Field()
	}
	for _, src := range sources {
		if name := tagName(f, src.tag); name != "" {
			return src.prefix + name
		}
	}
	return fe.Field()
}

func buildMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "eth_addr":
		return field + " must be a 0x-prefixed 40 hex digit address"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	default:
		return field + " failed on " + fe.Tag() + " validation"
	}
}
