// Package validation checks catalog records and settings using go-playground/validator.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iudanet/catalogkeeper/internal/models"
)

// ErrInvalid is matched by every *Error returned from this package.
var ErrInvalid = errors.New("validation failed")

// Error содержит ошибки по полям, ключ это JSON имя поля.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

// Is allows errors.Is(err, ErrInvalid).
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

// Validator wraps go-playground/validator with friendly field errors.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports fields by their JSON or YAML names.
func New() *Validator {
	v := validator.New()

	// Используем JSON или YAML имена полей в сообщениях об ошибках
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "yaml"} {
			name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{v: v}
}

// Struct validates s by its `validate` tags.
func (v *Validator) Struct(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		// Namespace без имени корневой структуры: "storage.driver"
		_, field, ok := strings.Cut(e.Namespace(), ".")
		if !ok {
			field = e.Field()
		}
		fields[field] = friendlyMessage(e)
	}
	return &Error{Fields: fields}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	default:
		return "is invalid"
	}
}

// itemFields описывает обязательные поля записи каталога.
type itemFields struct {
	Name     string `json:"name" validate:"required"`
	Location string `json:"location" validate:"required"`
}

var defaultValidator = New()

// ValidateItem checks that an incoming record has non-empty name and location.
func ValidateItem(item models.CatalogItem) error {
	return defaultValidator.Struct(itemFields{Name: item.Name, Location: item.Location})
}

// ValidateNewItem checks user input for a new record.
// Whitespace-only values are rejected.
func ValidateNewItem(name, location string) error {
	return defaultValidator.Struct(itemFields{
		Name:     strings.TrimSpace(name),
		Location: strings.TrimSpace(location),
	})
}
