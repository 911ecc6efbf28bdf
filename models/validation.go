package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var fieldMessages = map[string]map[string]string{
	"Name":        {"required": "Product name is required"},
	"Slug":        {"required": "Product slug is required"},
	"Brand":       {"required": "Product brand is required"},
	"Price":       {"required": "Product price is required", "gt": "Price must be greater than 0"},
	"Description": {"required": "Product description is required"},
}

var fieldPaths = map[string]string{
	"Name":        "name",
	"Slug":        "slug",
	"Brand":       "brand",
	"Price":       "price",
	"Description": "description",
}

// ValidationError lists every violated constraint of a product.
type ValidationError struct {
	Fields []FieldError
}

type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "Product validation failed: " + strings.Join(parts, ", ")
}

// Validate checks the product against its schema constraints. A price of zero
// is reported as missing.
func (p *Product) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed on the '%s' constraint", fe.Tag())
		}
		path, ok := fieldPaths[fe.Field()]
		if !ok {
			path = strings.ToLower(fe.Field())
		}
		out.Fields = append(out.Fields, FieldError{Field: path, Message: msg})
	}
	return out
}
