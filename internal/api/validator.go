// validator.go - Request body validation wiring for Echo
package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate on bound request bodies.
type CustomValidator struct {
	validator *validator.Validate
}

// NewCustomValidator creates a validator that reports fields by their
// JSON names rather than their Go struct names.
func NewCustomValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return NewValidationError(verrs[0].Field())
		}
		return NewBadRequestError("validation failed", err)
	}
	return nil
}
