package rest

import "github.com/go-playground/validator/v10"

// Validator adapts validator.Validate to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

func NewValidator(validate *validator.Validate) *Validator {
	return &Validator{validate: validate}
}

func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}
