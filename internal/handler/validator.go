package handler

import "github.com/go-playground/validator/v10"

// Validator adapts go-playground/validator to Echo's Validator
// interface.  Handlers translate the returned error into their own
// BadRequest messages.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
