package handlers

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldErrors converts validator failures into field-level messages. The
// messages mirror the ones the web client renders inline, so both sides of
// the wire agree on the rules.
func fieldErrors(err error) []FieldError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "body", Message: "Invalid input data"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		out = append(out, FieldError{Field: field, Message: messageFor(field, fe)})
	}
	return out
}

func messageFor(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		switch field {
		case "name":
			return "Name is required"
		case "email":
			return "Email is required"
		case "password":
			return "Password is required"
		}
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please provide a valid email address"
	case "min":
		if field == "password" {
			return fmt.Sprintf("Password must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
