// internal/utils/validator.go
package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("password", validatePassword)
	validate.RegisterValidation("display_name", validateDisplayName)
	validate.RegisterValidation("identifier", validateIdentifier)
	validate.RegisterValidation("tag", validateTag)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 || len(password) > 72 {
		return false
	}

	var hasLetter, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	return hasLetter && hasNumber
}

func validateDisplayName(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())

	n := utf8.RuneCountInString(name)
	if n < 2 || n > 50 {
		return false
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func validateIdentifier(fl validator.FieldLevel) bool {
	return IsValidIdentifier(fl.Field().String())
}

func validateTag(fl validator.FieldLevel) bool {
	tag := fl.Field().String()
	n := utf8.RuneCountInString(tag)
	return n >= 1 && n <= 30 && strings.TrimSpace(tag) == tag
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "password":
		return "Password must be 8-72 characters and contain a letter and a number"
	case "display_name":
		return "Display name must be 2-50 characters"
	case "identifier":
		return e.Field() + " must be a valid identifier"
	case "tag":
		return "Tags must be 1-30 characters without surrounding spaces"
	default:
		return e.Field() + " is invalid"
	}
}
