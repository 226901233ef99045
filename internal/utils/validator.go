// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("currency_code", validateCurrencyCode)
	validate.RegisterValidation("incoterms", validateIncoterms)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasNumber && hasSpecial
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	matched, _ := regexp.MatchString("^[A-Z]{3}$", fl.Field().String())
	return matched
}

// Trade delivery terms accepted on a PTT request (Incoterms 2020).
var incotermCodes = map[string]bool{
	"EXW": true, "FCA": true, "FAS": true, "FOB": true,
	"CFR": true, "CIF": true, "CPT": true, "CIP": true,
	"DAP": true, "DPU": true, "DDP": true,
}

func validateIncoterms(fl validator.FieldLevel) bool {
	return incotermCodes[strings.ToUpper(fl.Field().String())]
}

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
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "lte":
		return e.Field() + " must be at most " + e.Param()
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "strong_password":
		return "Password must contain at least 8 characters with uppercase, lowercase, number, and special character"
	case "currency_code":
		return "Currency must be a three-letter ISO code"
	case "incoterms":
		return "Incoterms must be a recognized trade term code"
	default:
		return e.Field() + " is invalid"
	}
}
