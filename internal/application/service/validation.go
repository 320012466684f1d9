package service

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func isEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

func isCurrencyCode(s string) bool {
	return validate.Var(s, "required,len=3,alpha,uppercase") == nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
