package handlers

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Validator collects form validation errors
type Validator struct {
	errors []string
}

func NewValidator() *Validator {
	return &Validator{errors: make([]string, 0)}
}

func (v *Validator) AddError(message string) {
	v.errors = append(v.errors, message)
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []string {
	return v.errors
}

// ValidateRequired checks a value is not blank
func (v *Validator) ValidateRequired(value, field string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(fmt.Sprintf("%s: campo obligatorio", field))
	}
	return v
}

// ValidateMaxLength caps the length in runes
func (v *Validator) ValidateMaxLength(value, field string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.AddError(fmt.Sprintf("%s: máximo %d caracteres", field, max))
	}
	return v
}

// ValidateEmail checks email shape; empty values are left to ValidateRequired
func (v *Validator) ValidateEmail(email, field string) *Validator {
	if email == "" {
		return v
	}
	if !emailRegex.MatchString(email) || len(email) > 320 {
		v.AddError(fmt.Sprintf("%s: debe ser un correo válido", field))
	}
	return v
}
