package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldCountryCode = "phone.countryCode"
	FieldNumber      = "phone.number"
)

const (
	nameMinLen  = 2
	nameMaxLen  = 50
	emailMinLen = 5
	emailMaxLen = 100
)

var (
	namePattern        = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	emailPattern       = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	countryCodePattern = regexp.MustCompile(`^\+\d{1,4}$`)
	phoneNumberPattern = regexp.MustCompile(`^\d{10}$`)
)

type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rule a candidate contact broke.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}

	return strings.Join(msgs, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Normalize trims every field and lowercases the email.
func (in ContactInput) Normalize() ContactInput {
	return ContactInput{
		Name:  strings.TrimSpace(in.Name),
		Email: normalizeEmail(in.Email),
		Phone: Phone{
			CountryCode: strings.TrimSpace(in.Phone.CountryCode),
			Number:      strings.TrimSpace(in.Phone.Number),
		},
	}
}

// ValidateContact normalizes in and checks it against the contact rules.
// The server and the terminal client share these rules.
func ValidateContact(in ContactInput) (ContactInput, error) {
	in = in.Normalize()

	var violations []Violation
	check := func(field, value string) {
		if msg := ValidateField(field, value); msg != "" {
			violations = append(violations, Violation{Field: field, Message: msg})
		}
	}

	check(FieldName, in.Name)
	check(FieldEmail, in.Email)
	check(FieldCountryCode, in.Phone.CountryCode)
	check(FieldNumber, in.Phone.Number)

	if len(violations) > 0 {
		return ContactInput{}, &ValidationError{Violations: violations}
	}

	return in, nil
}

// ValidatePatch normalizes and checks only the fields present in p.
func ValidatePatch(p ContactPatch) (ContactPatch, error) {
	var violations []Violation
	check := func(field, value string) {
		if msg := ValidateField(field, value); msg != "" {
			violations = append(violations, Violation{Field: field, Message: msg})
		}
	}

	out := ContactPatch{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		check(FieldName, name)
		out.Name = &name
	}
	if p.Email != nil {
		email := normalizeEmail(*p.Email)
		check(FieldEmail, email)
		out.Email = &email
	}
	if p.Phone != nil {
		phone := Phone{
			CountryCode: strings.TrimSpace(p.Phone.CountryCode),
			Number:      strings.TrimSpace(p.Phone.Number),
		}
		check(FieldCountryCode, phone.CountryCode)
		check(FieldNumber, phone.Number)
		out.Phone = &phone
	}

	if len(violations) > 0 {
		return ContactPatch{}, &ValidationError{Violations: violations}
	}

	return out, nil
}

// ValidateField returns the message for the first rule value breaks, or ""
// when it is acceptable. value must already be normalized.
func ValidateField(field, value string) string {
	switch field {
	case FieldName:
		n := utf8.RuneCountInString(value)
		switch {
		case value == "":
			return "Name is required"
		case n < nameMinLen:
			return "Name must be at least 2 characters long"
		case n > nameMaxLen:
			return "Name must not exceed 50 characters"
		case !namePattern.MatchString(value):
			return "Name should only contain letters and spaces"
		}
	case FieldEmail:
		n := utf8.RuneCountInString(value)
		switch {
		case value == "":
			return "Email is required"
		case !emailPattern.MatchString(value):
			return "Please enter a valid email address"
		case n < emailMinLen:
			return "Email must be at least 5 characters"
		case n > emailMaxLen:
			return "Email must not exceed 100 characters"
		}
	case FieldCountryCode:
		switch {
		case value == "":
			return "Country code is required"
		case !countryCodePattern.MatchString(value):
			return "Country code must be in format: +91"
		}
	case FieldNumber:
		switch {
		case value == "":
			return "Phone number is required"
		case !phoneNumberPattern.MatchString(value):
			return "Phone number must be exactly 10 digits"
		case strings.HasPrefix(value, "0"):
			return "Phone number should not start with 0"
		}
	}

	return ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
