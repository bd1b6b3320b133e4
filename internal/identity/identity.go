// Package identity validates and normalizes investigation targets before any
// connector is allowed to see them.
package identity

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"footprint/internal/domain"
)

// FieldError names one rejected input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every violated field of a rejected target.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Input is raw user-supplied target data.
type Input struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validator normalizes inputs. DefaultRegion is used for phone numbers that
// are not written in international form; empty means "+" is required.
type Validator struct {
	DefaultRegion string
}

// Validate returns the normalized target or a *ValidationError listing every
// problem found.
func (v Validator) Validate(in Input) (domain.Target, error) {
	var (
		target domain.Target
		fields []FieldError
	)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)
	if email == "" && phone == "" {
		return target, &ValidationError{Fields: []FieldError{{
			Field:  "identifier",
			Reason: "at least one of email or phone is required",
		}}}
	}
	if email != "" {
		norm, err := NormalizeEmail(email)
		if err != nil {
			fields = append(fields, FieldError{Field: "email", Reason: err.Error()})
		}
		target.Email = norm
	}
	if phone != "" {
		norm, err := NormalizePhone(phone, v.DefaultRegion)
		if err != nil {
			fields = append(fields, FieldError{Field: "phone", Reason: err.Error()})
		}
		target.Phone = norm
	}
	if len(fields) > 0 {
		return domain.Target{}, &ValidationError{Fields: fields}
	}
	return target, nil
}

// NormalizeEmail checks RFC 5322 addr-spec syntax and returns the address with
// its domain lowercased and converted to ASCII. The local part is kept as is.
func NormalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("invalid email: %w", err)
	}
	if addr.Name != "" || addr.Address != raw {
		return "", errors.New("invalid email: expected a bare address")
	}
	at := strings.LastIndexByte(addr.Address, '@')
	local, host := addr.Address[:at], addr.Address[at+1:]
	if local == "" {
		return "", errors.New("invalid email: empty local part")
	}
	ascii, err := idna.Lookup.ToASCII(strings.ToLower(host))
	if err != nil {
		return "", fmt.Errorf("invalid email domain: %w", err)
	}
	if !strings.Contains(ascii, ".") || strings.HasSuffix(ascii, ".") {
		return "", errors.New("invalid email domain: not a fully qualified name")
	}
	return local + "@" + ascii, nil
}

// NormalizePhone parses raw and returns its E.164 form when the number is valid.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	num, err := phonenumbers.Parse(raw, strings.ToUpper(defaultRegion))
	if err != nil {
		return "", fmt.Errorf("phone parsing error: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", errors.New("invalid phone number format")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
