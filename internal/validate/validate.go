// Package validate screens user-supplied text before it reaches storage.
package validate

import (
	"html"
	"regexp"
	"strings"
	"time"
	"unicode"

	"aureum/internal/core"
)

const blocked = "<>$/="

var (
	emailRe     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	birthdateRe = regexp.MustCompile(`^(0[1-9]|[12][0-9]|3[01])/(0[1-9]|1[0-2])/\d{4}$`)
)

// IsSafe reports whether s contains none of < > $ / =.
func IsSafe(s string) bool {
	return !strings.ContainsAny(s, blocked)
}

// Sanitize HTML-escapes s.
func Sanitize(s string) string {
	return html.EscapeString(s)
}

// Field is a named value to run through the blocklist.
type Field struct {
	Name  string
	Value string
}

// F builds a Field.
func F(name, value string) Field { return Field{Name: name, Value: value} }

// Safe returns a ValidationError for the first field that fails IsSafe.
func Safe(fields ...Field) error {
	for _, f := range fields {
		if !IsSafe(f.Value) {
			return core.Invalid(f.Name, core.UnsafeInputMessage)
		}
	}
	return nil
}

func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidBirthdate checks the DD/MM/YYYY layout. The slash is part of the
// layout, so birthdates are screened with SafeBirthdate instead of IsSafe.
func ValidBirthdate(s string) bool {
	return birthdateRe.MatchString(s)
}

// SafeBirthdate applies the blocklist without the slash.
func SafeBirthdate(s string) bool {
	return !strings.ContainsAny(s, "<>$=")
}

func ValidISODate(s string) bool {
	_, err := time.Parse(core.ISODate, s)
	return err == nil
}

// CheckNewPassword enforces the rules for a password being set.
func CheckNewPassword(field, p string) error {
	if len(p) < 8 {
		return core.Invalid(field, "must be at least 8 characters long")
	}
	if !strings.ContainsFunc(p, unicode.IsDigit) {
		return core.Invalid(field, "must contain at least one digit")
	}
	if !strings.ContainsFunc(p, unicode.IsUpper) {
		return core.Invalid(field, "must contain at least one uppercase letter")
	}
	return nil
}
