package validate

import (
	"strings"
	"unicode"
)

const specialChars = `!@#$%^&*(),.?":{}|<>`

type Criteria struct {
	Length    bool `json:"length"`
	Uppercase bool `json:"uppercase"`
	Lowercase bool `json:"lowercase"`
	Digits    bool `json:"digits"`
	Special   bool `json:"special"`
}

type StrengthReport struct {
	Score       int       `json:"score"`
	Strength    string    `json:"strength"`
	Message     string    `json:"message,omitempty"`
	Criteria    *Criteria `json:"criteria,omitempty"`
	Suggestions []string  `json:"suggestions"`
}

// PasswordStrength scores p from 0 to 5. Blocked characters score 0.
func PasswordStrength(p string) StrengthReport {
	if !IsSafe(p) {
		return StrengthReport{
			Strength:    "insecure",
			Message:     "special characters are not allowed",
			Suggestions: []string{"avoid the characters < > $ / ="},
		}
	}

	c := Criteria{
		Length:    len(p) >= 8,
		Uppercase: strings.ContainsFunc(p, unicode.IsUpper),
		Lowercase: strings.ContainsFunc(p, unicode.IsLower),
		Digits:    strings.ContainsFunc(p, unicode.IsDigit),
		Special:   strings.ContainsAny(p, specialChars),
	}

	r := StrengthReport{Criteria: &c, Suggestions: []string{}}
	for _, check := range []struct {
		ok   bool
		hint string
	}{
		{c.Length, "use at least 8 characters"},
		{c.Uppercase, "include at least one uppercase letter"},
		{c.Lowercase, "include at least one lowercase letter"},
		{c.Digits, "include at least one number"},
		{c.Special, "include at least one special character (e.g. !@#%)"},
	} {
		if check.ok {
			r.Score++
		} else {
			r.Suggestions = append(r.Suggestions, check.hint)
		}
	}

	switch r.Score {
	case 5:
		r.Strength = "very strong"
	case 4:
		r.Strength = "strong"
	case 3:
		r.Strength = "medium"
	case 2:
		r.Strength = "weak"
	default:
		r.Strength = "very weak"
	}
	return r
}
