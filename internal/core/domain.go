package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Personal UserType = "personal"
	Business UserType = "business"

	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// ISODate is the canonical layout of Transaction.Date.
const ISODate = "2006-01-02"

const (
	MaxCategoryLen = 50
	MaxDetailLen   = 255
	MaxNameLen     = 100
)

type (
	UserType        string
	TransactionType string

	Money struct {
		Cents int64
	}

	Preferences struct {
		Theme                string   `json:"theme"`
		Language             string   `json:"language"`
		Currency             string   `json:"currency"`
		NotificationsEnabled bool     `json:"notifications_enabled"`
		EmailNotifications   bool     `json:"email_notifications"`
		DashboardWidgets     []string `json:"dashboard_widgets"`
	}

	User struct {
		ID           string      `json:"id"`
		Name         string      `json:"name"`
		Email        string      `json:"email"`
		PasswordHash string      `json:"-"`
		Type         UserType    `json:"type"`
		Birthdate    string      `json:"birthdate"`
		Preferences  Preferences `json:"-"`
		CreatedAt    time.Time   `json:"created_at"`
		UpdatedAt    time.Time   `json:"updated_at"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Subcategory string          `json:"subcategory,omitempty"`
		Amount      Money           `json:"amount"`
		Date        string          `json:"date"`
		Detail      string          `json:"detail"`
		CreatedAt   time.Time       `json:"created_at"`
		UpdatedAt   time.Time       `json:"updated_at"`
	}

	// TransactionPatch carries the fields of a partial update; nil means unchanged.
	TransactionPatch struct {
		Category    *string
		Subcategory *string
		Amount      *Money
		Date        *string
		Detail      *string
	}
)

// DefaultPreferences returns the preferences a new user starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:                "light",
		Language:             "es",
		Currency:             "USD",
		NotificationsEnabled: true,
		EmailNotifications:   true,
		DashboardWidgets:     []string{"balance", "recent_transactions", "expenses_chart"},
	}
}

func (t UserType) Valid() bool {
	return t == Personal || t == Business
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Validate requires a positive amount no larger than MaxAmountCents.
func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the structural invariants of a transaction.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return InvalidErr("type", ErrInvalidType)
	}
	if err := t.Amount.Validate(); err != nil {
		return InvalidErr("amount", err)
	}
	if err := requiredText("category", t.Category, MaxCategoryLen); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Subcategory) > MaxCategoryLen {
		return Invalid("subcategory", "too long")
	}
	if err := requiredText("detail", t.Detail, MaxDetailLen); err != nil {
		return err
	}
	if _, err := time.Parse(ISODate, t.Date); err != nil {
		return InvalidErr("date", ErrInvalidDate)
	}
	return nil
}

// Apply overwrites the supplied fields of t and bumps UpdatedAt.
func (p TransactionPatch) Apply(t Transaction, now time.Time) Transaction {
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Subcategory != nil {
		t.Subcategory = *p.Subcategory
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Detail != nil {
		t.Detail = *p.Detail
	}
	t.UpdatedAt = now
	return t
}

// Empty reports whether the patch changes nothing.
func (p TransactionPatch) Empty() bool {
	return p.Category == nil && p.Subcategory == nil && p.Amount == nil && p.Date == nil && p.Detail == nil
}

func requiredText(field, v string, max int) error {
	if strings.TrimSpace(v) == "" {
		return Invalid(field, "is required")
	}
	if utf8.RuneCountInString(v) > max {
		return Invalid(field, "too long")
	}
	return nil
}
