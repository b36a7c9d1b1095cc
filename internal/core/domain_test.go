package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		ID:       "t1",
		UserID:   "u1",
		Type:     Income,
		Category: "Salario",
		Amount:   Money{Cents: 120000},
		Date:     "2024-04-10",
		Detail:   "Salario mensual",
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
	if err := (Money{Cents: MaxAmountCents}).Validate(); err != nil {
		t.Fatalf("expected the ceiling to be accepted, got %v", err)
	}
	if err := (Money{Cents: MaxAmountCents + 1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount above the ceiling, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name  string
		mut   func(*Transaction)
		field string
	}{
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, "type"},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, "amount"},
		{"empty category", func(tx *Transaction) { tx.Category = "  " }, "category"},
		{"long category", func(tx *Transaction) { tx.Category = strings.Repeat("a", MaxCategoryLen+1) }, "category"},
		{"long subcategory", func(tx *Transaction) { tx.Subcategory = strings.Repeat("a", MaxCategoryLen+1) }, "subcategory"},
		{"empty detail", func(tx *Transaction) { tx.Detail = "" }, "detail"},
		{"localized date", func(tx *Transaction) { tx.Date = "10 abr" }, "date"},
		{"impossible date", func(tx *Transaction) { tx.Date = "2024-02-30" }, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mut(&tx)
			err := tx.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("field = %q, want %q", ve.Field, tc.field)
			}
		})
	}
}

func TestTransactionPatchApply(t *testing.T) {
	tx := validTransaction()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	detail := "Bonus"
	amount := Money{Cents: 5000}

	got := TransactionPatch{Detail: &detail, Amount: &amount}.Apply(tx, now)

	if got.Detail != "Bonus" || got.Amount.Cents != 5000 {
		t.Fatalf("patched fields not applied: %+v", got)
	}
	if got.Category != tx.Category || got.Date != tx.Date || got.Type != tx.Type {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("UpdatedAt = %v, want %v", got.UpdatedAt, now)
	}
	if (TransactionPatch{}).Empty() != true {
		t.Fatalf("zero patch should be empty")
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := InvalidErr("amount", ErrInvalidAmount)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected wrapped sentinel")
	}
	if !IsValidation(err) {
		t.Fatalf("expected IsValidation")
	}
	if err.Error() != "amount: invalid amount" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
