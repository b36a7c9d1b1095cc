package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aureum/internal/auth"
	"aureum/internal/core"
	"aureum/internal/storage"
)

const (
	DemoEmail    = "test@example.com"
	DemoPassword = "password123"
)

type demoTx struct {
	typ      core.TransactionType
	category string
	cents    int64
	day      int
	detail   string
	age      int // days before now
}

var demoTransactions = []demoTx{
	{core.Income, "Salario", 120000, 10, "Salario mensual", 20},
	{core.Income, "Venta", 15000, 15, "Venta de artículos usados", 15},
	{core.Expense, "Supermercado", 20000, 12, "Compras semanales", 18},
	{core.Expense, "Servicio de Luz", 5000, 20, "Factura mensual", 10},
	{core.Expense, "Gastos Médicos", 7500, 22, "Consulta médica", 8},
}

// SeedDemo creates the demo user with a month of sample April transactions
// unless that user already exists. It reports whether anything was written.
func SeedDemo(ctx context.Context, store storage.Store, now time.Time) (bool, error) {
	if _, err := store.GetUserByEmail(ctx, DemoEmail); err == nil {
		slog.InfoContext(ctx, "Demo user already present, skipping seed")
		return false, nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return false, fmt.Errorf("lookup demo user: %w", err)
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return false, err
	}
	now = now.UTC()
	u := core.User{
		ID:           uuid.NewString(),
		Name:         "Usuario de Prueba",
		Email:        DemoEmail,
		PasswordHash: hash,
		Type:         core.Personal,
		Birthdate:    "01/01/1990",
		Preferences:  core.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.PutUser(ctx, u); err != nil {
		return false, fmt.Errorf("save demo user: %w", err)
	}

	for _, d := range demoTransactions {
		at := now.AddDate(0, 0, -d.age)
		t := core.Transaction{
			ID:        uuid.NewString(),
			UserID:    u.ID,
			Type:      d.typ,
			Category:  d.category,
			Amount:    core.Money{Cents: d.cents},
			Date:      time.Date(now.Year(), time.April, d.day, 0, 0, 0, 0, time.UTC).Format(core.ISODate),
			Detail:    d.detail,
			CreatedAt: at,
			UpdatedAt: at,
		}
		if err := store.PutTransaction(ctx, t); err != nil {
			return false, fmt.Errorf("save demo transaction: %w", err)
		}
	}
	slog.InfoContext(ctx, "Demo data seeded", "email", DemoEmail, "transactions", len(demoTransactions))
	return true, nil
}
