package storage

import (
	"context"

	"aureum/internal/core"
)

// Ports implemented by every backend. Lookups that find nothing return
// core.ErrNotFound; a transaction owned by someone else is not found.
type (
	UserStore interface {
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		// PutUser inserts or updates by ID. An email owned by another user
		// yields core.ErrConflict.
		PutUser(ctx context.Context, u core.User) error
	}

	TransactionStore interface {
		// ListTransactions returns the owner's transactions in insertion order.
		ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id, ownerID string) (core.Transaction, error)
		PutTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id, ownerID string) (bool, error)
	}

	Store interface {
		UserStore
		TransactionStore
		Ping(ctx context.Context) error
		Close() error
	}
)
