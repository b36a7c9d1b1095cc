package sheets

import (
	"context"

	"aureum/internal/core"
)

// TransactionMirror keeps an external copy of every transaction, one row each.
type TransactionMirror interface {
	// Upsert writes t over its existing row, or appends a row when absent.
	Upsert(ctx context.Context, t core.Transaction) error
	// Delete clears the row holding id. Missing rows are not an error.
	Delete(ctx context.Context, id string) error
}

// Header is the first row of a mirror sheet.
var Header = []string{"ID", "User", "Date", "Type", "Category", "Subcategory", "Amount", "Detail", "Updated"}
