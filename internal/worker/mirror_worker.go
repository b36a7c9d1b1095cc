package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"aureum/internal/amqp"
	"aureum/internal/core"
	"aureum/internal/sheets"
	"aureum/internal/storage"
)

// MirrorWorker applies transaction events to a TransactionMirror, reading
// current state from the store so that out-of-order events converge.
type MirrorWorker struct {
	store  storage.TransactionStore
	mirror sheets.TransactionMirror
}

func NewMirrorWorker(store storage.TransactionStore, mirror sheets.TransactionMirror) *MirrorWorker {
	return &MirrorWorker{store: store, mirror: mirror}
}

// Handle processes one event. A returned error asks the broker to redeliver.
func (w *MirrorWorker) Handle(ctx context.Context, ev amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event", "id", ev.ID, "user_id", ev.UserID, "action", ev.Action)

	if ev.Action == amqp.ActionDeleted {
		return w.remove(ctx, ev.ID)
	}

	t, err := w.store.GetTransaction(ctx, ev.ID, ev.UserID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the event was published.
		return w.remove(ctx, ev.ID)
	}
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", ev.ID, err)
	}

	if err := w.mirror.Upsert(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to mirror transaction", "id", ev.ID, "error", err)
		return fmt.Errorf("mirror transaction %s: %w", ev.ID, err)
	}
	slog.InfoContext(ctx, "Mirrored transaction", "id", ev.ID, "action", ev.Action)
	return nil
}

func (w *MirrorWorker) remove(ctx context.Context, id string) error {
	if err := w.mirror.Delete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to remove mirrored transaction", "id", id, "error", err)
		return fmt.Errorf("remove mirrored transaction %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Removed mirrored transaction", "id", id)
	return nil
}
