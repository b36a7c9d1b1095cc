package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aureum/internal/amqp"
	"aureum/internal/core"
	sheetsmem "aureum/internal/sheets/memory"
	"aureum/internal/storage/memory"
)

type failingMirror struct{}

func (failingMirror) Upsert(context.Context, core.Transaction) error { return errors.New("quota exceeded") }
func (failingMirror) Delete(context.Context, string) error           { return errors.New("quota exceeded") }

func TestMirrorWorkerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := sheetsmem.New()
	w := NewMirrorWorker(store, mirror)

	tx := core.Transaction{ID: "t1", UserID: "u1", Type: core.Income, Category: "Salario", Amount: core.Money{Cents: 100}, Date: "2024-04-01", Detail: "pay"}
	require.NoError(t, store.PutTransaction(ctx, tx))

	require.NoError(t, w.Handle(ctx, amqp.NewTransactionEvent("t1", "u1", amqp.ActionCreated)))
	rows := mirror.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "pay", rows[0].Detail)

	tx.Detail = "salary"
	require.NoError(t, store.PutTransaction(ctx, tx))
	require.NoError(t, w.Handle(ctx, amqp.NewTransactionEvent("t1", "u1", amqp.ActionUpdated)))
	rows = mirror.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "salary", rows[0].Detail)

	require.NoError(t, w.Handle(ctx, amqp.NewTransactionEvent("t1", "u1", amqp.ActionDeleted)))
	assert.Empty(t, mirror.Rows())
}

func TestMirrorWorkerStaleCreateRemovesRow(t *testing.T) {
	ctx := context.Background()
	mirror := sheetsmem.New()
	require.NoError(t, mirror.Upsert(ctx, core.Transaction{ID: "gone"}))

	w := NewMirrorWorker(memory.New(), mirror)
	require.NoError(t, w.Handle(ctx, amqp.NewTransactionEvent("gone", "u1", amqp.ActionUpdated)))
	assert.Empty(t, mirror.Rows())
}

func TestMirrorWorkerPropagatesMirrorErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.PutTransaction(ctx, core.Transaction{ID: "t1", UserID: "u1"}))

	w := NewMirrorWorker(store, failingMirror{})
	assert.Error(t, w.Handle(ctx, amqp.NewTransactionEvent("t1", "u1", amqp.ActionCreated)))
	assert.Error(t, w.Handle(ctx, amqp.NewTransactionEvent("t1", "u1", amqp.ActionDeleted)))
}
