package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aureum/internal/core"
)

func newMock(t *testing.T, d Dialect) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db, d), mock
}

var stamp = time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y = ?"
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", Postgres.Rebind(q))
}

func TestGetUserByEmail(t *testing.T) {
	repo, mock := newMock(t, SQLite)
	cols := []string{"id", "name", "email", "password_hash", "type", "birthdate", "preferences", "created_at", "updated_at"}

	mock.ExpectQuery(selectUserByEmailSQL).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"u1", "Ana", "ana@example.com", "d:s", "personal", "01/02/1990",
			`{"theme":"dark"}`, stamp.Format(timeLayout), stamp.Format(timeLayout)))

	u, err := repo.GetUserByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, core.Personal, u.Type)
	assert.Equal(t, "dark", u.Preferences.Theme)
	// Keys missing from the stored document keep their defaults.
	assert.Equal(t, core.DefaultPreferences().Language, u.Preferences.Language)
	assert.True(t, u.CreatedAt.Equal(stamp))

	mock.ExpectQuery(selectUserByEmailSQL).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutUserConflict(t *testing.T) {
	repo, mock := newMock(t, Postgres)
	u := core.User{ID: "u1", Email: "ana@example.com", Type: core.Personal, CreatedAt: stamp, UpdatedAt: stamp}

	mock.ExpectExec(Postgres.Rebind(upsertUserSQL)).
		WillReturnError(&pq.Error{Code: "23505"})
	err := repo.PutUser(context.Background(), u)
	assert.ErrorIs(t, err, core.ErrConflict)

	mock.ExpectExec(Postgres.Rebind(upsertUserSQL)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.PutUser(context.Background(), u))

	mock.ExpectExec(Postgres.Rebind(upsertUserSQL)).
		WillReturnError(errors.New("boom"))
	err = repo.PutUser(context.Background(), u)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionsRoundTrip(t *testing.T) {
	repo, mock := newMock(t, SQLite)
	ctx := context.Background()
	cols := []string{"id", "user_id", "type", "category", "subcategory", "amount_cents", "date", "detail", "created_at", "updated_at"}
	ts := stamp.Format(timeLayout)

	tx := core.Transaction{
		ID: "t1", UserID: "u1", Type: core.Expense, Category: "Comida",
		Amount: core.Money{Cents: 1250}, Date: "2024-04-01", Detail: "pan",
		CreatedAt: stamp, UpdatedAt: stamp,
	}
	mock.ExpectExec(upsertTxSQL).
		WithArgs("t1", "u1", "expense", "Comida", "", int64(1250), "2024-04-01", "pan", ts, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.PutTransaction(ctx, tx))

	mock.ExpectQuery(listTxSQL).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t1", "u1", "expense", "Comida", "", int64(1250), "2024-04-01", "pan", ts, ts).
			AddRow("t2", "u1", "income", "Salario", "Mensual", int64(90000), "2024-04-02", "pago", ts, ts))
	list, err := repo.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, tx, list[0])
	assert.Equal(t, core.Income, list[1].Type)
	assert.Equal(t, "Mensual", list[1].Subcategory)

	mock.ExpectQuery(selectTxSQL).
		WithArgs("t9", "u1").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetTransaction(ctx, "t9", "u1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	mock.ExpectExec(deleteTxSQL).
		WithArgs("t1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.DeleteTransaction(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(deleteTxSQL).
		WithArgs("t1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.DeleteTransaction(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactionsEmpty(t *testing.T) {
	repo, mock := newMock(t, SQLite)
	mock.ExpectQuery(listTxSQL).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	list, err := repo.ListTransactions(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestOpenSQLiteMigrates(t *testing.T) {
	path := t.TempDir() + "/nested/aureum.db"
	repo, err := OpenSQLite(path)
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.Ping(ctx))

	u := core.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Type: core.Personal,
		Preferences: core.DefaultPreferences(), CreatedAt: stamp, UpdatedAt: stamp}
	require.NoError(t, repo.PutUser(ctx, u))
	err = repo.PutUser(ctx, core.User{ID: "u2", Email: "ana@example.com", Type: core.Personal, CreatedAt: stamp, UpdatedAt: stamp})
	assert.ErrorIs(t, err, core.ErrConflict)

	for i, id := range []string{"b", "a", "c"} {
		require.NoError(t, repo.PutTransaction(ctx, core.Transaction{
			ID: id, UserID: "u1", Type: core.Expense, Category: "X",
			Amount: core.Money{Cents: int64(100 * (i + 1))}, Date: "2024-04-01", Detail: id,
			CreatedAt: stamp, UpdatedAt: stamp,
		}))
	}
	// Upsert keeps insertion order.
	require.NoError(t, repo.PutTransaction(ctx, core.Transaction{
		ID: "b", UserID: "u1", Type: core.Expense, Category: "Y",
		Amount: core.Money{Cents: 5}, Date: "2024-04-02", Detail: "edited",
		CreatedAt: stamp, UpdatedAt: stamp.Add(time.Hour),
	}))

	list, err := repo.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "edited", list[0].Detail)

	// Reopening an already migrated database is a no-op.
	repo2, err := OpenSQLite(path)
	require.NoError(t, err)
	repo2.Close()
}
