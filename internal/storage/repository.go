package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"aureum/internal/core"
)

// Dialect selects the SQL flavour spoken by a Repository.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string { return string(d) }

// Rebind rewrites ? placeholders to $n for Postgres.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

const timeLayout = time.RFC3339Nano

const (
	userColumns = `id, name, email, password_hash, type, birthdate, preferences, created_at, updated_at`
	txColumns   = `id, user_id, type, category, subcategory, amount_cents, date, detail, created_at, updated_at`

	upsertUserSQL = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email,
password_hash = excluded.password_hash, type = excluded.type, birthdate = excluded.birthdate,
preferences = excluded.preferences, updated_at = excluded.updated_at`

	upsertTxSQL = `INSERT INTO transactions (` + txColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET category = excluded.category, subcategory = excluded.subcategory,
amount_cents = excluded.amount_cents, date = excluded.date, detail = excluded.detail,
updated_at = excluded.updated_at
WHERE transactions.user_id = excluded.user_id`

	selectUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	selectTxSQL          = `SELECT ` + txColumns + ` FROM transactions WHERE id = ? AND user_id = ?`
	listTxSQL            = `SELECT ` + txColumns + ` FROM transactions WHERE user_id = ? ORDER BY seq`
	deleteTxSQL          = `DELETE FROM transactions WHERE id = ? AND user_id = ?`
)

// Repository is the relational Store shared by the SQLite and Postgres backends.
type Repository struct {
	db      *sql.DB
	dialect Dialect
}

var _ Store = (*Repository)(nil)

// NewRepository wraps an open database. Migrations are the caller's concern.
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

// OpenSQLite opens (creating if needed) the database file at path and migrates it.
func OpenSQLite(path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	return open(SQLite, dsn)
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(dsn string) (*Repository, error) {
	return open(Postgres, dsn)
}

func open(d Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", d, err)
	}
	if d == SQLite {
		db.SetMaxOpenConns(1)
	}
	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return NewRepository(db, d), nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectUserByEmailSQL), email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *Repository) PutUser(ctx context.Context, u core.User) error {
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	_, err = r.db.ExecContext(ctx, r.dialect.Rebind(upsertUserSQL),
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Type), u.Birthdate, string(prefs),
		u.CreatedAt.UTC().Format(timeLayout), u.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", u.Email, core.ErrConflict)
		}
		return fmt.Errorf("put user: %w", err)
	}
	slog.DebugContext(ctx, "User saved", "user_id", u.ID, "dialect", r.dialect)
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(listTxSQL), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id, ownerID string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectTxSQL), id, ownerID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) PutTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(upsertTxSQL),
		t.ID, t.UserID, string(t.Type), t.Category, t.Subcategory, t.Amount.Cents, t.Date, t.Detail,
		t.CreatedAt.UTC().Format(timeLayout), t.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("put transaction: %w", err)
	}
	slog.DebugContext(ctx, "Transaction saved", "id", t.ID, "user_id", t.UserID, "amount_cents", t.Amount.Cents)
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id, ownerID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(deleteTxSQL), id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete transaction rows affected: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (core.User, error) {
	var (
		u                core.User
		typ, prefs       string
		created, updated string
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &typ, &u.Birthdate, &prefs, &created, &updated); err != nil {
		return core.User{}, err
	}
	u.Type = core.UserType(typ)
	u.Preferences = core.DefaultPreferences()
	if prefs != "" {
		if err := json.Unmarshal([]byte(prefs), &u.Preferences); err != nil {
			return core.User{}, fmt.Errorf("decode preferences: %w", err)
		}
	}
	var err error
	if u.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return core.User{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return u, nil
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                core.Transaction
		typ              string
		created, updated string
	)
	if err := s.Scan(&t.ID, &t.UserID, &typ, &t.Category, &t.Subcategory, &t.Amount.Cents, &t.Date, &t.Detail, &created, &updated); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	var err error
	if t.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return t, nil
}
