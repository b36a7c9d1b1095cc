package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"aureum/internal/amqp"
	"aureum/internal/analytics"
	"aureum/internal/cache"
	"aureum/internal/core"
	"aureum/internal/storage"
	"aureum/internal/validate"
)

const (
	DefaultListLimit   = 100
	MaxListLimit       = 100
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
	MinSearchQuery     = 3
	MinYear            = 2020
	MaxYear            = 2100

	DefaultEventTimeout = 3 * time.Second
)

// EventPublisher announces transaction changes.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev amqp.TransactionEvent) error
}

type NewTransaction struct {
	Type        core.TransactionType `json:"type"`
	Category    string               `json:"category"`
	Subcategory string               `json:"subcategory"`
	Amount      core.Money           `json:"amount"`
	Date        string               `json:"date"`
	Detail      string               `json:"detail"`
}

type ListFilter struct {
	Type      core.TransactionType
	Category  string
	StartDate string
	EndDate   string
	Skip      int
	Limit     int
}

// LedgerService manages one user's transactions and the reports derived
// from them. Reports are cached per user and dropped on every write.
type LedgerService struct {
	store   storage.TransactionStore
	reports cache.Store[any]
	events  EventPublisher
	now     func() time.Time

	eventTimeout time.Duration

	// gen counts writes per user; a report is cached only if no write
	// happened while it was being computed.
	genMu sync.Mutex
	gen   map[string]uint64
}

// NewLedgerService wires the ledger. reports and events may be nil.
func NewLedgerService(store storage.TransactionStore, reports cache.Store[any], events EventPublisher) *LedgerService {
	return &LedgerService{
		store:        store,
		reports:      reports,
		events:       events,
		now:          time.Now,
		eventTimeout: DefaultEventTimeout,
		gen:          map[string]uint64{},
	}
}

func (s *LedgerService) Create(ctx context.Context, userID string, in NewTransaction) (core.Transaction, error) {
	if err := validate.Safe(
		validate.F("category", in.Category),
		validate.F("subcategory", in.Subcategory),
		validate.F("date", in.Date),
		validate.F("detail", in.Detail),
	); err != nil {
		return core.Transaction{}, err
	}
	now := s.now().UTC()
	t := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        in.Type,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Amount:      in.Amount,
		Date:        in.Date,
		Detail:      in.Detail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.PutTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction created", "id", t.ID, "user_id", userID, "type", t.Type, "amount_cents", t.Amount.Cents)
	s.changed(ctx, userID, t.ID, amqp.ActionCreated)
	return t, nil
}

func (s *LedgerService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	if err := validate.Safe(validate.F("id", id)); err != nil {
		return core.Transaction{}, err
	}
	return s.store.GetTransaction(ctx, id, userID)
}

// Update overwrites only the fields present in p. The type never changes.
func (s *LedgerService) Update(ctx context.Context, userID, id string, p core.TransactionPatch) (core.Transaction, error) {
	fields := []validate.Field{validate.F("id", id)}
	for _, f := range []struct {
		name string
		v    *string
	}{
		{"category", p.Category},
		{"subcategory", p.Subcategory},
		{"date", p.Date},
		{"detail", p.Detail},
	} {
		if f.v != nil {
			fields = append(fields, validate.F(f.name, *f.v))
		}
	}
	if err := validate.Safe(fields...); err != nil {
		return core.Transaction{}, err
	}

	cur, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return core.Transaction{}, err
	}
	if p.Empty() {
		return cur, nil
	}
	next := p.Apply(cur, s.now().UTC())
	if err := next.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.PutTransaction(ctx, next); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction updated", "id", id, "user_id", userID)
	s.changed(ctx, userID, id, amqp.ActionUpdated)
	return next, nil
}

func (s *LedgerService) Delete(ctx context.Context, userID, id string) error {
	if err := validate.Safe(validate.F("id", id)); err != nil {
		return err
	}
	ok, err := s.store.DeleteTransaction(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if !ok {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	s.changed(ctx, userID, id, amqp.ActionDeleted)
	return nil
}

// List filters the user's transactions and returns one page of them in
// insertion order, together with the number of matches.
func (s *LedgerService) List(ctx context.Context, userID string, f ListFilter) (analytics.SearchPage, error) {
	if err := validate.Safe(
		validate.F("type", string(f.Type)),
		validate.F("category", f.Category),
		validate.F("start_date", f.StartDate),
		validate.F("end_date", f.EndDate),
	); err != nil {
		return analytics.SearchPage{}, err
	}
	if f.Type != "" && !f.Type.Valid() {
		return analytics.SearchPage{}, core.InvalidErr("type", core.ErrInvalidType)
	}
	if err := checkRange(f.StartDate, f.EndDate); err != nil {
		return analytics.SearchPage{}, err
	}
	if err := checkPaging(f.Skip, f.Limit, MaxListLimit); err != nil {
		return analytics.SearchPage{}, err
	}

	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return analytics.SearchPage{}, fmt.Errorf("list transactions: %w", err)
	}
	matched := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if !analytics.InRange(t.Date, f.StartDate, f.EndDate) {
			continue
		}
		matched = append(matched, t)
	}
	return analytics.SearchPage{Items: analytics.Page(matched, f.Skip, f.Limit), Total: len(matched)}, nil
}

func (s *LedgerService) Balance(ctx context.Context, userID, start, end string) (analytics.Balance, error) {
	if err := validate.Safe(validate.F("start_date", start), validate.F("end_date", end)); err != nil {
		return analytics.Balance{}, err
	}
	if err := checkRange(start, end); err != nil {
		return analytics.Balance{}, err
	}
	return report(ctx, s, userID, "balance|"+start+"|"+end, func(txs []core.Transaction) analytics.Balance {
		return analytics.ComputeBalance(txs, start, end)
	})
}

func (s *LedgerService) Monthly(ctx context.Context, userID string, month, year int) (analytics.MonthlyReport, error) {
	if month < 1 || month > 12 {
		return analytics.MonthlyReport{}, core.Invalid("month", "must be between 1 and 12")
	}
	if year < MinYear || year > MaxYear {
		return analytics.MonthlyReport{}, core.Invalid("year", fmt.Sprintf("must be between %d and %d", MinYear, MaxYear))
	}
	return report(ctx, s, userID, fmt.Sprintf("monthly|%d|%d", year, month), func(txs []core.Transaction) analytics.MonthlyReport {
		return analytics.MonthlyAnalysis(txs, month, year)
	})
}

func (s *LedgerService) Category(ctx context.Context, userID, category, start, end string) (analytics.CategoryReport, error) {
	if err := validate.Safe(
		validate.F("category", category),
		validate.F("start_date", start),
		validate.F("end_date", end),
	); err != nil {
		return analytics.CategoryReport{}, err
	}
	if strings.TrimSpace(category) == "" {
		return analytics.CategoryReport{}, core.Invalid("category", "is required")
	}
	if utf8.RuneCountInString(category) > core.MaxCategoryLen {
		return analytics.CategoryReport{}, core.Invalid("category", "too long")
	}
	if err := checkRange(start, end); err != nil {
		return analytics.CategoryReport{}, err
	}
	key := "category|" + category + "|" + start + "|" + end
	return report(ctx, s, userID, key, func(txs []core.Transaction) analytics.CategoryReport {
		return analytics.CategoryAnalysis(txs, category, start, end)
	})
}

func (s *LedgerService) Stats(ctx context.Context, userID string) (analytics.Stats, error) {
	return report(ctx, s, userID, "stats", analytics.GeneralStats)
}

func (s *LedgerService) Summary(ctx context.Context, userID string) (analytics.UserSummary, error) {
	return report(ctx, s, userID, "summary", analytics.Summarize)
}

func (s *LedgerService) Search(ctx context.Context, userID, query string, skip, limit int) (analytics.SearchPage, error) {
	if err := validate.Safe(validate.F("query", query)); err != nil {
		return analytics.SearchPage{}, err
	}
	if utf8.RuneCountInString(query) < MinSearchQuery {
		return analytics.SearchPage{}, core.Invalid("query", fmt.Sprintf("must be at least %d characters", MinSearchQuery))
	}
	if err := checkPaging(skip, limit, MaxSearchLimit); err != nil {
		return analytics.SearchPage{}, err
	}
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return analytics.SearchPage{}, fmt.Errorf("list transactions: %w", err)
	}
	return analytics.Search(txs, query, skip, limit), nil
}

// report serves a cached per-user report or computes and stores it.
func report[T any](ctx context.Context, s *LedgerService, userID, key string, compute func([]core.Transaction) T) (T, error) {
	full := userID + "|" + key
	if s.reports != nil {
		if v, ok := s.reports.Get(full); ok {
			if r, ok := v.(T); ok {
				return r, nil
			}
		}
	}
	gen := s.generation(userID)
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("list transactions: %w", err)
	}
	r := compute(txs)
	if s.reports != nil {
		s.genMu.Lock()
		if s.gen[userID] == gen {
			s.reports.Set(full, r)
		}
		s.genMu.Unlock()
	}
	return r, nil
}

func (s *LedgerService) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gen[userID]
}

// changed drops the user's cached reports and publishes the event. A
// publish failure is logged and never fails the write.
func (s *LedgerService) changed(ctx context.Context, userID, id string, action amqp.Action) {
	s.genMu.Lock()
	s.gen[userID]++
	if s.reports != nil {
		s.reports.DeletePrefix(userID + "|")
	}
	s.genMu.Unlock()
	if s.events == nil {
		return
	}
	// Publishing ignores request cancellation and is capped at eventTimeout.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.eventTimeout)
	defer cancel()
	if err := s.events.PublishTransactionEvent(pctx, amqp.NewTransactionEvent(id, userID, action)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event", "id", id, "action", action, "error", err)
	}
}

func checkRange(start, end string) error {
	if start != "" && !validate.ValidISODate(start) {
		return core.InvalidErr("start_date", core.ErrInvalidDate)
	}
	if end != "" && !validate.ValidISODate(end) {
		return core.InvalidErr("end_date", core.ErrInvalidDate)
	}
	return nil
}

func checkPaging(skip, limit, max int) error {
	if skip < 0 {
		return core.Invalid("skip", "must be zero or more")
	}
	if limit < 1 || limit > max {
		return core.Invalid("limit", fmt.Sprintf("must be between 1 and %d", max))
	}
	return nil
}
