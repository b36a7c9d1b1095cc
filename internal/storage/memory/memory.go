package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"aureum/internal/core"
	"aureum/internal/storage"
)

// Store keeps users and transactions in process memory. Values are copied
// in and out so callers never share state with the store.
type Store struct {
	mu      sync.Mutex
	users   map[string]core.User // by ID
	byEmail map[string]string    // email -> user ID
	owners  map[string][]string  // user ID -> transaction IDs in insertion order
	txs     map[string]core.Transaction
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:   map[string]core.User{},
		byEmail: map[string]string{},
		owners:  map[string][]string{},
		txs:     map[string]core.Transaction{},
	}
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) PutUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.byEmail[u.Email]; ok && owner != u.ID {
		return fmt.Errorf("email %s: %w", u.Email, core.ErrConflict)
	}
	if prev, ok := s.users[u.ID]; ok && prev.Email != u.Email {
		delete(s.byEmail, prev.Email)
	}
	s.users[u.ID] = cloneUser(u)
	s.byEmail[u.Email] = u.ID
	return nil
}

func cloneUser(u core.User) core.User {
	u.Preferences.DashboardWidgets = slices.Clone(u.Preferences.DashboardWidgets)
	return u
}

func (s *Store) ListTransactions(_ context.Context, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.owners[ownerID]
	out := make([]core.Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.txs[id])
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id, ownerID string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok || t.UserID != ownerID {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) PutTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.txs[t.ID]; ok {
		if prev.UserID != t.UserID {
			return core.ErrNotFound
		}
	} else {
		s.owners[t.UserID] = append(s.owners[t.UserID], t.ID)
	}
	s.txs[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok || t.UserID != ownerID {
		return false, nil
	}
	delete(s.txs, id)
	ids := s.owners[ownerID]
	for i, v := range ids {
		if v == id {
			s.owners[ownerID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
