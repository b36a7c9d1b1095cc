package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"aureum/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheet serves the subset of the Sheets values API the mirror uses.
type fakeSheet struct {
	mu      sync.Mutex
	ids     []string
	updates map[string][][]any
	cleared []string
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, rng, _ := strings.Cut(r.URL.Path, "/values/")
	switch {
	case r.Method == http.MethodGet:
		values := make([][]any, len(f.ids))
		for i, id := range f.ids {
			values[i] = []any{id}
		}
		json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": values})
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.updates[rng] = vr.Values
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng})
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":clear"):
		f.cleared = append(f.cleared, strings.TrimSuffix(rng, ":clear"))
		json.NewEncoder(w).Encode(map[string]any{"clearedRange": rng})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, ids ...string) (*Client, *fakeSheet) {
	t.Helper()
	fake := &fakeSheet{ids: ids, updates: map[string][][]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-id", ""), fake
}

func sampleTx() core.Transaction {
	return core.Transaction{
		ID: "t2", UserID: "u1", Type: core.Expense, Category: "Comida",
		Amount: core.Money{Cents: 1205}, Date: "2024-04-01", Detail: "pan",
		UpdatedAt: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestUpsertWritesHeaderOnEmptySheet(t *testing.T) {
	c, fake := newTestClient(t)

	if err := c.Upsert(context.Background(), sampleTx()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	values, ok := fake.updates["Transactions!A1:I2"]
	if !ok {
		t.Fatalf("expected header+row write, got %v", fake.updates)
	}
	if len(values) != 2 || values[0][0] != "ID" || values[1][0] != "t2" {
		t.Fatalf("unexpected values: %v", values)
	}
	if values[1][6] != "12.05" {
		t.Errorf("amount cell = %v", values[1][6])
	}
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	c, fake := newTestClient(t, "ID", "t1", "t2", "t3")

	if err := c.Upsert(context.Background(), sampleTx()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, ok := fake.updates["Transactions!A3:I3"]; !ok {
		t.Fatalf("expected row 3 rewrite, got %v", fake.updates)
	}
}

func TestUpsertAppends(t *testing.T) {
	c, fake := newTestClient(t, "ID", "t1")

	if err := c.Upsert(context.Background(), sampleTx()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, ok := fake.updates["Transactions!A3:I3"]; !ok {
		t.Fatalf("expected append at row 3, got %v", fake.updates)
	}
}

func TestDelete(t *testing.T) {
	c, fake := newTestClient(t, "ID", "t1", "t2")
	ctx := context.Background()

	if err := c.Delete(ctx, "t2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if len(fake.cleared) != 1 || fake.cleared[0] != "Transactions!A3:I3" {
		t.Fatalf("unexpected clears: %v", fake.cleared)
	}
}

func TestNilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if err := c.Upsert(context.Background(), sampleTx()); err == nil {
		t.Fatal("expected error without a service")
	}
	if err := c.Delete(context.Background(), "x"); err == nil {
		t.Fatal("expected error without a service")
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil || !strings.Contains(err.Error(), "spreadsheet id") {
		t.Fatalf("expected missing spreadsheet id, got %v", err)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Options{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}

	_, err = New(context.Background(), Options{SpreadsheetID: "x", CredentialsFile: t.TempDir() + "/absent.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected file error, got %v", err)
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{{"ID"}, {}, {" t1 "}, {"t2"}}
	if got := findRow(values, "t1"); got != 3 {
		t.Errorf("findRow(t1) = %d", got)
	}
	if got := findRow(values, "nope"); got != 0 {
		t.Errorf("findRow(nope) = %d", got)
	}
}
