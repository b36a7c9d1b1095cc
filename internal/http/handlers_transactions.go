package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"aureum/internal/core"
	"aureum/internal/services"
)

type transactionPatch struct {
	Category    *string     `json:"category"`
	Subcategory *string     `json:"subcategory"`
	Amount      *core.Money `json:"amount"`
	Date        *string     `json:"date"`
	Detail      *string     `json:"detail"`
}

func (p transactionPatch) toCore() core.TransactionPatch {
	return core.TransactionPatch{
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Amount:      p.Amount,
		Date:        p.Date,
		Detail:      p.Detail,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req services.NewTransaction
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.ledger.Create(r.Context(), currentUser(r).ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// handleListTransactions serves the list endpoint; a non-empty fixed type
// backs the /income and /expense shortcuts.
func (s *Server) handleListTransactions(fixed core.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		skip, err := queryInt(q, "skip", 0)
		if err != nil {
			writeError(w, r, err)
			return
		}
		limit, err := queryInt(q, "limit", services.DefaultListLimit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f := services.ListFilter{
			Type:      core.TransactionType(q.Get("type")),
			Category:  q.Get("category"),
			StartDate: q.Get("start_date"),
			EndDate:   q.Get("end_date"),
			Skip:      skip,
			Limit:     limit,
		}
		if fixed != "" {
			f.Type = fixed
		}
		page, err := s.ledger.List(r.Context(), currentUser(r).ID, f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.ledger.Get(r.Context(), currentUser(r).ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionPatch
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.ledger.Update(r.Context(), currentUser(r).ID, mux.Vars(r)["id"], req.toCore())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Delete(r.Context(), currentUser(r).ID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Transaction deleted successfully"})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b, err := s.ledger.Balance(r.Context(), currentUser(r).ID, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleMonthlyAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := requiredQueryInt(q, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	year, err := requiredQueryInt(q, "year")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.ledger.Monthly(r.Context(), currentUser(r).ID, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleCategoryAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rep, err := s.ledger.Category(r.Context(), currentUser(r).ID, q.Get("category"), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleGeneralStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Stats(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip, err := queryInt(q, "skip", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(q, "limit", services.DefaultSearchLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.ledger.Search(r.Context(), currentUser(r).ID, q.Get("query"), skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
