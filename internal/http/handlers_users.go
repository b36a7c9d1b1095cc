package http

import (
	"net/http"
	"strings"

	"aureum/internal/core"
	"aureum/internal/services"
	"aureum/internal/validate"
)

func (s *Server) handleUpdateName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name *string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == nil {
		writeError(w, r, core.Invalid("name", "is required"))
		return
	}
	u, _, err := s.accounts.UpdateProfile(r.Context(), currentUser(r), services.ProfileUpdate{Name: req.Name})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type emailChangeResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

func (s *Server) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email *string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Email == nil {
		writeError(w, r, core.Invalid("email", "is required"))
		return
	}
	_, tok, err := s.accounts.UpdateProfile(r.Context(), currentUser(r), services.ProfileUpdate{Email: req.Email})
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := emailChangeResponse{Message: "Email unchanged"}
	if tok != nil {
		resp = emailChangeResponse{Message: "Email updated successfully", AccessToken: tok.AccessToken, TokenType: tok.TokenType}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDeleteMe acknowledges the request without removing anything.
func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageBody{Message: "Account deletion is not supported; no data was removed"})
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ledger.Summary(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleEmailAvailable(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, r, core.Invalid("email", "is required"))
		return
	}
	ok, err := s.accounts.EmailAvailable(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Email     string `json:"email"`
		Available bool   `json:"available"`
	}{email, ok})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r).Preferences)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req services.PreferencesUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	prefs, err := s.accounts.UpdatePreferences(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handlePasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validate.PasswordStrength(req.Password))
}
