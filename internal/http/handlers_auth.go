package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"aureum/internal/core"
	"aureum/internal/services"
)

type userCtxKey struct{}

// requireUser resolves the bearer token to a user and stores it on the
// request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			writeError(w, r, core.ErrUnauthorized)
			return
		}
		u, err := s.accounts.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey{}, u)))
	})
}

func currentUser(r *http.Request) core.User {
	u, _ := r.Context().Value(userCtxKey{}).(core.User)
	return u
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := s.accounts.Login(r.Context(), p.Get("username"), p.Get("password"))
	if errors.Is(err, core.ErrUnauthorized) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Incorrect email or password"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg services.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := s.accounts.Register(r.Context(), reg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

type passwordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordChange
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.accounts.ChangePassword(r.Context(), currentUser(r), req.OldPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Password updated successfully"})
}

type profileResponse struct {
	User        core.User `json:"user"`
	AccessToken string    `json:"access_token,omitempty"`
	TokenType   string    `json:"token_type,omitempty"`
}

func newProfileResponse(u core.User, tok *services.Token) profileResponse {
	resp := profileResponse{User: u}
	if tok != nil {
		resp.AccessToken = tok.AccessToken
		resp.TokenType = tok.TokenType
	}
	return resp
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, tok, err := s.accounts.UpdateProfile(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(u, tok))
}
