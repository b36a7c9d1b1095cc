package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"aureum/internal/core"
	applog "aureum/internal/log"
)

type errorBody struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto status codes. Anything outside it
// is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: ve.Message, Field: ve.Field})
	case errors.Is(err, core.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Could not validate credentials"})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "Transaction not found"})
	case errors.Is(err, core.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Detail: "Email already registered"})
	default:
		applog.FromContext(r.Context()).LogFields(r.Context(), slog.LevelError, "Request failed",
			applog.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
				WithError(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "Internal server error"})
	}
}
