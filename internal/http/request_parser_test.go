package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"aureum/internal/core"
)

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantJSON bool
		wantUser string
		wantPass string
		wantErr  bool
	}{
		{
			name:     "form body",
			body:     "username=ana%40example.com&password=Secret123",
			wantUser: "ana@example.com",
			wantPass: "Secret123",
		},
		{
			name:     "json body",
			body:     `{"username":"ana@example.com","password":"Secret123"}`,
			wantJSON: true,
			wantUser: "ana@example.com",
			wantPass: "Secret123",
		},
		{
			name:     "json with non-string value",
			body:     `{"username":"x","password":12345}`,
			wantJSON: true,
			wantUser: "x",
			wantPass: "12345",
		},
		{
			name: "empty body",
			body: "",
		},
		{
			name:    "broken json",
			body:    `{"username":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(tt.body))
			p := NewRequestBodyParser(httptest.NewRecorder(), req)
			err := p.Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !core.IsValidation(err) {
					t.Fatalf("expected validation error, got %T", err)
				}
				return
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v", p.IsJSON())
			}
			if got := p.Get("username"); got != tt.wantUser {
				t.Errorf("username = %q, want %q", got, tt.wantUser)
			}
			if got := p.Get("password"); got != tt.wantPass {
				t.Errorf("password = %q, want %q", got, tt.wantPass)
			}
		})
	}
}

func TestQueryInt(t *testing.T) {
	q := url.Values{"skip": {"5"}, "limit": {"abc"}, "blank": {" "}}

	if n, err := queryInt(q, "skip", 0); err != nil || n != 5 {
		t.Errorf("skip = %d, %v", n, err)
	}
	if n, err := queryInt(q, "blank", 7); err != nil || n != 7 {
		t.Errorf("blank = %d, %v", n, err)
	}
	if _, err := queryInt(q, "limit", 100); !core.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := requiredQueryInt(q, "month"); !core.IsValidation(err) {
		t.Errorf("missing required param should fail, got %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Amount core.Money `json:"amount"`
	}
	tests := []struct {
		body  string
		field string
	}{
		{`{"amount": "-5"}`, "amount"},
		{`{"amount": `, "body"},
		{``, "body"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		err := decodeJSON(httptest.NewRecorder(), req, &dst)
		ve, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("%q: expected *ValidationError, got %v", tt.body, err)
		}
		if ve.Field != tt.field {
			t.Errorf("%q: field = %q, want %q", tt.body, ve.Field, tt.field)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount": 10.5}`))
	if err := decodeJSON(httptest.NewRecorder(), req, &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Amount.Cents != 1050 {
		t.Errorf("cents = %d", dst.Amount.Cents)
	}
}
