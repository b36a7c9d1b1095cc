package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"aureum/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON object from the request body into dst. Malformed
// bodies become validation errors on the "body" field, malformed amounts on
// "amount".
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.Is(err, core.ErrInvalidAmount):
			return core.InvalidErr("amount", core.ErrInvalidAmount)
		case errors.As(err, &mbe):
			return core.Invalid("body", "request body too large")
		case errors.Is(err, io.EOF):
			return core.Invalid("body", "request body is required")
		default:
			return core.Invalid("body", "invalid JSON body")
		}
	}
	return nil
}

// RequestBodyParser reads a body that may be either JSON or form encoded,
// as the token endpoint accepts both.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	err      error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body. A body starting with '{' is JSON, anything else is
// parsed as a query string.
func (p *RequestBodyParser) Parse() error {
	if p.err != nil {
		return core.Invalid("body", "could not read request body")
	}
	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			return core.Invalid("body", "invalid JSON body")
		}
		return nil
	}
	form, err := url.ParseQuery(trimmed)
	if err != nil {
		return core.Invalid("body", "invalid form body")
	}
	p.formData = form
	return nil
}

// Get returns the named value from whichever encoding was parsed.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if v, ok := p.jsonData[key]; ok {
			return stringValue(v)
		}
		return ""
	}
	return p.formData.Get(key)
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// queryInt parses an optional integer query parameter.
func queryInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Invalid(key, "must be an integer")
	}
	return n, nil
}

// requiredQueryInt is queryInt for parameters without a default.
func requiredQueryInt(q url.Values, key string) (int, error) {
	if strings.TrimSpace(q.Get(key)) == "" {
		return 0, core.Invalid(key, "is required")
	}
	return queryInt(q, key, 0)
}
