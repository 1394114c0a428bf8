package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/ordersync/internal/core"
)

// maxJSONBody caps JSON request bodies when no import limit applies.
const maxJSONBody = 32 << 20

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseFilter reads carrier, status, state, from and to query parameters.
// Dates must be YYYY-MM-DD and the status must be a canonical status name.
func parseFilter(r *http.Request) (core.Filter, error) {
	q := r.URL.Query()
	f := core.Filter{
		Carrier: q.Get("carrier"),
		State:   q.Get("state"),
		From:    q.Get("from"),
		To:      q.Get("to"),
	}

	if raw := q.Get("status"); raw != "" {
		st, ok := core.ParseCanonicalStatus(raw)
		if !ok {
			return core.Filter{}, fmt.Errorf("%w: unknown status %q", core.ErrInvalidRequest, raw)
		}
		f.Status = st
	}
	for name, v := range map[string]string{"from": f.From, "to": f.To} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, v); err != nil {
			return core.Filter{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", core.ErrInvalidRequest, name)
		}
	}
	return f, nil
}

// rowsRequest is the JSON body for row imports and stateless analysis.
type rowsRequest struct {
	Source string           `json:"source"`
	Rows   []core.RawRecord `json:"rows"`
}

// decodeRows decodes a rowsRequest. Numbers stay json.Number so amounts are
// parsed as decimals rather than floats.
func decodeRows(body io.Reader) (rowsRequest, error) {
	var req rowsRequest
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return rowsRequest{}, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	if req.Rows == nil {
		return rowsRequest{}, fmt.Errorf("%w: missing rows", core.ErrInvalidRequest)
	}
	return req, nil
}
