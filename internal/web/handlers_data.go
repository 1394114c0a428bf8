package web

import (
	"net/http"

	"github.com/JonMunkholm/ordersync/internal/core"
)

// handleListOrders returns the tenant's persisted orders matching the
// query filter.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	orders, err := s.service.ListOrders(r.Context(), tenantFrom(r.Context()), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// handleAnalysis computes profitability over the tenant's persisted orders.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := s.service.Analyze(r.Context(), tenantFrom(r.Context()), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAnalyzeRows analyzes posted rows without persisting them.
func (s *Server) handleAnalyzeRows(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	req, err := decodeRows(r.Body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := s.service.AnalyzeRows(req.Source, req.Rows, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// sourceResponse describes one registered export format.
type sourceResponse struct {
	Key         string         `json:"key"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Headers     core.HeaderMap `json:"headers"`
	Default     bool           `json:"default"`
}

// handleListSources lists the registered header vocabularies.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	defs := s.service.Sources()
	out := make([]sourceResponse, 0, len(defs))
	for _, d := range defs {
		out = append(out, sourceResponse{
			Key:         d.Key,
			Label:       d.Label,
			Description: d.Description,
			Headers:     d.Headers,
			Default:     d.Key == s.cfg.Import.DefaultSource,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
