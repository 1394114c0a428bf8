package web

import (
	"net/http"

	"github.com/JonMunkholm/ordersync/internal/core"
	"github.com/JonMunkholm/ordersync/internal/logging"
)

type healthResponse struct {
	Status  string                   `json:"status"`
	Imports core.ImportLimiterStatus `json:"imports"`
}

// handleHealth reports store connectivity and import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Imports: s.service.ImportLimiterStatus()}
	if err := s.service.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		resp.Status = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
