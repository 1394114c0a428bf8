package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/ordersync/internal/core"
)

type tenantKey struct{}

// tenantContext parses {tenantID} once and stores it in the request context.
func (s *Server) tenantContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "tenantID"))
		if err != nil || id == uuid.Nil {
			respondError(w, r, core.ErrInvalidTenant)
			return
		}
		ctx := context.WithValue(r.Context(), tenantKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tenantFrom returns the tenant set by tenantContext.
func tenantFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(tenantKey{}).(uuid.UUID)
	return id
}
