package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ordersync/internal/core"
)

func TestCollector_SyncEvents(t *testing.T) {
	c := New("test")

	c.RowReconciled(core.ActionCreated, time.Millisecond)
	c.RowReconciled(core.ActionCreated, 2*time.Millisecond)
	c.RowReconciled(core.ActionFailed, time.Millisecond)
	c.ImportCompleted("dropshipping_es", core.SyncResult{Created: 2, Failed: 1}, time.Second)
	c.AnalysisCompleted(42, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.rowsTotal.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rowsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.importsTotal.WithLabelValues("dropshipping_es")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.analysesTotal))
	assert.Equal(t, 2, testutil.CollectAndCount(c.rowDuration))
}

func TestCollector_ObservesReconciler(t *testing.T) {
	c := New("test")
	r := core.NewReconciler(stubGateway{}, nil, core.WithObserver(c))

	r.SyncRecords(context.Background(), []core.OrderRecord{{ExternalID: "A1"}, {ExternalID: ""}, {ExternalID: "A2"}}, uuid.New())

	assert.Equal(t, 2.0, testutil.ToFloat64(c.rowsTotal.WithLabelValues("created")), "blank ids are not observed")
}

func TestCollector_ImportLimiterGauges(t *testing.T) {
	c := New("test")
	limiter := core.NewImportLimiter(3, time.Second)
	c.WatchImportLimiter(limiter.Status)

	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	expected := `
# HELP test_imports_active Imports currently holding a limiter slot.
# TYPE test_imports_active gauge
test_imports_active 1
`
	assert.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "test_imports_active"))
}

func TestCollector_Middleware(t *testing.T) {
	c := New("test")

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/api/tenants/{tenantID}/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/api/tenants/a/orders", "/api/tenants/b/orders", "/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("/api/tenants/{tenantID}/orders", "GET", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("/ok", "GET", "200")))
}

func TestCollector_Handler(t *testing.T) {
	c := New("test")
	c.AnalysisCompleted(1, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "test_analyses_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}

// stubGateway creates every order it is asked about.
type stubGateway struct{}

func (stubGateway) GetByExternalID(_ context.Context, _ string, _ uuid.UUID) (*core.PersistedOrder, error) {
	return nil, nil
}

func (stubGateway) Create(_ context.Context, o core.Order, tenantID uuid.UUID) (*core.PersistedOrder, error) {
	return &core.PersistedOrder{ID: uuid.New(), TenantID: tenantID, Order: o}, nil
}

func (stubGateway) Update(_ context.Context, id uuid.UUID, o core.Order, tenantID uuid.UUID) (*core.PersistedOrder, error) {
	return &core.PersistedOrder{ID: id, TenantID: tenantID, Order: o}, nil
}
