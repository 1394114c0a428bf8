package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultImportTimeout is the maximum duration for one import.
const DefaultImportTimeout = 10 * time.Minute

// DefaultMaxFileSize is the default import size limit (100MB).
const DefaultMaxFileSize int64 = 100 << 20

// ServiceConfig holds the import settings the service enforces.
type ServiceConfig struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWaitTime   time.Duration
	ImportTimeout time.Duration
	DefaultSource string
}

// Service is the entry point for imports, order listings and analysis.
// It can be used by the HTTP server, the CLI, or tests.
type Service struct {
	store    OrderStore
	cfg      ServiceConfig
	limiter  *ImportLimiter
	observer SyncObserver
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceObserver sets the observer for reconciliation and analysis events.
func WithServiceObserver(o SyncObserver) ServiceOption {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a new Service backed by store.
func NewService(store OrderStore, cfg ServiceConfig, opts ...ServiceOption) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.ImportTimeout <= 0 {
		cfg.ImportTimeout = DefaultImportTimeout
	}

	s := &Service{
		store:    store,
		cfg:      cfg,
		limiter:  NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		observer: NopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportReport is the outcome of one import.
type ImportReport struct {
	Run    ImportRun  `json:"run"`
	Result SyncResult `json:"result"`
}

// Sources returns the registered export formats.
func (s *Service) Sources() []SourceDefinition {
	return AllSources()
}

// source resolves a source key, falling back to the configured default.
func (s *Service) source(key string) (SourceDefinition, error) {
	if key == "" {
		key = s.cfg.DefaultSource
	}
	def, ok := GetSource(key)
	if !ok {
		return SourceDefinition{}, fmt.Errorf("%w: %q", ErrUnknownSource, key)
	}
	return def, nil
}

// ImportCSV reads a CSV export and reconciles it into tenantID's orders.
// The file is decoded, its header row located, and its rows synced in order.
func (s *Service) ImportCSV(ctx context.Context, tenantID uuid.UUID, source, fileName string, r io.Reader) (*ImportReport, error) {
	def, err := s.source(source)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	decoded, counter := WrapForImport(io.LimitReader(r, s.cfg.MaxFileSize+1))
	rows, err := ReadCSV(decoded, def.Headers, def.Delimiter)
	if counter.BytesRead > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, s.cfg.MaxFileSize)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}

	s.logger.Debug("import file decoded",
		"tenant_id", tenantID.String(),
		"file", fileName,
		"bytes", counter.BytesRead,
		"rows", len(rows),
	)

	return s.runImport(ctx, tenantID, def, fileName, rows), nil
}

// ImportRows reconciles already decoded rows, e.g. from a JSON request.
func (s *Service) ImportRows(ctx context.Context, tenantID uuid.UUID, source string, rows []RawRecord) (*ImportReport, error) {
	def, err := s.source(source)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	return s.runImport(ctx, tenantID, def, "", rows), nil
}

// runImport syncs rows and records the run.
//
// The caller's cancellation is detached: once started, every row is processed.
// Only ImportTimeout bounds the batch, and rows reaching the store after it
// expires fail individually.
func (s *Service) runImport(ctx context.Context, tenantID uuid.UUID, def SourceDefinition, fileName string, rows []RawRecord) *ImportReport {
	start := time.Now()
	syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ImportTimeout)
	defer cancel()

	logger := s.logger.With("source", def.Key)
	rec := NewReconciler(s.store, def.Headers, WithLogger(logger), WithObserver(s.observer))
	res := rec.Sync(syncCtx, rows, tenantID)
	elapsed := time.Since(start)

	run := ImportRun{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Source:    def.Key,
		FileName:  fileName,
		TotalRows: len(rows),
		Created:   res.Created,
		Updated:   res.Updated,
		Unchanged: res.Unchanged,
		Failed:    res.Failed,
		StartedAt: start.UTC(),
		Duration:  elapsed,
	}
	if err := s.store.RecordImport(syncCtx, run); err != nil {
		logger.Warn("failed to record import run", "tenant_id", tenantID.String(), "error", err)
	}

	s.observer.ImportCompleted(def.Key, res, elapsed)
	logger.Info("import completed",
		"tenant_id", tenantID.String(),
		"file", fileName,
		"rows", len(rows),
		"created", res.Created,
		"updated", res.Updated,
		"unchanged", res.Unchanged,
		"failed", res.Failed,
		"skipped", len(rows)-res.Processed(),
		"duration_ms", elapsed.Milliseconds(),
	)

	return &ImportReport{Run: run, Result: res}
}

// ListOrders returns tenantID's persisted orders that match f.
func (s *Service) ListOrders(ctx context.Context, tenantID uuid.UUID, f Filter) ([]PersistedOrder, error) {
	orders, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if f.IsZero() {
		return orders, nil
	}

	out := make([]PersistedOrder, 0, len(orders))
	for _, o := range orders {
		if f.Matches(o.Order) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Analyze computes analytics over tenantID's persisted orders matching f.
func (s *Service) Analyze(ctx context.Context, tenantID uuid.UUID, f Filter) (AnalysisResult, error) {
	orders, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("list orders: %w", err)
	}

	start := time.Now()
	selected := FilterPersisted(orders, f)
	res := Analyze(selected)
	s.observer.AnalysisCompleted(len(selected), time.Since(start))
	return res, nil
}

// AnalyzeRows analyzes rows without touching the store.
func (s *Service) AnalyzeRows(source string, rows []RawRecord, f Filter) (AnalysisResult, error) {
	def, err := s.source(source)
	if err != nil {
		return AnalysisResult{}, err
	}

	start := time.Now()
	records := Normalize(rows, def.Headers)
	orders := make([]Order, 0, len(records))
	for _, r := range records {
		orders = append(orders, Resolve(r))
	}
	selected := FilterOrders(orders, f)
	res := Analyze(selected)
	s.observer.AnalysisCompleted(len(selected), time.Since(start))
	return res, nil
}

// ImportHistory returns the most recent import runs for tenantID.
func (s *Service) ImportHistory(ctx context.Context, tenantID uuid.UUID, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	runs, err := s.store.ListImports(ctx, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return runs, nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ImportLimiterStatus returns the current import concurrency state.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
