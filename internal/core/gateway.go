package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotPersisted is reported when a gateway write returns no order and no error.
var ErrNotPersisted = errors.New("order not persisted")

// OrderGateway is the tenant-scoped persistence contract used by reconciliation.
//
// GetByExternalID returns (nil, nil) when no order exists. A nil order with a
// nil error from Create or Update is treated as a failed write.
type OrderGateway interface {
	GetByExternalID(ctx context.Context, externalID string, tenantID uuid.UUID) (*PersistedOrder, error)
	Create(ctx context.Context, order Order, tenantID uuid.UUID) (*PersistedOrder, error)
	Update(ctx context.Context, id uuid.UUID, order Order, tenantID uuid.UUID) (*PersistedOrder, error)
}

// OrderStore extends the gateway with the reads and bookkeeping the service needs.
type OrderStore interface {
	OrderGateway
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]PersistedOrder, error)
	RecordImport(ctx context.Context, run ImportRun) error
	ListImports(ctx context.Context, tenantID uuid.UUID, limit int) ([]ImportRun, error)
	Ping(ctx context.Context) error
	Close()
}

// SyncObserver receives reconciliation and analysis events, typically to
// feed metrics. Implementations must be safe for concurrent use.
type SyncObserver interface {
	RowReconciled(action SyncAction, elapsed time.Duration)
	ImportCompleted(source string, result SyncResult, elapsed time.Duration)
	AnalysisCompleted(orders int, elapsed time.Duration)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) RowReconciled(SyncAction, time.Duration) {}
func (NopObserver) ImportCompleted(string, SyncResult, time.Duration) {}
func (NopObserver) AnalysisCompleted(int, time.Duration) {}
