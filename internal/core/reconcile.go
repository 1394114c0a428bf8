package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RowOutcome is the result of reconciling one row.
// Err is set only when Action is ActionFailed.
type RowOutcome struct {
	Action  SyncAction
	OrderID uuid.UUID
	Err     error
}

// Reconciler applies imported rows to a tenant's persisted orders.
//
// Rows are processed strictly in input order, one gateway call at a time.
// A failing row is logged and counted, and the batch moves on. Concurrent
// reconcilers for the same tenant may race; the gateway decides the winner.
type Reconciler struct {
	gw       OrderGateway
	headers  HeaderMap
	logger   *slog.Logger
	observer SyncObserver
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger sets the logger used for per-row events.
func WithLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver sets the observer notified of every row outcome.
func WithObserver(o SyncObserver) ReconcilerOption {
	return func(r *Reconciler) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewReconciler creates a reconciler that normalizes raw rows with headers.
func NewReconciler(gw OrderGateway, headers HeaderMap, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		gw:       gw,
		headers:  headers,
		logger:   slog.Default(),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sync normalizes raw rows and reconciles them for tenantID.
func (r *Reconciler) Sync(ctx context.Context, rows []RawRecord, tenantID uuid.UUID) SyncResult {
	return r.SyncRecords(ctx, Normalize(rows, r.headers), tenantID)
}

// SyncRecords reconciles already normalized records for tenantID.
// Records without an external id are skipped and appear in no counter.
// The batch always runs to completion; ctx is only passed to the gateway.
func (r *Reconciler) SyncRecords(ctx context.Context, records []OrderRecord, tenantID uuid.UUID) SyncResult {
	res := SyncResult{Details: make([]SyncDetail, 0, len(records))}
	logger := r.logger.With("tenant_id", tenantID.String())

	for i, rec := range records {
		rec.ExternalID = strings.TrimSpace(rec.ExternalID)
		if rec.ExternalID == "" {
			continue
		}

		start := time.Now()
		out := r.syncOne(ctx, Prepare(rec), tenantID)
		r.observer.RowReconciled(out.Action, time.Since(start))

		detail := SyncDetail{ExternalID: rec.ExternalID, Action: out.Action}
		if out.OrderID != uuid.Nil {
			detail.ID = out.OrderID.String()
		}

		switch out.Action {
		case ActionCreated:
			res.Created++
		case ActionUpdated:
			res.Updated++
		case ActionUnchanged:
			res.Unchanged++
		case ActionFailed:
			res.Failed++
			detail.Error = out.Err.Error()
			logger.Error("order sync failed",
				"row", i+1,
				"external_id", rec.ExternalID,
				"error", out.Err,
			)
		}
		if out.Action != ActionFailed {
			logger.Debug("order synced",
				"external_id", rec.ExternalID,
				"action", string(out.Action),
			)
		}

		res.Details = append(res.Details, detail)
	}

	return res
}

func (r *Reconciler) syncOne(ctx context.Context, order Order, tenantID uuid.UUID) RowOutcome {
	existing, err := r.gw.GetByExternalID(ctx, order.ExternalID, tenantID)
	if err != nil {
		return failed(fmt.Errorf("lookup: %w", err))
	}

	if existing == nil {
		created, err := r.gw.Create(ctx, order, tenantID)
		if err != nil {
			return failed(fmt.Errorf("create: %w", err))
		}
		if created == nil {
			return failed(fmt.Errorf("create: %w", ErrNotPersisted))
		}
		return RowOutcome{Action: ActionCreated, OrderID: created.ID}
	}

	if len(ChangedFields(existing.Order, order)) == 0 {
		return RowOutcome{Action: ActionUnchanged, OrderID: existing.ID}
	}

	updated, err := r.gw.Update(ctx, existing.ID, order, tenantID)
	if err != nil {
		return RowOutcome{Action: ActionFailed, OrderID: existing.ID, Err: fmt.Errorf("update: %w", err)}
	}
	if updated == nil {
		return RowOutcome{Action: ActionFailed, OrderID: existing.ID, Err: fmt.Errorf("update: %w", ErrNotPersisted)}
	}
	return RowOutcome{Action: ActionUpdated, OrderID: updated.ID}
}

func failed(err error) RowOutcome {
	return RowOutcome{Action: ActionFailed, Err: err}
}

// ChangedFields returns the watched fields whose values differ between the
// stored order and an incoming one. Fields outside the watch list, such as
// destination or return cost, never trigger an update on their own.
func ChangedFields(stored, incoming Order) []Field {
	var changed []Field
	diff := func(f Field, differs bool) {
		if differs {
			changed = append(changed, f)
		}
	}

	diff(FieldStatus, stored.Status != incoming.Status)
	diff(FieldOrderValue, !stored.OrderValue.Equal(incoming.OrderValue))
	diff(FieldShippingCost, !stored.ShippingCost.Equal(incoming.ShippingCost))
	diff(FieldTrackingNumber, stored.TrackingNumber != incoming.TrackingNumber)
	diff(FieldCarrierName, stored.CarrierName != incoming.CarrierName)
	diff(FieldLastMovement, stored.LastMovement != incoming.LastMovement)
	diff(FieldLastMovementDate, stored.LastMovementDate != incoming.LastMovementDate)
	diff(FieldProviderCost, !nullEqual(stored.ProviderCost, incoming.ProviderCost))
	diff(FieldOrderDate, stored.OrderDate != incoming.OrderDate)
	diff(FieldShippingType, stored.ShippingType != incoming.ShippingType)
	diff(FieldCustomerName, stored.Customer.Name != incoming.Customer.Name)
	diff(FieldCustomerPhone, stored.Customer.Phone != incoming.Customer.Phone)
	diff(FieldCustomerAddress, stored.Customer.Address != incoming.Customer.Address)
	diff(FieldCustomerCity, stored.Customer.City != incoming.Customer.City)
	diff(FieldCustomerState, stored.Customer.State != incoming.Customer.State)

	return changed
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
