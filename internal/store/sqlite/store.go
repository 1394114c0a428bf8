// Package sqlite implements the order store on an embedded SQLite database.
// Amounts are kept as decimal text so no precision is lost.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/ordersync/internal/core"
)

//go:embed schema.sql
var schema string

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a core.OrderStore over database/sql.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ core.OrderStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and initializes the
// schema. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers, and every :memory: connection is its own
	// database.
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps db and creates missing tables.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db, now: time.Now}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return s, nil
}

const orderColumns = `id, tenant_id, external_id, order_date, tracking_number, status,
	canonical_status, shipping_type, destination_city, destination_state, carrier_name,
	last_movement, last_movement_date, order_value, shipping_cost, provider_cost,
	return_cost, profit, customer_name, customer_phone, customer_address,
	customer_city, customer_state, extra, created_at, updated_at`

// GetByExternalID returns nil when the tenant has no such order.
func (s *Store) GetByExternalID(ctx context.Context, externalID string, tenantID uuid.UUID) (*core.PersistedOrder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE tenant_id = ? AND external_id = ?`,
		tenantID.String(), externalID)

	po, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order %q: %w", externalID, err)
	}
	return po, nil
}

// Create inserts order. An existing row with the same external id is
// overwritten, so the last write wins.
func (s *Store) Create(ctx context.Context, order core.Order, tenantID uuid.UUID) (*core.PersistedOrder, error) {
	args, err := orderArgs(order)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Format(timeLayout)
	args = append([]any{uuid.New().String(), tenantID.String()}, args...)
	args = append(args, now, now)

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, external_id) DO UPDATE SET
			order_date = excluded.order_date,
			tracking_number = excluded.tracking_number,
			status = excluded.status,
			canonical_status = excluded.canonical_status,
			shipping_type = excluded.shipping_type,
			destination_city = excluded.destination_city,
			destination_state = excluded.destination_state,
			carrier_name = excluded.carrier_name,
			last_movement = excluded.last_movement,
			last_movement_date = excluded.last_movement_date,
			order_value = excluded.order_value,
			shipping_cost = excluded.shipping_cost,
			provider_cost = excluded.provider_cost,
			return_cost = excluded.return_cost,
			profit = excluded.profit,
			customer_name = excluded.customer_name,
			customer_phone = excluded.customer_phone,
			customer_address = excluded.customer_address,
			customer_city = excluded.customer_city,
			customer_state = excluded.customer_state,
			extra = excluded.extra,
			updated_at = excluded.updated_at
		RETURNING `+orderColumns, args...)

	po, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("create order %q: %w", order.ExternalID, err)
	}
	return po, nil
}

// Update overwrites the order with id. It returns nil when no row of the
// tenant carries that id.
func (s *Store) Update(ctx context.Context, id uuid.UUID, order core.Order, tenantID uuid.UUID) (*core.PersistedOrder, error) {
	args, err := orderArgs(order)
	if err != nil {
		return nil, err
	}
	args = append(args, s.now().UTC().Format(timeLayout), id.String(), tenantID.String())

	row := s.db.QueryRowContext(ctx, `
		UPDATE orders SET
			external_id = ?, order_date = ?, tracking_number = ?, status = ?,
			canonical_status = ?, shipping_type = ?, destination_city = ?,
			destination_state = ?, carrier_name = ?, last_movement = ?,
			last_movement_date = ?, order_value = ?, shipping_cost = ?,
			provider_cost = ?, return_cost = ?, profit = ?, customer_name = ?,
			customer_phone = ?, customer_address = ?, customer_city = ?,
			customer_state = ?, extra = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
		RETURNING `+orderColumns, args...)

	po, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}
	return po, nil
}

// ListByTenant returns every order of the tenant ordered by external id.
func (s *Store) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]core.PersistedOrder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE tenant_id = ? ORDER BY external_id`,
		tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]core.PersistedOrder, 0)
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *po)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// RecordImport stores one import run.
func (s *Store) RecordImport(ctx context.Context, run core.ImportRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, tenant_id, source, file_name, total_rows,
			created, updated, unchanged, failed, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.TenantID.String(), run.Source, run.FileName, run.TotalRows,
		run.Created, run.Updated, run.Unchanged, run.Failed,
		run.StartedAt.UTC().Format(timeLayout), run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// ListImports returns the tenant's most recent import runs, newest first.
func (s *Store) ListImports(ctx context.Context, tenantID uuid.UUID, limit int) ([]core.ImportRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, source, file_name, total_rows, created, updated,
			unchanged, failed, started_at, duration_ms
		FROM import_runs WHERE tenant_id = ?
		ORDER BY started_at DESC LIMIT ?`, tenantID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	runs := make([]core.ImportRun, 0)
	for rows.Next() {
		var (
			run                 core.ImportRun
			id, tenant, started string
			durationMS          int64
		)
		if err := rows.Scan(&id, &tenant, &run.Source, &run.FileName,
			&run.TotalRows, &run.Created, &run.Updated, &run.Unchanged, &run.Failed,
			&started, &durationMS); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("import id: %w", err)
		}
		if run.TenantID, err = uuid.Parse(tenant); err != nil {
			return nil, fmt.Errorf("import tenant: %w", err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("import started_at: %w", err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() {
	s.db.Close()
}

// orderArgs returns the column values from external_id through extra.
func orderArgs(o core.Order) ([]any, error) {
	extra := []byte("{}")
	if len(o.Extra) > 0 {
		var err error
		if extra, err = json.Marshal(o.Extra); err != nil {
			return nil, fmt.Errorf("encode extra columns: %w", err)
		}
	}
	return []any{
		o.ExternalID, o.OrderDate, o.TrackingNumber, o.Status,
		string(o.Canonical), o.ShippingType, o.DestinationCity, o.DestinationState,
		o.CarrierName, o.LastMovement, o.LastMovementDate,
		o.OrderValue.String(), o.ShippingCost.String(), nullDecimalArg(o.ProviderCost),
		o.ReturnCost.String(), nullDecimalArg(o.Profit),
		o.Customer.Name, o.Customer.Phone, o.Customer.Address,
		o.Customer.City, o.Customer.State, string(extra),
	}, nil
}

func nullDecimalArg(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*core.PersistedOrder, error) {
	var (
		po                                   core.PersistedOrder
		id, tenant, canonical, extra         string
		orderValue, shippingCost, returnCost string
		providerCost, profit                 sql.NullString
		created, updated                     string
	)
	err := row.Scan(&id, &tenant, &po.ExternalID, &po.OrderDate, &po.TrackingNumber,
		&po.Status, &canonical, &po.ShippingType, &po.DestinationCity, &po.DestinationState,
		&po.CarrierName, &po.LastMovement, &po.LastMovementDate, &orderValue, &shippingCost,
		&providerCost, &returnCost, &profit, &po.Customer.Name, &po.Customer.Phone,
		&po.Customer.Address, &po.Customer.City, &po.Customer.State, &extra,
		&created, &updated)
	if err != nil {
		return nil, err
	}

	if po.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	if po.TenantID, err = uuid.Parse(tenant); err != nil {
		return nil, fmt.Errorf("tenant_id: %w", err)
	}
	po.Canonical = core.CanonicalStatus(canonical)

	if extra != "" && extra != "{}" {
		if err := json.Unmarshal([]byte(extra), &po.Extra); err != nil {
			return nil, fmt.Errorf("extra: %w", err)
		}
	}
	if po.OrderValue, err = decimal.NewFromString(orderValue); err != nil {
		return nil, fmt.Errorf("order_value: %w", err)
	}
	if po.ShippingCost, err = decimal.NewFromString(shippingCost); err != nil {
		return nil, fmt.Errorf("shipping_cost: %w", err)
	}
	if po.ReturnCost, err = decimal.NewFromString(returnCost); err != nil {
		return nil, fmt.Errorf("return_cost: %w", err)
	}
	if po.ProviderCost, err = parseNullDecimal(providerCost); err != nil {
		return nil, fmt.Errorf("provider_cost: %w", err)
	}
	if po.Profit, err = parseNullDecimal(profit); err != nil {
		return nil, fmt.Errorf("profit: %w", err)
	}
	if po.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if po.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	return &po, nil
}

func parseNullDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
