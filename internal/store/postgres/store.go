// Package postgres implements the order store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ordersync/internal/config"
	"github.com/JonMunkholm/ordersync/internal/core"
	"github.com/JonMunkholm/ordersync/internal/store/migrations"
)

// Store is a core.OrderStore backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.OrderStore = (*Store)(nil)

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewPool parses cfg.URL, applies the pool limits and verifies the
// connection.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Open connects, optionally migrates and returns a ready store.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := Migrate(pool, logger, true); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return New(pool), nil
}

// Migrate applies (up) or rolls back (down) the embedded schema using a
// dedicated database/sql handle over the pool.
func Migrate(pool *pgxpool.Pool, logger *slog.Logger, up bool) error {
	m, err := NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	if up {
		return m.Up()
	}
	return m.Down()
}

// NewMigrator returns a migrator bound to pool. The caller must Close it.
func NewMigrator(pool *pgxpool.Pool, logger *slog.Logger) (*migrations.Migrator, error) {
	db := stdlib.OpenDBFromPool(pool)
	m, err := migrations.NewPostgres(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

const orderColumns = `id, tenant_id, external_id, order_date, tracking_number, status,
	canonical_status, shipping_type, destination_city, destination_state, carrier_name,
	last_movement, last_movement_date, order_value::text, shipping_cost::text,
	provider_cost::text, return_cost::text, profit::text, customer_name, customer_phone,
	customer_address, customer_city, customer_state, extra, created_at, updated_at`

// GetByExternalID returns nil when the tenant has no such order.
func (s *Store) GetByExternalID(ctx context.Context, externalID string, tenantID uuid.UUID) (*core.PersistedOrder, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE tenant_id = $1 AND external_id = $2`,
		tenantID, externalID)

	po, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order %q: %w", externalID, err)
	}
	return po, nil
}

// Create inserts order. A concurrent insert of the same external id turns
// into an update of the existing row, so the last write wins.
func (s *Store) Create(ctx context.Context, order core.Order, tenantID uuid.UUID) (*core.PersistedOrder, error) {
	args := append([]any{uuid.New(), tenantID}, orderArgs(order)...)
	row := s.pool.QueryRow(ctx, `
		INSERT INTO orders (id, tenant_id, external_id, order_date, tracking_number, status,
			canonical_status, shipping_type, destination_city, destination_state, carrier_name,
			last_movement, last_movement_date, order_value, shipping_cost, provider_cost,
			return_cost, profit, customer_name, customer_phone, customer_address,
			customer_city, customer_state, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14::text::numeric, $15::text::numeric, $16::text::numeric, $17::text::numeric,
			$18::text::numeric, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (tenant_id, external_id) DO UPDATE SET
			order_date = EXCLUDED.order_date,
			tracking_number = EXCLUDED.tracking_number,
			status = EXCLUDED.status,
			canonical_status = EXCLUDED.canonical_status,
			shipping_type = EXCLUDED.shipping_type,
			destination_city = EXCLUDED.destination_city,
			destination_state = EXCLUDED.destination_state,
			carrier_name = EXCLUDED.carrier_name,
			last_movement = EXCLUDED.last_movement,
			last_movement_date = EXCLUDED.last_movement_date,
			order_value = EXCLUDED.order_value,
			shipping_cost = EXCLUDED.shipping_cost,
			provider_cost = EXCLUDED.provider_cost,
			return_cost = EXCLUDED.return_cost,
			profit = EXCLUDED.profit,
			customer_name = EXCLUDED.customer_name,
			customer_phone = EXCLUDED.customer_phone,
			customer_address = EXCLUDED.customer_address,
			customer_city = EXCLUDED.customer_city,
			customer_state = EXCLUDED.customer_state,
			extra = EXCLUDED.extra,
			updated_at = now()
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
	args := append([]any{id, tenantID}, orderArgs(order)...)
	row := s.pool.QueryRow(ctx, `
		UPDATE orders SET
			external_id = $3, order_date = $4, tracking_number = $5, status = $6,
			canonical_status = $7, shipping_type = $8, destination_city = $9,
			destination_state = $10, carrier_name = $11, last_movement = $12,
			last_movement_date = $13, order_value = $14::text::numeric,
			shipping_cost = $15::text::numeric, provider_cost = $16::text::numeric,
			return_cost = $17::text::numeric, profit = $18::text::numeric,
			customer_name = $19, customer_phone = $20, customer_address = $21,
			customer_city = $22, customer_state = $23, extra = $24, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+orderColumns, args...)

	po, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}
	return po, nil
}

// ListByTenant returns every order of the tenant ordered by external id.
func (s *Store) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]core.PersistedOrder, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE tenant_id = $1 ORDER BY external_id`,
		tenantID)
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_runs (id, tenant_id, source, file_name, total_rows,
			created, updated, unchanged, failed, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.TenantID, run.Source, run.FileName, run.TotalRows,
		run.Created, run.Updated, run.Unchanged, run.Failed,
		run.StartedAt, run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// ListImports returns the tenant's most recent import runs, newest first.
func (s *Store) ListImports(ctx context.Context, tenantID uuid.UUID, limit int) ([]core.ImportRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, source, file_name, total_rows, created, updated,
			unchanged, failed, started_at, duration_ms
		FROM import_runs WHERE tenant_id = $1
		ORDER BY started_at DESC LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	runs := make([]core.ImportRun, 0)
	for rows.Next() {
		var run core.ImportRun
		var durationMS int64
		if err := rows.Scan(&run.ID, &run.TenantID, &run.Source, &run.FileName,
			&run.TotalRows, &run.Created, &run.Updated, &run.Unchanged, &run.Failed,
			&run.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// orderArgs returns the insert arguments from external_id onward.
func orderArgs(o core.Order) []any {
	extra := o.Extra
	if extra == nil {
		extra = map[string]string{}
	}
	return []any{
		o.ExternalID, o.OrderDate, o.TrackingNumber, o.Status,
		string(o.Canonical), o.ShippingType, o.DestinationCity, o.DestinationState,
		o.CarrierName, o.LastMovement, o.LastMovementDate,
		o.OrderValue.String(), o.ShippingCost.String(), nullDecimalArg(o.ProviderCost),
		o.ReturnCost.String(), nullDecimalArg(o.Profit),
		o.Customer.Name, o.Customer.Phone, o.Customer.Address,
		o.Customer.City, o.Customer.State, extra,
	}
}

func nullDecimalArg(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func scanOrder(row pgx.Row) (*core.PersistedOrder, error) {
	var (
		po                                   core.PersistedOrder
		canonical                            string
		orderValue, shippingCost, returnCost string
		providerCost, profit                 sql.NullString
		extra                                map[string]string
	)
	err := row.Scan(&po.ID, &po.TenantID, &po.ExternalID, &po.OrderDate, &po.TrackingNumber,
		&po.Status, &canonical, &po.ShippingType, &po.DestinationCity, &po.DestinationState,
		&po.CarrierName, &po.LastMovement, &po.LastMovementDate, &orderValue, &shippingCost,
		&providerCost, &returnCost, &profit, &po.Customer.Name, &po.Customer.Phone,
		&po.Customer.Address, &po.Customer.City, &po.Customer.State, &extra,
		&po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return nil, err
	}

	po.Canonical = core.CanonicalStatus(canonical)
	if len(extra) > 0 {
		po.Extra = extra
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
