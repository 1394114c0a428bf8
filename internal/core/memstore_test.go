package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory OrderStore used across the package tests.
type memStore struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]map[string]*PersistedOrder
	imports []ImportRun
	creates int
	updates int
}

func newMemStore() *memStore {
	return &memStore{orders: map[uuid.UUID]map[string]*PersistedOrder{}}
}

func (m *memStore) GetByExternalID(_ context.Context, externalID string, tenantID uuid.UUID) (*PersistedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if po, ok := m.orders[tenantID][externalID]; ok {
		cp := *po
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) Create(_ context.Context, order Order, tenantID uuid.UUID) (*PersistedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.orders[tenantID] == nil {
		m.orders[tenantID] = map[string]*PersistedOrder{}
	}
	now := time.Now()
	po := &PersistedOrder{ID: uuid.New(), TenantID: tenantID, Order: order, CreatedAt: now, UpdatedAt: now}
	m.orders[tenantID][order.ExternalID] = po
	m.creates++
	cp := *po
	return &cp, nil
}

func (m *memStore) Update(_ context.Context, id uuid.UUID, order Order, tenantID uuid.UUID) (*PersistedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, po := range m.orders[tenantID] {
		if po.ID == id {
			po.Order = order
			po.UpdatedAt = time.Now()
			m.updates++
			cp := *po
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]PersistedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PersistedOrder, 0, len(m.orders[tenantID]))
	for _, po := range m.orders[tenantID] {
		out = append(out, *po)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

func (m *memStore) RecordImport(_ context.Context, run ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports = append(m.imports, run)
	return nil
}

func (m *memStore) ListImports(_ context.Context, tenantID uuid.UUID, limit int) ([]ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ImportRun
	for i := len(m.imports) - 1; i >= 0 && len(out) < limit; i-- {
		if m.imports[i].TenantID == tenantID {
			out = append(out, m.imports[i])
		}
	}
	return out, nil
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) Close() {}

func (m *memStore) count(tenantID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders[tenantID])
}
