package core

import "strings"

// Filter selects a subset of orders for a scoped analysis.
// Zero fields match everything. Text fields compare folded, and From/To are
// inclusive "2006-01-02" bounds on the order date.
type Filter struct {
	Carrier string          `json:"carrier,omitempty"`
	Status  CanonicalStatus `json:"status,omitempty"`
	State   string          `json:"state,omitempty"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
}

// IsZero reports whether the filter selects every order.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Matches reports whether o passes every set condition.
// An order with a missing or invalid date never passes a date bound.
func (f Filter) Matches(o Order) bool {
	if f.Carrier != "" && Fold(o.CarrierName) != Fold(f.Carrier) {
		return false
	}
	if f.Status != "" {
		st := o.Canonical
		if st == "" {
			st = ClassifyStatus(o.Status)
		}
		if st != f.Status {
			return false
		}
	}
	if f.State != "" && Fold(regionOf(o.OrderRecord)) != Fold(f.State) {
		return false
	}
	if f.From != "" || f.To != "" {
		d := o.OrderDate
		if d == "" || d == InvalidDate {
			return false
		}
		if f.From != "" && strings.Compare(d, f.From) < 0 {
			return false
		}
		if f.To != "" && strings.Compare(d, f.To) > 0 {
			return false
		}
	}
	return true
}

// FilterOrders returns the orders matching f, preserving input order.
func FilterOrders(orders []Order, f Filter) []Order {
	if f.IsZero() {
		return orders
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	return out
}

// FilterPersisted is FilterOrders over persisted orders.
func FilterPersisted(orders []PersistedOrder, f Filter) []Order {
	out := make([]Order, 0, len(orders))
	for _, p := range orders {
		if f.Matches(p.Order) {
			out = append(out, p.Order)
		}
	}
	return out
}
