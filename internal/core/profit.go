package core

import "github.com/shopspring/decimal"

// Two profit policies coexist and give different answers for orders still in
// transit. RecordedProfit is what a persisted order carries. ProjectedProfit is
// what analytics assumes for an in-progress order that has no profit of its own.
// AnalysisResult.ProfitPolicy reports how often and by how much they disagree.

// RecordedProfit is order value minus provider cost.
// It is absent when the provider cost is unknown.
func RecordedProfit(r OrderRecord) decimal.NullDecimal {
	if !r.ProviderCost.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(r.OrderValue.Sub(r.ProviderCost.Decimal))
}

// ProjectedProfit is order value minus provider cost minus shipping cost.
// A missing provider cost counts as zero.
func ProjectedProfit(r OrderRecord) decimal.Decimal {
	provider := decimal.Zero
	if r.ProviderCost.Valid {
		provider = r.ProviderCost.Decimal
	}
	return r.OrderValue.Sub(provider).Sub(r.ShippingCost)
}

// Resolve classifies a record. A return always dominates: returned orders are
// charged their shipping cost as return cost regardless of the raw status text.
func Resolve(r OrderRecord) Order {
	o := Order{OrderRecord: r, Canonical: ClassifyStatus(r.Status)}
	if o.Canonical == StatusReturned {
		o.ReturnCost = o.ShippingCost
	}
	return o
}

// Prepare resolves a record for persistence and stamps its recorded profit.
// An explicit profit column is kept only when no provider cost is known.
func Prepare(r OrderRecord) Order {
	o := Resolve(r)
	if p := RecordedProfit(r); p.Valid {
		o.Profit = p
	}
	return o
}
