package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// CarrierStats aggregates the orders handed to one carrier.
// Total counts delivered, returned and in-progress orders only.
type CarrierStats struct {
	Total        int             `json:"total"`
	Delivered    int             `json:"delivered"`
	Efficiency   float64         `json:"efficiency"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	ReturnCost   decimal.Decimal `json:"returnCost"`
}

// GroupCount is one entry of the grouping view.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Grouping dimensions, in preference order.
const (
	GroupByCarrier = "carrier"
	GroupByRegion  = "region"
	GroupByStatus  = "status"
)

// ProfitPolicySummary surfaces where the projected profit policy stood in for
// a missing profit. Divergence is the sum of RecordedProfit minus
// ProjectedProfit over those orders that also had a provider cost.
type ProfitPolicySummary struct {
	ProjectedOrders int             `json:"projectedOrders"`
	Divergence      decimal.Decimal `json:"divergence"`
}

// AnalysisResult is a stateless aggregate snapshot of an order set.
type AnalysisResult struct {
	TotalOrders int `json:"totalOrders"`

	ConfirmedOrders  int             `json:"confirmedOrders"`
	ConfirmedValue   decimal.Decimal `json:"confirmedValue"`
	ConfirmedProfit  decimal.Decimal `json:"confirmedProfit"`
	ReturnedOrders   int             `json:"returnedOrders"`
	ReturnedValue    decimal.Decimal `json:"returnedValue"`
	ReturnedProfit   decimal.Decimal `json:"returnedProfit"`
	InProgressOrders int             `json:"inProgressOrders"`
	InProgressValue  decimal.Decimal `json:"inProgressValue"`
	InProgressProfit decimal.Decimal `json:"inProgressProfit"`
	CanceledOrders   int             `json:"canceledOrders"`
	RejectedOrders   int             `json:"rejectedOrders"`
	PendingOrders    int             `json:"pendingOrders"`

	TotalValue         decimal.Decimal `json:"totalValue"`
	TotalShippingCost  decimal.Decimal `json:"totalShippingCost"`
	TotalReturnCost    decimal.Decimal `json:"totalReturnCost"`
	NetProfit          decimal.Decimal `json:"netProfit"`
	DeliveryEfficiency float64         `json:"deliveryEfficiency"`

	CarrierEfficiency   map[string]float64      `json:"carrierEfficiency"`
	CarrierStats        map[string]CarrierStats `json:"carrierStats"`
	StatusDistribution  map[CanonicalStatus]int `json:"statusDistribution"`
	CarrierDistribution map[string]int          `json:"carrierDistribution"`
	RegionDistribution  map[string]int          `json:"regionDistribution"`

	GroupBy  string       `json:"groupBy"`
	Grouping []GroupCount `json:"grouping"`

	OptimisticProfit             decimal.Decimal `json:"optimisticProfit"`
	OptimisticGainFromInProgress decimal.Decimal `json:"optimisticGainFromInProgress"`
	AvgReturnCost                decimal.Decimal `json:"avgReturnCost"`
	PotentialReturnCost          decimal.Decimal `json:"potentialReturnCost"`
	PessimisticProfit            decimal.Decimal `json:"pessimisticProfit"`
	PessimisticLoss              decimal.Decimal `json:"pessimisticLoss"`

	ProfitPolicy ProfitPolicySummary `json:"profitPolicy"`
}

// AnalyzeRecords normalizes raw rows, resolves their status and analyzes them.
// Profit comes only from an explicit profit column, so in-progress rows fall
// back to ProjectedProfit.
func AnalyzeRecords(rows []RawRecord, headers HeaderMap) AnalysisResult {
	records := Normalize(rows, headers)
	orders := make([]Order, 0, len(records))
	for _, r := range records {
		orders = append(orders, Resolve(r))
	}
	return Analyze(orders)
}

// Analyze computes aggregates, efficiencies and scenario projections.
// Orders without an external id are ignored. Orders whose Canonical status is
// unset are resolved from their raw status text. Analyze is pure and returns an
// all-zero result for empty input.
func Analyze(orders []Order) AnalysisResult {
	res := AnalysisResult{
		CarrierEfficiency:   map[string]float64{},
		CarrierStats:        map[string]CarrierStats{},
		StatusDistribution:  map[CanonicalStatus]int{},
		CarrierDistribution: map[string]int{},
		RegionDistribution:  map[string]int{},
		Grouping:            []GroupCount{},
	}

	for _, o := range orders {
		if strings.TrimSpace(o.ExternalID) == "" {
			continue
		}
		if o.Canonical == "" {
			o = Resolve(o.OrderRecord)
		}
		res.add(o)
	}

	res.finish()
	return res
}

func (res *AnalysisResult) add(o Order) {
	res.TotalOrders++
	res.StatusDistribution[o.Canonical]++

	carrier := strings.TrimSpace(o.CarrierName)
	var cs CarrierStats
	if carrier != "" {
		res.CarrierDistribution[carrier]++
		cs = res.CarrierStats[carrier]
	}
	if region := regionOf(o.OrderRecord); region != "" {
		res.RegionDistribution[region]++
	}

	profit := decimal.Zero
	if o.Profit.Valid {
		profit = o.Profit.Decimal
	}

	switch o.Canonical {
	case StatusCanceled:
		res.CanceledOrders++
	case StatusRejected:
		res.RejectedOrders++
	case StatusPending:
		res.PendingOrders++
	case StatusDelivered:
		res.ConfirmedOrders++
		res.ConfirmedValue = res.ConfirmedValue.Add(o.OrderValue)
		res.ConfirmedProfit = res.ConfirmedProfit.Add(profit)
		res.TotalShippingCost = res.TotalShippingCost.Add(o.ShippingCost)
		cs.Total++
		cs.Delivered++
		cs.ShippingCost = cs.ShippingCost.Add(o.ShippingCost)
	case StatusReturned:
		res.ReturnedOrders++
		res.ReturnedValue = res.ReturnedValue.Add(o.OrderValue)
		res.ReturnedProfit = res.ReturnedProfit.Add(profit)
		res.TotalReturnCost = res.TotalReturnCost.Add(o.ReturnCost)
		cs.Total++
		cs.ReturnCost = cs.ReturnCost.Add(o.ReturnCost)
	default:
		if !o.Profit.Valid {
			profit = ProjectedProfit(o.OrderRecord)
			res.ProfitPolicy.ProjectedOrders++
			if recorded := RecordedProfit(o.OrderRecord); recorded.Valid {
				res.ProfitPolicy.Divergence = res.ProfitPolicy.Divergence.Add(recorded.Decimal.Sub(profit))
			}
		}
		res.InProgressOrders++
		res.InProgressValue = res.InProgressValue.Add(o.OrderValue)
		res.InProgressProfit = res.InProgressProfit.Add(profit)
		res.TotalShippingCost = res.TotalShippingCost.Add(o.ShippingCost)
		cs.Total++
		cs.ShippingCost = cs.ShippingCost.Add(o.ShippingCost)
	}

	if carrier != "" {
		res.CarrierStats[carrier] = cs
	}
}

func (res *AnalysisResult) finish() {
	res.TotalValue = res.ConfirmedValue.Add(res.InProgressValue)
	res.NetProfit = res.ConfirmedProfit.Sub(res.TotalReturnCost)
	res.DeliveryEfficiency = percent(res.ConfirmedOrders, res.ConfirmedOrders+res.InProgressOrders+res.ReturnedOrders)

	for carrier, cs := range res.CarrierStats {
		cs.Efficiency = percent(cs.Delivered, cs.Total)
		res.CarrierStats[carrier] = cs
		res.CarrierEfficiency[carrier] = cs.Efficiency
	}

	switch {
	case len(res.CarrierDistribution) > 0:
		res.GroupBy, res.Grouping = GroupByCarrier, rank(res.CarrierDistribution)
	case len(res.RegionDistribution) > 0:
		res.GroupBy, res.Grouping = GroupByRegion, rank(res.RegionDistribution)
	case len(res.StatusDistribution) > 0:
		byStatus := make(map[string]int, len(res.StatusDistribution))
		for st, n := range res.StatusDistribution {
			byStatus[string(st)] = n
		}
		res.GroupBy, res.Grouping = GroupByStatus, rank(byStatus)
	}

	res.OptimisticGainFromInProgress = res.InProgressProfit
	res.OptimisticProfit = res.ConfirmedProfit.Add(res.InProgressProfit).Sub(res.TotalReturnCost)

	switch {
	case res.ReturnedOrders > 0:
		res.AvgReturnCost = res.TotalReturnCost.DivRound(decimal.NewFromInt(int64(res.ReturnedOrders)), 2)
	case res.ConfirmedOrders+res.InProgressOrders > 0:
		// No return history yet: shipping cost is the best proxy for a return.
		res.AvgReturnCost = res.TotalShippingCost.DivRound(decimal.NewFromInt(int64(res.ConfirmedOrders+res.InProgressOrders)), 2)
	}

	res.PotentialReturnCost = res.AvgReturnCost.Mul(decimal.NewFromInt(int64(res.InProgressOrders)))
	res.PessimisticProfit = res.ConfirmedProfit.Sub(res.TotalReturnCost).Sub(res.PotentialReturnCost)
	res.PessimisticLoss = res.PotentialReturnCost
}

// regionOf prefers the destination state and falls back to the city.
func regionOf(r OrderRecord) string {
	if s := strings.TrimSpace(r.DestinationState); s != "" {
		return s
	}
	return strings.TrimSpace(r.DestinationCity)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// rank sorts a distribution by count descending, then key ascending.
func rank(dist map[string]int) []GroupCount {
	out := make([]GroupCount, 0, len(dist))
	for k, n := range dist {
		out = append(out, GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
