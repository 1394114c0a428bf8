package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// canonicalFields lists every field a header can resolve to.
var canonicalFields = []Field{
	FieldExternalID, FieldOrderDate, FieldTrackingNumber, FieldStatus,
	FieldShippingType, FieldDestinationCity, FieldDestinationState,
	FieldCarrierName, FieldLastMovement, FieldLastMovementDate,
	FieldOrderValue, FieldShippingCost, FieldProviderCost, FieldReturnCost,
	FieldProfit, FieldCustomerName, FieldCustomerPhone, FieldCustomerAddress,
	FieldCustomerCity, FieldCustomerState,
}

// headerResolver resolves column headers to canonical fields.
// Lookup order: exact header, folded header, canonical field name.
type headerResolver struct {
	exact  HeaderMap
	folded map[string]Field
}

func newHeaderResolver(headers HeaderMap) *headerResolver {
	r := &headerResolver{
		exact:  headers,
		folded: make(map[string]Field, len(headers)+len(canonicalFields)),
	}

	// Iterate sorted so colliding folded aliases resolve the same way every run.
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fk := foldKey(k)
		if _, taken := r.folded[fk]; !taken {
			r.folded[fk] = headers[k]
		}
	}

	for _, f := range canonicalFields {
		fk := foldKey(string(f))
		if _, taken := r.folded[fk]; !taken {
			r.folded[fk] = f
		}
	}
	return r
}

func (r *headerResolver) resolve(header string) (Field, bool) {
	if f, ok := r.exact[header]; ok {
		return f, true
	}
	f, ok := r.folded[foldKey(header)]
	return f, ok
}

// Normalize maps raw rows onto the canonical record shape using headers.
// Unmapped columns are carried through in OrderRecord.Extra. When several
// columns resolve to the same field, the first non-empty one in header order
// wins. Normalize never fails.
func Normalize(rows []RawRecord, headers HeaderMap) []OrderRecord {
	resolver := newHeaderResolver(headers)
	out := make([]OrderRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, resolver.normalizeRow(row))
	}
	return out
}

// NormalizeRecord normalizes a single row.
func NormalizeRecord(row RawRecord, headers HeaderMap) OrderRecord {
	return newHeaderResolver(headers).normalizeRow(row)
}

func (r *headerResolver) normalizeRow(row RawRecord) OrderRecord {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(map[Field]any, len(canonicalFields))
	var extra map[string]string

	for _, k := range keys {
		v := row[k]
		if textValue(v) == "" {
			continue
		}
		field, ok := r.resolve(k)
		if !ok {
			if extra == nil {
				extra = make(map[string]string)
			}
			extra[k] = textValue(v)
			continue
		}
		if _, seen := values[field]; !seen {
			values[field] = v
		}
	}

	text := func(f Field) string { return textValue(values[f]) }

	return OrderRecord{
		ExternalID:       text(FieldExternalID),
		OrderDate:        ParseDate(values[FieldOrderDate]),
		TrackingNumber:   text(FieldTrackingNumber),
		Status:           text(FieldStatus),
		ShippingType:     text(FieldShippingType),
		DestinationCity:  text(FieldDestinationCity),
		DestinationState: text(FieldDestinationState),
		CarrierName:      text(FieldCarrierName),
		LastMovement:     text(FieldLastMovement),
		LastMovementDate: ParseDate(values[FieldLastMovementDate]),
		OrderValue:       ParseAmount(values[FieldOrderValue]),
		ShippingCost:     ParseAmount(values[FieldShippingCost]),
		ProviderCost:     optionalAmount(values[FieldProviderCost]),
		ReturnCost:       ParseAmount(values[FieldReturnCost]),
		Profit:           optionalAmount(values[FieldProfit]),
		Customer: Customer{
			Name:    text(FieldCustomerName),
			Phone:   text(FieldCustomerPhone),
			Address: text(FieldCustomerAddress),
			City:    text(FieldCustomerCity),
			State:   text(FieldCustomerState),
		},
		Extra: extra,
	}
}

// optionalAmount is ParseAmount for columns whose absence matters.
// A cell without any digit ("N/A", "-") counts as absent.
func optionalAmount(v any) decimal.NullDecimal {
	if !hasDigit(v) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(ParseAmount(v))
}
