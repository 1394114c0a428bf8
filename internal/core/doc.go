// Package core provides the business logic for order import, reconciliation
// and profitability analytics.
//
// This package is the heart of the service, containing all domain logic
// independent of any transport or storage. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Sources: Registered via the registry, each source maps the column headers
//     of one export format to canonical order fields.
//   - Normalization: [Normalize] turns raw rows into [OrderRecord] values,
//     coercing amounts and dates without ever failing.
//   - Reconciliation: [Reconciler] creates, updates or skips each order through
//     an [OrderGateway], one row at a time and in input order.
//   - Analytics: [Analyze] is a pure aggregation over any order set, so a
//     filtered subset yields a scoped recomputation.
//   - Service: The entry point tying imports, listings and analysis together.
//
// # Source Registry
//
// Sources are registered at init time using [RegisterSource]:
//
//	core.RegisterSource(core.SourceDefinition{
//	    Key:   "my_store",
//	    Label: "My Store",
//	    Headers: core.HeaderMap{
//	        "Pedido": core.FieldExternalID,
//	        "Valor":  core.FieldOrderValue,
//	    },
//	})
//
// Header matching is exact first, then case- and accent-insensitive, and a
// canonical field name such as "order_value" always resolves to itself.
//
// # Status and Profit
//
// Free-text statuses collapse into a [CanonicalStatus] via [ClassifyStatus].
// A return signal dominates every status except cancel and reject. Two profit
// policies exist side by side: [RecordedProfit] for persisted orders and
// [ProjectedProfit] for in-transit orders analyzed without a profit.
//
// # Error Handling
//
// Malformed cells never produce errors. Per-row store failures are logged and
// counted in [SyncResult.Failed] while the batch continues. Service errors are
// mapped to user-friendly messages with codes using [MapError].
package core
