package sources

import "github.com/JonMunkholm/ordersync/internal/core"

func init() {
	registerGenericEN()
}

func registerGenericEN() {
	core.RegisterSource(core.SourceDefinition{
		Key:         GenericEN,
		Label:       "Generic (EN)",
		Description: "English order export; canonical field names are also accepted",
		Headers: core.HeaderMap{
			"Order ID":           core.FieldExternalID,
			"Order Number":       core.FieldExternalID,
			"Order Date":         core.FieldOrderDate,
			"Created At":         core.FieldOrderDate,
			"Tracking Number":    core.FieldTrackingNumber,
			"Status":             core.FieldStatus,
			"Shipping Type":      core.FieldShippingType,
			"Destination City":   core.FieldDestinationCity,
			"Destination State":  core.FieldDestinationState,
			"Carrier":            core.FieldCarrierName,
			"Last Movement":      core.FieldLastMovement,
			"Last Movement Date": core.FieldLastMovementDate,
			"Order Value":        core.FieldOrderValue,
			"Total":              core.FieldOrderValue,
			"Shipping Cost":      core.FieldShippingCost,
			"Supplier Cost":      core.FieldProviderCost,
			"Provider Cost":      core.FieldProviderCost,
			"Return Cost":        core.FieldReturnCost,
			"Profit":             core.FieldProfit,
			"Customer Name":      core.FieldCustomerName,
			"Phone":              core.FieldCustomerPhone,
			"Address":            core.FieldCustomerAddress,
			"City":               core.FieldCustomerCity,
			"State":              core.FieldCustomerState,
		},
	})
}
