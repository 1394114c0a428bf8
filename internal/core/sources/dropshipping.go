package sources

import "github.com/JonMunkholm/ordersync/internal/core"

func init() {
	registerDropshippingES()
}

// registerDropshippingES covers the Spanish-language order report exported by
// dropshipping fulfillment platforms. Accents and case are matched loosely, so
// "TELEFONO" and "Teléfono" both resolve.
func registerDropshippingES() {
	core.RegisterSource(core.SourceDefinition{
		Key:         DropshippingES,
		Label:       "Dropshipping (ES)",
		Description: "Spanish order report with carrier tracking and supplier prices",
		Headers: core.HeaderMap{
			"ID":                            core.FieldExternalID,
			"ID ORDEN":                      core.FieldExternalID,
			"FECHA":                         core.FieldOrderDate,
			"FECHA DE CREACIÓN":             core.FieldOrderDate,
			"NÚMERO GUIA":                   core.FieldTrackingNumber,
			"NÚMERO DE GUÍA":                core.FieldTrackingNumber,
			"GUIA":                          core.FieldTrackingNumber,
			"ESTATUS":                       core.FieldStatus,
			"ESTADO":                        core.FieldStatus,
			"TIPO DE ENVIO":                 core.FieldShippingType,
			"CIUDAD DESTINO":                core.FieldDestinationCity,
			"DEPARTAMENTO DESTINO":          core.FieldDestinationState,
			"TRANSPORTADORA":                core.FieldCarrierName,
			"ÚLTIMO MOVIMIENTO":             core.FieldLastMovement,
			"NOVEDAD":                       core.FieldLastMovement,
			"FECHA DE ÚLTIMO MOVIMIENTO":    core.FieldLastMovementDate,
			"VALOR DE COMPRA EN PRODUCTOS":  core.FieldOrderValue,
			"VALOR TOTAL":                   core.FieldOrderValue,
			"PRECIO FLETE":                  core.FieldShippingCost,
			"VALOR FLETE":                   core.FieldShippingCost,
			"TOTAL EN PRECIOS DE PROVEEDOR": core.FieldProviderCost,
			"COSTO PROVEEDOR":               core.FieldProviderCost,
			"COSTO DEVOLUCION FLETE":        core.FieldReturnCost,
			"GANANCIA":                      core.FieldProfit,
			"NOMBRE CLIENTE":                core.FieldCustomerName,
			"TELÉFONO":                      core.FieldCustomerPhone,
			"DIRECCIÓN":                     core.FieldCustomerAddress,
			"CIUDAD":                        core.FieldCustomerCity,
			"DEPARTAMENTO":                  core.FieldCustomerState,
		},
	})
}
