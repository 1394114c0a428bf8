// Package sources registers the built-in export formats with the core registry.
// Import this package to ensure all sources are registered.
package sources

// This file exists to provide a single import point.
// Each source file uses init() to register its header vocabulary.

// Keys of the built-in sources.
const (
	DropshippingES = "dropshipping_es"
	GenericEN      = "generic_en"
)
