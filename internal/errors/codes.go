package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to display text.

const (
	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // malformed body
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // non-numeric or non-positive id
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // wrong type for a field
	ValidationRequired      = "VALIDATION_REQUIRED"       // missing field

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"

	// ==================== Catalog (CATALOG_) ====================
	CatalogUnavailable    = "CATALOG_UNAVAILABLE"     // upstream catalog unreachable
	CatalogProductMissing = "CATALOG_PRODUCT_MISSING" // product id unknown upstream

	// ==================== Cart (CART_) ====================
	CartExportFailed = "CART_EXPORT_FAILED" // spreadsheet could not be built

	// ==================== Session (SESSION_) ====================
	SessionMissing = "SESSION_MISSING" // no session resolved for the request

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalStorageError  = "INTERNAL_STORAGE_ERROR" // KV backend failure
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
)
