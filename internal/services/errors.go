package services

import "errors"

// Checkout error taxonomy. Every error aborts the whole unit of work; none
// are partially applied.
var (
	// ErrValidation covers malformed input caught before touching the store.
	ErrValidation = errors.New("validation failed")

	// ErrStock covers a missing, inactive, or short-stocked product. The
	// wrapped message identifies the offending product.
	ErrStock = errors.New("stock error")

	// ErrInsufficientCash is returned when the cash tendered is less than
	// the total due.
	ErrInsufficientCash = errors.New("insufficient cash received")

	// ErrConcurrency is a transient unit-of-work conflict. The whole
	// checkout call is safe to retry.
	ErrConcurrency = errors.New("concurrent checkout conflict")

	// ErrPersistence means the store failed in a way the operator cannot
	// recover from.
	ErrPersistence = errors.New("persistence error")
)

var (
	ErrSaleNotFound       = errors.New("sale not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrDuplicateSKU       = errors.New("product SKU already exists")
	ErrDuplicateName      = errors.New("name already exists")
	ErrRecordInUse        = errors.New("record is still referenced")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
