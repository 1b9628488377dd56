package domain

import "errors"

var (
	ErrValidation         = errors.New("invalid input")
	ErrNotFound           = errors.New("inventory record not found")
	ErrDuplicateInventory = errors.New("inventory already exists for product and warehouse")
	ErrInsufficientStock  = errors.New("insufficient stock")
	// ErrStockConflict means another writer committed between our read and
	// write. The caller may retry the whole read-mutate-write cycle; the core
	// never retries on its own.
	ErrStockConflict = errors.New("stock version conflict")
	ErrBusinessRule  = errors.New("business rule violation")
)
