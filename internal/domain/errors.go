package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrPasswordMissMatch = errors.New("password mismatch")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrUnknown           = errors.New("unknown error")

	ErrOwnerConflict        = errors.New("owner conflict")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrReturnWindowExpired  = errors.New("return window expired")
	ErrReturnAlreadyExists  = errors.New("return request already exists")
	ErrInvalidReturnStatus  = errors.New("invalid return status")
	ErrInvalidDeliveryState = errors.New("invalid delivery status")
)

// InsufficientStockError возвращается когда запрошенное количество превышает остаток на складе.
// Всегда называет конкретный вариант товара, на котором операция оборвалась.
type InsufficientStockError struct {
	VariantID int64
	Requested int32
	Available int32
}

func NewInsufficientStockError(variantID int64, requested, available int32) error {
	return &InsufficientStockError{
		VariantID: variantID,
		Requested: requested,
		Available: available,
	}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for variant %d: requested %d, available %d",
		e.VariantID,
		e.Requested,
		e.Available,
	)
}
