package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientPayment = errors.New("amount tendered is less than the amount due")
	ErrInvalidPrice        = errors.New("price cannot be negative")
	ErrOverReturn          = errors.New("return quantity exceeds quantity sold")
	ErrNothingToReturn     = errors.New("no items selected for return")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrForbidden           = errors.New("forbidden")
	ErrValidation          = errors.New("validation failed")
)

// InsufficientStockError names the product that could not be fulfilled.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: only %d available", e.ProductName, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type OverReturnError struct {
	ItemID     int64
	ItemName   string
	Requested  int
	Returnable int
}

func (e *OverReturnError) Error() string {
	return fmt.Sprintf("cannot return %d of %s: only %d returnable", e.Requested, e.ItemName, e.Returnable)
}

func (e *OverReturnError) Is(target error) bool {
	return target == ErrOverReturn
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
