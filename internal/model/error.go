package model

import (
	"fmt"
	"strings"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeInvalidID            = "INVALID_ID"
	ErrCodeEmptyCart            = "EMPTY_CART"
	ErrCodeMissingCustomerName  = "MISSING_CUSTOMER_NAME"
	ErrCodeMissingCustomerEmail = "MISSING_CUSTOMER_EMAIL"
	ErrCodeInvalidCustomerEmail = "INVALID_CUSTOMER_EMAIL"
	ErrCodeInvalidQuantity      = "INVALID_QUANTITY"
	ErrCodeInvalidStatus        = "INVALID_STATUS"
	ErrCodeInvalidProduct       = "INVALID_PRODUCT"
	ErrCodeProductUnavailable   = "PRODUCT_UNAVAILABLE"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodePaymentNotCompleted  = "PAYMENT_NOT_COMPLETED"
	ErrCodePaymentGateway       = "PAYMENT_GATEWAY_ERROR"
	ErrCodeDuplicateOrderNumber = "DUPLICATE_ORDER_NUMBER"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure. Args carry the values needed to
// render a localized message for the code.
type DomainError struct {
	Code    string
	Message string
	Args    []any
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports a match on Code, so a parameterised error matches its sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, args ...any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Args:    args,
	}
}

// Common domain errors
var (
	ErrEmptyCart            = NewDomainError(ErrCodeEmptyCart, "Cart must contain at least one item")
	ErrMissingCustomerName  = NewDomainError(ErrCodeMissingCustomerName, "Customer name is required")
	ErrMissingCustomerEmail = NewDomainError(ErrCodeMissingCustomerEmail, "Customer email is required")
	ErrInvalidCustomerEmail = NewDomainError(ErrCodeInvalidCustomerEmail, "Customer email is not valid")
	ErrInvalidQuantity      = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be between 1 and 99")
	ErrInvalidStatus        = NewDomainError(ErrCodeInvalidStatus, "Unknown order status")
	ErrInvalidProduct       = NewDomainError(ErrCodeInvalidProduct, "Product needs a name and a non-negative price")
	ErrProductUnavailable   = NewDomainError(ErrCodeProductUnavailable, "Product is not available")
	ErrProductNotFound      = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound        = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidTransition    = NewDomainError(ErrCodeInvalidTransition, "Order status change is not allowed")
	ErrPaymentNotCompleted  = NewDomainError(ErrCodePaymentNotCompleted, "Payment has not been completed")
	ErrPaymentGateway       = NewDomainError(ErrCodePaymentGateway, "Payment gateway request failed")
	ErrDuplicateOrderNumber = NewDomainError(ErrCodeDuplicateOrderNumber, "Order number already exists")
)

// ProductUnavailable names the product that blocked a checkout.
func ProductUnavailable(product string) *DomainError {
	return NewDomainError(ErrCodeProductUnavailable,
		fmt.Sprintf("Product %q is not available", product), product)
}

// InvalidTransition names the current and the requested status.
func InvalidTransition(from, to OrderStatus) *DomainError {
	return NewDomainError(ErrCodeInvalidTransition,
		fmt.Sprintf("Cannot move order from %s to %s", from, to), string(from), string(to))
}

// InvalidStatus names the rejected status value.
func InvalidStatus(value string) *DomainError {
	return NewDomainError(ErrCodeInvalidStatus,
		fmt.Sprintf("Unknown order status %q", strings.TrimSpace(value)), value)
}
