// Package apperr defines the error taxonomy shared by the fulfillment core.
// Every domain failure carries a Kind (used for transport mapping) and a
// machine readable Code (used by clients to pick a message).
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindInvalidOperation   Kind = "invalid_operation"
	KindInsufficientStock  Kind = "insufficient_stock"
	KindProductUnavailable Kind = "product_unavailable"
	KindValidation         Kind = "validation_error"
	KindPermissionDenied   Kind = "permission_denied"
	KindConflict           Kind = "conflict"
	KindEmptyCart          Kind = "empty_cart"
	KindInternal           Kind = "internal"
)

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Stock details, set only for KindInsufficientStock and KindProductUnavailable.
	ProductID string
	Requested int
	Available int

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on Code so that sentinel values compare equal to wrapped copies
// carrying a different message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// New constructs an error whose code defaults to the kind.
func New(kind Kind, code, message string) *Error {
	if code == "" {
		code = string(kind)
	}
	if message == "" {
		message = code
	}
	return &Error{Kind: kind, Code: code, Message: message}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, "", fmt.Sprintf(format, args...))
}

func Invalid(format string, args ...any) *Error {
	return New(KindValidation, "", fmt.Sprintf(format, args...))
}

func InvalidOperation(format string, args ...any) *Error {
	return New(KindInvalidOperation, "", fmt.Sprintf(format, args...))
}

// InsufficientStock builds the stock error rendered to shoppers as
// "Insufficient stock for product X. Requested: N, Available: M".
func InsufficientStock(productID string, requested, available int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Code:      string(KindInsufficientStock),
		Message:   fmt.Sprintf("Insufficient stock for product %s. Requested: %d, Available: %d", productID, requested, available),
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}

func ProductUnavailable(productID string) *Error {
	return &Error{
		Kind:      KindProductUnavailable,
		Code:      string(KindProductUnavailable),
		Message:   fmt.Sprintf("product %s is no longer available", productID),
		ProductID: productID,
	}
}

// KindOf reports the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As is a small convenience over errors.As.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
