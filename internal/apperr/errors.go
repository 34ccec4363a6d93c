package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a failure so that callers across service boundaries can react to it.
type Code string

const (
	CodeNotFound             Code = "NOT_FOUND"
	CodeConflict             Code = "CONFLICT"
	CodeInsufficientStock    Code = "INSUFFICIENT_STOCK"
	CodeUnauthenticated      Code = "UNAUTHENTICATED"
	CodeForbidden            Code = "FORBIDDEN"
	CodeUpstreamUnavailable  Code = "UPSTREAM_UNAVAILABLE"
	CodeEmptyCart            Code = "EMPTY_CART"
	CodeReservationFailed    Code = "RESERVATION_FAILED"
	CodeCatalogUnavailable   Code = "CATALOG_UNAVAILABLE"
	CodeShipmentCreateFailed Code = "SHIPMENT_CREATE_FAILED"
	CodeInvalidArgument      Code = "INVALID_ARGUMENT"
	CodeInternal             Code = "INTERNAL"
)

// Error is an error carrying a Code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error around a cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// IsCode reports whether any coded error in the chain of err carries code.
func IsCode(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// CodeOf returns the outermost code in the chain of err, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the message of the outermost coded error, or err.Error().
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps a code to the status used on the wire.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInsufficientStock, CodeReservationFailed:
		return http.StatusConflict
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUpstreamUnavailable, CodeCatalogUnavailable:
		return http.StatusServiceUnavailable
	case CodeShipmentCreateFailed:
		return http.StatusBadGateway
	case CodeEmptyCart, CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
