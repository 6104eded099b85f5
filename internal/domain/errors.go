package domain

import "errors"

// Domain errors
var (
	// Booking errors
	ErrBookingNotFound      = errors.New("booking not found")
	ErrBookingAlreadyExists = errors.New("booking already exists")
	ErrInvalidBookingStatus = errors.New("invalid booking status")
	ErrIllegalTransition    = errors.New("illegal booking status transition")

	// Capacity errors
	ErrSoldOut            = errors.New("package is no longer available")
	ErrTotalBelowReserved = errors.New("ticket count cannot go below tickets already reserved")
	ErrTotalLockedAtZero  = errors.New("ticket count cannot be reduced while none remain")

	// Inventory errors
	ErrPackageNotFound = errors.New("package not found")

	// Validation errors
	ErrInvalidUserID    = errors.New("invalid user id")
	ErrInvalidBookingID = errors.New("invalid booking id")
	ErrInvalidPackageID = errors.New("invalid package id")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidAmount    = errors.New("amount cannot be negative")
	ErrAmountMismatch   = errors.New("amount does not match package price")
	ErrInvalidReference = errors.New("reference entity is missing an id, name or known kind")

	// Reference entity errors
	ErrReferenceNotFound = errors.New("reference entity not found")
	ErrDocumentNotFound  = errors.New("document not found")

	// Sequence errors
	ErrSequenceUnderflow = errors.New("sequence counter cannot go below zero")

	// Gateway errors
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrUnknownGatewayStatus = errors.New("unrecognized payment gateway status")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrPackageNotFound) ||
		errors.Is(err, ErrReferenceNotFound) ||
		errors.Is(err, ErrDocumentNotFound)
}

// IsCapacityError checks if the error is a recoverable capacity outcome
// surfaced to the caller (sold out, invalid total edit).
func IsCapacityError(err error) bool {
	return errors.Is(err, ErrSoldOut) ||
		errors.Is(err, ErrTotalBelowReserved) ||
		errors.Is(err, ErrTotalLockedAtZero)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidPackageID) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAmountMismatch) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrInvalidBookingStatus)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrBookingAlreadyExists) ||
		errors.Is(err, ErrIllegalTransition)
}

// IsGatewayError checks if the error came from the payment gateway and
// should be retried on the next sweep rather than inline.
func IsGatewayError(err error) bool {
	return errors.Is(err, ErrGatewayUnavailable) ||
		errors.Is(err, ErrUnknownGatewayStatus)
}
