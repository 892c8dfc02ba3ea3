package domain

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies domain errors so callers can react to a family of
// failures (for example every Conflict) without knowing each sentinel.
type Kind string

const (
	KindInvalidInput    Kind = "INVALID_INPUT"
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindConflict        Kind = "CONFLICT"
	KindStorage         Kind = "STORAGE_FAILURE"
)

// Error is a typed domain error.
//
// A sentinel without Code matches every error of the same Kind, so
// errors.Is(ErrSlotTaken, ErrConflict) is true.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements kind-level matching for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// Error kinds
var (
	ErrInvalidInput    = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrConflict        = &Error{Kind: KindConflict, Message: "conflict"}
	ErrStorageFailure  = &Error{Kind: KindStorage, Message: "storage failure"}
)

// Loan errors
var (
	ErrLoanNotFound = &Error{Kind: KindNotFound, Code: "loan_not_found", Message: "loan not found"}
	ErrAlreadyPaid  = &Error{Kind: KindConflict, Code: "already_paid", Message: "loan is already paid"}
	ErrLoanRenewed  = &Error{Kind: KindConflict, Code: "loan_renewed", Message: "a renewed loan cannot be rejected"}
	ErrValueLimit   = &Error{Kind: KindConflict, Code: "value_limit", Message: "renewal would exceed the maximum loan value"}
)

// Customer and admin errors
var (
	ErrCustomerNotFound   = &Error{Kind: KindNotFound, Code: "customer_not_found", Message: "customer not found"}
	ErrDuplicateCustomer  = &Error{Kind: KindConflict, Code: "duplicate_customer", Message: "a customer with that national id already exists"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Code: "invalid_credentials", Message: "invalid credentials"}
	ErrTokenInvalid       = &Error{Kind: KindUnauthenticated, Code: "token_invalid", Message: "token invalid"}
	ErrTokenExpired       = &Error{Kind: KindUnauthenticated, Code: "token_expired", Message: "token expired"}
)

// Appointment errors
var (
	ErrAppointmentNotFound = &Error{Kind: KindNotFound, Code: "appointment_not_found", Message: "appointment not found"}
	ErrInvalidDate         = &Error{Kind: KindInvalidInput, Code: "invalid_date", Message: "appointment date must be after today (YYYY-MM-DD)"}
	ErrInvalidTime         = &Error{Kind: KindInvalidInput, Code: "invalid_time", Message: "appointment time must be HH:MM (24h)"}
	ErrInvalidAction       = &Error{Kind: KindInvalidInput, Code: "invalid_action", Message: "invalid appointment action"}
	ErrSlotTaken           = &Error{Kind: KindConflict, Code: "slot_taken", Message: "appointment slot already taken"}
)

// Invalid returns an InvalidInput error carrying a specific message.
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Code: "invalid_input", Message: fmt.Sprintf(format, args...)}
}

// Storage wraps an unexpected persistence error as StorageFailure,
// keeping a stack trace of where it was translated.
func Storage(err error, op string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    KindStorage,
		Code:    "storage_failure",
		Message: "storage failure during " + op,
		Err:     pkgerrors.WithStack(err),
	}
}

// KindOf returns the kind of err, or "" when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if pkgerrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
