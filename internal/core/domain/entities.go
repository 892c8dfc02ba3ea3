package domain

import "time"

// Role represents the role carried in a session token
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// LoanStatus is the lifecycle state of a loan. Rejected loans are deleted,
// so there is no rejected status.
type LoanStatus string

const (
	LoanStatusActive LoanStatus = "ACTIVE"
	LoanStatusPaid   LoanStatus = "PAID"
)

// AppointmentStatus is the state of an evaluation appointment
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "PENDING"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentRejected  AppointmentStatus = "REJECTED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// SlotHoldingStatuses are the appointment states that occupy a slot.
var SlotHoldingStatuses = []AppointmentStatus{AppointmentPending, AppointmentConfirmed}

// AppointmentAction is an admin decision on a pending appointment
type AppointmentAction string

const (
	ActionConfirm AppointmentAction = "confirm"
	ActionReject  AppointmentAction = "reject"
)

// Target returns the status an action moves an appointment to.
func (a AppointmentAction) Target() (AppointmentStatus, bool) {
	switch a {
	case ActionConfirm:
		return AppointmentConfirmed, true
	case ActionReject:
		return AppointmentRejected, true
	default:
		return "", false
	}
}

// PaymentPolicy decides what MarkPaid does with a loan's renewal history.
type PaymentPolicy string

const (
	// PaymentKeepHistory leaves renewals untouched.
	PaymentKeepHistory PaymentPolicy = "keep_history"
	// PaymentReverseLastRenewal undoes the most recent renewal before
	// recording the payment. Kept for compatibility with older ledgers.
	PaymentReverseLastRenewal PaymentPolicy = "reverse_last_renewal"
)

// Valid reports whether p is a known policy.
func (p PaymentPolicy) Valid() bool {
	return p == PaymentKeepHistory || p == PaymentReverseLastRenewal
}

// LoanTimeline is the computed, read-time view of a loan's term.
type LoanTimeline struct {
	DaysLeft  int
	ExpiresAt time.Time
}
