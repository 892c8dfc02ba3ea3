package domain

import "time"

const (
	// DefaultTermDays is the length of a loan's accrual window
	DefaultTermDays = 30

	// RenewalRate is the interest capitalized into current_value on each renewal
	RenewalRate = 0.05
	// renewalRateBasisPoints is RenewalRate in basis points, used for exact
	// integer flooring of renewed values.
	renewalRateBasisPoints = 500

	// DailyRate is the simple daily interest applied in AccrueInterest
	DailyRate = 0.001
)

// MaxLoanValue caps current_value. RenewedValue never produces more.
const MaxLoanValue int64 = 1_000_000_000_000_000

// RenewedValue returns floor(old × (1 + RenewalRate)). With a 5% rate that is
// old + old/20, which keeps the floor exact and cannot overflow below
// MaxLoanValue. A renewal past MaxLoanValue fails with ErrValueLimit.
func RenewedValue(old int64) (int64, error) {
	if old <= 0 {
		return 0, nil
	}
	if old > MaxLoanValue {
		return 0, ErrValueLimit
	}
	renewed := old + old*renewalRateBasisPoints/10000
	if renewed > MaxLoanValue {
		return 0, ErrValueLimit
	}
	return renewed, nil
}

// AccrueInterest returns the interest owed on a loan.
//
// Both terms use the frozen initial value rather than compounding on the
// current value. This is a deliberate non-compounding approximation and must
// stay as is so that stored payment records remain comparable.
func AccrueInterest(initialValue int64, renewalCount int, createdAt, now time.Time) float64 {
	initial := float64(initialValue)
	renewalInterest := initial * RenewalRate * float64(renewalCount)
	dailyInterest := initial * DailyRate * float64(DaysElapsed(createdAt, now))
	return renewalInterest + dailyInterest
}

// DaysElapsed returns whole days between createdAt and now, never negative.
// A zero createdAt is treated as now.
func DaysElapsed(createdAt, now time.Time) int {
	if createdAt.IsZero() {
		return 0
	}
	d := now.Sub(createdAt)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// DaysRemaining computes days left in the term and the expiry instant.
func DaysRemaining(createdAt time.Time, termDays int, now time.Time) LoanTimeline {
	if termDays <= 0 {
		termDays = DefaultTermDays
	}
	if createdAt.IsZero() {
		createdAt = now
	}
	left := termDays - DaysElapsed(createdAt, now)
	if left < 0 {
		left = 0
	}
	return LoanTimeline{
		DaysLeft:  left,
		ExpiresAt: createdAt.AddDate(0, 0, termDays),
	}
}
