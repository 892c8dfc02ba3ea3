package services

import (
	"time"
)

// Clock supplies the current instant to services that stamp or compare times
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant
func (c FixedClock) Now() time.Time {
	return c.At
}

// Estimator predicts a loan offer from an item's reference value and its
// condition ratio in [0,1]
type Estimator interface {
	Estimate(referenceValue, conditionRatio float64) (int64, error)
}
