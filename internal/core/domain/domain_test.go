package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func renewed(t *testing.T, old int64) int64 {
	t.Helper()
	v, err := RenewedValue(old)
	assert.NoError(t, err)
	return v
}

func TestRenewedValue(t *testing.T) {
	assert.Equal(t, int64(77700), renewed(t, 74000))
	assert.Equal(t, int64(105), renewed(t, 100))
	assert.Equal(t, int64(1), renewed(t, 1))
	assert.Equal(t, int64(21), renewed(t, 20))
	assert.Equal(t, int64(0), renewed(t, 0))
}

func TestRenewedValue_CompoundsWithStepwiseFloor(t *testing.T) {
	value := int64(74000)
	expected := []int64{77700, 81585, 85664, 89947, 94444}
	for i, want := range expected {
		value = renewed(t, value)
		assert.Equal(t, want, value, "renewal %d", i+1)
	}
}

func TestRenewedValue_LargeValues(t *testing.T) {
	// old*10500 would overflow int64 here
	assert.Equal(t, int64(1_050_000_000_000_000)/2, renewed(t, 500_000_000_000_000))
	assert.Equal(t, int64(945_000_000_000_000), renewed(t, 900_000_000_000_000))

	// largest value whose renewal still fits: 952380952380953 + 47619047619047
	limit := int64(952_380_952_380_953)
	assert.Equal(t, MaxLoanValue, renewed(t, limit))

	for _, old := range []int64{limit + 1, MaxLoanValue, MaxLoanValue + 1, 1<<63 - 1} {
		v, err := RenewedValue(old)
		assert.Zero(t, v, "old %d", old)
		assert.ErrorIs(t, err, ErrValueLimit, "old %d", old)
		assert.ErrorIs(t, err, ErrConflict, "old %d", old)
	}
}

func TestRenewedValue_NeverDecreases(t *testing.T) {
	value := int64(800_000_000_000)
	for i := 0; i < 500; i++ {
		next, err := RenewedValue(value)
		if err != nil {
			assert.ErrorIs(t, err, ErrValueLimit)
			return
		}
		assert.GreaterOrEqual(t, next, value, "renewal %d", i+1)
		assert.LessOrEqual(t, next, MaxLoanValue)
		value = next
	}
	t.Fatal("expected the value limit to be reached")
}

func TestAccrueInterest(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	got := AccrueInterest(100000, 0, created, created)
	assert.InDelta(t, 0, got, 1e-9)

	// 2 renewals + 10 days
	got = AccrueInterest(100000, 2, created, created.Add(10*24*time.Hour+time.Hour))
	assert.InDelta(t, 100000*0.05*2+100000*0.001*10, got, 1e-6)
}

func TestAccrueInterest_Monotonic(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	prev := -1.0
	for days := 0; days <= 60; days++ {
		got := AccrueInterest(50000, 1, created, created.AddDate(0, 0, days))
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}

	prev = -1.0
	for renewals := 0; renewals <= 10; renewals++ {
		got := AccrueInterest(50000, renewals, created, created.AddDate(0, 0, 5))
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestDaysRemaining(t *testing.T) {
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	tl := DaysRemaining(created, 30, created.Add(36*time.Hour))
	assert.Equal(t, 29, tl.DaysLeft)
	assert.Equal(t, created.AddDate(0, 0, 30), tl.ExpiresAt)

	tl = DaysRemaining(created, 30, created.AddDate(0, 0, 45))
	assert.Equal(t, 0, tl.DaysLeft)
}

func TestDaysRemaining_ZeroCreatedAtIsNow(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tl := DaysRemaining(time.Time{}, 30, now)
	assert.Equal(t, 30, tl.DaysLeft)
	assert.Equal(t, now.AddDate(0, 0, 30), tl.ExpiresAt)
}

func TestActorPolicy(t *testing.T) {
	owner := CustomerActor(1, "12345678")
	other := CustomerActor(2, "87654321")
	admin := AdminActor("admin")
	anon := Anonymous()

	assert.NoError(t, RequireOwnerOrAdmin(owner, "12345678"))
	assert.NoError(t, RequireOwnerOrAdmin(admin, "12345678"))
	assert.ErrorIs(t, RequireOwnerOrAdmin(other, "12345678"), ErrForbidden)
	assert.ErrorIs(t, RequireOwnerOrAdmin(anon, "12345678"), ErrUnauthenticated)

	assert.NoError(t, RequireAdmin(admin))
	assert.ErrorIs(t, RequireAdmin(owner), ErrForbidden)
	assert.ErrorIs(t, RequireAdmin(anon), ErrUnauthenticated)

	assert.NoError(t, RequireCustomer(owner))
	assert.ErrorIs(t, RequireCustomer(admin), ErrForbidden)

	assert.False(t, other.Owns(""))
	assert.Equal(t, "admin", admin.AuditID())
	assert.Equal(t, "12345678", owner.AuditID())
	assert.Equal(t, RoleCustomer, owner.Role())
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, errors.Is(ErrSlotTaken, ErrConflict))
	assert.True(t, errors.Is(ErrAlreadyPaid, ErrConflict))
	assert.True(t, errors.Is(ErrInvalidDate, ErrInvalidInput))
	assert.False(t, errors.Is(ErrSlotTaken, ErrAlreadyPaid))
	assert.False(t, errors.Is(ErrConflict, ErrSlotTaken))

	wrapped := Storage(errors.New("disk full"), "loan create")
	assert.True(t, errors.Is(wrapped, ErrStorageFailure))
	assert.Equal(t, KindStorage, KindOf(wrapped))
	assert.Nil(t, Storage(nil, "noop"))
}
