package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

// loanServiceFixtures holds all test dependencies for loan service tests.
type loanServiceFixtures struct {
	service  *LoanService
	store    *memStore
	clock    *testClock
	customer domain.Actor
	admin    domain.Actor
}

func createTestLoanService(t *testing.T, policy domain.PaymentPolicy) loanServiceFixtures {
	t.Helper()

	store := newMemStore()
	clock := &testClock{now: testNow}
	// A failing model forces the deterministic fallback formula
	valuation := NewValuationService(stubEstimator{err: errors.New("model unavailable")}, DefaultValuationMinRatio, DefaultValuationMaxRatio, zap.NewNop())
	service := NewLoanService(store, valuation, clock, LoanServiceConfig{PaymentPolicy: policy, TermDays: 30}, zap.NewNop())

	c := store.addCustomer("Ana Pérez", "12345678")

	return loanServiceFixtures{
		service:  service,
		store:    store,
		clock:    clock,
		customer: domain.CustomerActor(c.ID, c.NationalID),
		admin:    domain.AdminActor("admin"),
	}
}

func watchInput() *QuoteInput {
	return &QuoteInput{
		ItemType:       "reloj",
		Description:    "reloj de oro",
		ReferenceValue: 100000,
		ConditionRatio: 0.8,
	}
}

func (fx loanServiceFixtures) createLoan(t *testing.T) *models.Loan {
	t.Helper()
	loan, err := fx.service.Create(context.Background(), fx.customer, watchInput())
	require.NoError(t, err)
	return loan
}

func TestLoanService_Create(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)

	loan := fx.createLoan(t)

	assert.NotZero(t, loan.ID)
	assert.Equal(t, int64(74000), loan.InitialValue)
	assert.Equal(t, int64(74000), loan.CurrentValue)
	assert.Equal(t, 0, loan.RenewalCount)
	assert.Equal(t, 30, loan.TermDays)
	assert.Equal(t, domain.LoanStatusActive, loan.Status)
	assert.Equal(t, testNow, loan.CreatedAt)
	assert.Equal(t, fx.customer.CustomerID(), loan.CustomerID)

	stored, ok := fx.store.loan(loan.ID)
	require.True(t, ok)
	assert.Equal(t, int64(74000), stored.CurrentValue)
}

func TestLoanService_Create_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *QuoteInput)
	}{
		{name: "zero reference value", mutate: func(in *QuoteInput) { in.ReferenceValue = 0 }},
		{name: "negative reference value", mutate: func(in *QuoteInput) { in.ReferenceValue = -10 }},
		{name: "reference value above limit", mutate: func(in *QuoteInput) { in.ReferenceValue = 1.5e15 }},
		{name: "condition above one", mutate: func(in *QuoteInput) { in.ConditionRatio = 1.01 }},
		{name: "negative condition", mutate: func(in *QuoteInput) { in.ConditionRatio = -0.1 }},
		{name: "empty type", mutate: func(in *QuoteInput) { in.ItemType = "  " }},
		{name: "empty description", mutate: func(in *QuoteInput) { in.Description = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestLoanService(t, domain.PaymentKeepHistory)
			in := watchInput()
			tt.mutate(in)

			loan, err := fx.service.Create(context.Background(), fx.customer, in)

			assert.Nil(t, loan)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			all, _, _ := fx.store.Loans().List(context.Background(), 0, 10)
			assert.Empty(t, all)
		})
	}
}

func TestLoanService_Create_Authorization(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	ctx := context.Background()

	_, err := fx.service.Create(ctx, domain.Anonymous(), watchInput())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = fx.service.Create(ctx, fx.admin, watchInput())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = fx.service.Create(ctx, domain.CustomerActor(999, "00000000"), watchInput())
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoanService_Quote(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	ctx := context.Background()

	quote, err := fx.service.Quote(ctx, fx.customer, watchInput())
	require.NoError(t, err)
	assert.Equal(t, int64(74000), quote.Estimate)

	all, total, _ := fx.store.Loans().List(ctx, 0, 10)
	assert.Empty(t, all)
	assert.Zero(t, total)

	_, err = fx.service.Quote(ctx, domain.Anonymous(), watchInput())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestLoanService_Renew(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)
	fx.clock.advance(10 * 24 * time.Hour)

	renewed, err := fx.service.Renew(context.Background(), fx.customer, loan.ID)

	require.NoError(t, err)
	assert.Equal(t, int64(77700), renewed.CurrentValue)
	assert.Equal(t, int64(74000), renewed.InitialValue)
	assert.Equal(t, 1, renewed.RenewalCount)
	assert.Equal(t, fx.clock.now, renewed.CreatedAt)

	entries, err := fx.store.Renewals().ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(74000), entries[0].OldValue)
	assert.Equal(t, int64(77700), entries[0].NewValue)
	assert.Equal(t, "12345678", entries[0].ActorID)
	assert.False(t, entries[0].ByAdmin)
}

func TestLoanService_Renew_CompoundsWithFloorEachStep(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)

	expected := loan.InitialValue
	for i := 1; i <= 8; i++ {
		renewed, err := fx.service.Renew(context.Background(), fx.customer, loan.ID)
		require.NoError(t, err)

		expected = expected * 105 / 100
		assert.Equal(t, expected, renewed.CurrentValue, "renewal %d", i)
		assert.Equal(t, i, renewed.RenewalCount)
	}
	assert.Equal(t, 8, fx.store.renewalCount())
}

func TestLoanService_Renew_ByAdmin(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)

	_, err := fx.service.Renew(context.Background(), fx.admin, loan.ID)
	require.NoError(t, err)

	entries, _ := fx.store.Renewals().ListRecent(context.Background(), 1)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].ByAdmin)
	assert.Equal(t, "admin", entries[0].ActorID)
}

func TestLoanService_Renew_ForbiddenLeavesStateUnchanged(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)
	other := fx.store.addCustomer("Juan", "87654321")

	_, err := fx.service.Renew(context.Background(), domain.CustomerActor(other.ID, other.NationalID), loan.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	stored, _ := fx.store.loan(loan.ID)
	assert.Equal(t, int64(74000), stored.CurrentValue)
	assert.Equal(t, 0, stored.RenewalCount)
	assert.Zero(t, fx.store.renewalCount())
}

func TestLoanService_Renew_Errors(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)
	ctx := context.Background()

	_, err := fx.service.Renew(ctx, domain.Anonymous(), loan.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = fx.service.Renew(ctx, fx.customer, 424242)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)

	_, err = fx.service.MarkPaid(ctx, fx.admin, loan.ID)
	require.NoError(t, err)

	_, err = fx.service.Renew(ctx, fx.customer, loan.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLoanService_Renew_ValueLimit(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	ctx := context.Background()
	large := fx.store.addLoan(models.Loan{CustomerID: fx.customer.CustomerID(), InitialValue: 952_380_952_380_953,
		CurrentValue: 952_380_952_380_953, TermDays: 30, Status: domain.LoanStatusActive, CreatedAt: testNow})

	renewed, err := fx.service.Renew(ctx, fx.customer, large.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxLoanValue, renewed.CurrentValue)

	_, err = fx.service.Renew(ctx, fx.customer, large.ID)
	assert.ErrorIs(t, err, domain.ErrValueLimit)
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, _ := fx.store.loan(large.ID)
	assert.Equal(t, domain.MaxLoanValue, stored.CurrentValue)
	assert.Equal(t, 1, stored.RenewalCount)
	assert.Equal(t, 1, fx.store.renewalCount())
}

func TestLoanService_Renew_LargestOfferSurvivesRenewals(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	in := watchInput()
	in.ReferenceValue = MaxReferenceValue
	loan, err := fx.service.Create(context.Background(), fx.customer, in)
	require.NoError(t, err)

	previous := loan.CurrentValue
	for i := 1; i <= 100; i++ {
		renewed, err := fx.service.Renew(context.Background(), fx.customer, loan.ID)
		require.NoError(t, err, "renewal %d", i)
		assert.Greater(t, renewed.CurrentValue, previous, "renewal %d", i)
		previous = renewed.CurrentValue
	}
}

func TestLoanService_Renew_RollsBackOnLogFailure(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)
	fx.store.fail("renewals.create")

	_, err := fx.service.Renew(context.Background(), fx.customer, loan.ID)

	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	stored, _ := fx.store.loan(loan.ID)
	assert.Equal(t, int64(74000), stored.CurrentValue)
	assert.Equal(t, 0, stored.RenewalCount)
	assert.Equal(t, testNow, stored.CreatedAt)
}

func TestLoanService_Reject(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)

	err := fx.service.Reject(context.Background(), fx.admin, loan.ID)

	require.NoError(t, err)
	_, ok := fx.store.loan(loan.ID)
	assert.False(t, ok)
}

func TestLoanService_Reject_Renewed(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)
	_, err := fx.service.Renew(context.Background(), fx.customer, loan.ID)
	require.NoError(t, err)

	err = fx.service.Reject(context.Background(), fx.admin, loan.ID)

	assert.ErrorIs(t, err, domain.ErrLoanRenewed)
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, ok := fx.store.loan(loan.ID)
	assert.True(t, ok)
}

func TestLoanService_Reject_Errors(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)
	ctx := context.Background()

	assert.ErrorIs(t, fx.service.Reject(ctx, fx.customer, loan.ID), domain.ErrForbidden)
	assert.ErrorIs(t, fx.service.Reject(ctx, domain.Anonymous(), loan.ID), domain.ErrUnauthenticated)
	assert.ErrorIs(t, fx.service.Reject(ctx, fx.admin, 424242), domain.ErrNotFound)

	_, err := fx.service.MarkPaid(ctx, fx.admin, loan.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, fx.service.Reject(ctx, fx.admin, loan.ID), domain.ErrAlreadyPaid)
}

func TestLoanService_MarkPaid_KeepHistory(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)
	_, err := fx.service.Renew(context.Background(), fx.customer, loan.ID)
	require.NoError(t, err)
	fx.clock.advance(10 * 24 * time.Hour)

	result, err := fx.service.MarkPaid(context.Background(), fx.admin, loan.ID)

	require.NoError(t, err)
	assert.False(t, result.RenewalReversed)
	assert.Equal(t, int64(77700), result.Payment.Amount)
	// 74000 × 0.05 × 1 + 74000 × 0.001 × 10
	assert.InDelta(t, 4440.0, result.Payment.Interest, 1e-6)
	assert.True(t, result.Loan.Paid)
	assert.Equal(t, domain.LoanStatusPaid, result.Loan.Status)

	stored, _ := fx.store.loan(loan.ID)
	assert.Equal(t, domain.LoanStatusPaid, stored.Status)
	assert.Equal(t, 1, stored.RenewalCount)
	assert.Equal(t, int64(77700), stored.CurrentValue)
	assert.InDelta(t, 4440.0, stored.AccruedInterest, 1e-6)
	require.NotNil(t, stored.PaidAt)
	assert.Equal(t, fx.clock.now, *stored.PaidAt)
}

func TestLoanService_MarkPaid_ReverseLastRenewal(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentReverseLastRenewal)
	loan := fx.createLoan(t)
	ctx := context.Background()
	_, err := fx.service.Renew(ctx, fx.customer, loan.ID)
	require.NoError(t, err)
	_, err = fx.service.Renew(ctx, fx.customer, loan.ID)
	require.NoError(t, err)
	fx.clock.advance(5 * 24 * time.Hour)

	result, err := fx.service.MarkPaid(ctx, fx.admin, loan.ID)

	require.NoError(t, err)
	assert.True(t, result.RenewalReversed)
	assert.Equal(t, int64(77700), result.Payment.Amount)
	// one renewal left: 74000 × 0.05 × 1 + 74000 × 0.001 × 5
	assert.InDelta(t, 4070.0, result.Payment.Interest, 1e-6)

	stored, _ := fx.store.loan(loan.ID)
	assert.Equal(t, 1, stored.RenewalCount)
	assert.Equal(t, int64(77700), stored.CurrentValue)
	assert.Equal(t, 2, fx.store.renewalCount())
}

func TestLoanService_MarkPaid_ReverseWithoutRenewals(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentReverseLastRenewal)
	loan := fx.createLoan(t)

	result, err := fx.service.MarkPaid(context.Background(), fx.admin, loan.ID)

	require.NoError(t, err)
	assert.False(t, result.RenewalReversed)
	assert.Equal(t, int64(74000), result.Payment.Amount)
	assert.Zero(t, result.Payment.Interest)
}

func TestLoanService_MarkPaid_Twice(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)

	_, err := fx.service.MarkPaid(context.Background(), fx.admin, loan.ID)
	require.NoError(t, err)

	_, err = fx.service.MarkPaid(context.Background(), fx.admin, loan.ID)

	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, fx.store.paymentCount())
}

func TestLoanService_MarkPaid_Errors(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)
	ctx := context.Background()

	_, err := fx.service.MarkPaid(ctx, fx.customer, loan.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = fx.service.MarkPaid(ctx, domain.Anonymous(), loan.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = fx.service.MarkPaid(ctx, fx.admin, 424242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoanService_MarkPaid_RollsBackOnUpdateFailure(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)
	fx.store.fail("loans.update")

	_, err := fx.service.MarkPaid(context.Background(), fx.admin, loan.ID)

	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.Zero(t, fx.store.paymentCount())
	stored, _ := fx.store.loan(loan.ID)
	assert.Equal(t, domain.LoanStatusActive, stored.Status)
}

func TestLoanService_Get(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	loan := fx.createLoan(t)
	other := fx.store.addCustomer("Juan", "87654321")
	ctx := context.Background()
	fx.clock.advance(3 * 24 * time.Hour)

	resp, err := fx.service.Get(ctx, fx.customer, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 27, resp.DaysLeft)
	assert.Equal(t, testNow.AddDate(0, 0, 30), resp.ExpiresAt)
	assert.InDelta(t, 222.0, resp.AccruedInterest, 1e-6)
	assert.Equal(t, "12345678", resp.NationalID)

	_, err = fx.service.Get(ctx, fx.admin, loan.ID)
	assert.NoError(t, err)

	_, err = fx.service.Get(ctx, domain.CustomerActor(other.ID, other.NationalID), loan.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = fx.service.Get(ctx, domain.Anonymous(), loan.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestLoanService_Lists(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	ctx := context.Background()
	first := fx.createLoan(t)
	second := fx.createLoan(t)
	other := fx.store.addCustomer("Juan", "87654321")
	otherActor := domain.CustomerActor(other.ID, other.NationalID)
	_, err := fx.service.Create(ctx, otherActor, watchInput())
	require.NoError(t, err)

	mine, err := fx.service.ListMine(ctx, fx.customer)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	_, err = fx.service.ListMine(ctx, fx.admin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	page, total, err := fx.service.ListAll(ctx, fx.admin, 0, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, int64(3), total)

	_, _, err = fx.service.ListAll(ctx, fx.customer, 0, 2)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLoanService_Histories(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	ctx := context.Background()
	a := fx.createLoan(t)
	b := fx.createLoan(t)

	_, err := fx.service.Renew(ctx, fx.customer, a.ID)
	require.NoError(t, err)
	_, err = fx.service.Renew(ctx, fx.customer, b.ID)
	require.NoError(t, err)
	_, err = fx.service.MarkPaid(ctx, fx.admin, a.ID)
	require.NoError(t, err)

	renewals, err := fx.service.RenewalHistory(ctx, fx.admin, 0)
	require.NoError(t, err)
	require.Len(t, renewals, 2)
	assert.Equal(t, b.ID, renewals[0].LoanID)

	payments, err := fx.service.PaymentHistory(ctx, fx.admin, 10)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, a.ID, payments[0].LoanID)

	_, err = fx.service.RenewalHistory(ctx, fx.customer, 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = fx.service.PaymentHistory(ctx, domain.Anonymous(), 10)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestLoanService_ExpiringLoans(t *testing.T) {
	fx := createTestLoanService(t, domain.PaymentKeepHistory)
	c := fx.customer.CustomerID()

	old := fx.store.addLoan(models.Loan{CustomerID: c, InitialValue: 1000, CurrentValue: 1000, TermDays: 30,
		Status: domain.LoanStatusActive, CreatedAt: testNow.AddDate(0, 0, -28)})
	fx.store.addLoan(models.Loan{CustomerID: c, InitialValue: 1000, CurrentValue: 1000, TermDays: 30,
		Status: domain.LoanStatusActive, CreatedAt: testNow.AddDate(0, 0, -5)})
	fx.store.addLoan(models.Loan{CustomerID: c, InitialValue: 1000, CurrentValue: 1000, TermDays: 30,
		Status: domain.LoanStatusPaid, CreatedAt: testNow.AddDate(0, 0, -29)})

	expiring, err := fx.service.ExpiringLoans(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, old.ID, expiring[0].ID)
	assert.Equal(t, 2, expiring[0].DaysLeft)
}

func TestNewLoanService_Defaults(t *testing.T) {
	svc := NewLoanService(newMemStore(), nil, nil, LoanServiceConfig{PaymentPolicy: "bogus"}, nil)

	assert.Equal(t, domain.PaymentKeepHistory, svc.Policy())
	assert.Equal(t, domain.DefaultTermDays, svc.termDays)
}

func TestNormalizeCondition(t *testing.T) {
	assert.Equal(t, 0.8, NormalizeCondition(0.8))
	assert.Equal(t, 0.8, NormalizeCondition(80))
	assert.Equal(t, 1.0, NormalizeCondition(1))
	assert.Equal(t, 150.0, NormalizeCondition(150))
}
