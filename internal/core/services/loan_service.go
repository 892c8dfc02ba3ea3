package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/adapters/persistence/repositories"
	"casa-empenos/internal/core/domain"
	"casa-empenos/internal/pkg/metrics"

	"go.uber.org/zap"
)

// DefaultHistoryLimit caps the admin renewal and payment history views
const DefaultHistoryLimit = 200

// LoanService is the loan lifecycle engine
type LoanService struct {
	store     repositories.Store
	valuation *ValuationService
	clock     Clock
	policy    domain.PaymentPolicy
	termDays  int
	logger    *zap.Logger
}

// LoanServiceConfig holds the engine settings read from configuration
type LoanServiceConfig struct {
	PaymentPolicy domain.PaymentPolicy
	TermDays      int
}

// NewLoanService creates a new loan service
func NewLoanService(
	store repositories.Store,
	valuation *ValuationService,
	clock Clock,
	cfg LoanServiceConfig,
	logger *zap.Logger,
) *LoanService {
	if !cfg.PaymentPolicy.Valid() {
		cfg.PaymentPolicy = domain.PaymentKeepHistory
	}
	if cfg.TermDays <= 0 {
		cfg.TermDays = domain.DefaultTermDays
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoanService{
		store:     store,
		valuation: valuation,
		clock:     clock,
		policy:    cfg.PaymentPolicy,
		termDays:  cfg.TermDays,
		logger:    logger.Named("loans"),
	}
}

// Policy returns the configured payment policy
func (s *LoanService) Policy() domain.PaymentPolicy {
	return s.policy
}

// QuoteInput represents appraisal input
type QuoteInput struct {
	ItemType       string  `json:"item_type" validate:"required,max=120"`
	Description    string  `json:"description" validate:"required,max=500"`
	ReferenceValue float64 `json:"reference_value" validate:"required,gt=0,lte=1000000000000"`
	ConditionRatio float64 `json:"condition_ratio" validate:"gte=0,lte=100"`
}

// Quote represents an offer that was not persisted
type Quote struct {
	ItemType       string  `json:"item_type"`
	Description    string  `json:"description"`
	ReferenceValue float64 `json:"reference_value"`
	ConditionRatio float64 `json:"condition_ratio"`
	Estimate       int64   `json:"estimate"`
}

// PaymentResult is the outcome of MarkPaid
type PaymentResult struct {
	Loan            *models.LoanResponse `json:"loan"`
	Payment         *models.PaymentLog   `json:"payment"`
	RenewalReversed bool                 `json:"renewal_reversed"`
}

// NormalizeCondition accepts a ratio in [0,1] or a percentage in (1,100]
func NormalizeCondition(condition float64) float64 {
	if condition > 1 && condition <= 100 {
		return condition / 100
	}
	return condition
}

func (in *QuoteInput) validate() error {
	if strings.TrimSpace(in.ItemType) == "" {
		return domain.Invalid("item type is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return domain.Invalid("description is required")
	}
	return ValidateAppraisal(in.ReferenceValue, in.ConditionRatio)
}

// Quote estimates an offer without persisting anything
func (s *LoanService) Quote(ctx context.Context, actor domain.Actor, input *QuoteInput) (*Quote, error) {
	if err := domain.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	estimate, err := s.valuation.Estimate(input.ReferenceValue, input.ConditionRatio)
	if err != nil {
		return nil, err
	}

	return &Quote{
		ItemType:       input.ItemType,
		Description:    input.Description,
		ReferenceValue: input.ReferenceValue,
		ConditionRatio: input.ConditionRatio,
		Estimate:       estimate,
	}, nil
}

// Create creates a loan for the acting customer from an accepted quote
func (s *LoanService) Create(ctx context.Context, actor domain.Actor, input *QuoteInput) (loan *models.Loan, err error) {
	defer func() { s.record("create", err) }()

	if err := domain.RequireCustomer(actor); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	estimate, err := s.valuation.Estimate(input.ReferenceValue, input.ConditionRatio)
	if err != nil {
		return nil, err
	}

	err = s.store.Execute(ctx, func(repos repositories.Repositories) error {
		customer, err := repos.Customers().GetByID(ctx, actor.CustomerID())
		if err != nil {
			return err
		}

		loan = &models.Loan{
			CustomerID:     customer.ID,
			ItemType:       strings.TrimSpace(input.ItemType),
			Description:    strings.TrimSpace(input.Description),
			ReferenceValue: input.ReferenceValue,
			ConditionRatio: input.ConditionRatio,
			InitialValue:   estimate,
			CurrentValue:   estimate,
			CreatedAt:      s.clock.Now(),
			TermDays:       s.termDays,
			RenewalCount:   0,
			Status:         domain.LoanStatusActive,
		}
		if err := repos.Loans().Create(ctx, loan); err != nil {
			return err
		}
		loan.Customer = customer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan created",
		zap.Uint("loan_id", loan.ID),
		zap.String("actor", actor.AuditID()),
		zap.Int64("value", loan.CurrentValue),
	)
	return loan, nil
}

// Renew capitalizes one renewal into the loan and restarts its term
func (s *LoanService) Renew(ctx context.Context, actor domain.Actor, loanID uint) (loan *models.Loan, err error) {
	defer func() { s.record("renew", err) }()

	if err := domain.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.store.Execute(ctx, func(repos repositories.Repositories) error {
		var err error
		loan, err = repos.Loans().GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if err := domain.RequireOwnerOrAdmin(actor, loan.OwnerNationalID()); err != nil {
			return err
		}
		if err := ensureUnpaid(ctx, repos, loan); err != nil {
			return err
		}

		old := loan.CurrentValue
		renewed, err := domain.RenewedValue(old)
		if err != nil {
			return err
		}
		if loan.InitialValue == 0 {
			loan.InitialValue = old
		}
		loan.CurrentValue = renewed
		loan.CreatedAt = now
		loan.RenewalCount++
		loan.TermDays = s.termDays

		if err := repos.Loans().Update(ctx, loan); err != nil {
			return err
		}
		return repos.Renewals().Create(ctx, &models.RenewalLog{
			LoanID:    loan.ID,
			ActorID:   actor.AuditID(),
			ByAdmin:   actor.IsAdmin(),
			CreatedAt: now,
			OldValue:  old,
			NewValue:  renewed,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan renewed",
		zap.Uint("loan_id", loan.ID),
		zap.String("actor", actor.AuditID()),
		zap.Int("renewal_count", loan.RenewalCount),
		zap.Int64("value", loan.CurrentValue),
	)
	return loan, nil
}

// Reject deletes a loan that was never renewed nor paid
func (s *LoanService) Reject(ctx context.Context, actor domain.Actor, loanID uint) (err error) {
	defer func() { s.record("reject", err) }()

	if err := domain.RequireAdmin(actor); err != nil {
		return err
	}

	err = s.store.Execute(ctx, func(repos repositories.Repositories) error {
		loan, err := repos.Loans().GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if err := ensureUnpaid(ctx, repos, loan); err != nil {
			return err
		}
		if loan.RenewalCount > 0 {
			return domain.ErrLoanRenewed
		}
		return repos.Loans().Delete(ctx, loan.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("loan rejected", zap.Uint("loan_id", loanID), zap.String("actor", actor.AuditID()))
	return nil
}

// MarkPaid records the single payment of a loan under the configured policy
func (s *LoanService) MarkPaid(ctx context.Context, actor domain.Actor, loanID uint) (result *PaymentResult, err error) {
	defer func() { s.record("pay", err) }()

	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.store.Execute(ctx, func(repos repositories.Repositories) error {
		loan, err := repos.Loans().GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if err := ensureUnpaid(ctx, repos, loan); err != nil {
			return err
		}

		reversed := false
		if s.policy == domain.PaymentReverseLastRenewal {
			reversed, err = reverseLastRenewal(ctx, repos, loan)
			if err != nil {
				return err
			}
		}

		interest := domain.AccrueInterest(loan.InitialValue, loan.RenewalCount, loan.CreatedAt, now)
		payment := &models.PaymentLog{
			LoanID:    loan.ID,
			ActorID:   actor.AuditID(),
			ByAdmin:   true,
			CreatedAt: now,
			Amount:    loan.CurrentValue,
			Interest:  interest,
		}
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}

		paidAt := now
		loan.Status = domain.LoanStatusPaid
		loan.AccruedInterest = interest
		loan.PaidAt = &paidAt
		if err := repos.Loans().Update(ctx, loan); err != nil {
			return err
		}

		result = &PaymentResult{
			Loan:            loan.ToResponse(now),
			Payment:         payment,
			RenewalReversed: reversed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan paid",
		zap.Uint("loan_id", loanID),
		zap.String("actor", actor.AuditID()),
		zap.String("policy", string(s.policy)),
		zap.Int64("amount", result.Payment.Amount),
		zap.Float64("interest", result.Payment.Interest),
	)
	return result, nil
}

// reverseLastRenewal restores the value before the most recent renewal
func reverseLastRenewal(ctx context.Context, repos repositories.Repositories, loan *models.Loan) (bool, error) {
	last, err := repos.Renewals().LatestByLoan(ctx, loan.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	loan.CurrentValue = last.OldValue
	loan.RenewalCount--
	if loan.RenewalCount < 0 {
		loan.RenewalCount = 0
	}
	return true, nil
}

// ensureUnpaid fails with ErrAlreadyPaid once a payment exists
func ensureUnpaid(ctx context.Context, repos repositories.Repositories, loan *models.Loan) error {
	if loan.IsPaid() {
		return domain.ErrAlreadyPaid
	}
	paid, err := repos.Payments().ExistsByLoan(ctx, loan.ID)
	if err != nil {
		return err
	}
	if paid {
		return domain.ErrAlreadyPaid
	}
	return nil
}

// Get returns one loan visible to the actor
func (s *LoanService) Get(ctx context.Context, actor domain.Actor, loanID uint) (*models.LoanResponse, error) {
	if err := domain.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	loan, err := s.store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, s.logStorage(err, "get loan")
	}
	if err := domain.RequireOwnerOrAdmin(actor, loan.OwnerNationalID()); err != nil {
		return nil, err
	}
	return loan.ToResponse(s.clock.Now()), nil
}

// ListMine lists the acting customer's loans
func (s *LoanService) ListMine(ctx context.Context, actor domain.Actor) ([]*models.LoanResponse, error) {
	if err := domain.RequireCustomer(actor); err != nil {
		return nil, err
	}

	loans, err := s.store.Loans().ListByCustomer(ctx, actor.CustomerID())
	if err != nil {
		return nil, s.logStorage(err, "list customer loans")
	}
	return toResponses(loans, s.clock.Now()), nil
}

// ListAll lists every loan, newest first
func (s *LoanService) ListAll(ctx context.Context, actor domain.Actor, offset, limit int) ([]*models.LoanResponse, int64, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, 0, err
	}

	loans, total, err := s.store.Loans().List(ctx, offset, limit)
	if err != nil {
		return nil, 0, s.logStorage(err, "list loans")
	}
	return toResponses(loans, s.clock.Now()), total, nil
}

// RenewalHistory lists renewals, newest first
func (s *LoanService) RenewalHistory(ctx context.Context, actor domain.Actor, limit int) ([]*models.RenewalLog, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	entries, err := s.store.Renewals().ListRecent(ctx, limit)
	if err != nil {
		return nil, s.logStorage(err, "list renewals")
	}
	return entries, nil
}

// PaymentHistory lists payments, newest first
func (s *LoanService) PaymentHistory(ctx context.Context, actor domain.Actor, limit int) ([]*models.PaymentLog, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	entries, err := s.store.Payments().ListRecent(ctx, limit)
	if err != nil {
		return nil, s.logStorage(err, "list payments")
	}
	return entries, nil
}

// ExpiringLoans lists active loans with at most withinDays left in their term
func (s *LoanService) ExpiringLoans(ctx context.Context, withinDays int) ([]*models.LoanResponse, error) {
	loans, err := s.store.Loans().ListByStatus(ctx, domain.LoanStatusActive)
	if err != nil {
		return nil, s.logStorage(err, "list active loans")
	}

	now := s.clock.Now()
	var expiring []*models.LoanResponse
	for _, loan := range loans {
		resp := loan.ToResponse(now)
		if resp.DaysLeft <= withinDays {
			expiring = append(expiring, resp)
		}
	}
	return expiring, nil
}

func toResponses(loans []*models.Loan, now time.Time) []*models.LoanResponse {
	out := make([]*models.LoanResponse, 0, len(loans))
	for _, loan := range loans {
		out = append(out, loan.ToResponse(now))
	}
	return out
}

// record counts the operation and logs storage failures
func (s *LoanService) record(operation string, err error) {
	metrics.RecordLoanOperation(operation, outcome(err))
	s.logStorage(err, operation)
}

func (s *LoanService) logStorage(err error, operation string) error {
	if domain.KindOf(err) == domain.KindStorage {
		s.logger.Error("storage failure", zap.String("operation", operation), zap.Error(err))
	}
	return err
}

// outcome is the metrics label for err
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := domain.KindOf(err); kind != "" {
		return strings.ToLower(string(kind))
	}
	return "error"
}
