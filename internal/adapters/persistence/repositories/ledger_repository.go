package repositories

import (
	"context"
	"errors"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/core/domain"

	"gorm.io/gorm"
)

// renewalLogRepository implements RenewalLogRepository interface
type renewalLogRepository struct {
	db *gorm.DB
}

// NewRenewalLogRepository creates a new renewal log repository
func NewRenewalLogRepository(db *gorm.DB) RenewalLogRepository {
	return &renewalLogRepository{db: db}
}

// Create appends a renewal entry
func (r *renewalLogRepository) Create(ctx context.Context, entry *models.RenewalLog) error {
	return domain.Storage(r.db.WithContext(ctx).Create(entry).Error, "renewal log create")
}

// LatestByLoan gets the most recent renewal of a loan
func (r *renewalLogRepository) LatestByLoan(ctx context.Context, loanID uint) (*models.RenewalLog, error) {
	var entry models.RenewalLog
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at DESC").
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		return nil, notFoundOr(err, domain.ErrNotFound, "renewal log latest")
	}
	return &entry, nil
}

// ListRecent lists renewals, newest first
func (r *renewalLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.RenewalLog, error) {
	var entries []*models.RenewalLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, domain.Storage(err, "renewal log list")
}

// Count counts renewal entries
func (r *renewalLogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RenewalLog{}).Count(&count).Error
	return count, domain.Storage(err, "renewal log count")
}

// paymentLogRepository implements PaymentLogRepository interface
type paymentLogRepository struct {
	db *gorm.DB
}

// NewPaymentLogRepository creates a new payment log repository
func NewPaymentLogRepository(db *gorm.DB) PaymentLogRepository {
	return &paymentLogRepository{db: db}
}

// Create appends a payment entry
func (r *paymentLogRepository) Create(ctx context.Context, entry *models.PaymentLog) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrAlreadyPaid
	}
	return domain.Storage(err, "payment log create")
}

// ExistsByLoan checks if a loan has any payment entry
func (r *paymentLogRepository) ExistsByLoan(ctx context.Context, loanID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentLog{}).Where("loan_id = ?", loanID).Count(&count).Error
	return count > 0, domain.Storage(err, "payment log exists")
}

// ListRecent lists payments, newest first
func (r *paymentLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.PaymentLog, error) {
	var entries []*models.PaymentLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, domain.Storage(err, "payment log list")
}

// Totals sums collected amounts and interest
func (r *paymentLogRepository) Totals(ctx context.Context) (int64, float64, error) {
	var totals struct {
		Amount   int64
		Interest float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.PaymentLog{}).
		Select("COALESCE(SUM(amount), 0) AS amount, COALESCE(SUM(interest), 0) AS interest").
		Scan(&totals).Error
	return totals.Amount, totals.Interest, domain.Storage(err, "payment log totals")
}
