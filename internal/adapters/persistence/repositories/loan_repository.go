package repositories

import (
	"context"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/core/domain"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a new loan
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return domain.Storage(r.db.WithContext(ctx).Omit("Customer").Create(loan).Error, "loan create")
}

// GetByID gets a loan by ID with its customer
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("id = ?", id).
		First(&loan).Error
	if err != nil {
		return nil, notFoundOr(err, domain.ErrLoanNotFound, "loan get")
	}
	return &loan, nil
}

// ListByCustomer gets a customer's loans, newest first
func (r *loanRepository) ListByCustomer(ctx context.Context, customerID uint) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("customer_id = ?", customerID).
		Order("id DESC").
		Find(&loans).Error
	return loans, domain.Storage(err, "loan list by customer")
}

// List lists all loans with pagination
func (r *loanRepository) List(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Loan{}).Count(&total).Error; err != nil {
		return nil, 0, domain.Storage(err, "loan count")
	}

	err := r.db.WithContext(ctx).
		Preload("Customer").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error
	if err != nil {
		return nil, 0, domain.Storage(err, "loan list")
	}

	return loans, total, nil
}

// ListByStatus lists loans in a status, oldest accrual window first
func (r *loanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&loans).Error
	return loans, domain.Storage(err, "loan list by status")
}

// Update saves every column of a loan
func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return domain.Storage(r.db.WithContext(ctx).Omit("Customer").Save(loan).Error, "loan update")
}

// Delete permanently deletes a loan
func (r *loanRepository) Delete(ctx context.Context, id uint) error {
	return domain.Storage(r.db.WithContext(ctx).Delete(&models.Loan{}, id).Error, "loan delete")
}

// CountByStatus counts loans in a status
func (r *loanRepository) CountByStatus(ctx context.Context, status domain.LoanStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).Where("status = ?", status).Count(&count).Error
	return count, domain.Storage(err, "loan count by status")
}

// SumCurrentValue sums current_value of loans in a status
func (r *loanRepository) SumCurrentValue(ctx context.Context, status domain.LoanStatus) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("status = ?", status).
		Select("COALESCE(SUM(current_value), 0)").
		Scan(&sum).Error
	return sum, domain.Storage(err, "loan sum")
}
