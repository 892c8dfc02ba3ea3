package repositories

import (
	"context"
	"errors"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/core/domain"

	"gorm.io/gorm"
)

// customerRepository implements CustomerRepository interface
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create creates a new customer
func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	err := r.db.WithContext(ctx).Create(customer).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateCustomer
	}
	return domain.Storage(err, "customer create")
}

// GetByID gets a customer by ID
func (r *customerRepository) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		return nil, notFoundOr(err, domain.ErrCustomerNotFound, "customer get")
	}
	return &customer, nil
}

// GetByNationalID gets a customer by national id
func (r *customerRepository) GetByNationalID(ctx context.Context, nationalID string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Where("national_id = ?", nationalID).First(&customer).Error
	if err != nil {
		return nil, notFoundOr(err, domain.ErrCustomerNotFound, "customer get by national id")
	}
	return &customer, nil
}

// ExistsByNationalID checks if national id is registered
func (r *customerRepository) ExistsByNationalID(ctx context.Context, nationalID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("national_id = ?", nationalID).Count(&count).Error
	return count > 0, domain.Storage(err, "customer exists")
}

// List lists customers in registration order with pagination
func (r *customerRepository) List(ctx context.Context, offset, limit int) ([]*models.Customer, int64, error) {
	var customers []*models.Customer
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Customer{}).Count(&total).Error; err != nil {
		return nil, 0, domain.Storage(err, "customer count")
	}

	err := r.db.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&customers).Error
	if err != nil {
		return nil, 0, domain.Storage(err, "customer list")
	}

	return customers, total, nil
}

// Count counts customers
func (r *customerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Count(&count).Error
	return count, domain.Storage(err, "customer count")
}

// notFoundOr maps gorm.ErrRecordNotFound to notFound and anything else to
// a storage failure
func notFoundOr(err error, notFound error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return domain.Storage(err, op)
}
