package repositories

import (
	"context"

	"casa-empenos/internal/core/domain"

	"gorm.io/gorm"
)

// gormStore implements Store. The same type serves the root handle and a
// transaction handle, since a GORM transaction is also a *gorm.DB.
type gormStore struct {
	db *gorm.DB
}

// NewStore creates a GORM-backed ledger store
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Customers() CustomerRepository       { return NewCustomerRepository(s.db) }
func (s *gormStore) Admins() AdminRepository             { return NewAdminRepository(s.db) }
func (s *gormStore) Loans() LoanRepository               { return NewLoanRepository(s.db) }
func (s *gormStore) Renewals() RenewalLogRepository      { return NewRenewalLogRepository(s.db) }
func (s *gormStore) Payments() PaymentLogRepository      { return NewPaymentLogRepository(s.db) }
func (s *gormStore) Appointments() AppointmentRepository { return NewAppointmentRepository(s.db) }

// Execute runs fn within a single database transaction
func (s *gormStore) Execute(ctx context.Context, fn func(repos Repositories) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return domain.Storage(tx.Error, "begin transaction")
	}

	// Roll back on panic, then let the recover middleware see it.
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&gormStore{db: tx}); err != nil {
		// The original error is more meaningful than a rollback failure.
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return domain.Storage(err, "commit transaction")
	}
	return nil
}
