package repositories

import (
	"context"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/core/domain"
)

// Repositories return domain errors: a missing row is a NotFound-kind error
// and any other driver error is wrapped as domain.ErrStorageFailure.

// CustomerRepository defines customer repository interface
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id uint) (*models.Customer, error)
	GetByNationalID(ctx context.Context, nationalID string) (*models.Customer, error)
	ExistsByNationalID(ctx context.Context, nationalID string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.Customer, int64, error)
	Count(ctx context.Context) (int64, error)
}

// AdminRepository defines admin repository interface
type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	Count(ctx context.Context) (int64, error)
}

// LoanRepository defines loan repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	// GetByID loads the loan with its owning customer
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]*models.Loan, error)
	List(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error)
	ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	Delete(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context, status domain.LoanStatus) (int64, error)
	SumCurrentValue(ctx context.Context, status domain.LoanStatus) (int64, error)
}

// RenewalLogRepository defines the append-only renewal log
type RenewalLogRepository interface {
	Create(ctx context.Context, entry *models.RenewalLog) error
	// LatestByLoan returns the most recent entry, or ErrNotFound when none exists
	LatestByLoan(ctx context.Context, loanID uint) (*models.RenewalLog, error)
	ListRecent(ctx context.Context, limit int) ([]*models.RenewalLog, error)
	Count(ctx context.Context) (int64, error)
}

// PaymentLogRepository defines the append-only payment log
type PaymentLogRepository interface {
	Create(ctx context.Context, entry *models.PaymentLog) error
	ExistsByLoan(ctx context.Context, loanID uint) (bool, error)
	ListRecent(ctx context.Context, limit int) ([]*models.PaymentLog, error)
	Totals(ctx context.Context) (amount int64, interest float64, err error)
}

// AppointmentRepository defines appointment repository interface
type AppointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, id uint) (*models.Appointment, error)
	Update(ctx context.Context, appt *models.Appointment) error
	ListByCustomer(ctx context.Context, customerID uint) ([]*models.Appointment, error)
	List(ctx context.Context) ([]*models.Appointment, error)
	// FindConflictingSlot returns an appointment holding (date, time) in one
	// of statuses, or nil when the slot is free
	FindConflictingSlot(ctx context.Context, date, time string, statuses []domain.AppointmentStatus) (*models.Appointment, error)
	CountByStatus(ctx context.Context, status domain.AppointmentStatus) (int64, error)
}

// Repositories groups the repositories bound to one database handle
type Repositories interface {
	Customers() CustomerRepository
	Admins() AdminRepository
	Loans() LoanRepository
	Renewals() RenewalLogRepository
	Payments() PaymentLogRepository
	Appointments() AppointmentRepository
}

// Store is the ledger store: repositories for reads plus a unit of work
// for mutations
type Store interface {
	Repositories
	// Execute runs fn inside one transaction. Any error returned by fn rolls
	// back every write made through the repositories it received.
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
