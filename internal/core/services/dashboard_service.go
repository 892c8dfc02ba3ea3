package services

import (
	"context"

	"casa-empenos/internal/adapters/persistence/repositories"
	"casa-empenos/internal/core/domain"

	"go.uber.org/zap"
)

// DashboardService builds the admin summary report
type DashboardService struct {
	store  repositories.Store
	logger *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store repositories.Store, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{store: store, logger: logger.Named("dashboard")}
}

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// Customers
	TotalCustomers int64 `json:"total_customers"`

	// Loans
	ActiveLoans      int64 `json:"active_loans"`
	PaidLoans        int64 `json:"paid_loans"`
	OutstandingValue int64 `json:"outstanding_value"`
	TotalRenewals    int64 `json:"total_renewals"`

	// Collections
	CollectedAmount   int64   `json:"collected_amount"`
	CollectedInterest float64 `json:"collected_interest"`

	// Appointments
	PendingAppointments int64 `json:"pending_appointments"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context, actor domain.Actor) (*AdminDashboardData, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}

	data := &AdminDashboardData{}
	var err error

	if data.TotalCustomers, err = s.store.Customers().Count(ctx); err != nil {
		return nil, s.fail(err)
	}
	if data.ActiveLoans, err = s.store.Loans().CountByStatus(ctx, domain.LoanStatusActive); err != nil {
		return nil, s.fail(err)
	}
	if data.PaidLoans, err = s.store.Loans().CountByStatus(ctx, domain.LoanStatusPaid); err != nil {
		return nil, s.fail(err)
	}
	if data.OutstandingValue, err = s.store.Loans().SumCurrentValue(ctx, domain.LoanStatusActive); err != nil {
		return nil, s.fail(err)
	}
	if data.TotalRenewals, err = s.store.Renewals().Count(ctx); err != nil {
		return nil, s.fail(err)
	}
	if data.CollectedAmount, data.CollectedInterest, err = s.store.Payments().Totals(ctx); err != nil {
		return nil, s.fail(err)
	}
	if data.PendingAppointments, err = s.store.Appointments().CountByStatus(ctx, domain.AppointmentPending); err != nil {
		return nil, s.fail(err)
	}

	return data, nil
}

func (s *DashboardService) fail(err error) error {
	s.logger.Error("dashboard query failed", zap.Error(err))
	return err
}
