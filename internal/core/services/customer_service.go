package services

import (
	"context"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/adapters/persistence/repositories"
	"casa-empenos/internal/core/domain"

	"go.uber.org/zap"
)

// CustomerService handles customer management for administrators
type CustomerService struct {
	store  repositories.Store
	logger *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(store repositories.Store, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		store:  store,
		logger: logger.Named("customers"),
	}
}

// ListCustomers lists registered customers in registration order (admin)
func (s *CustomerService) ListCustomers(ctx context.Context, actor domain.Actor, offset, limit int) ([]*models.Customer, int64, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 100 {
		limit = 100
	}

	customers, total, err := s.store.Customers().List(ctx, offset, limit)
	if err != nil {
		if domain.KindOf(err) == domain.KindStorage {
			s.logger.Error("storage failure", zap.String("operation", "list customers"), zap.Error(err))
		}
		return nil, 0, err
	}
	return customers, total, nil
}
