package repositories

import (
	"context"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/core/domain"

	"gorm.io/gorm"
)

// adminRepository implements AdminRepository interface
type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

// Create creates a new admin
func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) error {
	return domain.Storage(r.db.WithContext(ctx).Create(admin).Error, "admin create")
}

// GetByUsername gets an admin by username
func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if err != nil {
		return nil, notFoundOr(err, domain.ErrNotFound, "admin get")
	}
	return &admin, nil
}

// Count counts admins
func (r *adminRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error
	return count, domain.Storage(err, "admin count")
}
