package config

import (
	"context"
	"errors"
	"log"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/adapters/persistence/repositories"
	"casa-empenos/internal/pkg/password"
)

// Seeder handles database seeding
type Seeder struct {
	admins repositories.AdminRepository
	cfg    AdminConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(admins repositories.AdminRepository, cfg AdminConfig) *Seeder {
	return &Seeder{admins: admins, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdmin(ctx); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdmin creates the administrator from ADMIN_USERNAME/ADMIN_PASSWORD
// when no administrator exists yet
func (s *Seeder) seedAdmin(ctx context.Context) error {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil // Admin already exists
	}

	if s.cfg.Password == "" {
		return errors.New("ADMIN_PASSWORD is empty, create the administrator manually")
	}
	if !password.ValidatePassword(s.cfg.Password) {
		return errors.New("ADMIN_PASSWORD must be at least 8 characters")
	}

	hashedPassword, err := password.Hash(s.cfg.Password)
	if err != nil {
		return err
	}

	admin := &models.Admin{
		Username: s.cfg.Username,
		Password: hashedPassword,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}
