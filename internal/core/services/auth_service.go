package services

import (
	"context"
	"errors"
	"strings"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/adapters/persistence/repositories"
	"casa-empenos/internal/config"
	"casa-empenos/internal/core/domain"
	"casa-empenos/internal/pkg/jwt"
	"casa-empenos/internal/pkg/password"

	"go.uber.org/zap"
)

// AuthService handles registration, login and session tokens
type AuthService struct {
	store  repositories.Store
	cfg    *config.Config
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store repositories.Store, cfg *config.Config, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		store:  store,
		cfg:    cfg,
		logger: logger.Named("auth"),
	}
}

// RegisterInput represents customer registration input
type RegisterInput struct {
	Name       string `json:"name" validate:"required,max=120"`
	NationalID string `json:"national_id" validate:"required,max=64"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// CustomerLoginInput represents customer login input
type CustomerLoginInput struct {
	NationalID string `json:"national_id" validate:"required"`
}

// AdminLoginInput represents admin login input
type AdminLoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Role        domain.Role      `json:"role"`
	Customer    *models.Customer `json:"customer,omitempty"`
	Admin       *models.Admin    `json:"admin,omitempty"`
	AccessToken string           `json:"access_token"`
	ExpiresIn   int              `json:"expires_in"`
}

// Profile describes the current session's identity
type Profile struct {
	Role     domain.Role      `json:"role"`
	Customer *models.Customer `json:"customer,omitempty"`
	Username string           `json:"username,omitempty"`
}

// RegisterCustomer registers a new customer and logs them in
func (s *AuthService) RegisterCustomer(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	name := strings.TrimSpace(input.Name)
	nationalID := strings.TrimSpace(input.NationalID)
	if name == "" || nationalID == "" {
		return nil, domain.Invalid("name and national id are required")
	}

	customer := &models.Customer{
		Name:       name,
		NationalID: nationalID,
		Email:      optional(input.Email),
		Phone:      optional(input.Phone),
	}

	err := s.store.Execute(ctx, func(repos repositories.Repositories) error {
		exists, err := repos.Customers().ExistsByNationalID(ctx, nationalID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateCustomer
		}
		return repos.Customers().Create(ctx, customer)
	})
	if err != nil {
		s.logFailure("register", err)
		return nil, err
	}

	s.logger.Info("customer registered", zap.Uint("customer_id", customer.ID))
	return s.customerSession(customer)
}

// LoginCustomer logs a customer in by national id
func (s *AuthService) LoginCustomer(ctx context.Context, input *CustomerLoginInput) (*AuthResponse, error) {
	customer, err := s.store.Customers().GetByNationalID(ctx, strings.TrimSpace(input.NationalID))
	if err != nil {
		s.logFailure("customer login", err)
		return nil, err
	}

	s.logger.Info("customer logged in", zap.Uint("customer_id", customer.ID))
	return s.customerSession(customer)
}

// LoginAdmin verifies administrator credentials
func (s *AuthService) LoginAdmin(ctx context.Context, input *AdminLoginInput) (*AuthResponse, error) {
	admin, err := s.store.Admins().GetByUsername(ctx, input.Username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		s.logFailure("admin login", err)
		return nil, err
	}

	if !password.Verify(input.Password, admin.Password) {
		s.logger.Warn("admin login failed", zap.String("username", input.Username))
		return nil, domain.ErrInvalidCredentials
	}

	token, err := jwt.GenerateAccessToken(domain.AdminActor(admin.Username), s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin logged in", zap.String("username", admin.Username))
	return &AuthResponse{
		Role:        domain.RoleAdmin,
		Admin:       admin,
		AccessToken: token,
		ExpiresIn:   s.cfg.JWT.AccessTokenMins * 60,
	}, nil
}

// ResolveActor turns an access token into the acting identity
func (s *AuthService) ResolveActor(accessToken string) (domain.Actor, error) {
	claims, err := jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
	if err != nil {
		return domain.Anonymous(), err
	}
	return claims.Actor(), nil
}

// Me returns the profile of the acting identity
func (s *AuthService) Me(ctx context.Context, actor domain.Actor) (*Profile, error) {
	if err := domain.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return &Profile{Role: domain.RoleAdmin, Username: actor.Username()}, nil
	}

	customer, err := s.store.Customers().GetByID(ctx, actor.CustomerID())
	if err != nil {
		return nil, err
	}
	return &Profile{Role: domain.RoleCustomer, Customer: customer}, nil
}

// customerSession issues an access token for customer
func (s *AuthService) customerSession(customer *models.Customer) (*AuthResponse, error) {
	token, err := jwt.GenerateAccessToken(
		domain.CustomerActor(customer.ID, customer.NationalID),
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Role:        domain.RoleCustomer,
		Customer:    customer,
		AccessToken: token,
		ExpiresIn:   s.cfg.JWT.AccessTokenMins * 60,
	}, nil
}

func (s *AuthService) logFailure(operation string, err error) {
	if domain.KindOf(err) == domain.KindStorage {
		s.logger.Error("storage failure", zap.String("operation", operation), zap.Error(err))
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
