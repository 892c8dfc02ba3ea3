package handlers

import (
	"time"

	"casa-empenos/internal/adapters/http/middleware"
	"casa-empenos/internal/config"
	"casa-empenos/internal/core/services"
	"casa-empenos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// Register handles customer registration
// @Summary Register new customer
// @Description Register a customer by national id and open a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	result, err := h.authService.RegisterCustomer(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}

	h.setAuthCookie(c, result.AccessToken)
	return response.Created(c, "Customer registered successfully", result)
}

// Login handles customer login
// @Summary Customer login
// @Description Open a customer session by national id
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.CustomerLoginInput true "Login data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.CustomerLoginInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	result, err := h.authService.LoginCustomer(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}

	h.setAuthCookie(c, result.AccessToken)
	return response.Success(c, "Login successful", result)
}

// AdminLogin handles administrator login
// @Summary Admin login
// @Description Authenticate an administrator with username and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.AdminLoginInput true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req services.AdminLoginInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	result, err := h.authService.LoginAdmin(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}

	h.setAuthCookie(c, result.AccessToken)
	return response.Success(c, "Login successful", result)
}

// Logout handles logout
// @Summary Logout
// @Description Clear the session cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.clearAuthCookie(c)
	return response.Success(c, "Logged out successfully", nil)
}

// Me returns the current session's profile
// @Summary Get current session
// @Description Get the authenticated customer or admin
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	profile, err := h.authService.Me(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Session retrieved successfully", profile)
}

// setAuthCookie sets the access token cookie
func (h *AuthHandler) setAuthCookie(c *fiber.Ctx, accessToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenMins * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookie clears the access token cookie
func (h *AuthHandler) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}
