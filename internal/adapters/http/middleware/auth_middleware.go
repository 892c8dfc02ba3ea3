package middleware

import (
	"errors"
	"strings"

	"casa-empenos/internal/config"
	"casa-empenos/internal/core/domain"
	"casa-empenos/internal/pkg/jwt"
	"casa-empenos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ActorKey is the fiber.Locals key holding the request's domain.Actor
const ActorKey = "actor"

// AccessTokenCookie is the session cookie name
const AccessTokenCookie = "access_token"

// GetActor returns the actor resolved for this request, anonymous if none
func GetActor(c *fiber.Ctx) domain.Actor {
	if actor, ok := c.Locals(ActorKey).(domain.Actor); ok {
		return actor
	}
	return domain.Anonymous()
}

// extractToken reads the access token from the cookie first, then the
// Authorization header
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies(AccessTokenCookie); token != "" {
		return token
	}

	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// AuthMiddleware requires a valid access token and stores the actor
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals(ActorKey, claims.Actor())
		return c.Next()
	}
}

// OptionalAuth stores the actor when a valid token is present and
// continues as anonymous otherwise
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := extractToken(c); accessToken != "" {
			if claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret); err == nil {
				c.Locals(ActorKey, claims.Actor())
			}
		}
		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := GetActor(c)
		if !actor.IsAuthenticated() {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if actor.Role() == allowedRole {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only administrators
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// CustomerOnly middleware allows only customers
func CustomerOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleCustomer)
}
