package jwt

import (
	"errors"
	"time"

	"casa-empenos/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "casa-empenos"

var (
	ErrTokenExpired = domain.ErrTokenExpired
	ErrTokenInvalid = domain.ErrTokenInvalid
)

// Claims represents the JWT claims of an access token
type Claims struct {
	Role       domain.Role `json:"role"`
	CustomerID uint        `json:"customer_id,omitempty"`
	NationalID string      `json:"national_id,omitempty"`
	Username   string      `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Actor rebuilds the acting identity carried by the claims
func (c *Claims) Actor() domain.Actor {
	switch c.Role {
	case domain.RoleAdmin:
		return domain.AdminActor(c.Username)
	case domain.RoleCustomer:
		return domain.CustomerActor(c.CustomerID, c.NationalID)
	default:
		return domain.Anonymous()
	}
}

// GenerateAccessToken generates a new access token for an authenticated actor
func GenerateAccessToken(actor domain.Actor, secret string, expiryMinutes int) (string, error) {
	if !actor.IsAuthenticated() {
		return "", ErrTokenInvalid
	}

	now := time.Now()
	claims := Claims{
		Role:       actor.Role(),
		CustomerID: actor.CustomerID(),
		NationalID: actor.NationalID(),
		Username:   actor.Username(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiryMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   actor.AuditID(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken validates an access token and returns claims
func ValidateAccessToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Role != domain.RoleAdmin && claims.Role != domain.RoleCustomer {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
