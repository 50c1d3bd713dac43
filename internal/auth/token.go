package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/domain"
)

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for c.
func (t *Tokens) Issue(c Capability) (string, error) {
	now := t.now()
	claims := &Claims{
		Role: c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	if c.IsAdmin() {
		claims.Subject = string(RoleAdmin)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify validates signature and expiry and returns the capability.
func (t *Tokens) Verify(signed string) (Capability, error) {
	if signed == "" {
		return Capability{}, domain.Unauthorized("Not Authorized, Please login again")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Capability{}, domain.Unauthorized("session expired, please login again")
		}
		return Capability{}, domain.Unauthorized("invalid token")
	}
	switch claims.Role {
	case RoleAdmin:
		return AdminCap(), nil
	case RoleUser:
		if claims.Subject == "" {
			return Capability{}, domain.Unauthorized("invalid token")
		}
		return OwnerCap(claims.Subject), nil
	default:
		return Capability{}, domain.Unauthorized("invalid token")
	}
}
