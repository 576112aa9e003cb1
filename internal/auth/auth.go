// Package auth resolves the request identity from a bearer token.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"kaizen/internal/models"
)

var (
	ErrMissingToken     = errors.New("auth: missing bearer token")
	ErrInvalidToken     = errors.New("auth: invalid token")
	ErrInsufficientRole = errors.New("auth: insufficient role")
)

const identityKey = "kaizen.identity"

// Claims is the token payload.
type Claims struct {
	EmployeeID string `json:"employee_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HMAC signed tokens.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier builds a verifier for the shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Parse validates the token and returns its identity.
func (v *Verifier) Parse(raw string) (models.Identity, error) {
	var claims Claims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return models.Identity{}, fmt.Errorf("%w: token expired", ErrInvalidToken)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return models.Identity{}, fmt.Errorf("%w: malformed token", ErrInvalidToken)
		default:
			return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if claims.EmployeeID == "" {
		return models.Identity{}, fmt.Errorf("%w: missing employee_id", ErrInvalidToken)
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return models.Identity{EmployeeID: claims.EmployeeID, Role: role}, nil
}

// Sign issues a token for id. Credentials are checked elsewhere; this is
// used by tooling and tests.
func (v *Verifier) Sign(id models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		EmployeeID: id.EmployeeID,
		Role:       string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// ErrorHandler writes an authentication failure and aborts the request.
type ErrorHandler func(c *gin.Context, err error)

// Middleware rejects requests without a valid bearer token and stores the
// identity in the gin context.
func Middleware(v *Verifier, fail ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if header == "" || !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			fail(c, ErrMissingToken)
			return
		}
		id, err := v.Parse(strings.TrimSpace(token))
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireRole admits only identities whose role satisfies allowed.
func RequireRole(allowed func(models.Role) bool, fail ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := FromContext(c)
		if !ok {
			fail(c, ErrMissingToken)
			return
		}
		if !allowed(id.Role) {
			fail(c, fmt.Errorf("%w: %s", ErrInsufficientRole, id.Role))
			return
		}
		c.Next()
	}
}

// FromContext returns the identity stored by Middleware.
func FromContext(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}
