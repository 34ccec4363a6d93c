package auth

import (
	"fmt"
	"time"

	"fulfillment/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess = "access"
	RoleAdmin       = "admin"

	// InternalKeyHeader carries the shared secret services use to call each other.
	InternalKeyHeader = "X-Internal-Key"
)

// Claims carried by access tokens. The subject is the customer email.
type Claims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller of a request.
type Identity struct {
	Email string
	Role  string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses an access token and returns the identity it carries.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, "invalid token", err)
	}

	if claims.Type != TokenTypeAccess {
		return nil, apperr.New(apperr.CodeUnauthenticated, "not an access token")
	}
	if claims.Subject == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "token without subject")
	}

	return &Identity{Email: claims.Subject, Role: claims.Role}, nil
}

// Issue signs an access token for email.
func (v *Verifier) Issue(email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
