package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken wraps every token verification failure.
var ErrInvalidToken = errors.New("invalid token")

const clockSkew = 30 * time.Second

// Claims is the access token payload. The owner travels as the subject.
type Claims struct {
	jwt.RegisteredClaims
}

// Owner returns the account the token was issued to.
func (c *Claims) Owner() string {
	return c.Subject
}

// TokenManager signs and verifies owner access tokens with HS256.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	parser *jwt.Parser
}

// NewTokenManager builds a manager; ttlMinutes <= 0 means one hour.
func NewTokenManager(secret, issuer string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMinutes) * time.Minute,
		issuer: issuer,
		parser: jwt.NewParser(opts...),
	}
}

// GenerateToken issues a token for owner and returns it with its expiry.
func (tm *TokenManager) GenerateToken(owner string) (string, time.Time, error) {
	issuedAt := time.Now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   owner,
		Issuer:    tm.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, issuer and expiry.
func (tm *TokenManager) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, err := tm.parser.ParseWithClaims(raw, claims, tm.key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Owner() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

func (tm *TokenManager) key(*jwt.Token) (any, error) {
	return tm.secret, nil
}
