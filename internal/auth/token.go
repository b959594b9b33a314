package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window of a session token. There is no
// refresh mechanism — after expiry the client must log in again.
const TokenTTL = time.Hour

// ErrInvalidToken covers every verification failure: bad signature,
// malformed token, or expiry. Callers treat them all as unauthenticated;
// the detailed cause stays in the wrapped error for logging.
var ErrInvalidToken = errors.New("invalid token")

// Claims binds a session token to a user identity.
// The embedded RegisteredClaims carry iat/exp.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens with a single HMAC
// secret loaded from configuration at startup.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager returns a TokenManager signing HS256 tokens valid for
// ttl from issuance. Pass TokenTTL outside of tests.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Sign issues a token for the given user. Expiry is issuance + ttl.
func (m *TokenManager) Sign(userID int64, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Sign: %w", err)
	}
	return signed, nil
}

// Parse verifies a token string and returns its claims.
//
// Rejected as ErrInvalidToken: wrong signing method (an attacker must not
// be able to downgrade to "none" or swap algorithms), bad signature,
// malformed input, and expired tokens.
func (m *TokenManager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
