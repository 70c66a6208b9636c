package utils // package utils provides token issuing, verification and hashing helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Distinct verification failure reasons surfaced to the auth flow.  The
// auth flow treats them all as 401 but logs them separately.
var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
)

// AccessClaims are carried by short-lived access tokens.  Subject holds
// the user id; email and full name let the gate echo identity without a
// lookup on every parse.
type AccessClaims struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// RefreshClaims are deliberately minimal: only the user id travels in a
// refresh token, so a leaked token reveals no profile data.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// SignedToken is a serialized JWT together with its expiry time.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken builds and signs an HS256 access token for a user.
// TTL is minutes-scale; the access and refresh secrets are independent
// so compromise of one does not compromise the other.
func NewAccessToken(secret, userID, email, fullName string, ttlMin int) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := AccessClaims{
		Email:    email,
		FullName: fullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 refresh token carrying only
// the user id.  TTL is days-scale.
func NewRefreshToken(secret, userID string, ttlDays int) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature and expiry of an access token and
// returns its claims.  Non-HMAC signing methods are rejected.
func ParseAccessToken(secret, raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, keyFunc(secret))
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !tok.Valid {
		return nil, ErrTokenBadSignature
	}
	return claims, nil
}

// ParseRefreshToken verifies signature and expiry of a refresh token
// and returns its claims.
func ParseRefreshToken(secret, raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, keyFunc(secret))
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !tok.Valid {
		return nil, ErrTokenBadSignature
	}
	return claims, nil
}

// Fingerprint returns the SHA-256 hex digest of a signed token.  Only
// the fingerprint is ever persisted; a stolen database row cannot be
// replayed as a refresh token.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func keyFunc(secret string) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenBadSignature
		}
		return []byte(secret), nil
	}
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		return ErrTokenBadSignature
	}
}
