package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the claim set carried inside a session token. Besides the
// registered subject/expiry claims it snapshots the email, role and status
// the user had at login time. Role and status are re-checked against the
// store on every request, so a stale snapshot cannot grant access.
type SessionClaims struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
	jwt.RegisteredClaims
}

// UserID returns the numeric identity encoded in the subject claim.
func (c *SessionClaims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

var errInvalidToken = errors.New("invalid session token")

// NewSessionToken builds and signs an HS256 JWT for a user. The subject is
// the user ID; ttl is added to the current UTC time to produce the expiry.
// It returns the serialized token together with its expiration time.
func NewSessionToken(secret string, userID uint64, email, role, status string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := SessionClaims{
		Email:  email,
		Role:   role,
		Status: status,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseSessionToken verifies signature and expiry and returns the decoded
// claim set. Expired, forged, unsigned or otherwise malformed tokens all
// come back as an error; callers treat any error as "no identity".
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
	tok, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, errInvalidToken
	}
	claims, ok := tok.Claims.(*SessionClaims)
	if !ok {
		return nil, errInvalidToken
	}
	return claims, nil
}
