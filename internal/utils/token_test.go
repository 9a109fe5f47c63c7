package utils

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSessionTokenRoundTrip(t *testing.T) {
	token, exp, err := NewSessionToken(testSecret, 42, "a@x.com", "user", "approved", 7*24*time.Hour)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), exp, 5*time.Second)

	claims, err := ParseSessionToken(testSecret, token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint64(42), id)
	require.Equal(t, "a@x.com", claims.Email)
	require.Equal(t, "user", claims.Role)
	require.Equal(t, "approved", claims.Status)
}

func TestSessionTokenExpired(t *testing.T) {
	token, _, err := NewSessionToken(testSecret, 42, "a@x.com", "user", "approved", -time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken(testSecret, token)
	require.Error(t, err)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, _, err := NewSessionToken(testSecret, 42, "a@x.com", "user", "approved", time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken("another-secret-another-secret-xx", token)
	require.Error(t, err)
}

func TestSessionTokenTampered(t *testing.T) {
	token, _, err := NewSessionToken(testSecret, 42, "a@x.com", "user", "approved", time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken(testSecret, token+"x")
	require.Error(t, err)
	_, err = ParseSessionToken(testSecret, "garbage")
	require.Error(t, err)
	_, err = ParseSessionToken(testSecret, "")
	require.Error(t, err)
}

func TestSessionTokenRejectsUnsigned(t *testing.T) {
	enc := func(s string) string {
		return base64.RawURLEncoding.EncodeToString([]byte(s))
	}
	// Hand-built alg=none token must never verify.
	unsigned := strings.Join([]string{
		enc(`{"alg":"none","typ":"JWT"}`),
		enc(`{"sub":"42","exp":` + "9999999999" + `}`),
		"",
	}, ".")
	_, err := ParseSessionToken(testSecret, unsigned)
	require.Error(t, err)
}
