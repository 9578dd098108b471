package domain

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.RegisteredClaims) Credential {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return Credential(s)
}

func TestCredential(t *testing.T) {
	var empty Credential
	assert.True(t, empty.IsZero())

	c := Credential("abcdefghijklmnopqrstuvwxyz")
	assert.False(t, c.IsZero())
	assert.Equal(t, "Bearer abcdefghijklmnopqrstuvwxyz", c.BearerHeader())
	assert.Equal(t, "abcdef...wxyz", c.Masked())
	assert.Equal(t, "****", Credential("short").Masked())
}

func TestInspectCredential(t *testing.T) {
	issued := time.Now().Add(-time.Minute).Truncate(time.Second)
	expires := issued.Add(15 * time.Minute)
	cred := signedToken(t, jwt.RegisteredClaims{
		Subject:   "user-1",
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	})

	claims, err := InspectCredential(cred)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.True(t, claims.IssuedAt.Equal(issued))
	assert.True(t, claims.ExpiresAt.Equal(expires))
	assert.False(t, claims.IsExpired())
	assert.Greater(t, claims.TimeUntilExpiry(), 10*time.Minute)
}

func TestInspectCredential_Expired(t *testing.T) {
	cred := signedToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))})

	// signature and expiry are not checked, only decoded
	claims, err := InspectCredential(cred)
	require.NoError(t, err)
	assert.True(t, claims.IsExpired())
}

func TestInspectCredential_Invalid(t *testing.T) {
	_, err := InspectCredential("")
	assert.Error(t, err)

	_, err = InspectCredential("not-a-jwt")
	assert.Error(t, err)

	assert.False(t, CredentialClaims{}.IsExpired())
}
