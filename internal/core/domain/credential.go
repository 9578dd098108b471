package domain

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is an opaque bearer access token. The empty Credential means absent.
type Credential string

// IsZero reports whether the credential is absent
func (c Credential) IsZero() bool {
	return c == ""
}

// BearerHeader returns the Authorization header value for the credential
func (c Credential) BearerHeader() string {
	return fmt.Sprintf("Bearer %s", string(c))
}

// Masked returns a display-safe form of the credential
func (c Credential) Masked() string {
	s := string(c)
	if len(s) <= 12 {
		return "****"
	}
	return s[:6] + "..." + s[len(s)-4:]
}

// CredentialClaims describes what can be read from a credential without verifying it.
type CredentialClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsExpired checks if the credential has expired
func (c CredentialClaims) IsExpired() bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(c.ExpiresAt)
}

// TimeUntilExpiry returns the duration until the credential expires
func (c CredentialClaims) TimeUntilExpiry() time.Duration {
	return time.Until(c.ExpiresAt)
}

// InspectCredential decodes the JWT claims of an access token without checking
// its signature. The backend remains the only authority on validity; this is
// used for status display only.
func InspectCredential(cred Credential) (CredentialClaims, error) {
	if cred.IsZero() {
		return CredentialClaims{}, fmt.Errorf("no credential")
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(string(cred), &claims); err != nil {
		return CredentialClaims{}, fmt.Errorf("failed to decode credential: %w", err)
	}

	out := CredentialClaims{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
