package mockapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kilometers.ai/shop/internal/core/domain"
)

var errTokenRevoked = errors.New("token revoked")

// accessClaims are the claims of an access token. Gen ties the token to
// the generation it was issued in.
type accessClaims struct {
	Gen int `json:"gen"`
	jwt.RegisteredClaims
}

// issueAccess signs a new access token for userID. Callers hold b.mu.
func (b *Backend) issueAccess(userID string) (domain.Credential, error) {
	now := b.now()
	claims := accessClaims{
		Gen: b.generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(b.cfg.AccessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return domain.Credential(signed), nil
}

// parseAccess verifies a bearer token and returns its user. Callers hold b.mu.
func (b *Backend) parseAccess(raw string) (*account, error) {
	claims := &accessClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(b.now),
	)
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return b.cfg.Secret, nil
	}); err != nil {
		return nil, err
	}
	if claims.Gen != b.generation {
		return nil, errTokenRevoked
	}
	acc, ok := b.accounts[claims.Subject]
	if !ok {
		return nil, fmt.Errorf("unknown subject %q", claims.Subject)
	}
	return acc, nil
}

// startSession stores a new refresh token and sets it as an httpOnly
// cookie. Callers hold b.mu.
func (b *Backend) startSession(w http.ResponseWriter, userID string) {
	token := uuid.NewString()
	b.sessions[token] = userID
	http.SetCookie(w, &http.Cookie{
		Name:     b.cfg.RefreshCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// endSessions drops every refresh session of userID and expires the cookie.
// Callers hold b.mu.
func (b *Backend) endSessions(w http.ResponseWriter, userID string) {
	for token, owner := range b.sessions {
		if owner == userID {
			delete(b.sessions, token)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     b.cfg.RefreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// createAccount registers a new unverified user. Callers hold b.mu or own b.
func (b *Backend) createAccount(name, email, password string) (*account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, exists := b.emails[email]; exists {
		return nil, fmt.Errorf("email %s already registered", email)
	}
	hash, err := b.createHash(password)
	if err != nil {
		return nil, err
	}

	acc := &account{
		user: domain.User{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     email,
			CreatedAt: b.now().UTC(),
		},
		hash: hash,
	}
	b.accounts[acc.user.ID] = acc
	b.emails[email] = acc.user.ID
	return acc, nil
}

// lookup finds an account by email. Callers hold b.mu.
func (b *Backend) lookup(email string) (*account, bool) {
	id, ok := b.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, false
	}
	return b.accounts[id], true
}

func (b *Backend) createHash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cfg.HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func checkPassword(acc *account, password string) bool {
	return bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) == nil
}
