package credentials

import (
	"context"
	"sync"

	"kilometers.ai/shop/internal/core/domain"
	"kilometers.ai/shop/internal/core/ports"
)

// MemoryStore keeps the credential for the lifetime of the process
type MemoryStore struct {
	mu   sync.RWMutex
	cred domain.Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, nil
}

func (s *MemoryStore) Set(ctx context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = ""
	return nil
}

var _ ports.CredentialStore = (*MemoryStore)(nil)
