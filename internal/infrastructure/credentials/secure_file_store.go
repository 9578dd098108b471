package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kilometers.ai/shop/internal/core/domain"
	"kilometers.ai/shop/internal/core/ports"
)

const credentialFileName = ".credentials"

// credentialFile is the decrypted layout of the credentials file. One file
// holds the tokens of every profile.
type credentialFile struct {
	Profiles  map[string]domain.Credential `json:"profiles"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

// SecureFileStore persists the credential in an encrypted file so it
// survives between CLI invocations
type SecureFileStore struct {
	path    string
	profile string
	sealer  sealer
	mu      sync.RWMutex
}

// NewSecureFileStore creates a store under dir for the given profile
func NewSecureFileStore(dir, profile string) (*SecureFileStore, error) {
	dir, err := ExpandDir(dir)
	if err != nil {
		return nil, err
	}
	if profile == "" {
		profile = "default"
	}

	return &SecureFileStore{
		path:    filepath.Join(dir, credentialFileName),
		profile: profile,
		sealer:  newSealer(),
	}, nil
}

// Get returns the stored credential. A missing file means absent.
func (s *SecureFileStore) Get(ctx context.Context) (domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.read()
	if err != nil {
		return "", err
	}
	return file.Profiles[s.profile], nil
}

func (s *SecureFileStore) Set(ctx context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// an unreadable file is replaced rather than blocking login
	file, err := s.read()
	if err != nil {
		file = credentialFile{}
	}
	if file.Profiles == nil {
		file.Profiles = map[string]domain.Credential{}
	}
	file.Profiles[s.profile] = cred
	return s.write(file)
}

func (s *SecureFileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := file.Profiles[s.profile]; !ok {
		return nil
	}
	delete(file.Profiles, s.profile)

	if len(file.Profiles) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
		return nil
	}
	return s.write(file)
}

func (s *SecureFileStore) read() (credentialFile, error) {
	var file credentialFile

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return file, nil
		}
		return file, fmt.Errorf("failed to read credentials file: %w", err)
	}

	decrypted, err := s.sealer.open(data)
	if err != nil {
		return file, fmt.Errorf("failed to decrypt credentials: %w", err)
	}
	if err := json.Unmarshal(decrypted, &file); err != nil {
		return file, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return file, nil
}

func (s *SecureFileStore) write(file credentialFile) error {
	file.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	encrypted, err := s.sealer.seal(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	if err := os.WriteFile(s.path, encrypted, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

var _ ports.CredentialStore = (*SecureFileStore)(nil)
