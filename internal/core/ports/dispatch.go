package ports

import (
	"context"

	"kilometers.ai/shop/internal/core/domain"
)

// CredentialStore holds the current access token. Get returns the zero
// Credential when none is stored.
type CredentialStore interface {
	Get(ctx context.Context) (domain.Credential, error)
	Set(ctx context.Context, cred domain.Credential) error
	Clear(ctx context.Context) error
}

// StateDispatcher applies an action to the client state synchronously
type StateDispatcher interface {
	Dispatch(action domain.Action)
}

// Navigator performs a hard navigation, discarding client state
type Navigator interface {
	ForceNavigate(path string)
}

// Refresher obtains a new access token. ok is false when refresh failed;
// failures are logged by the implementation and never returned.
type Refresher interface {
	Refresh(ctx context.Context) (cred domain.Credential, ok bool)
}

// APIDispatcher issues an authenticated call and applies its mappers
type APIDispatcher interface {
	Dispatch(ctx context.Context, req domain.RequestDescriptor, mappers ...domain.Mapper)
}
