package state

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"

	"kilometers.ai/shop/internal/core/domain"
	"kilometers.ai/shop/internal/core/ports"
)

// Store is the client state container. Dispatch applies reducers
// synchronously; subscribers are called after the state has changed.
type Store struct {
	// writeMu orders reduce and mirror together, so the credential store
	// sees changes in the order the state did
	writeMu sync.Mutex

	mu          sync.RWMutex
	state       State
	subscribers map[int]func(domain.Action, State)
	nextSubID   int

	creds  ports.CredentialStore
	logger hclog.Logger
}

// NewStore creates an empty store. When creds is not nil, access token
// changes are mirrored into it.
func NewStore(creds ports.CredentialStore, logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{
		state:       initialState(),
		subscribers: make(map[int]func(domain.Action, State)),
		creds:       creds,
		logger:      logger,
	}
}

// Hydrate loads the persisted access token into the user slice
func (s *Store) Hydrate(ctx context.Context) error {
	if s.creds == nil {
		return nil
	}
	cred, err := s.creds.Get(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state.User.AccessToken = cred
	s.mu.Unlock()
	return nil
}

// Dispatch applies action. The zero action and actions with a payload of
// the wrong type leave the state unchanged.
func (s *Store) Dispatch(action domain.Action) {
	if action.IsZero() {
		return
	}

	s.writeMu.Lock()
	s.mu.Lock()
	next := s.state.clone()
	if err := reduce(&next, action); err != nil {
		s.mu.Unlock()
		s.writeMu.Unlock()
		s.logger.Error("action rejected", "type", action.Type, "error", err)
		return
	}
	s.state = next
	snapshot := next.clone()
	subs := make([]func(domain.Action, State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.Trace("action applied", "type", action.Type)
	s.mirror(action, snapshot)
	s.writeMu.Unlock()

	for _, fn := range subs {
		fn(action, snapshot)
	}
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to run after every applied action. The returned
// func removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	return s.Watch(func(_ domain.Action, st State) { fn(st) })
}

// Watch is Subscribe for callers that need to know which action produced
// the new state. Rejected actions are never reported.
func (s *Store) Watch(fn func(domain.Action, State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) mirror(action domain.Action, st State) {
	if s.creds == nil {
		return
	}

	ctx := context.Background()
	var err error
	switch action.Type {
	case domain.ActionSetAccessToken:
		if st.User.AccessToken.IsZero() {
			err = s.creds.Clear(ctx)
		} else {
			err = s.creds.Set(ctx, st.User.AccessToken)
		}
	case domain.ActionLogout:
		err = s.creds.Clear(ctx)
	default:
		return
	}

	if err != nil {
		s.logger.Error("failed to persist credential", "action", action.Type, "error", err)
	}
}

var _ ports.StateDispatcher = (*Store)(nil)
