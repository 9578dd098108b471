package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/stretchr/testify/mock"

	"kilometers.ai/shop/internal/core/domain"
	httpdomain "kilometers.ai/shop/internal/core/domain/http"
	"kilometers.ai/shop/internal/infrastructure/credentials"
)

// eventLog records side effects across fakes so tests can check ordering
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeTransport struct {
	mu       sync.Mutex
	requests []httpdomain.RequestContext
	handler  func(req httpdomain.RequestContext) (json.RawMessage, error)
}

func (f *fakeTransport) Send(ctx context.Context, req httpdomain.RequestContext) (json.RawMessage, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.handler(req)
}

func (f *fakeTransport) sent() []httpdomain.RequestContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]httpdomain.RequestContext(nil), f.requests...)
}

// acceptOnly answers 200 with data for requests bearing token, 401 otherwise
func acceptOnly(token domain.Credential, data string) func(httpdomain.RequestContext) (json.RawMessage, error) {
	return func(req httpdomain.RequestContext) (json.RawMessage, error) {
		if req.Headers["Authorization"] == token.BearerHeader() {
			return json.RawMessage(data), nil
		}
		return nil, unauthorized(req)
	}
}

func unauthorized(req httpdomain.RequestContext) error {
	return &domain.StatusError{Method: req.Method, Path: req.Path, Status: http.StatusUnauthorized}
}

type recordingState struct {
	log     *eventLog
	mu      sync.Mutex
	actions []domain.Action
}

func (s *recordingState) Dispatch(action domain.Action) {
	s.mu.Lock()
	s.actions = append(s.actions, action)
	s.mu.Unlock()
	s.log.add("dispatch %s", action.Type)
}

func (s *recordingState) dispatched() []domain.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Action(nil), s.actions...)
}

type recordingNavigator struct {
	log *eventLog
}

func (n *recordingNavigator) ForceNavigate(path string) {
	n.log.add("navigate %s", path)
}

// loggingStore wraps the memory store and records clears
type loggingStore struct {
	*credentials.MemoryStore
	log *eventLog
}

func (s *loggingStore) Clear(ctx context.Context) error {
	s.log.add("clear credential")
	return s.MemoryStore.Clear(ctx)
}

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Refresh(ctx context.Context) (domain.Credential, bool) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Credential), args.Bool(1)
}

type harness struct {
	log        *eventLog
	transport  *fakeTransport
	creds      *loggingStore
	state      *recordingState
	navigator  *recordingNavigator
	refresher  *MockRefresher
	dispatcher *Dispatcher
}

func newHarness(opts Options) *harness {
	log := &eventLog{}
	h := &harness{
		log:       log,
		transport: &fakeTransport{},
		creds:     &loggingStore{MemoryStore: credentials.NewMemoryStore(), log: log},
		state:     &recordingState{log: log},
		navigator: &recordingNavigator{log: log},
		refresher: new(MockRefresher),
	}

	d, err := NewDispatcher(h.transport, h.creds, h.state, h.navigator, h.refresher, opts)
	if err != nil {
		panic(err)
	}
	h.dispatcher = d
	return h
}

func (h *harness) storedCredential() domain.Credential {
	cred, _ := h.creds.Get(context.Background())
	return cred
}

// tag returns a mapper producing an action whose payload is its name
func tag(name string) domain.Mapper {
	return func(data json.RawMessage) (domain.Action, error) {
		return domain.Action{Type: domain.ActionType("test/" + name), Payload: string(data)}, nil
	}
}

func actionTypes(actions []domain.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, string(a.Type))
	}
	return out
}
