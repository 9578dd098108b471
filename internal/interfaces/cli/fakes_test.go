package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"

	"kilometers.ai/shop/internal/application/actions"
	"kilometers.ai/shop/internal/core/domain"
	configdomain "kilometers.ai/shop/internal/core/domain/config"
	"kilometers.ai/shop/internal/core/ports"
	"kilometers.ai/shop/internal/core/state"
	"kilometers.ai/shop/internal/infrastructure/credentials"
)

// expired marks a canned response that ends the session
const expired = "<401>"

// fakeAPI answers calls with canned data keyed by "METHOD /path" and applies
// the mappers the way the real dispatcher does
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []domain.RequestDescriptor
	store     *state.Store
	nav       ports.Navigator
}

func (f *fakeAPI) Dispatch(ctx context.Context, req domain.RequestDescriptor, mappers ...domain.Mapper) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	data, ok := f.responses[req.String()]
	f.mu.Unlock()

	if !ok {
		return
	}
	if data == expired {
		f.store.Dispatch(domain.Logout())
		f.nav.ForceNavigate("/auth/login")
		return
	}
	for _, m := range mappers {
		if m == nil {
			continue
		}
		action, err := m(json.RawMessage(data))
		if err != nil {
			return
		}
		f.store.Dispatch(action)
	}
}

// refuse drops the canned response for key, so later calls get no answer
func (f *fakeAPI) refuse(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.responses, key)
}

func (f *fakeAPI) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.String())
	}
	return out
}

type fakeJar struct{ cleared bool }

func (j *fakeJar) Clear() error {
	j.cleared = true
	return nil
}

type testShop struct {
	api    *fakeAPI
	creds  *credentials.MemoryStore
	store  *state.Store
	jar    *fakeJar
	cfg    configdomain.Config
	closed bool
}

func newTestShop(responses map[string]string) *testShop {
	creds := credentials.NewMemoryStore()
	store := state.NewStore(creds, nil)
	return &testShop{
		api:   &fakeAPI{responses: responses, store: store},
		creds: creds,
		store: store,
		jar:   &fakeJar{},
	}
}

func (s *testShop) open(ctx context.Context, cfg configdomain.Config, nav ports.Navigator) (*Services, error) {
	s.cfg = cfg
	s.api.nav = nav
	if err := s.store.Hydrate(ctx); err != nil {
		return nil, err
	}
	return &Services{
		Config:     cfg,
		Logger:     hclog.NewNullLogger(),
		Storefront: actions.NewStorefront(s.api),
		State:      s.store,
		Jar:        s.jar,
		Close:      func() { s.closed = true },
	}, nil
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the command tree with an isolated config file
func run(t *testing.T, open OpenFunc, stdin string, args ...string) result {
	t.Helper()
	t.Setenv("SHOP_API_URL", "")
	t.Setenv("SHOP_PROFILE", "")

	cmd := NewRootCommand(open)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml")}, args...))

	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}
