package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-hclog"

	"kilometers.ai/shop/internal/application/actions"
	"kilometers.ai/shop/internal/core/domain"
	configdomain "kilometers.ai/shop/internal/core/domain/config"
	"kilometers.ai/shop/internal/core/ports"
	"kilometers.ai/shop/internal/core/state"
)

// ErrSessionExpired is returned when a command ended in a forced logout
var ErrSessionExpired = errors.New("session expired")

// SessionJar is the cookie store holding the refresh cookie
type SessionJar interface {
	Clear() error
}

// Services are the components commands drive, built once per invocation
type Services struct {
	Config     configdomain.Config
	Logger     hclog.Logger
	Storefront *actions.Storefront
	State      *state.Store
	Jar        SessionJar
	Close      func()
}

// OpenFunc builds the services for a resolved configuration. nav receives
// forced navigations from the dispatcher.
type OpenFunc func(ctx context.Context, cfg configdomain.Config, nav ports.Navigator) (*Services, error)

// Navigator stands in for the browser's hard navigation: the CLI has no
// routes, so a forced navigation prints a notice once and fails the
// command
type Navigator struct {
	out io.Writer

	mu     sync.Mutex
	target string
}

func NewNavigator(out io.Writer) *Navigator {
	return &Navigator{out: out}
}

func (n *Navigator) ForceNavigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.target != "" {
		return
	}
	n.target = path
	fmt.Fprintln(n.out, warnStyle.Render("Your session has expired."))
	fmt.Fprintln(n.out, mutedStyle.Render(fmt.Sprintf("Run 'shop auth login' to sign in again (%s).", path)))
}

// Navigated returns the forced navigation target, if any
func (n *Navigator) Navigated() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target, n.target != ""
}

var _ ports.Navigator = (*Navigator)(nil)

// applied records the action types the store applied while call ran. The
// dispatcher reports nothing back, so this is how a command learns whether
// the backend accepted its request.
type applied map[domain.ActionType]bool

func watchApplied(store *state.Store, call func() error) (applied, error) {
	var mu sync.Mutex
	seen := applied{}
	stop := store.Watch(func(action domain.Action, _ state.State) {
		mu.Lock()
		seen[action.Type] = true
		mu.Unlock()
	})
	err := call()
	stop()

	mu.Lock()
	defer mu.Unlock()
	return seen, err
}
