package state

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kilometers.ai/shop/internal/core/domain"
	"kilometers.ai/shop/internal/infrastructure/credentials"
)

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Get(ctx context.Context) (domain.Credential, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Credential), args.Error(1)
}

func (m *MockCredentialStore) Set(ctx context.Context, cred domain.Credential) error {
	return m.Called(ctx, cred).Error(0)
}

func (m *MockCredentialStore) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestStore_MirrorsAccessTokenIntoCredentialStore(t *testing.T) {
	ctx := context.Background()
	creds := credentials.NewMemoryStore()
	store := NewStore(creds, nil)

	store.Dispatch(domain.SetAccessToken("abc"))
	cred, err := creds.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credential("abc"), cred)
	assert.Equal(t, domain.Credential("abc"), store.State().User.AccessToken)

	store.Dispatch(domain.SetUser(&domain.User{ID: "u1", Name: "Ada"}))
	store.Dispatch(domain.Logout())

	cred, err = creds.Get(ctx)
	require.NoError(t, err)
	assert.True(t, cred.IsZero())
	assert.Nil(t, store.State().User.User)
	assert.True(t, store.State().User.AccessToken.IsZero())
}

func TestStore_EmptyAccessTokenClearsStore(t *testing.T) {
	creds := new(MockCredentialStore)
	creds.On("Set", mock.Anything, domain.Credential("abc")).Return(nil).Once()
	creds.On("Clear", mock.Anything).Return(nil).Once()

	store := NewStore(creds, nil)
	store.Dispatch(domain.SetAccessToken("abc"))
	store.Dispatch(domain.SetAccessToken(""))

	creds.AssertExpectations(t)
}

func TestStore_MirrorFailureKeepsState(t *testing.T) {
	creds := new(MockCredentialStore)
	creds.On("Set", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	store := NewStore(creds, nil)
	store.Dispatch(domain.SetAccessToken("abc"))

	assert.Equal(t, domain.Credential("abc"), store.State().User.AccessToken)
}

func TestStore_Hydrate(t *testing.T) {
	creds := credentials.NewMemoryStore()
	require.NoError(t, creds.Set(context.Background(), "persisted"))

	store := NewStore(creds, nil)
	require.NoError(t, store.Hydrate(context.Background()))
	assert.Equal(t, domain.Credential("persisted"), store.State().User.AccessToken)

	creds2 := new(MockCredentialStore)
	creds2.On("Get", mock.Anything).Return(domain.Credential(""), errors.New("boom"))
	assert.Error(t, NewStore(creds2, nil).Hydrate(context.Background()))
}

func TestStore_IgnoresZeroAndInvalidActions(t *testing.T) {
	store := NewStore(nil, nil)
	calls := 0
	store.Subscribe(func(State) { calls++ })

	store.Dispatch(domain.Action{})
	store.Dispatch(domain.Action{Type: domain.ActionSetCart, Payload: "not a cart"})

	assert.Equal(t, 0, calls)
	assert.Empty(t, store.State().Cart.Items)
}

func TestStore_Subscribe(t *testing.T) {
	store := NewStore(nil, nil)

	var seen []int
	unsubscribe := store.Subscribe(func(s State) {
		seen = append(seen, len(s.Product.Products))
	})

	store.Dispatch(domain.SetProduct(domain.Product{ID: "p1"}))
	store.Dispatch(domain.SetProduct(domain.Product{ID: "p2"}))
	unsubscribe()
	store.Dispatch(domain.SetProduct(domain.Product{ID: "p3"}))

	assert.Equal(t, []int{1, 2}, seen)
}

func TestStore_WatchReportsTheAction(t *testing.T) {
	store := NewStore(nil, nil)

	var types []domain.ActionType
	stop := store.Watch(func(action domain.Action, s State) {
		types = append(types, action.Type)
	})

	store.Dispatch(domain.SetCart(domain.Cart{}))
	store.Dispatch(domain.Action{Type: domain.ActionSetCart, Payload: "not a cart"})
	store.Dispatch(domain.Logout())
	stop()
	store.Dispatch(domain.SetCart(domain.Cart{}))

	assert.Equal(t, []domain.ActionType{domain.ActionSetCart, domain.ActionLogout}, types)
}

func TestStore_StateIsACopy(t *testing.T) {
	store := NewStore(nil, nil)
	store.Dispatch(domain.SetProductReviews("p1", []domain.Review{{ID: "r1", Product: "p1"}}))

	snapshot := store.State()
	snapshot.Reviews.ProductReviews["p1"][0].Rating = 5
	snapshot.Product.Products["x"] = domain.Product{ID: "x"}

	again := store.State()
	assert.Equal(t, 0, again.Reviews.ProductReviews["p1"][0].Rating)
	assert.NotContains(t, again.Product.Products, "x")
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	store := NewStore(credentials.NewMemoryStore(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Dispatch(domain.SetProduct(domain.Product{ID: string(rune('a' + i%26))}))
			_ = store.State()
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.State().Product.Products, 26)
}

// yieldingStore gives up the processor before every write so that
// concurrent writers interleave as much as the scheduler allows.
type yieldingStore struct {
	mu   sync.Mutex
	cred domain.Credential
}

func (s *yieldingStore) Get(context.Context) (domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, nil
}

func (s *yieldingStore) Set(_ context.Context, cred domain.Credential) error {
	runtime.Gosched()
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()
	return nil
}

func (s *yieldingStore) Clear(ctx context.Context) error {
	return s.Set(ctx, "")
}

func TestStore_ConcurrentSessionChangesPersistInOrder(t *testing.T) {
	for round := 0; round < 20; round++ {
		creds := &yieldingStore{}
		store := NewStore(creds, nil)

		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i%2 == 0 {
					store.Dispatch(domain.SetAccessToken(domain.Credential(string(rune('a' + i%26)))))
				} else {
					store.Dispatch(domain.Logout())
				}
			}(i)
		}
		wg.Wait()

		stored, err := creds.Get(context.Background())
		require.NoError(t, err)
		require.Equal(t, store.State().User.AccessToken, stored, "round %d", round)
	}
}
