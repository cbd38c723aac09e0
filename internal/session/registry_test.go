package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/auth/credentials"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryStores() (StoreFactory, map[string]*memoryStore) {
	var mu sync.Mutex
	stores := map[string]*memoryStore{}
	return func(sid string) TokenStore {
		mu.Lock()
		defer mu.Unlock()
		s, ok := stores[sid]
		if !ok {
			s = &memoryStore{}
			stores[sid] = s
		}
		return s
	}, stores
}

type memoryStore struct {
	mu    sync.Mutex
	token string
}

func (m *memoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func TestRegistryReturnsSameManager(t *testing.T) {
	factory, _ := memoryStores()
	r := NewRegistry(acceptOnly("a@b.co", "pw", "1"), factory)

	m1 := r.Get(context.Background(), "sid")
	m2 := r.Get(context.Background(), "sid")
	other := r.Get(context.Background(), "other")

	assert.Same(t, m1, m2)
	assert.NotSame(t, m1, other)
	assert.Equal(t, 2, r.Len())
	assert.False(t, m1.Loading())
}

func TestRegistrySessionsAreIsolated(t *testing.T) {
	factory, stores := memoryStores()
	r := NewRegistry(acceptOnly("a@b.co", "pw", "1"), factory)

	require.NoError(t, r.Get(context.Background(), "alice").Login(context.Background(), "a@b.co", "pw"))

	assert.True(t, r.Get(context.Background(), "alice").IsLoggedIn())
	assert.False(t, r.Get(context.Background(), "bob").IsLoggedIn())
	assert.NotEmpty(t, stores["alice"].token)
	assert.Empty(t, stores["bob"].token)
}

func TestRegistryForgetRestoresFromStore(t *testing.T) {
	factory, _ := memoryStores()
	backend := acceptOnly("a@b.co", "pw", "1")
	r := NewRegistry(backend, factory)

	first := r.Get(context.Background(), "sid")
	require.NoError(t, first.Login(context.Background(), "a@b.co", "pw"))

	r.Forget("sid")
	assert.Zero(t, r.Len())

	second := r.Get(context.Background(), "sid")
	assert.NotSame(t, first, second)
	assert.True(t, second.IsLoggedIn())
	assert.Equal(t, first.Identity(), second.Identity())
}

func TestRegistrySweep(t *testing.T) {
	factory, _ := memoryStores()
	r := NewRegistry(acceptOnly("a@b.co", "pw", "1"), factory)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Get(context.Background(), "old")
	now = now.Add(45 * time.Minute)
	r.Get(context.Background(), "fresh")
	now = now.Add(20 * time.Minute)

	assert.Equal(t, 1, r.Sweep(time.Hour))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryConcurrentFirstUseRestoresOnce(t *testing.T) {
	token, _ := credentials.EncodeToken("a@b.co", "pw")
	backend := acceptOnly("a@b.co", "pw", "1")
	factory, stores := memoryStores()
	stores["sid"] = &memoryStore{token: token}
	r := NewRegistry(backend, factory)

	var wg sync.WaitGroup
	managers := make([]*Manager, 8)
	for i := range managers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			managers[i] = r.Get(context.Background(), "sid")
		}(i)
	}
	wg.Wait()

	for _, m := range managers {
		assert.Same(t, managers[0], m)
		assert.True(t, m.IsLoggedIn())
	}
	assert.Len(t, backend.checks, 1)
}

func TestRegistryRestoreOutlivesRequest(t *testing.T) {
	token, _ := credentials.EncodeToken("a@b.co", "pw")
	backend := &fakeBackend{check: func(string) (string, error) { return "1", nil }}
	factory, stores := memoryStores()
	stores["sid"] = &memoryStore{token: token}
	r := NewRegistry(backend, factory)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := r.Get(ctx, "sid")

	assert.True(t, m.IsLoggedIn())
	assert.False(t, m.Loading())
	assert.Equal(t, token, stores["sid"].token)
}
