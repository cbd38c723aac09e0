package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"storefront/internal/auth/credentials"
	"storefront/internal/commerce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	checks  []string
	check   func(token string) (string, error)
	signup  func(req commerce.SignupRequest) error
	signups []commerce.SignupRequest
}

func (f *fakeBackend) CheckPassword(ctx context.Context, token string) (string, error) {
	f.mu.Lock()
	f.checks = append(f.checks, token)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.check(token)
}

func (f *fakeBackend) Signup(ctx context.Context, req commerce.SignupRequest) error {
	f.mu.Lock()
	f.signups = append(f.signups, req)
	f.mu.Unlock()
	if f.signup == nil {
		return nil
	}
	return f.signup(req)
}

// acceptOnly accepts exactly one email/password pair.
func acceptOnly(email, password, id string) *fakeBackend {
	want, _ := credentials.EncodeToken(email, password)
	return &fakeBackend{check: func(token string) (string, error) {
		if token == want {
			return id, nil
		}
		return "", &commerce.StatusError{StatusCode: http.StatusUnauthorized}
	}}
}

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "storefront", "token"))
}

func TestNewManagerStartsLoading(t *testing.T) {
	m := NewManager(acceptOnly("a@b.co", "pw", "1"), newFileStore(t))

	assert.True(t, m.Loading())
	assert.False(t, m.IsLoggedIn())
	assert.Nil(t, m.Identity())
	select {
	case <-m.Ready():
		t.Fatal("ready before Restore")
	default:
	}
}

func TestLoginSuccessPersistsAndRestores(t *testing.T) {
	backend := acceptOnly("jane@example.com", "s3cret", "u-42")
	store := newFileStore(t)

	m := NewManager(backend, store)
	require.NoError(t, m.Restore(context.Background()))
	require.NoError(t, m.Login(context.Background(), "jane@example.com", "s3cret"))

	assert.True(t, m.IsLoggedIn())
	assert.Equal(t, "u-42", m.Identity().ID)
	assert.Equal(t, "jane@example.com", m.Identity().Email)

	token, ok := m.Token()
	require.True(t, ok)
	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, persisted)

	// process restart: a fresh Manager over the same store
	restarted := NewManager(backend, NewFileStore(store.Path()))
	require.NoError(t, restarted.Restore(context.Background()))

	assert.False(t, restarted.Loading())
	assert.True(t, restarted.IsLoggedIn())
	assert.Equal(t, m.Identity(), restarted.Identity())
	restoredToken, _ := restarted.Token()
	assert.Equal(t, token, restoredToken)
}

func TestLoginInvalidCredentials(t *testing.T) {
	store := newFileStore(t)
	m := NewManager(acceptOnly("jane@example.com", "s3cret", "1"), store)

	err := m.Login(context.Background(), "jane@example.com", "wrong")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, MsgInvalidCredentials, err.Error())
	assert.False(t, m.IsLoggedIn())
	_, ok := m.Token()
	assert.False(t, ok)

	persisted, _ := store.Load(context.Background())
	assert.Empty(t, persisted)
}

func TestLoginUsesBackendMessage(t *testing.T) {
	backend := &fakeBackend{check: func(string) (string, error) {
		return "", &commerce.StatusError{StatusCode: http.StatusForbidden, Message: "Account locked"}
	}}
	m := NewManager(backend, newFileStore(t))

	err := m.Login(context.Background(), "a@b.co", "pw")

	assert.EqualError(t, err, "Account locked")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginErrorClassesAreDistinct(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    Kind
		target  error
		message string
	}{
		{"rejected", &commerce.StatusError{StatusCode: 401}, KindInvalidCredentials, ErrInvalidCredentials, MsgInvalidCredentials},
		{"unreachable", commerce.ErrUnreachable, KindUnreachable, ErrUnreachable, MsgUnreachable},
		{"malformed", commerce.ErrMalformed, KindMalformed, ErrMalformed, MsgMalformed},
	}

	seen := map[string]bool{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{check: func(string) (string, error) { return "", tt.err }}
			m := NewManager(backend, newFileStore(t))

			err := m.Login(context.Background(), "a@b.co", "pw")

			var ae *AuthError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.kind, ae.Kind)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.message, err.Error())
			assert.False(t, m.IsLoggedIn())
			seen[err.Error()] = true
		})
	}
	assert.Len(t, seen, 3)
}

func TestLoginRequiresFields(t *testing.T) {
	backend := acceptOnly("a@b.co", "pw", "1")
	m := NewManager(backend, newFileStore(t))

	for _, c := range [][2]string{{"", "pw"}, {"a@b.co", ""}, {"   ", "pw"}} {
		err := m.Login(context.Background(), c[0], c[1])
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, MsgFieldsRequired, err.Error())
	}
	assert.Empty(t, backend.checks)
}

func TestLogoutClearsEverything(t *testing.T) {
	store := newFileStore(t)
	m := NewManager(acceptOnly("a@b.co", "pw", "1"), store)
	require.NoError(t, m.Login(context.Background(), "a@b.co", "pw"))

	m.Logout(context.Background())

	_, ok := m.Token()
	assert.False(t, ok)
	assert.False(t, m.IsLoggedIn())
	persisted, _ := store.Load(context.Background())
	assert.Empty(t, persisted)

	// idempotent
	m.Logout(context.Background())
	_, ok = m.Token()
	assert.False(t, ok)
}

func TestLogoutBeforeAnything(t *testing.T) {
	m := NewManager(acceptOnly("a@b.co", "pw", "1"), newFileStore(t))
	m.Logout(context.Background())
	token, ok := m.Token()
	assert.False(t, ok)
	assert.Empty(t, token)
}

func TestRestoreWithoutToken(t *testing.T) {
	backend := acceptOnly("a@b.co", "pw", "1")
	m := NewManager(backend, newFileStore(t))

	require.NoError(t, m.Restore(context.Background()))

	assert.False(t, m.Loading())
	assert.False(t, m.IsLoggedIn())
	assert.Empty(t, backend.checks)
	<-m.Ready()
}

func TestRestoreDiscardsRejectedToken(t *testing.T) {
	store := newFileStore(t)
	stale, _ := credentials.EncodeToken("a@b.co", "old-password")
	require.NoError(t, store.Save(context.Background(), stale))

	m := NewManager(acceptOnly("a@b.co", "new-password", "1"), store)
	require.NoError(t, m.Restore(context.Background()))

	assert.False(t, m.IsLoggedIn())
	assert.False(t, m.Loading())
	persisted, _ := store.Load(context.Background())
	assert.Empty(t, persisted)
}

func TestRestoreDiscardsMalformedToken(t *testing.T) {
	store := newFileStore(t)
	require.NoError(t, store.Save(context.Background(), base64.StdEncoding.EncodeToString([]byte("no-colon"))))
	backend := acceptOnly("a@b.co", "pw", "1")

	m := NewManager(backend, store)
	require.NoError(t, m.Restore(context.Background()))

	assert.False(t, m.IsLoggedIn())
	assert.Empty(t, backend.checks)
	persisted, _ := store.Load(context.Background())
	assert.Empty(t, persisted)
}

func TestRestoreRunsOnce(t *testing.T) {
	store := newFileStore(t)
	token, _ := credentials.EncodeToken("a@b.co", "pw")
	require.NoError(t, store.Save(context.Background(), token))
	backend := acceptOnly("a@b.co", "pw", "1")

	m := NewManager(backend, store)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Restore(context.Background())
		}()
	}
	wg.Wait()

	assert.Len(t, backend.checks, 1)
	assert.True(t, m.IsLoggedIn())
}

func TestRestoreCancelledKeepsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer srv.Close()

	store := newFileStore(t)
	token, _ := credentials.EncodeToken("a@b.co", "secret")
	require.NoError(t, store.Save(context.Background(), token))
	m := NewManager(commerce.New(commerce.Options{BaseURL: srv.URL}), store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Restore(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, m.Loading())
	assert.False(t, m.IsLoggedIn())
	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, persisted)
	select {
	case <-m.Ready():
		t.Fatal("ready after an interrupted restore")
	default:
	}

	require.NoError(t, m.Restore(context.Background()))
	assert.False(t, m.Loading())
	assert.True(t, m.IsLoggedIn())
	assert.Equal(t, "42", m.Identity().ID)
	<-m.Ready()
}

func TestRestoreDeadlineKeepsToken(t *testing.T) {
	store := newFileStore(t)
	token, _ := credentials.EncodeToken("a@b.co", "pw")
	require.NoError(t, store.Save(context.Background(), token))
	backend := &fakeBackend{check: func(string) (string, error) {
		return "", fmt.Errorf("commerce: %w", context.DeadlineExceeded)
	}}

	m := NewManager(backend, store)
	err := m.Restore(context.Background())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	persisted, _ := store.Load(context.Background())
	assert.Equal(t, token, persisted)
}

func TestRestoreUnreachableDiscardsToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := newFileStore(t)
	token, _ := credentials.EncodeToken("a@b.co", "pw")
	require.NoError(t, store.Save(context.Background(), token))
	m := NewManager(commerce.New(commerce.Options{BaseURL: url}), store)

	require.NoError(t, m.Restore(context.Background()))

	assert.False(t, m.Loading())
	assert.False(t, m.IsLoggedIn())
	persisted, _ := store.Load(context.Background())
	assert.Empty(t, persisted)
	<-m.Ready()
}

type brokenStore struct{}

func (brokenStore) Load(context.Context) (string, error) { return "", errors.New("disk on fire") }
func (brokenStore) Save(context.Context, string) error   { return errors.New("disk on fire") }
func (brokenStore) Clear(context.Context) error          { return errors.New("disk on fire") }

func TestRestoreStoreErrorStillFinishesLoading(t *testing.T) {
	m := NewManager(acceptOnly("a@b.co", "pw", "1"), brokenStore{})

	err := m.Restore(context.Background())

	assert.ErrorContains(t, err, "disk on fire")
	assert.False(t, m.Loading())
	assert.False(t, m.IsLoggedIn())
}

func TestSignupThenLogin(t *testing.T) {
	backend := acceptOnly("new@example.com", "secret1", "u-9")
	m := NewManager(backend, newFileStore(t))

	err := m.Signup(context.Background(), credentials.SignupForm{
		Name:            "New",
		Email:           "new@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})

	require.NoError(t, err)
	require.Len(t, backend.signups, 1)
	assert.Equal(t, commerce.SignupRequest{Name: "New", Email: "new@example.com", Password: "secret1"}, backend.signups[0])
	assert.True(t, m.IsLoggedIn())
	assert.Equal(t, "u-9", m.Identity().ID)
}

func TestSignupValidationSkipsBackend(t *testing.T) {
	backend := acceptOnly("a@b.co", "pw", "1")
	m := NewManager(backend, newFileStore(t))

	err := m.Signup(context.Background(), credentials.SignupForm{
		Name: "X", Email: "x@example.com", Password: "abc", ConfirmPassword: "abc",
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, credentials.MsgPasswordTooShort, err.Error())
	assert.Empty(t, backend.signups)
}

func TestSignupRejected(t *testing.T) {
	backend := acceptOnly("a@b.co", "pw", "1")
	backend.signup = func(commerce.SignupRequest) error {
		return &commerce.StatusError{StatusCode: http.StatusConflict}
	}
	m := NewManager(backend, newFileStore(t))

	err := m.Signup(context.Background(), credentials.SignupForm{
		Name: "X", Email: "x@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, MsgSignupFailed, err.Error())
	assert.False(t, m.IsLoggedIn())
}

// Full path through the real HTTP client against a fake backend.
func TestManagerAgainstHTTPBackend(t *testing.T) {
	good, _ := credentials.EncodeToken("jane@example.com", "s3cret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Basic "+good {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"665f1c"}`))
	}))
	defer srv.Close()

	client := commerce.New(commerce.Options{BaseURL: srv.URL})
	m := NewManager(client, newFileStore(t))
	require.NoError(t, m.Restore(context.Background()))

	err := m.Login(context.Background(), "jane@example.com", "nope")
	assert.EqualError(t, err, "Invalid password")

	require.NoError(t, m.Login(context.Background(), "jane@example.com", "s3cret"))
	assert.Equal(t, "665f1c", m.Identity().ID)

	srv.Close()
	err = m.Login(context.Background(), "jane@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.True(t, strings.Contains(err.Error(), "Could not connect"))
	// a failed re-login leaves the existing session alone
	assert.True(t, m.IsLoggedIn())
}
