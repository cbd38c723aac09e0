package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"storefront/internal/auth"
	"storefront/internal/auth/credentials"
	"storefront/internal/commerce"
	"storefront/internal/logger"
)

// Backend is the part of the commerce API the Manager talks to.
type Backend interface {
	CheckPassword(ctx context.Context, token string) (string, error)
	Signup(ctx context.Context, req commerce.SignupRequest) error
}

// State is a point-in-time copy of the session.
type State struct {
	LoggedIn bool           `json:"loggedIn"`
	Loading  bool           `json:"loading"`
	Identity *auth.Identity `json:"identity"`
}

// Manager owns the single authoritative copy of the client's
// authentication state. Identity is non-nil iff a validated token is held.
// The token is only ever replaced (Login) or cleared (Logout).
type Manager struct {
	backend Backend
	store   TokenStore

	mu       sync.RWMutex
	identity *auth.Identity
	token    string
	loading  bool

	restoreMu  sync.Mutex
	restored   bool
	restoreErr error
	ready      chan struct{}
}

// NewManager returns a Manager in the loading state. Call Restore once
// before treating it as ready.
func NewManager(backend Backend, store TokenStore) *Manager {
	return &Manager{
		backend: backend,
		store:   store,
		loading: true,
		ready:   make(chan struct{}),
	}
}

// Restore validates a persisted token against the backend. It completes
// once per Manager; later calls wait for and return the first result.
// A rejected or unusable token is discarded silently. Only a failure to
// read the store is returned.
//
// If ctx ends before validation finishes, the token is left in place, the
// Manager stays loading and the next call tries again.
func (m *Manager) Restore(ctx context.Context) error {
	m.restoreMu.Lock()
	defer m.restoreMu.Unlock()
	if m.restored {
		return m.restoreErr
	}

	err := m.restore(ctx)
	if interrupted(err) {
		logger.Info("session restore interrupted", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("session: restore: %w", err)
	}

	m.restoreErr = err
	m.restored = true
	m.finishLoading()
	return m.restoreErr
}

func (m *Manager) restore(ctx context.Context) error {
	token, err := m.store.Load(ctx)
	if err != nil {
		if interrupted(err) {
			return err
		}
		logger.Warn("could not read persisted token", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("session: restore: %w", err)
	}
	if token == "" {
		return nil
	}

	email, err := credentials.EmailFromToken(token)
	if err != nil {
		m.discardPersisted(ctx, "malformed token")
		return nil
	}

	id, err := m.backend.CheckPassword(ctx, token)
	if err != nil {
		if interrupted(err) {
			return err
		}
		m.discardPersisted(ctx, err.Error())
		return nil
	}

	m.mu.Lock()
	// a Login that finished while we were validating wins
	if m.token == "" {
		m.identity = &auth.Identity{ID: id, Email: email}
		m.token = token
	}
	m.mu.Unlock()

	logger.Info("session restored", map[string]any{
		"user_id": id,
	})
	return nil
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (m *Manager) finishLoading() {
	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
	close(m.ready)
}

func (m *Manager) discardPersisted(ctx context.Context, reason string) {
	m.mu.RLock()
	loggedIn := m.token != ""
	m.mu.RUnlock()
	if loggedIn {
		return
	}

	logger.Info("discarding persisted token", map[string]any{
		"reason": reason,
	})
	if err := m.store.Clear(ctx); err != nil {
		logger.Warn("failed to clear persisted token", map[string]any{
			"error": err.Error(),
		})
	}
}

// Login checks the credentials against the backend and, only on success,
// replaces the in-memory session and the persisted token.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return &AuthError{Kind: KindInvalidInput, Message: MsgFieldsRequired}
	}

	token, err := credentials.EncodeToken(email, password)
	if err != nil {
		return &AuthError{Kind: KindInvalidInput, Message: credentials.MsgInvalidEmail, Err: err}
	}

	id, err := m.backend.CheckPassword(ctx, token)
	if err != nil {
		logger.Info("login rejected", map[string]any{
			"error": err.Error(),
		})
		return classify(err, MsgInvalidCredentials)
	}

	m.mu.Lock()
	m.identity = &auth.Identity{ID: id, Email: email}
	m.token = token
	m.mu.Unlock()

	// The in-memory session stands even if persisting fails; it just
	// won't survive a restart.
	if err := m.store.Save(ctx, token); err != nil {
		logger.Error("failed to persist token", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("login succeeded", map[string]any{
		"user_id": id,
	})
	return nil
}

// Signup registers a new account and then logs in with the same
// credentials so the session holds a token.
func (m *Manager) Signup(ctx context.Context, form credentials.SignupForm) error {
	form.Email = strings.TrimSpace(form.Email)
	if err := form.Validate(); err != nil {
		return &AuthError{Kind: KindInvalidInput, Message: credentials.Message(err), Err: err}
	}

	err := m.backend.Signup(ctx, commerce.SignupRequest{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		return classify(err, MsgSignupFailed)
	}

	return m.Login(ctx, form.Email, form.Password)
}

// Logout clears the persisted and in-memory session. It always succeeds.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.identity = nil
	m.token = ""
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		logger.Warn("failed to clear persisted token", map[string]any{
			"error": err.Error(),
		})
	}
}

// Token returns the in-memory token; it never reads the store.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *Manager) IsLoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity != nil
}

// Identity returns a copy of the current identity, or nil.
func (m *Manager) Identity() *auth.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Ready is closed once Restore has finished.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := State{
		LoggedIn: m.identity != nil,
		Loading:  m.loading,
	}
	if m.identity != nil {
		id := *m.identity
		s.Identity = &id
	}
	return s
}
