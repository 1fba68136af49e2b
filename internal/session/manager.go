package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/external/mmmapi"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/metrics"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/notify"
)

// AuthAPI is the subset of the MMM API the session needs
type AuthAPI interface {
	Login(ctx context.Context, req contracts.LoginRequest) (*mmmapi.AuthResult, error)
	Register(ctx context.Context, req contracts.RegisterRequest) (*mmmapi.AuthResult, error)
	Me(ctx context.Context, token string) (*contracts.User, error)
	Logout(ctx context.Context, token string) error
}

// Manager owns the session and is its only writer.
// Network calls never run while mu is held; every completion is applied only
// if no other transition happened since it started.
// ⭐ SSOT: 세션 상태 전이는 Manager에서만
type Manager struct {
	mu      sync.Mutex
	session contracts.Session
	epoch   uint64 // bumped on every transition
	// authEpoch is bumped only by user-initiated transitions (sign-in, logout),
	// so a startup restore never supersedes a login.
	authEpoch uint64

	api      AuthAPI
	store    TokenStore
	notifier *notify.Notifier[contracts.Session]
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewManager creates a manager in the Initializing state
func NewManager(api AuthAPI, store TokenStore, log *logger.Logger) *Manager {
	return &Manager{
		session:  contracts.NewInitializingSession(),
		api:      api,
		store:    store,
		notifier: notify.New[contracts.Session](),
		logger:   log.Component("session"),
		now:      time.Now,
	}
}

// WithMetrics attaches prometheus collectors
func (m *Manager) WithMetrics(mt *metrics.Metrics) *Manager {
	m.metrics = mt
	return m
}

// Snapshot returns the current session
func (m *Manager) Snapshot() contracts.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Subscribe returns a change notification channel seeded with the current session
func (m *Manager) Subscribe() *notify.Subscription[contracts.Session] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifier.SubscribeFrom(m.session)
}

// Close ends all subscriptions
func (m *Manager) Close() {
	m.notifier.Close()
}

// Login authenticates with email and password.
// A login that completes after Restore still applies; only a later logout or
// sign-in supersedes it. On failure the session is left unchanged and an *AuthenticationError is returned.
func (m *Manager) Login(ctx context.Context, email, password string) (contracts.Session, error) {
	req := contracts.LoginRequest{Email: email, Password: password}
	if err := contracts.ValidateStruct(&req); err != nil {
		return m.Snapshot(), &contracts.AuthenticationError{Reason: err.Error()}
	}

	epoch := m.currentAuthEpoch()

	res, err := m.api.Login(ctx, req)
	if err != nil {
		return m.Snapshot(), &contracts.AuthenticationError{Reason: failureReason(err, "Login failed"), Err: err}
	}

	user, err := m.resolveUser(ctx, res)
	if err != nil {
		return m.Snapshot(), &contracts.AuthenticationError{Reason: failureReason(err, "Login failed"), Err: err}
	}

	return m.authenticate(ctx, epoch, *user, res.Token)
}

// Register creates an account and signs in.
// On failure the session is left unchanged and a *RegistrationError is returned.
func (m *Manager) Register(ctx context.Context, email, username, password string) (contracts.Session, error) {
	req := contracts.RegisterRequest{Email: email, Username: username, Password: password}
	if err := contracts.ValidateStruct(&req); err != nil {
		return m.Snapshot(), &contracts.RegistrationError{Reason: err.Error()}
	}

	epoch := m.currentAuthEpoch()

	res, err := m.api.Register(ctx, req)
	if err != nil {
		return m.Snapshot(), &contracts.RegistrationError{Reason: failureReason(err, "Registration failed"), Err: err}
	}

	user, err := m.resolveUser(ctx, res)
	if err != nil {
		return m.Snapshot(), &contracts.RegistrationError{Reason: failureReason(err, "Registration failed"), Err: err}
	}

	return m.authenticate(ctx, epoch, *user, res.Token)
}

// Logout clears the session locally, then asks the API to revoke the token.
// The local change always succeeds.
func (m *Manager) Logout(ctx context.Context) contracts.Session {
	snapshot, _ := m.logout(ctx, "", "logout")
	return snapshot
}

// Invalidate logs out only if token is still the active one. It is used when the
// API rejects a token, so a late rejection never ends a newer session.
func (m *Manager) Invalidate(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	_, done := m.logout(ctx, token, "token rejected")
	return done
}

func (m *Manager) logout(ctx context.Context, expect, reason string) (contracts.Session, bool) {
	m.mu.Lock()
	if expect != "" && m.session.Token != expect {
		snapshot := m.session
		m.mu.Unlock()
		return snapshot, false
	}

	token := m.session.Token
	m.authEpoch++
	m.clearStoreLocked(ctx)
	if m.session.Status != contracts.StatusAnonymous {
		m.transitionLocked(contracts.NewAnonymousSession(), reason)
	}
	snapshot := m.session
	m.mu.Unlock()

	if token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			m.logger.WithError(err).Warn("Remote logout failed; local session already cleared")
		}
	}
	return snapshot, true
}

// Restore checks the persisted token once at startup.
// The session always ends Anonymous or Authenticated; a non-nil error reports
// why restoration failed when the reason is worth surfacing.
func (m *Manager) Restore(ctx context.Context) (contracts.Session, error) {
	m.mu.Lock()
	if m.session.Status != contracts.StatusInitializing {
		snapshot := m.session
		m.mu.Unlock()
		return snapshot, contracts.ErrNotInitializing
	}
	epoch := m.epoch
	m.mu.Unlock()

	token, err := m.store.Load(ctx)

	m.mu.Lock()
	if m.epoch != epoch {
		snapshot := m.session
		m.mu.Unlock()
		return snapshot, contracts.ErrStaleResult
	}

	if err != nil {
		m.transitionLocked(contracts.NewAnonymousSession(), "restore: store unreadable")
		snapshot := m.session
		m.mu.Unlock()
		return snapshot, fmt.Errorf("failed to load persisted token: %w", err)
	}

	if token == "" {
		m.transitionLocked(contracts.NewAnonymousSession(), "restore: no token")
		snapshot := m.session
		m.mu.Unlock()
		return snapshot, nil
	}

	if tokenExpired(token, m.now()) {
		m.clearStoreLocked(ctx)
		m.transitionLocked(contracts.NewAnonymousSession(), "restore: token expired")
		snapshot := m.session
		m.mu.Unlock()
		return snapshot, nil
	}
	m.mu.Unlock()

	user, err := m.api.Me(ctx, token)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		return m.session, contracts.ErrStaleResult
	}

	switch {
	case err == nil:
		m.transitionLocked(contracts.NewAuthenticatedSession(*user, token), "restore")
		return m.session, nil
	case errors.Is(err, contracts.ErrUnauthorized):
		m.clearStoreLocked(ctx)
		m.transitionLocked(contracts.NewAnonymousSession(), "restore: token rejected")
		return m.session, nil
	default:
		// Keep the token: the API may just be down
		m.transitionLocked(contracts.NewAnonymousSession(), "restore: identity lookup failed")
		return m.session, fmt.Errorf("failed to restore session: %w", err)
	}
}

func (m *Manager) currentAuthEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authEpoch
}

func (m *Manager) resolveUser(ctx context.Context, res *mmmapi.AuthResult) (*contracts.User, error) {
	if res.User != nil {
		return res.User, nil
	}
	return m.api.Me(ctx, res.Token)
}

// authenticate applies a successful login/registration if it is still current
func (m *Manager) authenticate(ctx context.Context, epoch uint64, user contracts.User, token string) (contracts.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.authEpoch != epoch {
		m.logger.WithField("user", user.Username).Debug("Discarding stale authentication result")
		return m.session, contracts.ErrStaleResult
	}
	m.authEpoch++

	if err := m.store.Save(ctx, token); err != nil {
		m.logger.WithError(err).Warn("Failed to persist token; session will not survive a restart")
	}
	m.transitionLocked(contracts.NewAuthenticatedSession(user, token), "authenticated")
	return m.session, nil
}

func (m *Manager) clearStoreLocked(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.WithError(err).Warn("Failed to clear persisted token")
	}
}

// transitionLocked must be called with mu held
func (m *Manager) transitionLocked(next contracts.Session, reason string) {
	prev := m.session.Status
	m.session = next
	m.epoch++

	m.metrics.IncSessionTransition(string(next.Status))
	m.logger.WithFields(map[string]interface{}{
		"from":   string(prev),
		"to":     string(next.Status),
		"user":   next.Username(),
		"reason": reason,
	}).Info("Session transition")

	m.notifier.Publish(next)
}

// failureReason turns an API error into the message shown to the user
func failureReason(err error, fallback string) string {
	var unauthorized *contracts.UnauthorizedError
	var svc *contracts.ServiceError
	var malformed *contracts.MalformedResponse

	switch {
	case errors.As(err, &unauthorized):
		if unauthorized.Detail != "" {
			return unauthorized.Detail
		}
		return "Incorrect email or password"
	case errors.As(err, &svc):
		if svc.Detail != "" {
			return svc.Detail
		}
		if svc.StatusCode == 0 {
			return "Unable to reach the server. Please try again."
		}
		return fmt.Sprintf("%s (status %d)", fallback, svc.StatusCode)
	case errors.As(err, &malformed):
		return "Unexpected response from the server"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Request cancelled"
	default:
		return fallback
	}
}
