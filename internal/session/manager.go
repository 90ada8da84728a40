// Package session owns the resident's authentication state: the bearer
// credential, the cached current user and their persisted copy on the device.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/apartment-mgmt/resident/internal/api"
	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/internal/storage"
	"github.com/apartment-mgmt/resident/pkg/errs"
	"github.com/apartment-mgmt/resident/pkg/logger"
)

// Authenticator is the subset of the API the session needs. It must not be
// wrapped by the Manager's own Transport.
type Authenticator interface {
	Login(ctx context.Context, in api.LoginRequest) (api.LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (api.RefreshResponse, error)
	CurrentUser(ctx context.Context) (domain.RawUser, error)
}

type Options struct {
	Store storage.Store
	Auth  Authenticator
	Log   *slog.Logger
}

// Manager is the only writer of the persisted session keys. Share one
// instance per process by passing it to whoever needs it.
type Manager struct {
	store storage.Store
	auth  Authenticator
	log   *slog.Logger

	// writeMu serializes writes of the persisted keys with the memory
	// update that goes with them.
	writeMu sync.Mutex

	mu      sync.Mutex
	state   State
	access  string
	refresh string
	user    *domain.User
	loading int
	// epoch changes whenever the session is replaced or cleared. Results
	// computed for an older epoch are discarded.
	epoch   uint64

	refreshGroup singleflight.Group
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("session: nil store")
	}
	if opts.Auth == nil {
		return nil, errors.New("session: nil authenticator")
	}
	if opts.Log == nil {
		opts.Log = logger.Component("session")
	}
	return &Manager{store: opts.Store, auth: opts.Auth, log: opts.Log}, nil
}

// Restore loads the persisted session. Any read or decode failure ends in a
// fully cleared, unauthenticated session; it is never reported to the caller.
func (m *Manager) Restore(ctx context.Context) State {
	m.setLoading(true)
	defer m.setLoading(false)

	vals, err := m.store.MultiGet(ctx, storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUser)
	if err != nil {
		m.log.WarnContext(ctx, "restore: read storage failed, clearing session", slog.Any("err", err))
		m.clear(ctx)
		return Unauthenticated
	}

	access := vals[storage.KeyAccessToken]
	if access == "" {
		if len(vals) > 0 {
			m.log.InfoContext(ctx, "restore: leftovers without access token, clearing")
			m.clear(ctx)
		}
		return Unauthenticated
	}

	var user *domain.User
	if blob, ok := vals[storage.KeyUser]; ok {
		var u domain.User
		if err := json.Unmarshal([]byte(blob), &u); err != nil {
			m.log.WarnContext(ctx, "restore: cached user is corrupted, clearing session", slog.Any("err", err))
			m.clear(ctx)
			return Unauthenticated
		}
		user = &u
	}

	m.writeMu.Lock()
	m.mu.Lock()
	m.access = access
	m.refresh = vals[storage.KeyRefreshToken]
	m.user = user
	m.state = Authenticated
	m.epoch++
	m.mu.Unlock()
	m.writeMu.Unlock()

	m.log.DebugContext(ctx, "session restored", slog.Bool("has_user", user != nil))
	return Authenticated
}

// Login authenticates, fetches the current user and persists everything in
// one batch. On any failure the previous session is left as it was.
func (m *Manager) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return LoginResult{}, errs.Validation("credentials", "Please enter username and password")
	}

	m.mu.Lock()
	prev, epoch := m.state, m.epoch
	m.state = Authenticating
	m.loading++
	m.mu.Unlock()
	defer m.setLoading(false)

	res, err := m.login(withoutSession(ctx), username, password)
	if err != nil {
		m.mu.Lock()
		if m.epoch == epoch {
			m.state = prev
		}
		m.mu.Unlock()
		m.log.WarnContext(ctx, "login failed", slog.String("username", username), slog.Any("err", err))
		return LoginResult{}, err
	}

	m.log.InfoContext(ctx, "login succeeded", slog.Int64("user_id", int64(res.User.ID)))
	return res, nil
}

// login persists and activates the new session only once every call to the
// server has succeeded.
func (m *Manager) login(ctx context.Context, username, password string) (LoginResult, error) {
	tokens, err := m.auth.Login(ctx, api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return LoginResult{}, err
	}
	if tokens.Access == "" {
		return LoginResult{}, fmt.Errorf("%w: login response without access token", errs.ErrMalformedResponse)
	}

	raw, err := m.auth.CurrentUser(api.WithBearer(ctx, tokens.Access))
	if err != nil {
		return LoginResult{}, fmt.Errorf("fetch current user: %w", err)
	}
	user := domain.TransformUser(raw)

	blob, err := json.Marshal(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("encode user: %w", err)
	}

	pairs := []storage.Pair{
		{Key: storage.KeyAccessToken, Value: tokens.Access},
		{Key: storage.KeyIsLogin, Value: "true"},
		{Key: storage.KeyUser, Value: string(blob)},
	}
	if tokens.Refresh != "" {
		pairs = append(pairs, storage.Pair{Key: storage.KeyRefreshToken, Value: tokens.Refresh})
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.store.MultiSet(ctx, pairs...); err != nil {
		return LoginResult{}, fmt.Errorf("persist session: %w", err)
	}
	if tokens.Refresh == "" {
		// a refresh token from an earlier account must not outlive this login
		if err := m.store.MultiRemove(ctx, storage.KeyRefreshToken); err != nil {
			m.log.WarnContext(ctx, "drop stale refresh token failed", slog.Any("err", err))
		}
	}

	m.mu.Lock()
	m.access = tokens.Access
	m.refresh = tokens.Refresh
	m.user = &user
	m.state = Authenticated
	m.epoch++
	m.mu.Unlock()

	return LoginResult{Access: tokens.Access, Refresh: tokens.Refresh, User: user}, nil
}

// Logout clears the session. Storage failures are logged, never returned.
func (m *Manager) Logout(ctx context.Context) {
	m.setLoading(true)
	defer m.setLoading(false)

	m.clear(ctx)
	m.log.InfoContext(ctx, "logged out")
}

// clear removes every persisted key and resets memory. A failed batch
// removal falls back to removing keys one by one.
func (m *Manager) clear(ctx context.Context) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.clearLocked(ctx)
}

// clearIf clears the session only while it is still the one of epoch.
func (m *Manager) clearIf(ctx context.Context, epoch uint64) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if m.currentEpoch() != epoch {
		return
	}
	m.clearLocked(ctx)
}

// clearLocked requires writeMu.
func (m *Manager) clearLocked(ctx context.Context) {
	if err := m.store.MultiRemove(ctx, storage.SessionKeys...); err != nil {
		m.log.WarnContext(ctx, "remove session keys failed, retrying per key", slog.Any("err", err))
		for _, k := range storage.SessionKeys {
			if err := m.store.MultiRemove(ctx, k); err != nil {
				m.log.ErrorContext(ctx, "remove session key failed", slog.String("key", k), slog.Any("err", err))
			}
		}
	}

	m.mu.Lock()
	m.access = ""
	m.refresh = ""
	m.user = nil
	m.state = Unauthenticated
	m.epoch++
	m.mu.Unlock()
}

func (m *Manager) currentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// UserSource fetches the current user. Pass the client decorated by
// Transport so an expired token is refreshed on the way.
type UserSource interface {
	CurrentUser(ctx context.Context) (domain.RawUser, error)
}

// ReloadUser re-fetches the current user and replaces the cached copy.
func (m *Manager) ReloadUser(ctx context.Context, src UserSource) (domain.User, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	epoch := m.currentEpoch()
	raw, err := src.CurrentUser(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("reload user: %w", err)
	}
	return m.updateUser(ctx, raw, epoch)
}

// UpdateCurrentUser transforms a freshly fetched user record, persists it
// and makes it current. Used after a profile update.
func (m *Manager) UpdateCurrentUser(ctx context.Context, raw domain.RawUser) (domain.User, error) {
	return m.updateUser(ctx, raw, m.currentEpoch())
}

// updateUser stores raw as the current user of the session of epoch. A user
// fetched for a session that has since been replaced or cleared is dropped.
func (m *Manager) updateUser(ctx context.Context, raw domain.RawUser, epoch uint64) (domain.User, error) {
	user := domain.TransformUser(raw)
	blob, err := json.Marshal(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("encode user: %w", err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	authenticated, current := m.access != "", m.epoch == epoch
	m.mu.Unlock()
	if !authenticated {
		return domain.User{}, fmt.Errorf("update current user: %w", errs.ErrUnauthorized)
	}
	if !current {
		return domain.User{}, fmt.Errorf("%w: session changed while loading user", errs.ErrSessionExpired)
	}

	if err := m.store.MultiSet(ctx, storage.Pair{Key: storage.KeyUser, Value: string(blob)}); err != nil {
		return domain.User{}, fmt.Errorf("persist user: %w", err)
	}

	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	return user, nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) IsAuthenticated() bool {
	s := m.State()
	return s == Authenticated || s == Refreshing
}

func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading > 0
}

// CurrentUser returns a copy of the cached user, nil when there is none.
func (m *Manager) CurrentUser() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		State:        m.state,
		AccessToken:  m.access,
		RefreshToken: m.refresh,
		Loading:      m.loading > 0,
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

func (m *Manager) setLoading(on bool) {
	m.mu.Lock()
	if on {
		m.loading++
	} else {
		m.loading--
	}
	m.mu.Unlock()
}
