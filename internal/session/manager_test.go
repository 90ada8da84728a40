package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/apartment-mgmt/resident/internal/api"
	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/internal/session"
	"github.com/apartment-mgmt/resident/internal/storage"
	"github.com/apartment-mgmt/resident/pkg/errs"
)

type fakeAuth struct {
	login      func(api.LoginRequest) (api.LoginResponse, error)
	refresh    func(context.Context, string) (api.RefreshResponse, error)
	user       func(bearer string) (domain.RawUser, error)
	userCalls  int
	loginCalls int
}

func (f *fakeAuth) Login(_ context.Context, in api.LoginRequest) (api.LoginResponse, error) {
	f.loginCalls++
	return f.login(in)
}

func (f *fakeAuth) RefreshToken(ctx context.Context, rt string) (api.RefreshResponse, error) {
	if f.refresh == nil {
		return api.RefreshResponse{}, errors.New("refresh not expected")
	}
	return f.refresh(ctx, rt)
}

func (f *fakeAuth) CurrentUser(ctx context.Context) (domain.RawUser, error) {
	f.userCalls++
	bearer, _ := api.BearerFromContext(ctx)
	return f.user(bearer)
}

func okAuth() *fakeAuth {
	return &fakeAuth{
		login: func(in api.LoginRequest) (api.LoginResponse, error) {
			if in.Username != "anna" || in.Password != "secret" {
				return api.LoginResponse{}, &errs.ServerError{Status: 401, Message: "No active account found"}
			}
			return api.LoginResponse{Access: "acc-1", Refresh: "ref-1"}, nil
		},
		user: func(bearer string) (domain.RawUser, error) {
			if bearer != "acc-1" {
				return domain.RawUser{}, &errs.ServerError{Status: 401, Message: "bad token"}
			}
			return domain.RawUser{ID: 7, Username: "anna", FirstName: "Anna", LastName: " Tran ", Role: "resident"}, nil
		},
	}
}

// flakyStore fails the operations switched on, otherwise delegates to Memory.
type flakyStore struct {
	*storage.Memory
	failGet       bool
	failSet       bool
	failBatchDrop bool
}

var errDisk = errors.New("disk full")

func (s *flakyStore) MultiGet(ctx context.Context, keys ...string) (map[string]string, error) {
	if s.failGet {
		return nil, errDisk
	}
	return s.Memory.MultiGet(ctx, keys...)
}

func (s *flakyStore) MultiSet(ctx context.Context, pairs ...storage.Pair) error {
	if s.failSet {
		return errDisk
	}
	return s.Memory.MultiSet(ctx, pairs...)
}

func (s *flakyStore) MultiRemove(ctx context.Context, keys ...string) error {
	if s.failBatchDrop && len(keys) > 1 {
		return errDisk
	}
	return s.Memory.MultiRemove(ctx, keys...)
}

func newManager(t *testing.T, store storage.Store, auth session.Authenticator) *session.Manager {
	t.Helper()
	m, err := session.NewManager(session.Options{Store: store, Auth: auth})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func stored(t *testing.T, s storage.Store) map[string]string {
	t.Helper()
	vals, err := s.MultiGet(context.Background(), storage.SessionKeys...)
	if err != nil {
		t.Fatalf("MultiGet: %v", err)
	}
	return vals
}

func TestLogin_PersistsSessionInOneBatch(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	m := newManager(t, store, okAuth())

	res, err := m.Login(ctx, "anna", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Access != "acc-1" || res.Refresh != "ref-1" || res.User.LastName != "Tran" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if m.State() != session.Authenticated || !m.IsAuthenticated() {
		t.Fatalf("state = %v", m.State())
	}

	vals := stored(t, store)
	if vals[storage.KeyAccessToken] != "acc-1" || vals[storage.KeyRefreshToken] != "ref-1" || vals[storage.KeyIsLogin] != "true" {
		t.Fatalf("stored = %v", vals)
	}
	var u domain.User
	if err := json.Unmarshal([]byte(vals[storage.KeyUser]), &u); err != nil {
		t.Fatalf("user blob: %v", err)
	}
	if u.UserName != "anna" || u.LastName != "Tran" {
		t.Fatalf("user blob = %+v", u)
	}
	if got := m.CurrentUser(); got == nil || got.ID != 7 {
		t.Fatalf("CurrentUser = %+v", got)
	}
}

func TestLogin_RejectedKeepsPreviousSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	m := newManager(t, store, okAuth())
	if _, err := m.Login(ctx, "anna", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	before := stored(t, store)

	auth := okAuth()
	auth.login = func(api.LoginRequest) (api.LoginResponse, error) {
		return api.LoginResponse{}, errs.ErrInvalidCredentials
	}
	m2 := newManager(t, store, auth)
	m2.Restore(ctx)

	_, err := m2.Login(ctx, "anna", "wrong")
	if !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
	if m2.State() != session.Authenticated {
		t.Fatalf("state after rejected login = %v", m2.State())
	}
	after := stored(t, store)
	for k, v := range before {
		if after[k] != v {
			t.Fatalf("key %s changed: %q -> %q", k, v, after[k])
		}
	}
}

func TestLogin_UserFetchFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	auth := okAuth()
	auth.user = func(string) (domain.RawUser, error) {
		return domain.RawUser{}, &errs.ServerError{Status: 500, Message: "boom"}
	}
	m := newManager(t, store, auth)

	if _, err := m.Login(ctx, "anna", "secret"); !errors.Is(err, errs.ErrServer) {
		t.Fatalf("want ErrServer, got %v", err)
	}
	if vals := stored(t, store); len(vals) != 0 {
		t.Fatalf("storage written on failed login: %v", vals)
	}
	if m.State() != session.Unauthenticated || m.Snapshot().AccessToken != "" {
		t.Fatalf("snapshot = %+v", m.Snapshot())
	}
}

func TestLogin_EmptyCredentialsNeverReachServer(t *testing.T) {
	auth := okAuth()
	m := newManager(t, storage.NewMemory(), auth)

	_, err := m.Login(context.Background(), "  ", "")
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if auth.loginCalls != 0 {
		t.Fatalf("login called %d times", auth.loginCalls)
	}
}

func TestLogin_WithoutRefreshDropsStaleRefreshToken(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	_ = store.MultiSet(ctx, storage.Pair{Key: storage.KeyRefreshToken, Value: "old"})

	auth := okAuth()
	auth.login = func(api.LoginRequest) (api.LoginResponse, error) {
		return api.LoginResponse{Access: "acc-1"}, nil
	}
	m := newManager(t, store, auth)
	if _, err := m.Login(ctx, "anna", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, ok := stored(t, store)[storage.KeyRefreshToken]; ok {
		t.Fatal("stale refresh token survived login")
	}
}

func TestLogin_MissingAccessIsMalformed(t *testing.T) {
	auth := okAuth()
	auth.login = func(api.LoginRequest) (api.LoginResponse, error) {
		return api.LoginResponse{Refresh: "r"}, nil
	}
	m := newManager(t, storage.NewMemory(), auth)
	if _, err := m.Login(context.Background(), "anna", "secret"); !errors.Is(err, errs.ErrMalformedResponse) {
		t.Fatalf("want ErrMalformedResponse, got %v", err)
	}
	if auth.userCalls != 0 {
		t.Fatal("current user fetched without a token")
	}
}

func TestRestore(t *testing.T) {
	userBlob, _ := json.Marshal(domain.User{ID: 3, UserName: "bao"})

	tests := []struct {
		name     string
		seed     []storage.Pair
		failGet  bool
		want     session.State
		wantUser bool
		wantKeys int
	}{
		{name: "empty", want: session.Unauthenticated},
		{
			name: "token and user",
			seed: []storage.Pair{
				{Key: storage.KeyAccessToken, Value: "a"},
				{Key: storage.KeyRefreshToken, Value: "r"},
				{Key: storage.KeyIsLogin, Value: "true"},
				{Key: storage.KeyUser, Value: string(userBlob)},
			},
			want: session.Authenticated, wantUser: true, wantKeys: 4,
		},
		{
			name:     "token without user",
			seed:     []storage.Pair{{Key: storage.KeyAccessToken, Value: "a"}},
			want:     session.Authenticated,
			wantKeys: 1,
		},
		{
			name: "corrupted user",
			seed: []storage.Pair{
				{Key: storage.KeyAccessToken, Value: "a"},
				{Key: storage.KeyUser, Value: "{not json"},
			},
			want: session.Unauthenticated,
		},
		{
			name: "user without token",
			seed: []storage.Pair{{Key: storage.KeyUser, Value: string(userBlob)}},
			want: session.Unauthenticated,
		},
		{
			name:    "read failure",
			seed:    []storage.Pair{{Key: storage.KeyAccessToken, Value: "a"}},
			failGet: true,
			want:    session.Unauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := &flakyStore{Memory: storage.NewMemory()}
			if err := store.MultiSet(ctx, tt.seed...); err != nil {
				t.Fatalf("seed: %v", err)
			}
			store.failGet = tt.failGet

			m := newManager(t, store, okAuth())
			if got := m.Restore(ctx); got != tt.want {
				t.Fatalf("Restore = %v, want %v", got, tt.want)
			}
			if m.State() != tt.want {
				t.Fatalf("State = %v", m.State())
			}
			if (m.CurrentUser() != nil) != tt.wantUser {
				t.Fatalf("user = %+v", m.CurrentUser())
			}
			if m.Loading() {
				t.Fatal("still loading after Restore")
			}

			store.failGet = false
			if got := len(stored(t, store)); got != tt.wantKeys {
				t.Fatalf("%d keys left in storage, want %d", got, tt.wantKeys)
			}
		})
	}
}

func TestLogout_FallsBackToPerKeyRemoval(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Memory: storage.NewMemory()}
	m := newManager(t, store, okAuth())
	if _, err := m.Login(ctx, "anna", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	store.failBatchDrop = true
	m.Logout(ctx)

	if m.State() != session.Unauthenticated || m.CurrentUser() != nil {
		t.Fatalf("snapshot after logout = %+v", m.Snapshot())
	}
	if vals := stored(t, store); len(vals) != 0 {
		t.Fatalf("keys left after logout: %v", vals)
	}
}

func TestLogout_StorageDownStillSignsOut(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Memory: storage.NewMemory()}
	m := newManager(t, store, okAuth())
	if _, err := m.Login(ctx, "anna", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	_ = store.Close()
	m.Logout(ctx)
	if m.IsAuthenticated() {
		t.Fatal("still authenticated")
	}
}

func TestUpdateCurrentUser(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	m := newManager(t, store, okAuth())

	if _, err := m.UpdateCurrentUser(ctx, domain.RawUser{ID: 7}); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized when signed out, got %v", err)
	}

	if _, err := m.Login(ctx, "anna", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	u, err := m.UpdateCurrentUser(ctx, domain.RawUser{ID: 7, Username: "anna", FirstName: "Anh", LastName: "Tran  "})
	if err != nil {
		t.Fatalf("UpdateCurrentUser: %v", err)
	}
	if u.FirstName != "Anh" || m.CurrentUser().FirstName != "Anh" {
		t.Fatalf("user not replaced: %+v", m.CurrentUser())
	}

	var blob domain.User
	_ = json.Unmarshal([]byte(stored(t, store)[storage.KeyUser]), &blob)
	if blob.FirstName != "Anh" || blob.LastName != "Tran" {
		t.Fatalf("persisted user = %+v", blob)
	}
}

func TestStateString(t *testing.T) {
	if session.Refreshing.String() != "refreshing" || session.Unauthenticated.String() != "unauthenticated" {
		t.Fatal("unexpected state names")
	}
}

// gatedStore holds every read and removal until the test lets it through.
type gatedStore struct {
	*storage.Memory
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) MultiGet(ctx context.Context, keys ...string) (map[string]string, error) {
	s.entered <- struct{}{}
	<-s.release
	return s.Memory.MultiGet(ctx, keys...)
}

func (s *gatedStore) MultiRemove(ctx context.Context, keys ...string) error {
	s.entered <- struct{}{}
	<-s.release
	return s.Memory.MultiRemove(ctx, keys...)
}

func TestLoading_TracksRestoreAndLogout(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{Memory: storage.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
	if err := store.Memory.MultiSet(ctx, storage.Pair{Key: storage.KeyAccessToken, Value: "acc-1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	m := newManager(t, store, okAuth())
	if m.Loading() {
		t.Fatal("loading before any work")
	}

	restored := make(chan session.State)
	go func() { restored <- m.Restore(ctx) }()
	<-store.entered
	if !m.Loading() || !m.Snapshot().Loading {
		t.Fatal("not loading while restore reads storage")
	}
	store.release <- struct{}{}
	if st := <-restored; st != session.Authenticated {
		t.Fatalf("Restore = %v", st)
	}
	if m.Loading() {
		t.Fatal("still loading after restore")
	}

	loggedOut := make(chan struct{})
	go func() {
		m.Logout(ctx)
		close(loggedOut)
	}()
	<-store.entered
	if !m.Loading() {
		t.Fatal("not loading while logout clears storage")
	}
	store.release <- struct{}{}
	<-loggedOut
	if m.Loading() || m.State() != session.Unauthenticated {
		t.Fatalf("after logout: loading=%v state=%v", m.Loading(), m.State())
	}
}

type userSourceFunc func(context.Context) (domain.RawUser, error)

func (f userSourceFunc) CurrentUser(ctx context.Context) (domain.RawUser, error) { return f(ctx) }

func TestReloadUser_LogoutDuringFetchWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	m := newManager(t, store, okAuth())
	if _, err := m.Login(ctx, "anna", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	src := userSourceFunc(func(ctx context.Context) (domain.RawUser, error) {
		m.Logout(ctx)
		return domain.RawUser{ID: 7, Username: "anna"}, nil
	})
	if _, err := m.ReloadUser(ctx, src); err == nil {
		t.Fatal("ReloadUser succeeded for a signed-out session")
	}
	if vals := stored(t, store); len(vals) != 0 {
		t.Fatalf("stored after logout = %v", vals)
	}
	if m.CurrentUser() != nil {
		t.Fatal("user cached after logout")
	}
}
