package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/apartment-mgmt/resident/internal/api"
	"github.com/apartment-mgmt/resident/internal/storage"
	"github.com/apartment-mgmt/resident/pkg/errs"
)

type bypassKey struct{}

// withoutSession marks ctx so the Manager's Transport leaves its requests alone.
func withoutSession(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

func bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

// Transport wraps next so that every request carries the active bearer
// credential. A 401 on a request authenticated that way triggers exactly one
// refresh (shared by concurrent callers) and one replay. The replay's
// response is returned as is, even when it is another 401.
func (m *Manager) Transport(next api.Doer) api.Doer {
	return api.DoerFunc(func(req *http.Request) (*http.Response, error) {
		if bypassed(req.Context()) {
			return next.Do(req)
		}

		req = req.Clone(req.Context())
		token := m.attach(req)

		resp, err := next.Do(req)
		if err != nil || resp.StatusCode != http.StatusUnauthorized || token == "" {
			return resp, err
		}
		return m.HandleUnauthorized(req, resp, token, next)
	})
}

// AttachAuth sets the Authorization header from the active credential. A
// header that is already present is left untouched.
func (m *Manager) AttachAuth(req *http.Request) {
	m.attach(req)
}

// attach returns the token it set, or "" when it set none.
func (m *Manager) attach(req *http.Request) string {
	if req.Header.Get("Authorization") != "" {
		return ""
	}
	m.mu.Lock()
	token := m.access
	m.mu.Unlock()
	if token == "" {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return token
}

// HandleUnauthorized recovers from a 401 returned for failed, which was sent
// with usedToken. On success the request is replayed once through next with
// the new credential. When no refresh is possible the session is cleared and
// an error matching errs.ErrSessionExpired is returned. A caller whose context
// ends first gets the context error and the session is left alone.
func (m *Manager) HandleUnauthorized(failed *http.Request, resp *http.Response, usedToken string, next api.Doer) (*http.Response, error) {
	ctx := failed.Context()
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("refresh for %s %s: %w", failed.Method, failed.URL.Path, err)
	}

	token, err := m.renew(ctx, usedToken)
	if err != nil {
		return nil, err
	}

	retry, err := rewind(failed)
	if err != nil {
		return nil, err
	}
	retry.Header.Set("Authorization", "Bearer "+token)

	m.log.DebugContext(ctx, "replaying request after refresh",
		slog.String("method", retry.Method), slog.String("path", retry.URL.Path))
	return next.Do(retry)
}

// renew returns a credential newer than usedToken, refreshing if nobody else
// already has. The exchange itself is detached from ctx so that one caller
// giving up neither cancels it for the others nor signs the resident out.
func (m *Manager) renew(ctx context.Context, usedToken string) (string, error) {
	m.mu.Lock()
	switch {
	case m.access != "" && m.access != usedToken:
		token := m.access
		m.mu.Unlock()
		return token, nil
	case m.access == "":
		m.mu.Unlock()
		return "", fmt.Errorf("%w: signed out while request was in flight", errs.ErrSessionExpired)
	}
	epoch := m.epoch
	m.state = Refreshing
	m.mu.Unlock()

	refreshCtx := withoutSession(context.WithoutCancel(ctx))
	ch := m.refreshGroup.DoChan("refresh:"+strconv.FormatUint(epoch, 10), func() (any, error) {
		return m.refreshAccess(refreshCtx, epoch)
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("wait for token refresh: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			m.log.DebugContext(ctx, "joined in-flight token refresh")
		}
		return res.Val.(string), nil
	}
}

// refreshAccess exchanges the stored refresh token for the session of epoch.
// Nothing is written when that session has been replaced or cleared in the
// meantime.
func (m *Manager) refreshAccess(ctx context.Context, epoch uint64) (string, error) {
	vals, err := m.store.MultiGet(ctx, storage.KeyRefreshToken)
	if err != nil {
		m.log.WarnContext(ctx, "read refresh token failed", slog.Any("err", err))
	}
	refresh := vals[storage.KeyRefreshToken]
	if refresh == "" {
		m.clearIf(ctx, epoch)
		return "", fmt.Errorf("%w: no refresh token", errs.ErrSessionExpired)
	}

	res, err := m.auth.RefreshToken(ctx, refresh)
	if err != nil {
		m.log.WarnContext(ctx, "token refresh failed, clearing session", slog.Any("err", err))
		m.clearIf(ctx, epoch)
		return "", fmt.Errorf("%w: %v", errs.ErrSessionExpired, err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.currentEpoch() != epoch {
		m.log.InfoContext(ctx, "session changed during token refresh, discarding result")
		return "", fmt.Errorf("%w: session changed during refresh", errs.ErrSessionExpired)
	}

	pairs := []storage.Pair{{Key: storage.KeyAccessToken, Value: res.Access}}
	if res.Refresh != "" {
		pairs = append(pairs, storage.Pair{Key: storage.KeyRefreshToken, Value: res.Refresh})
	}
	if err := m.store.MultiSet(ctx, pairs...); err != nil {
		// the new token still works for this process
		m.log.WarnContext(ctx, "persist refreshed token failed", slog.Any("err", err))
	}

	m.mu.Lock()
	m.access = res.Access
	if res.Refresh != "" {
		m.refresh = res.Refresh
	}
	m.state = Authenticated
	m.mu.Unlock()

	m.log.InfoContext(ctx, "access token refreshed")
	return res.Access, nil
}

// rewind builds a fresh copy of req with its body restored.
func rewind(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("replay %s %s: request body cannot be rewound", req.Method, req.URL.Path)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("replay %s %s: %w", req.Method, req.URL.Path, err)
	}
	retry.Body = body
	return retry, nil
}
