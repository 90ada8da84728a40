package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.MultiGet(ctx, KeyAccessToken, KeyUser)
	if err != nil {
		t.Fatalf("MultiGet on empty store: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected nothing, got %v", got)
	}

	if err := s.MultiSet(ctx,
		Pair{Key: KeyAccessToken, Value: "acc"},
		Pair{Key: KeyIsLogin, Value: "true"},
		Pair{Key: KeyUser, Value: `{"id":1}`},
	); err != nil {
		t.Fatalf("MultiSet: %v", err)
	}

	got, err = s.MultiGet(ctx, KeyAccessToken, KeyRefreshToken, KeyUser)
	if err != nil {
		t.Fatalf("MultiGet: %v", err)
	}
	if got[KeyAccessToken] != "acc" || got[KeyUser] != `{"id":1}` {
		t.Fatalf("unexpected values %v", got)
	}
	if _, ok := got[KeyRefreshToken]; ok {
		t.Fatalf("absent key must not be returned: %v", got)
	}

	if err := s.MultiSet(ctx, Pair{Key: KeyAccessToken, Value: "acc2"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.MultiGet(ctx, KeyAccessToken)
	if got[KeyAccessToken] != "acc2" {
		t.Fatalf("overwrite not visible: %v", got)
	}

	if err := s.MultiRemove(ctx, SessionKeys...); err != nil {
		t.Fatalf("MultiRemove: %v", err)
	}
	got, _ = s.MultiGet(ctx, SessionKeys...)
	if len(got) != 0 {
		t.Fatalf("expected all keys removed, got %v", got)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	runStoreContract(t, m)

	_ = m.Close()
	if _, err := m.MultiGet(context.Background(), KeyUser); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resident.db")
	s, err := OpenSQLite(context.Background(), "file:"+path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	runStoreContract(t, s)
	_ = s.Close()
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "resident.db")

	s, err := OpenSQLite(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.MultiSet(ctx, Pair{Key: KeyAccessToken, Value: "keep-me"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = s.Close()

	s, err = OpenSQLite(ctx, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.MultiGet(ctx, KeyAccessToken)
	if err != nil || got[KeyAccessToken] != "keep-me" {
		t.Fatalf("value lost after reopen: %v %v", got, err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("RESIDENT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RESIDENT_TEST_REDIS_ADDR not set")
	}
	r, err := OpenRedis(context.Background(), RedisOptions{Addr: addr, KeyPrefix: "resident-test-" + t.Name()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	runStoreContract(t, r)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: "memory"})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("expected *Memory, got %T", s)
	}

	s, err = Open(ctx, Config{DSN: "file:" + filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("default driver: %v", err)
	}
	if _, ok := s.(*SQLite); !ok {
		t.Fatalf("expected *SQLite by default, got %T", s)
	}
	_ = s.Close()

	if _, err := Open(ctx, Config{Driver: "etcd"}); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}
