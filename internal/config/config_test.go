package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apartment-mgmt/resident/internal/storage"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadFile(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", `
api:
  baseURL: "https://apartments.example.com/api/"
  timeout: 5s
storage:
  driver: redis
  redisAddr: "localhost:6379"
  keyPrefix: "phone-1"
logging:
  env: prod
  backend: zap
mock:
  accessTTL: 1m
  pageSize: 20
`)

	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.API.BaseURL != "https://apartments.example.com/api/" || cfg.API.Timeout != 5*time.Second {
		t.Fatalf("api = %+v", cfg.API)
	}
	sc := cfg.StorageConfig()
	if sc.Driver != storage.DriverRedis || sc.Redis.Addr != "localhost:6379" || sc.Redis.KeyPrefix != "phone-1" {
		t.Fatalf("storage = %+v", sc)
	}
	if cfg.Mock.AccessTTL != time.Minute || cfg.Mock.PageSize != 20 || cfg.Mock.HTTP.Addr != ":8000" {
		t.Fatalf("mock = %+v", cfg.Mock)
	}
	if cfg.Logging.Service != "resident" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Storage.Driver != storage.DriverSQLite || cfg.Storage.DSN != "file:resident.db" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v", cfg.API.Timeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", "api:\n  baseURL: http://from-file/\n")
	t.Setenv(EnvAPIBaseURL, "http://from-env:9000/api/")
	t.Setenv(EnvStorageDriver, "memory")

	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.API.BaseURL != "http://from-env:9000/api/" || cfg.Storage.Driver != storage.DriverMemory {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", EnvAPIBaseURL+"=http://dotenv.local/\n")
	cfgPath := writeFile(t, dir, "config.yaml", "storage:\n  driver: memory\n")

	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv(EnvConfigPath, cfgPath)
	t.Setenv(EnvAPIBaseURL, "")
	os.Unsetenv(EnvAPIBaseURL)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://dotenv.local/" {
		t.Fatalf("baseURL = %q", cfg.API.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad url", "api:\n  baseURL: not-a-url\n", "api.baseURL"},
		{"unknown driver", "storage:\n  driver: floppy\n", "storage.driver"},
		{"redis without addr", "storage:\n  driver: redis\n", "redisAddr"},
		{"negative page size", "mock:\n  pageSize: -1\n", "mock.pageSize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, t.TempDir(), "config.yaml", tt.yaml)
			_, err := LoadFile(p)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("want error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
