package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/apartment-mgmt/resident/internal/storage"
)

type API struct {
	BaseURL string        `yaml:"baseURL"` // "http://localhost:8000/api/"
	Timeout time.Duration `yaml:"timeout"` // "10s"
}

type Storage struct {
	Driver        string `yaml:"driver"` // memory|sqlite|redis
	DSN           string `yaml:"dsn"`    // sqlite: "file:resident.db"
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	KeyPrefix     string `yaml:"keyPrefix"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // "resident"
	Version   string `yaml:"version"`   // "0.1.0"
	AddSource bool   `yaml:"addSource"` // true/false
	Backend   string `yaml:"backend"`   // "std"|"zap"
	Level     string `yaml:"level"`     // debug|info|warn|error
	Debug     bool   `yaml:"debug"`
}

type HTTP struct {
	Addr         string        `yaml:"addr"`         // ":8000"
	ReadTimeout  time.Duration `yaml:"readTimeout"`  // "15s"
	WriteTimeout time.Duration `yaml:"writeTimeout"` // "30s"
	IdleTimeout  time.Duration `yaml:"idleTimeout"`  // "60s"
}

// Mock configures the local fake backend (cmd/mockapi).
type Mock struct {
	HTTP           HTTP          `yaml:"http"`
	Secret         string        `yaml:"secret"`
	AccessTTL      time.Duration `yaml:"accessTTL"`
	RefreshTTL     time.Duration `yaml:"refreshTTL"`
	RotateRefresh  bool          `yaml:"rotateRefresh"`
	PageSize       int           `yaml:"pageSize"`
	LoginRate      float64       `yaml:"loginRate"`
	LoginBurst     int           `yaml:"loginBurst"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

type Config struct {
	API     API     `yaml:"api"`
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
	Mock    Mock    `yaml:"mock"`
}

const (
	EnvConfigPath     = "CONFIG_PATH"
	EnvAPIBaseURL     = "RESIDENT_API_BASE_URL"
	EnvStorageDriver  = "RESIDENT_STORAGE_DRIVER"
	EnvStorageDSN     = "RESIDENT_STORAGE_DSN"
	EnvRedisAddr      = "RESIDENT_REDIS_ADDR"
	EnvMockSecret     = "RESIDENT_MOCK_SECRET"
	defaultConfigPath = "config/config.yaml"
)

// Load reads .env (if any), then the YAML file at CONFIG_PATH, then applies
// env overrides and defaults. A missing YAML file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = filepath.FromSlash(defaultConfigPath)
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvStorageDriver); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv(EnvStorageDSN); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv(EnvMockSecret); v != "" {
		c.Mock.Secret = v
	}
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8000/"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = storage.DriverSQLite
	}
	if c.Storage.Driver == storage.DriverSQLite && c.Storage.DSN == "" {
		c.Storage.DSN = "file:resident.db"
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "resident"
	}
	if c.Mock.HTTP.Addr == "" {
		c.Mock.HTTP.Addr = ":8000"
	}
	if c.Mock.HTTP.ReadTimeout == 0 {
		c.Mock.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.Mock.HTTP.WriteTimeout == 0 {
		c.Mock.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.Mock.HTTP.IdleTimeout == 0 {
		c.Mock.HTTP.IdleTimeout = 60 * time.Second
	}
}

func (c *Config) Validate() error {
	var problems []string

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("api.baseURL %q is not an http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		problems = append(problems, "api.timeout must not be negative")
	}

	switch c.Storage.Driver {
	case storage.DriverMemory, storage.DriverSQLite:
	case storage.DriverRedis:
		if c.Storage.RedisAddr == "" {
			problems = append(problems, "storage.redisAddr is required for the redis driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q is not one of memory|sqlite|redis", c.Storage.Driver))
	}

	if c.Mock.PageSize < 0 || c.Mock.LoginBurst < 0 || c.Mock.LoginRate < 0 {
		problems = append(problems, "mock.pageSize, mock.loginRate and mock.loginBurst must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// StorageConfig maps the storage section onto storage.Open's input.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Driver: c.Storage.Driver,
		DSN:    c.Storage.DSN,
		Redis: storage.RedisOptions{
			Addr:      c.Storage.RedisAddr,
			Password:  c.Storage.RedisPassword,
			DB:        c.Storage.RedisDB,
			KeyPrefix: c.Storage.KeyPrefix,
		},
	}
}
