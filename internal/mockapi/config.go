package mockapi

import "time"

type Config struct {
	Secret         string
	Issuer         string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	RotateRefresh  bool
	PageSize       int
	LoginRate      float64 // attempts per second per username
	LoginBurst     int
	BcryptCost     int
	AllowedOrigins []string
}

func (c Config) withDefaults() Config {
	if c.Secret == "" {
		c.Secret = "mockapi-dev-secret"
	}
	if c.Issuer == "" {
		c.Issuer = "mockapi"
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = 5 * time.Minute
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = 24 * time.Hour
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	if c.LoginRate <= 0 {
		c.LoginRate = 1
	}
	if c.LoginBurst <= 0 {
		c.LoginBurst = 5
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:8081", "http://localhost:19006"}
	}
	return c
}
