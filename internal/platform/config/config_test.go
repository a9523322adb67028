package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Addr:               ":8080",
		DatabaseURL:        "postgres://localhost/leavedesk",
		Environment:        "development",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		HoursPerDay:        8,
		QuotaResetInterval: time.Hour,
		QuotaResetStrategy: "zero",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: true},
		{name: "production requires jwt secret", mutate: func(c *Config) { c.Environment = "production" }, wantErr: true},
		{name: "production with secret passes", mutate: func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "a-strong-secret"
			c.RunSeed = false
		}},
		{name: "hours per day zero", mutate: func(c *Config) { c.HoursPerDay = 0 }, wantErr: true},
		{name: "hours per day over 24", mutate: func(c *Config) { c.HoursPerDay = 25 }, wantErr: true},
		{name: "bad reset strategy", mutate: func(c *Config) { c.QuotaResetStrategy = "purge" }, wantErr: true},
		{name: "delete strategy passes", mutate: func(c *Config) { c.QuotaResetStrategy = "delete" }},
		{name: "tiny body limit", mutate: func(c *Config) { c.MaxBodyBytes = 16 }, wantErr: true},
		{name: "email enabled needs smtp host", mutate: func(c *Config) { c.EmailEnabled = true }, wantErr: true},
		{name: "line enabled needs token", mutate: func(c *Config) { c.LineEnabled = true }, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.HoursPerDay != 8 {
		t.Fatalf("expected default hours per day 8, got %d", cfg.HoursPerDay)
	}
	if cfg.QuotaResetStrategy != "zero" {
		t.Fatalf("expected default reset strategy zero, got %q", cfg.QuotaResetStrategy)
	}
	if cfg.MigrationsDir != "migrations" {
		t.Fatalf("expected default migrations dir, got %q", cfg.MigrationsDir)
	}
}
