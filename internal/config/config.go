// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

// Package config loads and validates the accounts service configuration.
package config

import (
	"net/url"
	"slices"
	"time"

	"github.com/samber/oops"

	"github.com/onlinecinema/accounts/internal/auth"
	"github.com/onlinecinema/accounts/internal/mail"
)

// MinSecretKeyLength is the shortest accepted signing secret.
const MinSecretKeyLength = 32

// Config is the complete service configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http" json:"http,omitempty"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics,omitempty"`
	Log      LogConfig      `koanf:"log" json:"log,omitempty"`
	Database DatabaseConfig `koanf:"database" json:"database,omitempty"`
	Store    StoreConfig    `koanf:"store" json:"store,omitempty"`
	Auth     AuthConfig     `koanf:"auth" json:"auth,omitempty"`
	Mail     MailConfig     `koanf:"mail" json:"mail,omitempty"`
	Cleanup  CleanupConfig  `koanf:"cleanup" json:"cleanup,omitempty"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" jsonschema:"description=API listen address"`

	// CORSOrigins are glob patterns such as https://*.example.com.
	CORSOrigins     []string      `koanf:"cors_origins" json:"cors_origins,omitempty"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout,omitempty" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
}

// MetricsConfig configures the metrics and health probe listener.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" jsonschema:"description=metrics/health listen address; empty disables"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL      string `koanf:"url" json:"url,omitempty"`
	MaxConns int32  `koanf:"max_conns" json:"max_conns,omitempty" jsonschema:"minimum=0"`
}

// StoreConfig configures record store calls.
type StoreConfig struct {
	Timeout time.Duration `koanf:"timeout" json:"timeout,omitempty" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
}

// AuthConfig configures token signing and lifetimes.
type AuthConfig struct {
	SecretKey       string        `koanf:"secret_key" json:"secret_key,omitempty"`
	Algorithm       string        `koanf:"algorithm" json:"algorithm,omitempty" jsonschema:"enum=HS256,enum=HS384,enum=HS512"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl" json:"access_token_ttl,omitempty" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	VerifyTokenTTL  time.Duration `koanf:"verify_token_ttl" json:"verify_token_ttl,omitempty" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl" json:"refresh_token_ttl,omitempty" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	ResetTokenTTL   time.Duration `koanf:"reset_token_ttl" json:"reset_token_ttl,omitempty" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	DefaultGroup    string        `koanf:"default_group" json:"default_group,omitempty" jsonschema:"enum=USER,enum=MODERATOR,enum=ADMIN"`
}

// MailConfig configures notification delivery. An empty Host logs links
// instead of sending mail.
type MailConfig struct {
	Host        string        `koanf:"host" json:"host,omitempty"`
	Port        int           `koanf:"port" json:"port,omitempty" jsonschema:"minimum=0,maximum=65535"`
	Username    string        `koanf:"username" json:"username,omitempty"`
	Password    string        `koanf:"password" json:"password,omitempty"`
	UseTLS      bool          `koanf:"use_tls" json:"use_tls,omitempty"`
	From        string        `koanf:"from" json:"from,omitempty"`
	Timeout     time.Duration `koanf:"timeout" json:"timeout,omitempty" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	FrontendURL string        `koanf:"frontend_url" json:"frontend_url,omitempty"`
}

// CleanupConfig configures the in-process token purge. A zero Interval
// disables it; run `accounts cleanup` from cron instead.
type CleanupConfig struct {
	Interval time.Duration `koanf:"interval" json:"interval,omitempty" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
}

// Default returns the configuration used for every key not set elsewhere.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8000",
			ShutdownTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Log:     LogConfig{Format: "json", Level: "info"},
		Database: DatabaseConfig{
			MaxConns: 10,
		},
		Store: StoreConfig{Timeout: auth.DefaultStoreTimeout},
		Auth: AuthConfig{
			Algorithm:       auth.DefaultAlgorithm,
			AccessTokenTTL:  auth.DefaultAccessTokenTTL,
			VerifyTokenTTL:  auth.DefaultVerifyTokenTTL,
			RefreshTokenTTL: auth.DefaultRefreshTokenTTL,
			ResetTokenTTL:   auth.DefaultResetTokenTTL,
			DefaultGroup:    auth.DefaultGroup,
		},
		Mail: MailConfig{
			Port:        587,
			UseTLS:      true,
			Timeout:     auth.DefaultNotifyTimeout,
			FrontendURL: "http://localhost:8000",
		},
	}
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}

// ValidateDatabase checks the settings needed to reach the database. It is
// enough for migrate, seed and cleanup.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return invalid("database.url", "database.url is required (or set DATABASE_URL)")
	}
	if c.Database.MaxConns < 0 {
		return invalid("database.max_conns", "database.max_conns cannot be negative")
	}
	if c.Store.Timeout <= 0 {
		return invalid("store.timeout", "store.timeout must be positive")
	}
	return nil
}

// Validate checks every setting needed by serve.
func (c *Config) Validate() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return invalid("http.shutdown_timeout", "http.shutdown_timeout must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}

	if len(c.Auth.SecretKey) < MinSecretKeyLength {
		return invalid("auth.secret_key", "auth.secret_key must be at least %d characters (or set ACCOUNTS_SECRET_KEY)", MinSecretKeyLength)
	}
	if !slices.Contains([]string{"HS256", "HS384", "HS512"}, c.Auth.Algorithm) {
		return invalid("auth.algorithm", "unsupported auth.algorithm %q", c.Auth.Algorithm)
	}
	for key, ttl := range map[string]time.Duration{
		"auth.access_token_ttl":  c.Auth.AccessTokenTTL,
		"auth.verify_token_ttl":  c.Auth.VerifyTokenTTL,
		"auth.refresh_token_ttl": c.Auth.RefreshTokenTTL,
		"auth.reset_token_ttl":   c.Auth.ResetTokenTTL,
	} {
		if ttl <= 0 {
			return invalid(key, "%s must be positive", key)
		}
	}
	if !slices.Contains(auth.GroupNames, c.Auth.DefaultGroup) {
		return invalid("auth.default_group", "auth.default_group must be one of %v", auth.GroupNames)
	}

	if c.Mail.Host != "" {
		if c.Mail.From == "" {
			return invalid("mail.from", "mail.from is required when mail.host is set")
		}
		if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
			return invalid("mail.port", "mail.port must be between 1 and 65535")
		}
	}
	if c.Mail.Timeout <= 0 {
		return invalid("mail.timeout", "mail.timeout must be positive")
	}
	if u, err := url.Parse(c.Mail.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("mail.frontend_url", "mail.frontend_url must be an absolute URL")
	}

	if c.Cleanup.Interval < 0 {
		return invalid("cleanup.interval", "cleanup.interval cannot be negative")
	}
	return nil
}

// ServiceConfig projects the auth settings onto auth.ServiceConfig.
func (c *Config) ServiceConfig() auth.ServiceConfig {
	return auth.ServiceConfig{
		AccessTokenTTL:  c.Auth.AccessTokenTTL,
		VerifyTokenTTL:  c.Auth.VerifyTokenTTL,
		RefreshTokenTTL: c.Auth.RefreshTokenTTL,
		ResetTokenTTL:   c.Auth.ResetTokenTTL,
		DefaultGroup:    c.Auth.DefaultGroup,
		StoreTimeout:    c.Store.Timeout,
		NotifyTimeout:   c.Mail.Timeout,
	}
}

// SMTPConfig projects the mail settings onto mail.SMTPConfig.
func (c *Config) SMTPConfig() mail.SMTPConfig {
	return mail.SMTPConfig{
		Host:        c.Mail.Host,
		Port:        c.Mail.Port,
		Username:    c.Mail.Username,
		Password:    c.Mail.Password,
		UseTLS:      c.Mail.UseTLS,
		From:        c.Mail.From,
		FrontendURL: c.Mail.FrontendURL,
		Timeout:     c.Mail.Timeout,
	}
}
