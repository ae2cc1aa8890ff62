// Package config loads and stores nort configuration.
//
// Non-secret settings live in config.json under the XDG config dir. A .env
// file in the working directory is loaded first, and NORT_* environment
// variables override both. Connection strings carry credentials and are
// therefore taken from the environment only, never written to disk.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nort/cli/internal/backend"
	"nort/cli/internal/dsn"
	"nort/cli/internal/xdg"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvTransport       = "NORT_TRANSPORT"
	EnvEndpoint        = "NORT_ENDPOINT"
	EnvProject         = "PROJECT_ID"
	EnvPlatform        = "PLATFORM"
	EnvAPIURL          = "NORT_API_URL"
	EnvDatabaseURL     = "NORT_DATABASE_URL"
	EnvRedisURL        = "NORT_REDIS_URL"
	EnvListenAddr      = "NORT_LISTEN_ADDR"
	EnvLogLevel        = "NORT_LOG_LEVEL"
	EnvKeyringBackend  = "NORT_KEYRING_BACKEND"
	EnvKeyringPassword = "NORT_KEYRING_PASSWORD"
)

// Config holds nort settings.
type Config struct {
	// LogLevel is empty by default: interactive commands then log warnings
	// only and serve logs at info.
	LogLevel  string            `json:"log_level,omitempty"`
	Transport backend.Transport `json:"transport"`
	Appwrite  AppwriteConfig    `json:"appwrite"`
	API       APIConfig         `json:"api"`
	Database  DatabaseConfig    `json:"database"`
	Server    ServerConfig      `json:"server"`
	Keyring   KeyringConfig     `json:"keyring"`
}

// AppwriteConfig configures the hosted identity service binding.
type AppwriteConfig struct {
	Endpoint string `json:"endpoint"`
	Project  string `json:"project"`
	Platform string `json:"platform"`
}

// APIConfig configures the NORT /api/* binding.
type APIConfig struct {
	BaseURL   string            `json:"base_url"`
	Endpoints backend.Endpoints `json:"endpoints"`
	Timeout   Duration          `json:"timeout"`
}

// DatabaseConfig configures the self-hosted account directory.
type DatabaseConfig struct {
	URL        string   `json:"-"`
	RedisURL   string   `json:"-"`
	SessionTTL Duration `json:"session_ttl"`

	// SweepInterval controls how often expired Postgres sessions are deleted.
	SweepInterval Duration `json:"sweep_interval,omitempty"`
}

// ServerConfig configures `nort serve`.
type ServerConfig struct {
	ListenAddr     string   `json:"listen_addr"`
	AllowedOrigins []string `json:"allowed_origins"`
	SecureCookies  bool     `json:"secure_cookies"`
}

// KeyringConfig selects the credential store.
type KeyringConfig struct {
	Backend  string `json:"backend"`
	FileDir  string `json:"file_dir,omitempty"`
	Password string `json:"-"`
}

// Duration is a time.Duration that reads and writes as "30s".
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		Transport: backend.TransportAPI,
		Appwrite: AppwriteConfig{
			Endpoint: backend.DefaultAppwriteEndpoint,
			Platform: "nort.cli",
		},
		API: APIConfig{
			BaseURL:   "http://localhost:8080",
			Endpoints: backend.DefaultEndpoints(),
			Timeout:   Duration(15 * time.Second),
		},
		Database: DatabaseConfig{SessionTTL: Duration(30 * 24 * time.Hour)},
		Server: ServerConfig{
			ListenAddr:     ":8080",
			AllowedOrigins: []string{"http://localhost:*"},
		},
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads .env, the config file and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(p)
}

// LoadFile reads the given config file (missing means defaults) and applies
// environment overrides. It does not read .env.
func LoadFile(p string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse %s: %w", p, err)
		}
	}
	c.applyEnv(os.Getenv)
	c.API.Endpoints = c.API.Endpoints.WithDefaults()
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(p, c)
}

// SaveFile writes c to p with 0600 permissions.
func SaveFile(p string, c Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var transport string
	set(&transport, EnvTransport)
	if transport != "" {
		c.Transport = backend.Transport(strings.ToLower(transport))
	}
	set(&c.Appwrite.Endpoint, EnvEndpoint)
	set(&c.Appwrite.Project, EnvProject)
	set(&c.Appwrite.Platform, EnvPlatform)
	set(&c.API.BaseURL, EnvAPIURL)
	set(&c.Database.URL, EnvDatabaseURL)
	set(&c.Database.RedisURL, EnvRedisURL)
	set(&c.Server.ListenAddr, EnvListenAddr)
	set(&c.LogLevel, EnvLogLevel)
	set(&c.Keyring.Backend, EnvKeyringBackend)
	set(&c.Keyring.Password, EnvKeyringPassword)
}

// Validate checks the settings needed by the selected transport. Server-only
// settings are checked by ValidateServer.
func (c Config) Validate() error {
	var errs []error
	switch c.Transport {
	case backend.TransportAppwrite:
		if c.Appwrite.Project == "" {
			errs = append(errs, fmt.Errorf("appwrite transport requires %s", EnvProject))
		}
		if c.Appwrite.Endpoint == "" {
			errs = append(errs, fmt.Errorf("appwrite transport requires %s", EnvEndpoint))
		}
	case backend.TransportAPI:
		if c.API.BaseURL == "" {
			errs = append(errs, fmt.Errorf("api transport requires %s", EnvAPIURL))
		}
	case backend.TransportPostgres:
		if _, err := dsn.Postgres(c.Database.URL); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvDatabaseURL, err))
		}
		if c.Database.RedisURL != "" {
			if _, err := dsn.Redis(c.Database.RedisURL); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", EnvRedisURL, err))
			}
		}
		if c.Database.SessionTTL <= 0 {
			errs = append(errs, errors.New("database.session_ttl must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q (want appwrite, api or postgres)", c.Transport))
	}
	return errors.Join(errs...)
}

// ValidateServer checks the settings `nort serve` needs. The server proxies
// to an upstream binding, so the api transport would loop back to itself.
func (c Config) ValidateServer() error {
	if c.Transport == backend.TransportAPI {
		return fmt.Errorf("serve needs an upstream transport (appwrite or postgres), got %q", c.Transport)
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("%s is empty", EnvListenAddr)
	}
	return c.Validate()
}
