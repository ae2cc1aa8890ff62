package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"nort/cli/internal/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvTransport, EnvEndpoint, EnvProject, EnvPlatform, EnvAPIURL, EnvDatabaseURL,
		EnvRedisURL, EnvListenAddr, EnvLogLevel, EnvKeyringBackend, EnvKeyringPassword,
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	clearEnv(t)
	c, err := LoadFile(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.NoError(t, c.Validate())
}

func TestLoadFile_FileThenEnv(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{
		"log_level": "debug",
		"transport": "appwrite",
		"appwrite": {"project": "from-file", "platform": "nort.app"},
		"api": {"timeout": "5s", "endpoints": {"me": "/v2/me"}}
	}`), 0o600))
	t.Setenv(EnvProject, "from-env")
	t.Setenv(EnvDatabaseURL, "postgres://u:p@db/nort")

	c, err := LoadFile(p)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, backend.TransportAppwrite, c.Transport)
	assert.Equal(t, "from-env", c.Appwrite.Project)
	assert.Equal(t, "nort.app", c.Appwrite.Platform)
	assert.Equal(t, backend.DefaultAppwriteEndpoint, c.Appwrite.Endpoint)
	assert.Equal(t, 5*time.Second, c.API.Timeout.Std())
	assert.Equal(t, "/v2/me", c.API.Endpoints.Me)
	assert.Equal(t, "/api/login", c.API.Endpoints.Login)
	assert.Equal(t, "postgres://u:p@db/nort", c.Database.URL)
}

func TestLoadFile_BadJSON(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"api": {"timeout": 5}}`), 0o600))

	_, err := LoadFile(p)
	assert.Error(t, err)
}

func TestSaveFile_OmitsSecrets(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	c := Default()
	c.Database.URL = "postgres://u:secret@db/nort"
	c.Keyring.Password = "hunter2"
	require.NoError(t, SaveFile(p, c))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "hunter2")
	fi, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "api default", mutate: func(*Config) {}},
		{name: "api without url", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: EnvAPIURL},
		{name: "appwrite without project", mutate: func(c *Config) { c.Transport = backend.TransportAppwrite }, wantErr: EnvProject},
		{name: "appwrite ok", mutate: func(c *Config) {
			c.Transport = backend.TransportAppwrite
			c.Appwrite.Project = "p1"
		}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Transport = backend.TransportPostgres }, wantErr: EnvDatabaseURL},
		{name: "postgres bad redis", mutate: func(c *Config) {
			c.Transport = backend.TransportPostgres
			c.Database.URL = "postgres://u:p@db/nort"
			c.Database.RedisURL = "memcached://x"
		}, wantErr: EnvRedisURL},
		{name: "postgres ok", mutate: func(c *Config) {
			c.Transport = backend.TransportPostgres
			c.Database.URL = "postgres://u:p@db/nort"
			c.Database.RedisURL = "redis://localhost:6379/0"
		}},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "carrier-pigeon" }, wantErr: "unknown transport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateServer_RejectsLoopback(t *testing.T) {
	c := Default()
	assert.Error(t, c.ValidateServer())

	c.Transport = backend.TransportAppwrite
	c.Appwrite.Project = "p1"
	assert.NoError(t, c.ValidateServer())
}
