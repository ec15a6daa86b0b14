package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse("spectator", nil, envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8000/ws", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 10*time.Second, cfg.DialTimeout)
	assert.Equal(t, int64(1<<20), cfg.ReadLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.APIPort)
	assert.Empty(t, cfg.RecordPath)
	assert.False(t, cfg.AutoStart)
}

func TestParse_EnvironmentDefaults(t *testing.T) {
	cfg, err := Parse("spectator", nil, envFrom(map[string]string{
		EnvServerURL:      "wss://game.example.com/ws",
		EnvReconnectDelay: "250ms",
		EnvLogLevel:       "debug",
		EnvAPIPort:        "9090",
		EnvAutoStart:      "true",
		EnvArchiveSQLite:  "archive.db",
	}))
	require.NoError(t, err)

	assert.Equal(t, "wss://game.example.com/ws", cfg.ServerURL)
	assert.Equal(t, 250*time.Millisecond, cfg.ReconnectDelay)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "9090", cfg.APIPort)
	assert.True(t, cfg.AutoStart)
	assert.Equal(t, "archive.db", cfg.ArchiveSQLite)
}

func TestParse_FlagsOverrideEnvironment(t *testing.T) {
	cfg, err := Parse("spectator", []string{
		"-server-url", "ws://10.0.0.2:8000/ws",
		"-reconnect-delay", "2s",
		"-record", "game.zst",
		"-autostart=false",
	}, envFrom(map[string]string{
		EnvServerURL:      "ws://ignored:1/ws",
		EnvReconnectDelay: "1m",
		EnvAutoStart:      "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "ws://10.0.0.2:8000/ws", cfg.ServerURL)
	assert.Equal(t, 2*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, "game.zst", cfg.RecordPath)
	assert.False(t, cfg.AutoStart)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "bad env delay", env: map[string]string{EnvReconnectDelay: "soon"}},
		{name: "bad env autostart", env: map[string]string{EnvAutoStart: "maybe"}},
		{name: "bad env read limit", env: map[string]string{EnvReadLimit: "lots"}},
		{name: "unknown flag", args: []string{"-nope"}},
		{name: "http url", args: []string{"-server-url", "http://localhost:8000/ws"}},
		{name: "no host", args: []string{"-server-url", "ws:///ws"}},
		{name: "zero delay", args: []string{"-reconnect-delay", "0s"}},
		{name: "negative dial timeout", args: []string{"-dial-timeout", "-1s"}},
		{name: "zero read limit", args: []string{"-read-limit", "0"}},
		{name: "bad log level", args: []string{"-log-level", "loud"}},
		{name: "bad api port", args: []string{"-api-port", "http"}},
		{name: "port out of range", args: []string{"-api-port", "70000"}},
		{name: "two archives", args: []string{"-archive-sqlite", "a.db", "-archive-postgres", "postgres://localhost/db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("spectator", tt.args, envFrom(tt.env))
			assert.Error(t, err)
		})
	}
}
