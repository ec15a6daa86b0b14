package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/cbodonnell/solongsucker/client/gamesync"
	"github.com/cbodonnell/solongsucker/client/network"
	"github.com/cbodonnell/solongsucker/pkg/log"
	"github.com/joho/godotenv"
)

const (
	EnvServerURL       = "SLS_SERVER_URL"
	EnvReconnectDelay  = "SLS_RECONNECT_DELAY"
	EnvLogLevel        = "SLS_LOG_LEVEL"
	EnvAPIPort         = "SLS_API_PORT"
	EnvRecordPath      = "SLS_RECORD"
	EnvArchiveSQLite   = "SLS_ARCHIVE_SQLITE"
	EnvArchivePostgres = "SLS_ARCHIVE_POSTGRES"
	EnvAutoStart       = "SLS_AUTOSTART"
	EnvReadLimit       = "SLS_READ_LIMIT"
	EnvDialTimeout     = "SLS_DIAL_TIMEOUT"
)

// Config holds the spectator settings.
type Config struct {
	ServerURL       string
	ReconnectDelay  time.Duration
	DialTimeout     time.Duration
	ReadLimit       int64
	LogLevel        string
	APIPort         string
	RecordPath      string
	ArchiveSQLite   string
	ArchivePostgres string
	AutoStart       bool
}

// Load reads an optional .env file and parses args. Environment variables
// provide the defaults that flags override.
func Load(name string, args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %v", err)
	}
	return Parse(name, args, os.LookupEnv)
}

// Parse builds a Config from args, using lookupEnv for defaults.
func Parse(name string, args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	env := func(key, fallback string) string {
		if v, ok := lookupEnv(key); ok && v != "" {
			return v
		}
		return fallback
	}

	reconnectDelay, err := time.ParseDuration(env(EnvReconnectDelay, gamesync.DefaultReconnectDelay.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %v", EnvReconnectDelay, err)
	}
	dialTimeout, err := time.ParseDuration(env(EnvDialTimeout, network.DefaultDialTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %v", EnvDialTimeout, err)
	}
	readLimit, err := strconv.ParseInt(env(EnvReadLimit, strconv.Itoa(network.DefaultReadLimit)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %v", EnvReadLimit, err)
	}
	autoStart, err := strconv.ParseBool(env(EnvAutoStart, "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %v", EnvAutoStart, err)
	}

	cfg := &Config{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.ServerURL, "server-url", env(EnvServerURL, network.DefaultServerURL), "Game server WebSocket URL")
	fs.DurationVar(&cfg.ReconnectDelay, "reconnect-delay", reconnectDelay, "Fixed delay before reconnecting")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", dialTimeout, "Timeout for a single connection attempt")
	fs.Int64Var(&cfg.ReadLimit, "read-limit", readLimit, "Maximum size of a single server message in bytes")
	fs.StringVar(&cfg.LogLevel, "log-level", env(EnvLogLevel, "info"), "Log level")
	fs.StringVar(&cfg.APIPort, "api-port", env(EnvAPIPort, ""), "Port for the local API (disabled if empty)")
	fs.StringVar(&cfg.RecordPath, "record", env(EnvRecordPath, ""), "File to record snapshots to (disabled if empty)")
	fs.StringVar(&cfg.ArchiveSQLite, "archive-sqlite", env(EnvArchiveSQLite, ""), "SQLite database to archive snapshots to")
	fs.StringVar(&cfg.ArchivePostgres, "archive-postgres", env(EnvArchivePostgres, ""), "Postgres connection string to archive snapshots to")
	fs.BoolVar(&cfg.AutoStart, "autostart", autoStart, "Send start_game once connected")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %v", c.ServerURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server url %q must use ws or wss", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server url %q has no host", c.ServerURL)
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive, got %s", c.ReconnectDelay)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive, got %s", c.DialTimeout)
	}
	if c.ReadLimit <= 0 {
		return fmt.Errorf("read limit must be positive, got %d", c.ReadLimit)
	}
	if _, err := log.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.APIPort != "" {
		port, err := strconv.Atoi(c.APIPort)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid api port %q", c.APIPort)
		}
	}
	if c.ArchiveSQLite != "" && c.ArchivePostgres != "" {
		return fmt.Errorf("archive-sqlite and archive-postgres are mutually exclusive")
	}
	return nil
}
