// Package config holds the runtime settings of the chat server: defaults,
// environment overrides and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProtocolLegacy   = "legacy"
	ProtocolStandard = "standard"

	SessionLegacy = "legacy"
	SessionToken  = "token"
)

var ErrInvalidPort = errors.New("invalid port")

// Config holds the server configuration.
type Config struct {
	Port            int
	Root            string
	CredentialsPath string
	LogPath         string
	// Protocol picks the parser and response framing: "legacy" or "standard".
	Protocol string
	// ReadWindow bounds each read in legacy mode; reading stops as soon as
	// the client is quiet for this long.
	ReadWindow time.Duration
	// ReadTimeout bounds reading a whole request in standard mode.
	ReadTimeout time.Duration
	// MaxConns above 1 lets connections be served concurrently.
	MaxConns      int
	SessionMode   string
	SessionSecret string
	SessionTTL    time.Duration
	MongoURI      string
	MongoDatabase string
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Root:            ".",
		CredentialsPath: "login/credentials.txt",
		LogPath:         "chat/log.txt",
		Protocol:        ProtocolLegacy,
		ReadWindow:      100 * time.Millisecond,
		ReadTimeout:     5 * time.Second,
		MaxConns:        1,
		SessionMode:     SessionLegacy,
		SessionTTL:      24 * time.Hour,
		MongoDatabase:   "chat",
	}
}

// NewFromEnv creates a Config from environment variables, falling back
// to defaults for anything unset or invalid.
func NewFromEnv() Config {
	cfg := Default()

	if root := os.Getenv("CHAT_ROOT"); root != "" {
		cfg.Root = root
	}
	if p := os.Getenv("CHAT_CREDENTIALS"); p != "" {
		cfg.CredentialsPath = p
	}
	if p := os.Getenv("CHAT_LOG"); p != "" {
		cfg.LogPath = p
	}
	if proto := os.Getenv("CHAT_PROTOCOL"); proto != "" {
		cfg.Protocol = strings.ToLower(strings.TrimSpace(proto))
	}
	if ms := os.Getenv("CHAT_READ_WINDOW_MS"); ms != "" {
		cfg.ReadWindow = parseMillis(ms, cfg.ReadWindow)
	}
	if d := os.Getenv("CHAT_READ_TIMEOUT"); d != "" {
		cfg.ReadTimeout = parseDuration(d, cfg.ReadTimeout)
	}
	if n := os.Getenv("CHAT_MAX_CONNS"); n != "" {
		cfg.MaxConns = parseIntValue(n, cfg.MaxConns)
	}
	if mode := os.Getenv("CHAT_SESSION_MODE"); mode != "" {
		cfg.SessionMode = strings.ToLower(strings.TrimSpace(mode))
	}
	cfg.SessionSecret = os.Getenv("CHAT_SESSION_SECRET")
	if d := os.Getenv("CHAT_SESSION_TTL"); d != "" {
		cfg.SessionTTL = parseDuration(d, cfg.SessionTTL)
	}
	cfg.MongoURI = os.Getenv("CHAT_MONGO_URI")
	if db := os.Getenv("CHAT_MONGO_DB"); db != "" {
		cfg.MongoDatabase = db
	}

	return cfg.Sanitize()
}

// Sanitize replaces unusable values with defaults.
func (c Config) Sanitize() Config {
	def := Default()

	if c.Root == "" {
		c.Root = def.Root
	}
	if c.CredentialsPath == "" {
		c.CredentialsPath = def.CredentialsPath
	}
	if c.LogPath == "" {
		c.LogPath = def.LogPath
	}
	if c.Protocol != ProtocolLegacy && c.Protocol != ProtocolStandard {
		c.Protocol = def.Protocol
	}
	if c.ReadWindow <= 0 {
		c.ReadWindow = def.ReadWindow
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.MaxConns <= 0 {
		c.MaxConns = def.MaxConns
	}
	if c.SessionMode != SessionLegacy && c.SessionMode != SessionToken {
		c.SessionMode = def.SessionMode
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = def.SessionTTL
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = def.MongoDatabase
	}
	return c
}

// ParsePort validates the port given on the command line.
func ParsePort(arg string) (int, error) {
	port, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, arg)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidPort, port)
	}
	return port, nil
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseMillis(value string, defaultValue time.Duration) time.Duration {
	if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

// parseDuration accepts Go duration strings ("30s") or bare seconds ("30").
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
