// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/oneshot-tui/internal/realtime"
	"github.com/jeranaias/oneshot-tui/internal/util"
)

const (
	// DefaultAPIURL is used when nothing else names the backend.
	DefaultAPIURL = "http://localhost:8000"

	// DefaultWSURL is the realtime base when neither a WS URL nor an API URL
	// is configured.
	DefaultWSURL = "ws://localhost:8000"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "ONESHOT_"

	dirName  = ".oneshot"
	fileName = "config.toml"
	logName  = "oneshot.log"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	Backend  BackendConfig  `toml:"backend" json:"backend"`
	Realtime RealtimeConfig `toml:"realtime" json:"realtime"`
	UI       UIConfig       `toml:"ui" json:"ui"`
	Logging  LoggingConfig  `toml:"logging" json:"logging"`
}

// BackendConfig points the client at the agent platform.
type BackendConfig struct {
	// APIURL is the REST base, e.g. http://localhost:8000.
	APIURL string `toml:"api_url" json:"api_url"`
	// WSURL is the realtime base. Empty derives it from APIURL.
	WSURL string `toml:"ws_url" json:"ws_url"`
	// TimeoutSeconds bounds each REST request.
	TimeoutSeconds int `toml:"timeout_seconds" json:"timeout_seconds"`
	// RateLimitPerSecond throttles REST calls. 0 disables the limiter.
	RateLimitPerSecond float64 `toml:"rate_limit_per_second" json:"rate_limit_per_second"`
}

// RealtimeConfig tunes the WebSocket connection manager.
type RealtimeConfig struct {
	MaxReconnectAttempts    int `toml:"max_reconnect_attempts" json:"max_reconnect_attempts"`
	BaseDelayMS             int `toml:"base_delay_ms" json:"base_delay_ms"`
	MaxDelayMS              int `toml:"max_delay_ms" json:"max_delay_ms"`
	KeepaliveSeconds        int `toml:"keepalive_seconds" json:"keepalive_seconds"`
	HandshakeTimeoutSeconds int `toml:"handshake_timeout_seconds" json:"handshake_timeout_seconds"`
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme        string `toml:"theme" json:"theme"`
	SidebarOpen  bool   `toml:"sidebar_open" json:"sidebar_open"`
	ShowThinking bool   `toml:"show_thinking" json:"show_thinking"`
	WordWrap     int    `toml:"word_wrap" json:"word_wrap"`
}

// LoggingConfig controls the logrus logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" json:"level"`
	// Format is "text" or "json".
	Format string `toml:"format" json:"format"`
	// File receives log output in TUI mode. Empty means ~/.oneshot/oneshot.log.
	File string `toml:"file" json:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			APIURL:         DefaultAPIURL,
			TimeoutSeconds: 60,
		},
		Realtime: RealtimeConfig{
			MaxReconnectAttempts:    realtime.DefaultMaxAttempts,
			BaseDelayMS:             int(realtime.DefaultBaseDelay / time.Millisecond),
			MaxDelayMS:              int(realtime.DefaultMaxDelay / time.Millisecond),
			KeepaliveSeconds:        0,
			HandshakeTimeoutSeconds: int(realtime.DefaultHandshakeTimeout / time.Second),
		},
		UI: UIConfig{
			Theme:        "auto",
			SidebarOpen:  true,
			ShowThinking: true,
			WordWrap:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// WebSocketURL resolves the realtime base: an explicit ws_url wins, then the
// API URL converted to ws/wss, then DefaultWSURL.
func (c *Config) WebSocketURL() string {
	if c.Backend.WSURL != "" {
		return c.Backend.WSURL
	}
	if c.Backend.APIURL != "" {
		return ToWebSocketURL(c.Backend.APIURL)
	}
	return DefaultWSURL
}

// ToWebSocketURL maps http to ws and https to wss. ws and wss pass through;
// anything else is returned unchanged.
func ToWebSocketURL(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "ws://"), strings.HasPrefix(lower, "wss://"):
		return raw
	case strings.HasPrefix(lower, "https://"):
		return "wss://" + raw[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		return "ws://" + raw[len("http://"):]
	}
	return raw
}

// Timeout is the per-request REST timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// Backoff converts the realtime section into a reconnect policy.
func (c *Config) Backoff() realtime.Backoff {
	return realtime.Backoff{
		Base:        time.Duration(c.Realtime.BaseDelayMS) * time.Millisecond,
		Max:         time.Duration(c.Realtime.MaxDelayMS) * time.Millisecond,
		MaxAttempts: c.Realtime.MaxReconnectAttempts,
	}
}

// Keepalive is the ping interval; zero disables pings.
func (c *Config) Keepalive() time.Duration {
	return time.Duration(c.Realtime.KeepaliveSeconds) * time.Second
}

// HandshakeTimeout bounds the WebSocket dial.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Realtime.HandshakeTimeoutSeconds) * time.Second
}

// FilePath returns the configured log path or oneshot.log under ConfigDir.
func (l LoggingConfig) FilePath() (string, error) {
	if l.File != "" {
		return l.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logName), nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns ~/.oneshot, or $ONESHOT_HOME when set.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the default config file if present, then applies environment
// overrides and validates. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFrom(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return cfg, err
}

// LoadFrom reads a TOML file over the defaults. Keys absent from the file
// keep their default values.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to the default path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes cfg as TOML, atomically.
func SaveTo(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# oneshot client configuration\n")
	buf.WriteString("# Environment variables prefixed ONESHOT_ take precedence.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables:
//   - ONESHOT_API_URL, else NEXT_PUBLIC_API_URL: backend.api_url
//   - ONESHOT_WS_URL, else NEXT_PUBLIC_WS_URL: backend.ws_url
//   - ONESHOT_TIMEOUT: backend.timeout_seconds
//   - ONESHOT_LOG_LEVEL, ONESHOT_LOG_FORMAT, ONESHOT_LOG_FILE: logging
//   - ONESHOT_THEME: ui.theme
//
// Malformed numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := firstEnv(EnvPrefix+"API_URL", "NEXT_PUBLIC_API_URL"); v != "" {
		c.Backend.APIURL = v
	}
	if v := firstEnv(EnvPrefix+"WS_URL", "NEXT_PUBLIC_WS_URL"); v != "" {
		c.Backend.WSURL = v
	}
	if v := os.Getenv(EnvPrefix + "TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSeconds = n
		}
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv(EnvPrefix + "THEME"); v != "" {
		c.UI.Theme = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is a problem with a single key.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every failed key.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns ValidateErrors when anything is off.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if err := checkURL(c.Backend.APIURL, "http", "https"); err != nil {
		add("backend.api_url", "%v", err)
	}
	if c.Backend.WSURL != "" {
		if err := checkURL(c.Backend.WSURL, "ws", "wss"); err != nil {
			add("backend.ws_url", "%v", err)
		}
	}
	if c.Backend.TimeoutSeconds <= 0 {
		add("backend.timeout_seconds", "must be positive, got %d", c.Backend.TimeoutSeconds)
	}
	if c.Backend.RateLimitPerSecond < 0 {
		add("backend.rate_limit_per_second", "must not be negative, got %g", c.Backend.RateLimitPerSecond)
	}

	r := c.Realtime
	if r.MaxReconnectAttempts < 0 || r.MaxReconnectAttempts > 100 {
		add("realtime.max_reconnect_attempts", "must be between 0 and 100, got %d", r.MaxReconnectAttempts)
	}
	if r.BaseDelayMS <= 0 {
		add("realtime.base_delay_ms", "must be positive, got %d", r.BaseDelayMS)
	}
	if r.MaxDelayMS < r.BaseDelayMS {
		add("realtime.max_delay_ms", "must be at least base_delay_ms (%d), got %d", r.BaseDelayMS, r.MaxDelayMS)
	}
	if r.KeepaliveSeconds < 0 {
		add("realtime.keepalive_seconds", "must not be negative, got %d", r.KeepaliveSeconds)
	}
	if r.HandshakeTimeoutSeconds <= 0 {
		add("realtime.handshake_timeout_seconds", "must be positive, got %d", r.HandshakeTimeoutSeconds)
	}

	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)
	}
	if c.UI.WordWrap < 0 {
		add("ui.word_wrap", "must not be negative, got %d", c.UI.WordWrap)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("logging.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("logging.format", "invalid format '%s', must be one of: text, json", c.Logging.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	if raw == "" {
		return errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			if u.Host == "" {
				return errors.New("missing host")
			}
			return nil
		}
	}
	return fmt.Errorf("scheme must be one of %s, got '%s'", strings.Join(schemes, ", "), u.Scheme)
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Keys lists every settable key in dot notation, in file order.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, tomlName(section)+"."+tomlName(section.Type.Field(j)))
		}
	}
	return keys
}

// Get returns the value at a key such as "realtime.max_delay_ms".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value into the field at key. The caller validates afterwards.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: invalid integer value '%s'", key, value)
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid number '%s'", key, value)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean '%s'", key, value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("%s: unsupported type %s", key, field.Type())
	}
	return nil
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	section, name, ok := strings.Cut(strings.ToLower(strings.TrimSpace(key)), ".")
	if !ok || section == "" || name == "" {
		return reflect.Value{}, fmt.Errorf("key must look like section.name, got '%s'", key)
	}
	v := reflect.ValueOf(c).Elem()
	for i := 0; i < v.NumField(); i++ {
		if tomlName(v.Type().Field(i)) != section {
			continue
		}
		sv := v.Field(i)
		for j := 0; j < sv.NumField(); j++ {
			if tomlName(sv.Type().Field(j)) == name {
				return sv.Field(j), nil
			}
		}
		return reflect.Value{}, fmt.Errorf("unknown key: %s", key)
	}
	return reflect.Value{}, fmt.Errorf("unknown section: %s", section)
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

// Clone returns a copy. Config holds only value types.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
