// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/oneshot-tui/internal/realtime"
)

// clearEnv blanks every variable ApplyEnvOverrides reads so the host
// environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ONESHOT_API_URL", "NEXT_PUBLIC_API_URL",
		"ONESHOT_WS_URL", "NEXT_PUBLIC_WS_URL",
		"ONESHOT_TIMEOUT", "ONESHOT_LOG_LEVEL", "ONESHOT_LOG_FORMAT",
		"ONESHOT_LOG_FILE", "ONESHOT_THEME",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Backend.APIURL != DefaultAPIURL {
		t.Errorf("api_url = %q, want %q", cfg.Backend.APIURL, DefaultAPIURL)
	}
	if got := cfg.Backoff(); got != realtime.DefaultBackoff() {
		t.Errorf("Backoff() = %+v, want %+v", got, realtime.DefaultBackoff())
	}
	if cfg.HandshakeTimeout() != realtime.DefaultHandshakeTimeout {
		t.Errorf("HandshakeTimeout() = %v", cfg.HandshakeTimeout())
	}
	if cfg.Keepalive() != 0 {
		t.Errorf("Keepalive() = %v, want disabled", cfg.Keepalive())
	}
	if cfg.Timeout() != 60*time.Second {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestToWebSocketURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8000":       "ws://localhost:8000",
		"https://agents.example.com":  "wss://agents.example.com",
		"HTTPS://agents.example.com/": "wss://agents.example.com/",
		"ws://already:1":              "ws://already:1",
		"wss://already:2":             "wss://already:2",
		"localhost:8000":              "localhost:8000",
		"":                            "",
	}
	for in, want := range tests {
		if got := ToWebSocketURL(in); got != want {
			t.Errorf("ToWebSocketURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfig_WebSocketURL(t *testing.T) {
	cfg := Default()
	if got := cfg.WebSocketURL(); got != "ws://localhost:8000" {
		t.Errorf("default = %q", got)
	}

	cfg.Backend.APIURL = "https://agents.example.com"
	if got := cfg.WebSocketURL(); got != "wss://agents.example.com" {
		t.Errorf("derived = %q", got)
	}

	cfg.Backend.WSURL = "ws://realtime:9000"
	if got := cfg.WebSocketURL(); got != "ws://realtime:9000" {
		t.Errorf("explicit = %q", got)
	}

	cfg.Backend.WSURL = ""
	cfg.Backend.APIURL = ""
	if got := cfg.WebSocketURL(); got != DefaultWSURL {
		t.Errorf("empty = %q", got)
	}
}

func TestConfig_ApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXT_PUBLIC_API_URL", "http://next:1")
	t.Setenv("NEXT_PUBLIC_WS_URL", "ws://next:2")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Backend.APIURL != "http://next:1" || cfg.Backend.WSURL != "ws://next:2" {
		t.Errorf("NEXT_PUBLIC fallbacks not applied: %+v", cfg.Backend)
	}

	t.Setenv("ONESHOT_API_URL", "http://oneshot:1")
	t.Setenv("ONESHOT_WS_URL", "ws://oneshot:2")
	t.Setenv("ONESHOT_TIMEOUT", "15")
	t.Setenv("ONESHOT_LOG_LEVEL", "debug")
	t.Setenv("ONESHOT_THEME", "light")

	cfg = Default()
	cfg.ApplyEnvOverrides()
	if cfg.Backend.APIURL != "http://oneshot:1" || cfg.Backend.WSURL != "ws://oneshot:2" {
		t.Errorf("ONESHOT_ should win over NEXT_PUBLIC_: %+v", cfg.Backend)
	}
	if cfg.Backend.TimeoutSeconds != 15 {
		t.Errorf("timeout = %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Logging.Level != "debug" || cfg.UI.Theme != "light" {
		t.Errorf("logging/ui overrides not applied: %+v %+v", cfg.Logging, cfg.UI)
	}

	t.Setenv("ONESHOT_TIMEOUT", "soon")
	cfg = Default()
	cfg.ApplyEnvOverrides()
	if cfg.Backend.TimeoutSeconds != 60 {
		t.Errorf("malformed timeout should be ignored, got %d", cfg.Backend.TimeoutSeconds)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"valid default config", func(c *Config) {}, ""},
		{"api url wrong scheme", func(c *Config) { c.Backend.APIURL = "ftp://x" }, "backend.api_url"},
		{"api url empty", func(c *Config) { c.Backend.APIURL = "" }, "backend.api_url"},
		{"api url without host", func(c *Config) { c.Backend.APIURL = "http://" }, "backend.api_url"},
		{"ws url wrong scheme", func(c *Config) { c.Backend.WSURL = "http://x" }, "backend.ws_url"},
		{"ws url valid", func(c *Config) { c.Backend.WSURL = "wss://x" }, ""},
		{"zero timeout", func(c *Config) { c.Backend.TimeoutSeconds = 0 }, "backend.timeout_seconds"},
		{"negative rate", func(c *Config) { c.Backend.RateLimitPerSecond = -1 }, "backend.rate_limit_per_second"},
		{"negative attempts", func(c *Config) { c.Realtime.MaxReconnectAttempts = -1 }, "realtime.max_reconnect_attempts"},
		{"zero attempts allowed", func(c *Config) { c.Realtime.MaxReconnectAttempts = 0 }, ""},
		{"zero base delay", func(c *Config) { c.Realtime.BaseDelayMS = 0 }, "realtime.base_delay_ms"},
		{"max below base", func(c *Config) { c.Realtime.MaxDelayMS = 500 }, "realtime.max_delay_ms"},
		{"negative keepalive", func(c *Config) { c.Realtime.KeepaliveSeconds = -5 }, "realtime.keepalive_seconds"},
		{"zero handshake", func(c *Config) { c.Realtime.HandshakeTimeoutSeconds = 0 }, "realtime.handshake_timeout_seconds"},
		{"invalid theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"negative wrap", func(c *Config) { c.UI.WordWrap = -1 }, "ui.word_wrap"},
		{"invalid level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"invalid format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() = %v, want ValidateErrors", err)
			}
			if len(verrs) != 1 || verrs[0].Field != tt.field {
				t.Errorf("Validate() = %v, want exactly one error on %s", verrs, tt.field)
			}
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a.b", Message: "bad"},
		{Field: "c.d", Message: "worse"},
	}
	if got := errs.Error(); got != "a.b: bad; c.d: worse" {
		t.Errorf("Error() = %q", got)
	}
	if got := (ValidateErrors{}).Error(); got != "no validation errors" {
		t.Errorf("empty Error() = %q", got)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[backend]
api_url = "https://agents.example.com"

[realtime]
max_delay_ms = 20000

[ui]
sidebar_open = false
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Backend.APIURL != "https://agents.example.com" {
		t.Errorf("api_url = %q", cfg.Backend.APIURL)
	}
	if cfg.WebSocketURL() != "wss://agents.example.com" {
		t.Errorf("WebSocketURL() = %q", cfg.WebSocketURL())
	}
	if cfg.Realtime.MaxDelayMS != 20000 || cfg.Realtime.BaseDelayMS != 1000 {
		t.Errorf("realtime = %+v", cfg.Realtime)
	}
	if cfg.UI.SidebarOpen {
		t.Error("sidebar_open = true, want false from file")
	}
	if cfg.Backend.TimeoutSeconds != 60 {
		t.Errorf("missing key lost its default: %d", cfg.Backend.TimeoutSeconds)
	}
}

func TestLoadFrom_EnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("ONESHOT_API_URL", "http://env:1")
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[backend]\napi_url = \"http://file:1\"\n")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Backend.APIURL != "http://env:1" {
		t.Errorf("api_url = %q, want env value", cfg.Backend.APIURL)
	}
}

func TestLoadFrom_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	if _, err := LoadFrom(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, want ErrNotExist", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "[backend\napi_url = ")
	if _, err := LoadFrom(bad); err == nil || !strings.Contains(err.Error(), "failed to decode") {
		t.Errorf("syntax error: err = %v", err)
	}

	invalid := filepath.Join(dir, "invalid.toml")
	writeFile(t, invalid, "[logging]\nlevel = \"chatty\"\n")
	_, err := LoadFrom(invalid)
	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Errorf("invalid value: err = %v, want ValidateErrors", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ONESHOT_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.APIURL != DefaultAPIURL {
		t.Errorf("api_url = %q", cfg.Backend.APIURL)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Backend.APIURL = "https://saved.example.com"
	cfg.Realtime.KeepaliveSeconds = 30
	cfg.UI.Theme = "dark"
	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# oneshot client configuration") {
		t.Errorf("missing header:\n%s", data)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
	if loaded.Keepalive() != 30*time.Second {
		t.Errorf("Keepalive() = %v", loaded.Keepalive())
	}
}

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("realtime.max_delay_ms")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != 30000 {
		t.Errorf("Get() = %v, want 30000", val)
	}

	sets := map[string]string{
		"backend.api_url":               "https://x.example.com",
		"backend.rate_limit_per_second": "2.5",
		"realtime.keepalive_seconds":    "20",
		"ui.sidebar_open":               "false",
		"Logging.Level":                 "warn",
	}
	for k, v := range sets {
		if err := cfg.Set(k, v); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}
	if cfg.Backend.APIURL != "https://x.example.com" ||
		cfg.Backend.RateLimitPerSecond != 2.5 ||
		cfg.Realtime.KeepaliveSeconds != 20 ||
		cfg.UI.SidebarOpen ||
		cfg.Logging.Level != "warn" {
		t.Errorf("Set() did not apply: %+v", cfg)
	}

	bad := []struct{ key, value string }{
		{"nosection", "x"},
		{"backend.nope", "x"},
		{"nope.api_url", "x"},
		{"realtime.base_delay_ms", "fast"},
		{"ui.sidebar_open", "maybe"},
		{"backend.rate_limit_per_second", "lots"},
	}
	for _, b := range bad {
		if err := cfg.Set(b.key, b.value); err == nil {
			t.Errorf("Set(%q, %q) succeeded, want error", b.key, b.value)
		}
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != 16 {
		t.Errorf("len(Keys()) = %d, want 16: %v", len(keys), keys)
	}
	cfg := Default()
	for _, k := range keys {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Get(%q) error = %v", k, err)
		}
	}
	if keys[0] != "backend.api_url" {
		t.Errorf("keys[0] = %q", keys[0])
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[ui]\ntheme = \"dark\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		cfg *Config
		err error
	}
	got := make(chan result, 8)
	if err := watch(ctx, path, 20*time.Millisecond, func(c *Config, err error) {
		got <- result{c, err}
	}); err != nil {
		t.Fatalf("watch() error = %v", err)
	}

	// Writes truncate before they fill, so a reload may observe an
	// intermediate file. Wait for the state we expect.
	waitFor := func(desc string, ok func(result) bool) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case r := <-got:
				if ok(r) {
					return
				}
			case <-deadline:
				t.Fatalf("no reload with %s within 5s", desc)
			}
		}
	}

	writeFile(t, path, "[ui]\ntheme = \"light\"\n")
	writeFile(t, path, "[ui]\ntheme = \"light\"\nword_wrap = 80\n")
	waitFor("light theme", func(r result) bool {
		return r.err == nil && r.cfg.UI.Theme == "light" && r.cfg.UI.WordWrap == 80
	})

	writeFile(t, path, "[ui]\ntheme = \"neon\"\n")
	waitFor("a validation error", func(r result) bool {
		var verrs ValidateErrors
		return r.cfg == nil && errors.As(r.err, &verrs)
	})
}

func TestWatch_IgnoresSiblings(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan struct{}, 1)
	if err := watch(ctx, path, 10*time.Millisecond, func(*Config, error) {
		select {
		case got <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("watch() error = %v", err)
	}

	writeFile(t, filepath.Join(dir, "other.toml"), "x = 1")
	select {
	case <-got:
		t.Fatal("reloaded for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "config.toml"), func(*Config, error) {})
	if err == nil {
		t.Fatal("Watch() on a missing directory succeeded")
	}
}
