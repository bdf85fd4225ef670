package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REGISTRY_CONFIG_FILE", "REGISTRY_LISTEN_PORT", "PORT", "REGISTRY_SHUTDOWN_TIMEOUT",
		"REGISTRY_LOG_LEVEL", "REGISTRY_PRETTY_LOG",
		"REGISTRY_ADMIN_LOGIN", "LOGIN", "REGISTRY_ADMIN_PASSWORD", "PASSWORD",
		"REGISTRY_HEALTHCHECK_INTERVAL", "HEALTHCHECK_INTERVAL", "REGISTRY_PROBE_TIMEOUT",
		"REGISTRY_PROBE_CONCURRENCY", "REGISTRY_NOTIFY_TIMEOUT",
		"REGISTRY_REDIS_ADDR", "REGISTRY_REDIS_USERNAME", "REGISTRY_REDIS_PASSWORD", "REGISTRY_REDIS_DB",
		"REGISTRY_RECENT_EVENTS", "REGISTRY_ADMIN_CIDRS", "REGISTRY_TRUST_PROXY",
	} {
		t.Setenv(key, "")
	}
}

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		fallback  string
		expected  string
		wantPanic bool
	}{
		{name: "variable set", value: "test_value", expected: "test_value"},
		{name: "fallback used", fallback: "from_file", expected: "from_file"},
		{name: "env wins over fallback", value: "env", fallback: "file", expected: "env"},
		{name: "nothing set", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_REQUIRED", tt.value)

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv("TEST_REQUIRED", tt.fallback)
			if !tt.wantPanic && result != tt.expected {
				t.Errorf("requireEnv() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("REGISTRY_ADMIN_LOGIN", "admin")
	t.Setenv("REGISTRY_ADMIN_PASSWORD", "secret")

	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.HealthcheckInterval != 30*time.Second {
		t.Errorf("HealthcheckInterval = %v, want 30s", cfg.HealthcheckInterval)
	}
	if cfg.ProbeTimeout != 2*time.Second || cfg.NotifyTimeout != 3*time.Second {
		t.Errorf("timeouts = %v / %v", cfg.ProbeTimeout, cfg.NotifyTimeout)
	}
	if cfg.ProbeConcurrency != 32 {
		t.Errorf("ProbeConcurrency = %d, want 32", cfg.ProbeConcurrency)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty (feed disabled)", cfg.RedisAddr)
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy should default to false")
	}
}

func TestLoadPanicsWithoutCredentials(t *testing.T) {
	clearEnv(t)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() without admin credentials should panic")
		}
	}()
	Load()
}

func TestLoadLegacyVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOGIN", "admin")
	t.Setenv("PASSWORD", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("HEALTHCHECK_INTERVAL", "15")

	cfg := Load()

	if cfg.AdminLogin != "admin" || cfg.AdminPassword != "secret" {
		t.Errorf("credentials = %q/%q", cfg.AdminLogin, cfg.AdminPassword)
	}
	if cfg.ListenPort != ":9090" {
		t.Errorf("ListenPort = %q, want :9090", cfg.ListenPort)
	}
	if cfg.HealthcheckInterval != 15*time.Second {
		t.Errorf("HealthcheckInterval = %v, want 15s", cfg.HealthcheckInterval)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "registry.yaml")
	content := `
listen_port: ":7000"
log:
  level: warn
  pretty: "false"
admin:
  login: file-admin
  password: file-secret
  cidrs: ["10.0.0.0/8", "127.0.0.1"]
healthcheck:
  interval: 45s
  timeout: 1s
  concurrency: "8"
redis:
  addr: redis:6379
  db: "2"
trust_proxy: "true"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("REGISTRY_CONFIG_FILE", path)
	// environment overrides the file
	t.Setenv("REGISTRY_ADMIN_PASSWORD", "env-secret")

	cfg := Load()

	if cfg.ListenPort != ":7000" || cfg.LogLevel != "warn" || cfg.PrettyLog {
		t.Errorf("server/log settings = %q %q %v", cfg.ListenPort, cfg.LogLevel, cfg.PrettyLog)
	}
	if cfg.AdminLogin != "file-admin" || cfg.AdminPassword != "env-secret" {
		t.Errorf("credentials = %q/%q", cfg.AdminLogin, cfg.AdminPassword)
	}
	if len(cfg.AdminCIDRS) != 2 || cfg.AdminCIDRS[0] != "10.0.0.0/8" {
		t.Errorf("AdminCIDRS = %v", cfg.AdminCIDRS)
	}
	if cfg.HealthcheckInterval != 45*time.Second || cfg.ProbeTimeout != time.Second || cfg.ProbeConcurrency != 8 {
		t.Errorf("healthcheck = %v %v %d", cfg.HealthcheckInterval, cfg.ProbeTimeout, cfg.ProbeConcurrency)
	}
	if cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 2 {
		t.Errorf("redis = %q db %d", cfg.RedisAddr, cfg.RedisDB)
	}
	if !cfg.TrustProxy {
		t.Error("TrustProxy = false, want true from file")
	}
}

func TestLoadBadFilePanics(t *testing.T) {
	clearEnv(t)
	t.Setenv("REGISTRY_CONFIG_FILE", "/nonexistent/registry.yaml")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() with missing config file should panic")
		}
	}()
	Load()
}

func TestMustSeconds(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "bare integer is seconds", value: "10", def: time.Second, expected: 10 * time.Second},
		{name: "duration string", value: "1m30s", def: time.Second, expected: 90 * time.Second},
		{name: "invalid uses default", value: "soon", def: 7 * time.Second, expected: 7 * time.Second},
		{name: "missing uses default", value: "", def: 15 * time.Second, expected: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_SECONDS", tt.value)
			if result := mustSeconds("TEST_SECONDS", tt.def); result != tt.expected {
				t.Errorf("mustSeconds() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", value: "5s", def: 1 * time.Second, expected: 5 * time.Second},
		{name: "invalid duration uses default", value: "invalid", def: 10 * time.Second, expected: 10 * time.Second},
		{name: "missing variable uses default", value: "", def: 15 * time.Second, expected: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if result := mustDuration("TEST_DURATION", tt.def); result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", value: "true", def: false, expected: true},
		{name: "false value", value: "false", def: true, expected: false},
		{name: "invalid value uses default", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if result := mustBool("TEST_BOOL", tt.def); result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestListenAddr(t *testing.T) {
	tests := map[string]string{
		"8080":         ":8080",
		":8080":        ":8080",
		"0.0.0.0:8080": "0.0.0.0:8080",
		" 9000 ":       ":9000",
	}
	for in, want := range tests {
		if got := listenAddr(in); got != want {
			t.Errorf("listenAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` "10.0.0.1", '192.168.0.0/16' ,, `)
	if len(got) != 2 || got[0] != "10.0.0.1" || got[1] != "192.168.0.0/16" {
		t.Errorf("splitAndTrim() = %v", got)
	}
}
