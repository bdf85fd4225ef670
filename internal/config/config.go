package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	AdminLogin    string // admin login, digested once at startup
	AdminPassword string // admin password, digested once at startup

	HealthcheckInterval time.Duration // period between health-check ticks (ex: 30s)
	ProbeTimeout        time.Duration // bound on a single probe (ex: 2s)
	ProbeConcurrency    int           // max in-flight probes per tick
	NotifyTimeout       time.Duration // bound on a single subscriber callback (ex: 3s)

	// Redis (optional, enables the event feed when RedisAddr is set)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
	RecentEvents        int           // length of the recent events list kept in redis

	AdminCIDRS []string // optional, restrict operator endpoints to specific IPs/CIDRs
	TrustProxy bool     // true => registrant address taken from X-Forwarded-For & co
}

// fileConfig is the optional YAML file layout (REGISTRY_CONFIG_FILE).
// Every field is a string so the same parsers serve file and environment.
type fileConfig struct {
	ListenPort      string `yaml:"listen_port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	Log             struct {
		Level  string `yaml:"level"`
		Pretty string `yaml:"pretty"`
	} `yaml:"log"`
	Admin struct {
		Login    string   `yaml:"login"`
		Password string   `yaml:"password"`
		CIDRS    []string `yaml:"cidrs"`
	} `yaml:"admin"`
	Healthcheck struct {
		Interval    string `yaml:"interval"`
		Timeout     string `yaml:"timeout"`
		Concurrency string `yaml:"concurrency"`
	} `yaml:"healthcheck"`
	Notify struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"notify"`
	Redis struct {
		Addr         string `yaml:"addr"`
		Username     string `yaml:"username"`
		Password     string `yaml:"password"`
		DB           string `yaml:"db"`
		RecentEvents string `yaml:"recent_events"`
	} `yaml:"redis"`
	TrustProxy string `yaml:"trust_proxy"`
}

func Load() *Config {
	fc, err := loadFile(os.Getenv("REGISTRY_CONFIG_FILE"))
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	cfg := &Config{
		// Server settings
		ListenPort:      listenAddr(getenv("REGISTRY_LISTEN_PORT", getenv("PORT", or(fc.ListenPort, ":8080")))),
		ShutdownTimeout: mustDuration("REGISTRY_SHUTDOWN_TIMEOUT", parseDuration(fc.ShutdownTimeout, 5*time.Second)),

		// Logging
		LogLevel:  getenv("REGISTRY_LOG_LEVEL", or(fc.Log.Level, "info")),
		PrettyLog: mustBool("REGISTRY_PRETTY_LOG", parseBool(fc.Log.Pretty, true)),

		// Admin credentials
		AdminLogin:    requireEnv("REGISTRY_ADMIN_LOGIN", getenv("LOGIN", fc.Admin.Login)),
		AdminPassword: requireEnv("REGISTRY_ADMIN_PASSWORD", getenv("PASSWORD", fc.Admin.Password)),

		// Health checks & notifications
		HealthcheckInterval: mustSeconds("REGISTRY_HEALTHCHECK_INTERVAL",
			mustSeconds("HEALTHCHECK_INTERVAL", parseSeconds(fc.Healthcheck.Interval, 30*time.Second))),
		ProbeTimeout:     mustDuration("REGISTRY_PROBE_TIMEOUT", parseDuration(fc.Healthcheck.Timeout, 2*time.Second)),
		ProbeConcurrency: getenvInt("REGISTRY_PROBE_CONCURRENCY", parseInt(fc.Healthcheck.Concurrency, 32)),
		NotifyTimeout:    mustDuration("REGISTRY_NOTIFY_TIMEOUT", parseDuration(fc.Notify.Timeout, 3*time.Second)),

		// Redis settings
		RedisAddr:           getenv("REGISTRY_REDIS_ADDR", fc.Redis.Addr),
		RedisUser:           getenv("REGISTRY_REDIS_USERNAME", fc.Redis.Username),
		RedisPassword:       getenv("REGISTRY_REDIS_PASSWORD", fc.Redis.Password),
		RedisDB:             getenvInt("REGISTRY_REDIS_DB", parseInt(fc.Redis.DB, 0)),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
		RecentEvents:        getenvInt("REGISTRY_RECENT_EVENTS", parseInt(fc.Redis.RecentEvents, 500)),

		// Access restrictions
		AdminCIDRS: parseAllowedIPs(getenv("REGISTRY_ADMIN_CIDRS", strings.Join(fc.Admin.CIDRS, ","))),
		TrustProxy: mustBool("REGISTRY_TRUST_PROXY", parseBool(fc.TrustProxy, false)),
	}

	if cfg.HealthcheckInterval <= 0 {
		panic(fmt.Sprintf("❌ FATAL: health check interval must be > 0, got %v", cfg.HealthcheckInterval))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.AdminLogin = "***REDACTED***"
		cfgCopy.AdminPassword = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadFile reads the optional YAML config file. An empty path is not an error.
func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config file: %w", err)
	}
	return fc, nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// requireEnv returns the env value, else fallback, and panics when both are empty.
func requireEnv(key, fallback string) string {
	v := getenv(key, fallback)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	return parseInt(os.Getenv(key), def)
}

func mustBool(key string, def bool) bool {
	return parseBool(os.Getenv(key), def)
}

func mustDuration(key string, def time.Duration) time.Duration {
	return parseDuration(os.Getenv(key), def)
}

// mustSeconds is mustDuration that also reads a bare integer as seconds.
func mustSeconds(key string, def time.Duration) time.Duration {
	return parseSeconds(os.Getenv(key), def)
}

func parseInt(v string, def int) int {
	if v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func parseBool(v string, def bool) bool {
	if v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func parseDuration(v string, def time.Duration) time.Duration {
	if v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func parseSeconds(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	if n, err := strconv.ParseUint(v, 10, 32); err == nil {
		return time.Duration(n) * time.Second
	}
	return parseDuration(v, def)
}

// listenAddr accepts "8080", ":8080" or "host:8080".
func listenAddr(v string) string {
	v = strings.TrimSpace(v)
	if _, err := strconv.ParseUint(v, 10, 16); err == nil {
		return ":" + v
	}
	return v
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
