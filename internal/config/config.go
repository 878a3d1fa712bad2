package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr      string        // ex: ":8080"
	BasePath        string        // URL prefix the reverse proxy forwards to us (ex: "/")
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	BridgesFile string // path to bridges.yaml (used when no PORTAL_* env pairs are set)
	QueueSize   int    // relay queue capacity (default: 128)
	SelfUserID  string // synthetic posting identity, never forwarded (default: USLACKBOT)

	// Operator mail escalation. Empty SMTPAddr disables mail entirely.
	SMTPAddr string   // ex: "127.0.0.1:25"
	MailFrom string   // ex: "noreply@slackrelay.example.com"
	MailTo   []string // ex: "root@example.com,ops@example.com"

	// Relay statistics store (optional). Empty RedisAddr disables it.
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDialTimeout    time.Duration
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt

	AllowedCIDRS []string // optional, restrict ops endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("SLACKRELAY_LISTEN_ADDR", ":8080"),
		BasePath:        normalizeBasePath(getenv("SLACKRELAY_BASE_PATH", "/")),
		ShutdownTimeout: mustDuration("SLACKRELAY_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SLACKRELAY_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SLACKRELAY_PRETTY_LOG", false),

		// Relay
		BridgesFile: getenv("SLACKRELAY_BRIDGES_FILE", "./bridges.yaml"),
		QueueSize:   getenvInt("SLACKRELAY_QUEUE_SIZE", 128),
		SelfUserID:  getenv("SLACKRELAY_SELF_USER_ID", "USLACKBOT"),

		// Mail escalation
		SMTPAddr: getenv("SLACKRELAY_SMTP_ADDR", ""),
		MailFrom: getenv("SLACKRELAY_MAIL_FROM", "noreply@slackrelay.localhost"),
		MailTo:   splitAndTrim(getenv("SLACKRELAY_MAIL_TO", "root")),

		// Statistics store
		RedisAddr:           getenv("SLACKRELAY_REDIS_ADDR", ""),
		RedisUser:           getenv("SLACKRELAY_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("SLACKRELAY_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SLACKRELAY_REDIS_DB", 0),
		RedisDialTimeout:    mustDuration("SLACKRELAY_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisConnectTimeout: mustDuration("SLACKRELAY_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("SLACKRELAY_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("SLACKRELAY_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("SLACKRELAY_REDIS_PING_TIMEOUT", 5*time.Second),

		// Access restrictions
		AllowedCIDRS: splitAndTrim(getenv("SLACKRELAY_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SLACKRELAY_TRUST_PROXY", true),
	}

	if cfg.QueueSize < 1 {
		panic(fmt.Sprintf("FATAL: SLACKRELAY_QUEUE_SIZE must be >= 1, got %d", cfg.QueueSize))
	}

	return cfg
}

// normalizeBasePath strips the trailing slash so handlers can append
// their own path segments ("/" stays "/").
func normalizeBasePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		panic(fmt.Sprintf("FATAL: SLACKRELAY_BASE_PATH must start with '/', got %q", p))
	}
	if p != "/" {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
