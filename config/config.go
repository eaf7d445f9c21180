// Package config loads the whole application configuration in one place.
// Values come from environment variables; a .env file is honoured for local
// development.
//
// Every concern gets its own sub-struct so call sites only receive what they
// need (cfg.JWT, cfg.Email, ...) instead of calling os.Getenv everywhere.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every configuration value of the service.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Email         EmailConfig
	Notifications NotificationConfig
	Admin         AdminConfig
	RateLimit     RateLimitConfig
	Log           LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	// TrustedProxies are the reverse proxies allowed to set
	// X-Forwarded-For and X-Real-IP. Bare IPs and CIDR blocks are accepted.
	TrustedProxies []*net.IPNet
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string // SQLite file path (e.g. ./data/circle.db)
}

// JWTConfig holds token settings.
type JWTConfig struct {
	Secret             string // signing key, keep it secret
	AccessTokenExpiry  int    // minutes (default 15)
	RefreshTokenExpiry int    // days (default 7)
}

// EmailConfig holds Resend settings. Email is disabled unless all of
// ResendAPIKey, FromEmail and AppURL are set.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	FromName     string
	AppURL       string // public URL used in links (signup, reset, questions)
}

// Enabled reports whether transactional email can be sent.
func (c EmailConfig) Enabled() bool {
	return c.ResendAPIKey != "" && c.FromEmail != "" && c.AppURL != ""
}

// NotificationConfig controls the digest queue.
type NotificationConfig struct {
	DigestSchedule     string // cron expression, default "0 8 * * *"
	QueueRetentionDays int
}

// AdminConfig lists emails allowed to register as admins without an
// approved application. Used to bootstrap the first back-office account.
type AdminConfig struct {
	BootstrapEmails []string
}

// IsBootstrapEmail reports whether email is one of the bootstrap admin emails.
func (c AdminConfig) IsBootstrapEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.BootstrapEmails {
		if e == email {
			return true
		}
	}
	return false
}

// RateLimitConfig holds limits for public endpoints.
type RateLimitConfig struct {
	LoginAttempts         int
	LoginWindow           time.Duration
	ApplicationsPerMinute int
	ApplicationBurst      int
	EligibilityPerMinute  int
	// Q&A posts per member: PostsPerWindow within PostWindow, then a
	// PostCooldown pause.
	PostsPerWindow int
	PostWindow     time.Duration
	PostCooldown   time.Duration
}

// LogConfig holds zap logger settings.
type LogConfig struct {
	Level       string
	Development bool
}

// Load builds a Config from the environment. A .env file is loaded first if
// present; in production there is none and real env variables are used.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getInt("SERVER_PORT", 9090)
	if err != nil {
		return nil, err
	}
	accessExpiry, err := getInt("JWT_ACCESS_EXPIRY_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	refreshExpiry, err := getInt("JWT_REFRESH_EXPIRY_DAYS", 7)
	if err != nil {
		return nil, err
	}
	retention, err := getInt("NOTIFICATION_QUEUE_RETENTION_DAYS", 30)
	if err != nil {
		return nil, err
	}
	loginAttempts, err := getInt("LOGIN_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}
	loginWindowSec, err := getInt("LOGIN_WINDOW_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	appsPerMinute, err := getInt("APPLICATIONS_PER_MINUTE", 3)
	if err != nil {
		return nil, err
	}
	appBurst, err := getInt("APPLICATIONS_BURST", 3)
	if err != nil {
		return nil, err
	}
	eligibilityPerMinute, err := getInt("ELIGIBILITY_CHECKS_PER_MINUTE", 10)
	if err != nil {
		return nil, err
	}
	postsPerWindow, err := getInt("POSTS_PER_WINDOW", 5)
	if err != nil {
		return nil, err
	}
	postWindowSec, err := getInt("POST_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	postCooldownSec, err := getInt("POST_COOLDOWN_SECONDS", 120)
	if err != nil {
		return nil, err
	}

	trustedProxies, err := parseProxies(splitList(getEnv("TRUSTED_PROXIES", "")))
	if err != nil {
		return nil, err
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
			TrustedProxies: trustedProxies,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/circle.db"),
		},
		JWT: JWTConfig{
			Secret:             jwtSecret,
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM", ""),
			FromName:     getEnv("RESEND_FROM_NAME", "Circle"),
			AppURL:       strings.TrimRight(getEnv("APP_URL", ""), "/"),
		},
		Notifications: NotificationConfig{
			DigestSchedule:     getEnv("DIGEST_SCHEDULE", "0 8 * * *"),
			QueueRetentionDays: retention,
		},
		Admin: AdminConfig{
			BootstrapEmails: lowerAll(splitList(getEnv("ADMIN_BOOTSTRAP_EMAILS", ""))),
		},
		RateLimit: RateLimitConfig{
			LoginAttempts:         loginAttempts,
			LoginWindow:           time.Duration(loginWindowSec) * time.Second,
			ApplicationsPerMinute: appsPerMinute,
			ApplicationBurst:      appBurst,
			EligibilityPerMinute:  eligibilityPerMinute,
			PostsPerWindow:        postsPerWindow,
			PostWindow:            time.Duration(postWindowSec) * time.Second,
			PostCooldown:          time.Duration(postCooldownSec) * time.Second,
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnv("LOG_DEVELOPMENT", "false") == "true",
		},
	}

	return cfg, nil
}

// Addr returns the listen address (e.g. "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := getEnv(key, strconv.Itoa(fallback))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// splitList splits a comma separated value, dropping empty items.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseProxies turns "10.0.0.0/8" and "127.0.0.1" style entries into
// networks; a bare IP becomes a single-host network.
func parseProxies(entries []string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, e := range entries {
		if strings.Contains(e, "/") {
			_, n, err := net.ParseCIDR(e)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", e, err)
			}
			out = append(out, n)
			continue
		}

		ip := net.ParseIP(e)
		if ip == nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q", e)
		}
		bits := 8 * net.IPv6len
		if v4 := ip.To4(); v4 != nil {
			ip, bits = v4, 8*net.IPv4len
		}
		out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return out, nil
}

func lowerAll(in []string) []string {
	for i := range in {
		in[i] = strings.ToLower(in[i])
	}
	return in
}
