package internal

import (
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	Port           string
	BaseURL        string
	AllowedOrigins []string

	Mail             MailConfig
	EmailSendTimeout time.Duration

	AdminUsername     string
	AdminPassword     string
	JWTSecret         []byte
	JWTSecretFromEnv  bool
	AdminTokenTTL     time.Duration
	AdminAuthRequired bool
	CookieSecure      bool

	StorageDriver string
	DataDir       string
	DatabaseURL   string

	LogLevel string
}

// ConfigFromEnv reads the configuration from the process environment.
// Missing mail credentials only disable notifications.
func ConfigFromEnv() (Config, error) {
	var c Config

	c.Port = EnvString("PORT", "3001")
	c.BaseURL = strings.TrimRight(EnvString("API_BASE_URL", "http://localhost:"+c.Port), "/")
	c.AllowedOrigins = splitList(EnvString("ALLOWED_ORIGINS", "http://localhost:3000"))

	c.Mail = MailConfig{
		Host:    EnvString("EMAIL_HOST", "smtp.gmail.com"),
		Port:    EnvInt("EMAIL_PORT", 587),
		User:    EnvString("EMAIL_USER", ""),
		Pass:    EnvString("EMAIL_PASS", ""),
		BaseURL: c.BaseURL,
	}
	c.EmailSendTimeout = EnvDuration("EMAIL_SEND_TIMEOUT", 30*time.Second)

	c.AdminUsername = EnvString("ADMIN_USERNAME", "EHDAdmin")
	c.AdminPassword = EnvString("ADMIN_PASSWORD", "Toms2026!")
	c.AdminTokenTTL = EnvDuration("ADMIN_TOKEN_TTL", 24*time.Hour)
	c.AdminAuthRequired = EnvBool("ADMIN_AUTH_REQUIRED", false)
	c.CookieSecure = EnvBool("COOKIE_SECURE", false)

	if s := EnvString("JWT_SECRET", ""); s != "" {
		c.JWTSecret = []byte(s)
		c.JWTSecretFromEnv = true
	} else {
		c.JWTSecret = make([]byte, 32)
		if _, err := rand.Read(c.JWTSecret); err != nil {
			return c, fmt.Errorf("generate jwt secret: %w", err)
		}
	}

	c.DatabaseURL = EnvString("DATABASE_URL", "")
	def := StorageFile
	if c.DatabaseURL != "" {
		def = StoragePostgres
	}
	c.StorageDriver = strings.ToLower(EnvString("STORAGE_DRIVER", def))
	c.DataDir = EnvString("DATA_DIR", "data")
	c.LogLevel = EnvString("LOG_LEVEL", "info")

	switch c.StorageDriver {
	case StorageMemory, StorageFile:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return c, fmt.Errorf("DATABASE_URL is required for STORAGE_DRIVER=postgres")
		}
	default:
		return c, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	return c, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EnvString reads a string env var with a default.
func EnvString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// EnvBool reads a bool env var with a default.
func EnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvInt reads a positive int env var with a default.
func EnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// EnvDuration reads a duration env var with a default.
func EnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
