package folio

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/folio/auth"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Addr         string `env:"FOLIO_ADDR" envDefault:":3000"`                   // Listen address
	DatabasePath string `env:"FOLIO_DATABASE_PATH" envDefault:"data/folio.db"` // SQLite path
	SeedPath     string `env:"FOLIO_SEED_PATH"`                                 // Optional seed content JSON
	StaticDir    string `env:"FOLIO_STATIC_DIR" envDefault:"public"`            // Public site and admin.html

	AdminUsername     string `env:"FOLIO_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword     string `env:"FOLIO_ADMIN_PASSWORD"`      // Plaintext, compared in constant time
	AdminPasswordHash string `env:"FOLIO_ADMIN_PASSWORD_HASH"` // bcrypt hash, preferred over AdminPassword

	SessionSecret string        `env:"FOLIO_SESSION_SECRET"` // Required: cookie signing secret
	SessionTTL    time.Duration `env:"FOLIO_SESSION_TTL" envDefault:"24h"`
	CookieSecure  bool          `env:"FOLIO_COOKIE_SECURE"` // Set true for HTTPS
	RedisURL      string        `env:"FOLIO_REDIS_URL"`     // Keep sessions in Redis instead of SQLite

	ContactRateLimit int `env:"FOLIO_CONTACT_RATE_LIMIT" envDefault:"10"` // Contact submissions per IP per minute

	// ContentSecurityPolicy is sent on every response. The default allows the
	// inline event handlers the admin panel renders.
	ContentSecurityPolicy string `env:"FOLIO_CONTENT_SECURITY_POLICY"`

	LogLevel    string `env:"FOLIO_LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"FOLIO_DEV"`
}

const defaultContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self' https:; connect-src 'self'"

// LoadConfig reads the configuration from the environment.
func LoadConfig() (SiteConfig, error) {
	var cfg SiteConfig
	if err := env.Parse(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/folio.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.AdminUsername == "" {
		c.AdminUsername = "admin"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.ContactRateLimit == 0 {
		c.ContactRateLimit = 10
	}
	if c.ContentSecurityPolicy == "" {
		c.ContentSecurityPolicy = defaultContentSecurityPolicy
	}
}

func (c SiteConfig) validate() error {
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return errors.New("folio: AdminPassword or AdminPasswordHash is required")
	}
	if c.AdminPasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.AdminPasswordHash)); err != nil {
			return fmt.Errorf("folio: AdminPasswordHash is not a bcrypt hash: %w", err)
		}
	}
	if c.SessionSecret == "" {
		return errors.New("folio: SessionSecret is required")
	}
	return nil
}

func (c SiteConfig) verifier() auth.CredentialVerifier {
	if c.AdminPasswordHash != "" {
		return auth.BcryptVerifier{Username: c.AdminUsername, Hash: []byte(c.AdminPasswordHash)}
	}
	return auth.PlainVerifier{Username: c.AdminUsername, Password: c.AdminPassword}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger sets the application logger (default: no-op).
func WithLogger(log *zap.Logger) Option {
	return func(a *App) {
		a.Log = log
	}
}

// WithSessionStore replaces the session store chosen from the config.
func WithSessionStore(s auth.SessionStore) Option {
	return func(a *App) {
		a.sessions = s
	}
}
