package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/strandkit/strand/pkg/logger"
)

// Run modes.
const (
	ModeDev  = "dev"
	ModeTest = "test"
	ModeProd = "prod"
)

// minSecretLength is the floor for signing secrets and encryption keys.
const minSecretLength = 32

// Duration wraps time.Duration so YAML values like "24h" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// CookieConfig configures one cookie kind: its name, token secrets,
// and lifetime.
type CookieConfig struct {
	Name string `yaml:"name"`

	// Secret signs the token. Required, at least 32 characters.
	Secret string `yaml:"secret"`

	// SignKey keys the HMAC of the legacy format. Defaults to Secret.
	SignKey string `yaml:"sign_key"`

	// EncryptionKey, when set, encrypts the whole token.
	EncryptionKey string `yaml:"encryption_key"`

	// Format selects the token format: "jwt" (default) or "legacy".
	Format string `yaml:"format"`

	Lifetime   Duration `yaml:"lifetime"`
	Persistent bool     `yaml:"persistent"`

	// Leeway is the tolerance applied to expiry checks when decoding,
	// compensating clock skew between the issuing and the verifying
	// process.
	Leeway Duration `yaml:"leeway"`
}

func (c CookieConfig) validate() error {
	if c.Name == "" {
		return ErrNoCookieName
	}
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("%w: cookie %q", ErrShortSecret, c.Name)
	}
	if c.SignKey != "" && len(c.SignKey) < minSecretLength {
		return fmt.Errorf("%w: cookie %q sign key", ErrShortSecret, c.Name)
	}
	if c.EncryptionKey != "" && len(c.EncryptionKey) < minSecretLength {
		return fmt.Errorf("%w: cookie %q", ErrBadEncryptionKey, c.Name)
	}
	return nil
}

// CORSConfig configures the response decoration applied to every
// request. Blank fields emit no header.
type CORSConfig struct {
	Enabled bool `yaml:"enabled"`

	// URLPattern, when set, restricts decoration to request paths
	// matching this regular expression. Blank decorates every path.
	URLPattern string `yaml:"url_pattern"`

	AllowOrigin      string `yaml:"allow_origin"`
	AllowMethods     string `yaml:"allow_methods"`
	AllowHeaders     string `yaml:"allow_headers"`
	ExposeHeaders    string `yaml:"expose_headers"`
	AllowCredentials bool   `yaml:"allow_credentials"`
	MaxAge           string `yaml:"max_age"`
}

// LimitConfig configures the default per-client rate limit. Routes can
// override the budget.
type LimitConfig struct {
	Requests int64    `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

// HeadersConfig holds the security header baseline. A blank value
// omits the header entirely.
type HeadersConfig struct {
	ContentTypeOptions    string `yaml:"content_type_options"`
	FrameOptions          string `yaml:"frame_options"`
	XSSProtection         string `yaml:"xss_protection"`
	ReferrerPolicy        string `yaml:"referrer_policy"`
	ContentSecurityPolicy string `yaml:"content_security_policy"`
	Server                string `yaml:"server"`
}

// DefaultHeaders is the header baseline applied when the headers
// section is absent.
func DefaultHeaders() HeadersConfig {
	return HeadersConfig{
		ContentTypeOptions:    "nosniff",
		FrameOptions:          "DENY",
		XSSProtection:         "1",
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "",
		Server:                "Undisclosed",
	}
}

// Config is the application configuration.
type Config struct {
	Mode string `yaml:"mode"`

	Language struct {
		Default string `yaml:"default"`
	} `yaml:"language"`

	Session        CookieConfig `yaml:"session"`
	Authentication CookieConfig `yaml:"authentication"`
	Flash          CookieConfig `yaml:"flash"`

	// RememberLifetime extends the authentication cookie when the
	// subject opted into remember-me.
	RememberLifetime Duration `yaml:"remember_lifetime"`

	Limit   LimitConfig    `yaml:"limit"`
	CORS    CORSConfig     `yaml:"cors"`
	Headers *HeadersConfig `yaml:"headers"`

	Sentry logger.SentryConfig `yaml:"sentry"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}
	return Parse(data)
}

// Parse parses and validates YAML config bytes.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeProd
	}
	if c.Language.Default == "" {
		c.Language.Default = "en"
	}
	if c.Limit.Requests == 0 {
		c.Limit.Requests = 100
	}
	if c.Limit.Window == 0 {
		c.Limit.Window = Duration(time.Minute)
	}
	if c.RememberLifetime == 0 {
		c.RememberLifetime = Duration(30 * 24 * time.Hour)
	}
	if c.Headers == nil {
		h := DefaultHeaders()
		c.Headers = &h
	}
}

// Validate checks mode and cookie sections.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeDev, ModeTest, ModeProd:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Mode)
	}

	if c.CORS.URLPattern != "" {
		if _, err := regexp.Compile(c.CORS.URLPattern); err != nil {
			return fmt.Errorf("%w: %v", ErrBadCORSPattern, err)
		}
	}

	for _, cookie := range []CookieConfig{c.Session, c.Authentication, c.Flash} {
		if err := cookie.validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsDev reports whether the app runs in dev mode. Dev mode renders
// verbose error pages and logs at debug level.
func (c *Config) IsDev() bool {
	return c.Mode == ModeDev
}
