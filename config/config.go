package config

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port          int    `toml:"port"`
	BaseURL       string `toml:"base_url"` // Public origin used in campaign links
	LogLevel      string `toml:"log_level"`
	SecureCookies bool   `toml:"secure_cookies"`
}

type StorageConfig struct {
	DataDir        string `toml:"data_dir"`
	CampaignDir    string `toml:"campaign_dir"`
	LogDir         string `toml:"log_dir"`
	RecipientDir   string `toml:"recipient_dir"`
	TemplateDir    string `toml:"template_dir"`
	CredentialFile string `toml:"credential_file"`
	MailConfigFile string `toml:"mail_config_file"`
	SessionDB      string `toml:"session_db"`
}

type SessionConfig struct {
	ExpirationHours int `toml:"expiration_hours"`
}

type JWTConfig struct {
	Secret          string `toml:"secret"` // For API token signing
	ExpirationHours int    `toml:"expiration_hours"`
}

type SecurityConfig struct {
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
}

type CaptureConfig struct {
	MaskPasswords bool `toml:"mask_passwords"`
}

type DKIMConfig struct {
	Domain   string `toml:"domain"`
	Selector string `toml:"selector"`
	KeyFile  string `toml:"key_file"` // PEM encoded RSA private key
}

type SSLConfig struct {
	Enabled  bool   `toml:"enabled"`
	CertFile string `toml:"cert_file"` // Path to fullchain.pem
	KeyFile  string `toml:"key_file"`  // Path to privkey.pem
	Port     int    `toml:"port"`      // HTTPS port (default 443)
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Session  SessionConfig  `toml:"session"`
	JWT      JWTConfig      `toml:"jwt"`
	Security SecurityConfig `toml:"security"`
	Capture  CaptureConfig  `toml:"capture"`
	DKIM     DKIMConfig     `toml:"dkim"`
	SSL      SSLConfig      `toml:"ssl"`
}

// Default returns a configuration with every field set to its default value.
func Default() *Config {
	var config Config

	config.Server.Port = 5000
	config.Server.BaseURL = "http://localhost:5000"
	config.Server.LogLevel = "info"

	// Layout matches the flat-file tables the application has always used
	config.Storage.DataDir = "."
	config.Storage.CampaignDir = "campaigns"
	config.Storage.LogDir = "logs"
	config.Storage.RecipientDir = "recipients"
	config.Storage.TemplateDir = filepath.Join("templates", "campaign_templates")
	config.Storage.CredentialFile = "admin_credentials.json"
	config.Storage.MailConfigFile = "mail_config.json"
	config.Storage.SessionDB = "sessions.db"

	config.Session.ExpirationHours = 24
	config.JWT.ExpirationHours = 12
	config.Security.RateLimitPerMinute = 100

	config.DKIM.Selector = "default"

	config.SSL.Port = 443

	return &config
}

// LoadConfig reads the TOML file at path on top of the defaults. A missing
// file is not an error. Environment variables (optionally from .env) win
// over both.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	// Load .env file if it exists (ignores error if file not found)
	_ = godotenv.Load()

	if path != "" {
		if _, err := toml.DecodeFile(path, config); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	config.applyEnv()

	if config.SSL.Enabled {
		if err := config.ValidateSSL(); err != nil {
			return nil, fmt.Errorf("SSL configuration error: %w", err)
		}
	}

	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PHISHLAB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("PHISHLAB_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("PHISHLAB_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("PHISHLAB_JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
}

// Path joins a configured storage entry onto the data directory.
func (c *StorageConfig) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// CampaignURL returns the public link for a campaign. The name is path
// escaped since valid names may contain spaces, '#' or '%'.
func (c *Config) CampaignURL(name string) string {
	return c.Server.BaseURL + "/campana/" + url.PathEscape(name)
}

// DKIMEnabled reports whether outgoing mail should be signed.
func (c *DKIMConfig) Enabled() bool {
	return c.Domain != "" && c.KeyFile != ""
}

// ValidateSSL checks if the SSL configuration is valid
func (c *Config) ValidateSSL() error {
	if !c.SSL.Enabled {
		return nil
	}

	if c.SSL.CertFile == "" {
		return fmt.Errorf("SSL certificate file path is required")
	}

	if c.SSL.KeyFile == "" {
		return fmt.Errorf("SSL key file path is required")
	}

	// Try loading the certificates to verify they're valid
	_, err := tls.LoadX509KeyPair(c.SSL.CertFile, c.SSL.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load SSL certificates: %w", err)
	}

	return nil
}
