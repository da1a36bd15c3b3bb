// internal/infra/config/config.go
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileEnv names an optional YAML file. Precedence: defaults < file < env.
const FileEnv = "STOREFRONT_CONFIG"

// Config holds settings shared by cmd/api and cmd/storefront.
type Config struct {
	ProjectID       string `yaml:"projectId"`
	CredentialsFile string `yaml:"credentialsFile"`

	// FirebaseAPIKey is the web API key used for password sign-in.
	// FirebaseAPIKeySecret, when set, names a Secret Manager secret holding it.
	FirebaseAPIKey       string `yaml:"firebaseApiKey"`
	FirebaseAPIKeySecret string `yaml:"firebaseApiKeySecret"`

	Port          string `yaml:"port"`
	AllowedOrigin string `yaml:"allowedOrigin"`

	LocalStorePath string `yaml:"localStorePath"`
	CartStorageKey string `yaml:"cartStorageKey"`
	CartCollection string `yaml:"cartCollection"`

	SendGridAPIKey       string `yaml:"sendgridApiKey"`
	SendGridAPIKeySecret string `yaml:"sendgridApiKeySecret"`
	MailFrom             string `yaml:"mailFrom"`
	ShopInbox            string `yaml:"shopInbox"`

	ImageBucket string `yaml:"imageBucket"`
	RedisAddr   string `yaml:"redisAddr"`

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		ProjectID:      "anusswar-storefront",
		Port:           "8080",
		AllowedOrigin:  "*",
		LocalStorePath: defaultLocalStorePath(),
		CartStorageKey: "cart",
		CartCollection: "cart_items",
		MailFrom:       "no-reply@anusswar.com",
		ShopInbox:      "hello@anusswar.com",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads defaults, then the YAML file named by STOREFRONT_CONFIG, then env.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ProjectID = getenvDefault("GCP_PROJECT_ID", cfg.ProjectID)
	cfg.ProjectID = getenvDefault("FIRESTORE_PROJECT_ID", cfg.ProjectID)
	cfg.CredentialsFile = getenvDefault("GOOGLE_APPLICATION_CREDENTIALS", cfg.CredentialsFile)
	cfg.FirebaseAPIKey = getenvDefault("FIREBASE_API_KEY", cfg.FirebaseAPIKey)
	cfg.FirebaseAPIKeySecret = getenvDefault("FIREBASE_API_KEY_SECRET", cfg.FirebaseAPIKeySecret)
	cfg.Port = getenvDefault("PORT", cfg.Port)
	cfg.AllowedOrigin = getenvDefault("ALLOWED_ORIGIN", cfg.AllowedOrigin)
	cfg.LocalStorePath = getenvDefault("STOREFRONT_DB", cfg.LocalStorePath)
	cfg.CartStorageKey = getenvDefault("CART_STORAGE_KEY", cfg.CartStorageKey)
	cfg.CartCollection = getenvDefault("CART_COLLECTION", cfg.CartCollection)
	cfg.SendGridAPIKey = getenvDefault("SENDGRID_API_KEY", cfg.SendGridAPIKey)
	cfg.SendGridAPIKeySecret = getenvDefault("SENDGRID_API_KEY_SECRET", cfg.SendGridAPIKeySecret)
	cfg.MailFrom = getenvDefault("MAIL_FROM", cfg.MailFrom)
	cfg.ShopInbox = getenvDefault("SHOP_INBOX", cfg.ShopInbox)
	cfg.ImageBucket = getenvDefault("GCS_BUCKET", cfg.ImageBucket)
	cfg.RedisAddr = getenvDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenvDefault("LOG_FORMAT", cfg.LogFormat)

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "config: read %s", path)
	}
	// Keys absent from the file keep their current values.
	if err := yaml.Unmarshal(raw, c); err != nil {
		return errors.Wrapf(err, "config: parse %s", path)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func defaultLocalStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "anusswar", "storefront.db")
}
