package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	AuthURL     string
	JWKSURL     string // Constructed from AuthURL + /auth/v1/.well-known/jwks.json
	CORSOrigins string
	TablePrefix string
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

// FileConfig is the optional YAML overlay (CONFIG_FILE). Environment
// variables win over file values; the file covers the settings an operator
// tunes without redeploying.
type FileConfig struct {
	Port        string `yaml:"port"`
	CORSOrigins string `yaml:"cors_origins"`
	LogDir      string `yaml:"log_dir"`
	LogMaxFiles int    `yaml:"log_max_files"`
}

func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")
	authURL := getEnv("AUTH_URL", "")
	jwksURL, err := buildJWKSURL(authURL)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnv("PORT", ""),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		AuthURL:     authURL,
		JWKSURL:     jwksURL,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: 5,
		// Debug defaults to true outside production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	return cfg, nil
}

// buildJWKSURL derives the JWKS endpoint from AUTH_URL. An unset AUTH_URL
// yields an empty JWKS URL, which the server rejects at startup; a set but
// malformed AUTH_URL is a configuration error right here, rather than a
// relative URL that only fails once the key set is fetched.
func buildJWKSURL(authURL string) (string, error) {
	if authURL == "" {
		return "", nil
	}
	u, err := url.Parse(authURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("AUTH_URL %q is not an absolute URL", authURL)
	}
	return strings.TrimRight(authURL, "/") + "/auth/v1/.well-known/jwks.json", nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if c.Port == "" && file.Port != "" {
		c.Port = file.Port
	}
	if os.Getenv("CORS_ORIGINS") == "" && file.CORSOrigins != "" {
		c.CORSOrigins = file.CORSOrigins
	}
	if c.LogDir == "" && file.LogDir != "" {
		c.LogDir = file.LogDir
	}
	if file.LogMaxFiles > 0 {
		c.LogMaxFiles = file.LogMaxFiles
	}
	return nil
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
