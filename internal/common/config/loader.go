// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like SMTP_PRIMARY_PASSWORD
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	v.SetConfigName(envConfigFile)
	_ = v.MergeInConfig() // ignore error if not found

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values so secrets can
// live in the environment while structure lives in YAML. A reference to an
// unset variable expands to the empty string; the literal placeholder must
// never survive as a credential, validation has to see the field as absent.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				v.Set(key, os.ExpandEnv(strVal))
			}
		}
	}
}

// overrideEmptyConfig fills credentials from well-known environment variables
// when the YAML left them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.SMTP.Primary.Username == "" {
		if val := os.Getenv("SMTP_PRIMARY_USERNAME"); val != "" {
			cfg.SMTP.Primary.Username = val
		}
	}
	if cfg.SMTP.Primary.Password == "" {
		if val := os.Getenv("SMTP_PRIMARY_PASSWORD"); val != "" {
			cfg.SMTP.Primary.Password = val
		}
	}
	if cfg.SMTP.Fallback.Username == "" {
		if val := os.Getenv("SMTP_FALLBACK_USERNAME"); val != "" {
			cfg.SMTP.Fallback.Username = val
		}
	}
	if cfg.SMTP.Fallback.Password == "" {
		if val := os.Getenv("SMTP_FALLBACK_PASSWORD"); val != "" {
			cfg.SMTP.Fallback.Password = val
		}
	}
	if cfg.Notifications.Email.AdminEmail == "" {
		if val := os.Getenv("ADMIN_EMAIL"); val != "" {
			cfg.Notifications.Email.AdminEmail = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}

	applySMTPDefaults(&cfg.SMTP.Primary, "primary")
	applySMTPDefaults(&cfg.SMTP.Fallback, "fallback")

	if cfg.Notifications.Email.From == "" {
		cfg.Notifications.Email.From = cfg.SMTP.Primary.Username
	}
	if cfg.Notifications.Queue.Workers == 0 {
		cfg.Notifications.Queue.Workers = 4
	}
	if cfg.Notifications.Queue.BufferSize == 0 {
		cfg.Notifications.Queue.BufferSize = 64
	}
	if cfg.Notifications.VerifyCache.TTL == 0 {
		cfg.Notifications.VerifyCache.TTL = 60000
	}
	// The selector must never trust a stale verify result for long.
	if cfg.Notifications.VerifyCache.TTL > 60000 {
		cfg.Notifications.VerifyCache.TTL = 60000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

func applySMTPDefaults(s *SMTPConfig, name string) {
	if s.Name == "" {
		s.Name = name
	}
	if s.Port == 0 {
		s.Port = 587
	}
	if s.MaxConnections == 0 {
		s.MaxConnections = 5
	}
	if s.ConnectTimeout == 0 {
		s.ConnectTimeout = 10000
	}
	if s.GreetingTimeout == 0 {
		s.GreetingTimeout = 10000
	}
	if s.SocketTimeout == 0 {
		s.SocketTimeout = 15000
	}
}

// validateConfig validates critical configuration fields. Missing SMTP
// credentials are a hard error: the service refuses to start rather than
// falling back to baked-in defaults.
func validateConfig(cfg *Config) error {
	if !cfg.Notifications.Email.Enabled {
		// Kill switch active; transports are never contacted, so an
		// unconfigured relay is acceptable in test/staging environments.
		return nil
	}

	if !cfg.SMTP.Primary.Configured() && !cfg.SES.Enabled {
		return fmt.Errorf("smtp.primary.host is required when notifications are enabled")
	}

	for _, s := range []SMTPConfig{cfg.SMTP.Primary, cfg.SMTP.Fallback} {
		if !s.Configured() {
			continue
		}
		if s.Username == "" {
			return fmt.Errorf("smtp.%s.username is required (set SMTP_%s_USERNAME)", s.Name, strings.ToUpper(s.Name))
		}
		if s.Password == "" {
			return fmt.Errorf("smtp.%s.password is required (set SMTP_%s_PASSWORD)", s.Name, strings.ToUpper(s.Name))
		}
		if s.Port <= 0 || s.Port > 65535 {
			return fmt.Errorf("smtp.%s.port must be between 1 and 65535", s.Name)
		}
	}

	if cfg.SES.Enabled && cfg.SES.Region == "" {
		return fmt.Errorf("ses.region is required when ses is enabled")
	}

	if cfg.Notifications.Email.AdminEmail == "" {
		return fmt.Errorf("notifications.email.admin_email is required when notifications are enabled")
	}
	if cfg.Notifications.Email.From == "" {
		return fmt.Errorf("notifications.email.from is required when notifications are enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
