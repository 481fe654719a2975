// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	SMTP          SMTPListConfig     `mapstructure:"smtp"`
	SES           SESConfig          `mapstructure:"ses"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// SMTPListConfig holds the ordered transport list. Primary is tried first on
// every send, fallback only when primary fails verification.
type SMTPListConfig struct {
	Primary  SMTPConfig `mapstructure:"primary"`
	Fallback SMTPConfig `mapstructure:"fallback"`
}

// SMTPConfig describes a single SMTP relay endpoint.
type SMTPConfig struct {
	Name            string `mapstructure:"name"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Secure          bool   `mapstructure:"secure"` // implicit TLS; false = STARTTLS
	MaxConnections  int    `mapstructure:"max_connections"`
	ConnectTimeout  int    `mapstructure:"connect_timeout"`  // milliseconds
	GreetingTimeout int    `mapstructure:"greeting_timeout"` // milliseconds
	SocketTimeout   int    `mapstructure:"socket_timeout"`   // milliseconds
}

// Addr returns the host:port dial address.
func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Configured reports whether this endpoint is usable at all. An empty host
// disables the slot (e.g. no fallback relay in staging).
func (s SMTPConfig) Configured() bool {
	return s.Host != ""
}

// SESConfig describes the optional AWS SES transport, tried after both SMTP
// relays when enabled.
type SESConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
}

// NotificationConfig holds settings for the dispatcher and outbound queue.
type NotificationConfig struct {
	Email struct {
		Enabled    bool   `mapstructure:"enabled"`
		From       string `mapstructure:"from"`
		FromName   string `mapstructure:"from_name"`
		AdminEmail string `mapstructure:"admin_email"`
	} `mapstructure:"email"`
	DashboardURL string `mapstructure:"dashboard_url"`
	Queue        struct {
		Workers    int `mapstructure:"workers"`
		BufferSize int `mapstructure:"buffer_size"`
	} `mapstructure:"queue"`
	VerifyCache struct {
		Enabled bool `mapstructure:"enabled"`
		TTL     int  `mapstructure:"ttl"` // milliseconds, capped at 60s
	} `mapstructure:"verify_cache"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Configured reports whether the delivery log database is set up.
func (p PostgresConfig) Configured() bool {
	return p.Host != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
