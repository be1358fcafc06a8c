// Package config provides configuration types for the submission portal.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/andresqui0416/Melotech-Artist/logging"
)

// Config holds all application configuration
type Config struct {
	Logging  logging.Config `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Events   EventsConfig   `mapstructure:"events"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mail     MailConfig     `mapstructure:"mail"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// SetDefaults sets viper defaults for portal configuration.
func (c *Config) SetDefaults(v *viper.Viper, prefix string) {
	p := ""
	if prefix != "" {
		p = prefix + "."
	}

	// Server defaults
	v.SetDefault(p+"server.address", ":3000")
	v.SetDefault(p+"server.read_timeout", "30s")
	v.SetDefault(p+"server.shutdown_timeout", "10s")

	// Database defaults
	v.SetDefault(p+"database.type", "sqlite")
	v.SetDefault(p+"database.sqlite_path", "melotech.db")

	// Events defaults
	v.SetDefault(p+"events.type", "memory")
	v.SetDefault(p+"events.buffer_size", 100)

	// Auth defaults
	v.SetDefault(p+"auth.jwt_secret", "")
	v.SetDefault(p+"auth.token_ttl", "24h")

	// Mail defaults
	v.SetDefault(p+"mail.from_email", "noreply@yourlabel.com")
	v.SetDefault(p+"mail.from_name", "The A&R Team")

	// Upload defaults
	v.SetDefault(p+"uploads.region", "us-east-1")
	v.SetDefault(p+"uploads.max_file_size", 50*1024*1024)
	v.SetDefault(p+"uploads.url_expiry", "1h")

	// Seed defaults
	v.SetDefault(p+"seed.admin_email", "admin@yourlabel.com")
	v.SetDefault(p+"seed.admin_password", "admin123")

	c.Logging.SetDefaults(v, p+"logging")
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type            string `mapstructure:"type"` // "sqlite" or "postgres"
	SQLitePath      string `mapstructure:"sqlite_path"`
	PostgresConnStr string `mapstructure:"postgres_conn_str"`
}

// EventsConfig holds event publisher configuration
type EventsConfig struct {
	Type       string `mapstructure:"type"` // "memory" or "redis"
	BufferSize int    `mapstructure:"buffer_size"`
	RedisURL   string `mapstructure:"redis_url"`
}

// AuthConfig holds admin authentication configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// MailConfig holds SendGrid configuration
type MailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromEmail      string `mapstructure:"from_email"`
	FromName       string `mapstructure:"from_name"`
}

// UploadsConfig holds S3 upload configuration
type UploadsConfig struct {
	Bucket      string        `mapstructure:"bucket"`
	Region      string        `mapstructure:"region"`
	MaxFileSize int64         `mapstructure:"max_file_size"`
	URLExpiry   time.Duration `mapstructure:"url_expiry"`
}

// SeedConfig holds the credentials the seed endpoint provisions.
type SeedConfig struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}
