// Package config loads mailfan configuration from environment variables
// with optional YAML file fallback.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultMaxUploadSize is 25 MB, matching the per-file upload limit.
const defaultMaxUploadSize = 25 * 1024 * 1024

// Duration wraps time.Duration so YAML values like "2s" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Google  GoogleConfig  `yaml:"google"`
	Send    SendConfig    `yaml:"send"`
	Report  ReportConfig  `yaml:"report"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Listen           string `yaml:"listen"`
	FrontendEndpoint string `yaml:"frontend_endpoint"`
	BackendEndpoint  string `yaml:"backend_endpoint"`
}

// GoogleConfig holds Google OAuth client configuration.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// SendConfig holds dispatch pacing and upload handling configuration.
type SendConfig struct {
	PacingInterval  Duration `yaml:"pacing_interval"`
	UploadDir       string   `yaml:"upload_dir"`
	MaxUploadSize   int64    `yaml:"max_upload_size"`
	SessionCapacity int      `yaml:"session_capacity"`
}

// ReportConfig holds the optional batch completion report settings.
// Provider is one of "ses", "smtp" or "none".
type ReportConfig struct {
	Provider     string `yaml:"provider"`
	Sender       string `yaml:"sender"`
	AWSRegion    string `yaml:"aws_region"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     string `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvVars()

	return cfg, nil
}

// ReportConfigured returns true if a completion report sender is enabled.
func (c *Config) ReportConfigured() bool {
	return c.Report.Provider != "" && c.Report.Provider != "none" && c.Report.Sender != ""
}

func (c *Config) applyDefaults() {
	c.Server.Listen = ":3000"
	c.Server.FrontendEndpoint = "http://localhost:3000"
	c.Server.BackendEndpoint = "http://localhost:3000"
	c.Send.PacingInterval = Duration(time.Second)
	c.Send.UploadDir = "uploads"
	c.Send.MaxUploadSize = defaultMaxUploadSize
	c.Send.SessionCapacity = 100
	c.Report.Provider = "none"
	c.Logging.Level = "info"
}

func (c *Config) applyEnvVars() {
	if v := os.Getenv("LISTEN_PORT"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("FRONTEND_ENDPOINT"); v != "" {
		c.Server.FrontendEndpoint = v
	}
	if v := os.Getenv("BACKEND_ENDPOINT"); v != "" {
		c.Server.BackendEndpoint = v
	}

	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		c.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		c.Google.ClientSecret = v
	}

	if v := os.Getenv("SEND_PACING_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Send.PacingInterval = Duration(d)
		}
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.Send.UploadDir = v
	}
	if v := os.Getenv("MAX_UPLOAD_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Send.MaxUploadSize = size
		}
	}
	if v := os.Getenv("SESSION_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Send.SessionCapacity = n
		}
	}

	if v := os.Getenv("REPORT_PROVIDER"); v != "" {
		c.Report.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("REPORT_SENDER"); v != "" {
		c.Report.Sender = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Report.AWSRegion = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.Report.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		c.Report.SMTPPort = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.Report.SMTPUsername = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.Report.SMTPPassword = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
