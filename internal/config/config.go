package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	SES      SESConfig      `yaml:"ses"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Trello   TrelloConfig   `yaml:"trello"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// SheetsConfig holds Google Sheets API configuration
type SheetsConfig struct {
	BaseURL        string `yaml:"base_url"`
	AccessToken    string `yaml:"access_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SheetsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SESConfig holds AWS SES API configuration
type SESConfig struct {
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	FromName       string `yaml:"from_name"`
	FromAddress    string `yaml:"from_address"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SMTPConfig holds SMTP relay configuration (Brevo-style)
type SMTPConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Secret      string `yaml:"secret"`
	FromName    string `yaml:"from_name"`
	FromAddress string `yaml:"from_address"`
	Enabled     bool   `yaml:"enabled"`
}

// TrelloConfig holds Trello API configuration for escalation tickets
type TrelloConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Token          string `yaml:"token"`
	ListID         string `yaml:"list_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c TrelloConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PipelineConfig holds pipeline run settings
type PipelineConfig struct {
	SpreadsheetID         string   `yaml:"spreadsheet_id"`
	Ranges                []string `yaml:"ranges"`
	MailProvider          string   `yaml:"mail_provider"` // "ses" or "smtp"
	DispatchWorkers       int      `yaml:"dispatch_workers"`
	ActionTimeoutSeconds  int      `yaml:"action_timeout_seconds"`
	DryRun                bool     `yaml:"dry_run"`
}

// ActionTimeout returns the per-action timeout as a duration
func (c PipelineConfig) ActionTimeout() time.Duration {
	return time.Duration(c.ActionTimeoutSeconds) * time.Second
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Sheets.BaseURL == "" {
		cfg.Sheets.BaseURL = "https://sheets.googleapis.com"
	}
	if cfg.Sheets.TimeoutSeconds == 0 {
		cfg.Sheets.TimeoutSeconds = 30
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-east-1"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Trello.BaseURL == "" {
		cfg.Trello.BaseURL = "https://api.trello.com"
	}
	if cfg.Trello.TimeoutSeconds == 0 {
		cfg.Trello.TimeoutSeconds = 10
	}
	if cfg.Pipeline.MailProvider == "" {
		cfg.Pipeline.MailProvider = "smtp"
	}
	if cfg.Pipeline.DispatchWorkers == 0 {
		cfg.Pipeline.DispatchWorkers = 4
	}
	if cfg.Pipeline.ActionTimeoutSeconds == 0 {
		cfg.Pipeline.ActionTimeoutSeconds = 30
	}
	if len(cfg.Pipeline.Ranges) == 0 {
		cfg.Pipeline.Ranges = []string{"Sheet1!A1:Z"}
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets can
// live in .env locally and in real env vars on the host.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SHEETS_ACCESS_TOKEN"); v != "" {
		cfg.Sheets.AccessToken = v
	}
	if v := os.Getenv("SHEETS_BASE_URL"); v != "" {
		cfg.Sheets.BaseURL = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.SMTP.User = v
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		cfg.SMTP.Secret = v
	}
	if v := os.Getenv("SMTP_FROM_ADDRESS"); v != "" {
		cfg.SMTP.FromAddress = v
	}
	if v := os.Getenv("TRELLO_API_KEY"); v != "" {
		cfg.Trello.APIKey = v
	}
	if v := os.Getenv("TRELLO_TOKEN"); v != "" {
		cfg.Trello.Token = v
	}
	if v := os.Getenv("TRELLO_LIST_ID"); v != "" {
		cfg.Trello.ListID = v
	}
	if v := os.Getenv("SPREADSHEET_ID"); v != "" {
		cfg.Pipeline.SpreadsheetID = v
	}

	return cfg, nil
}
