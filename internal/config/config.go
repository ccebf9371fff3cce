package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ColumnMapping names the spreadsheet columns a question's results land in.
type ColumnMapping struct {
	LinkColumn       string `yaml:"link_column"`
	TranscriptColumn string `yaml:"transcript_column"`
}

// Config represents the application configuration. One immutable value is
// built at startup and passed into each component at construction.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Observability struct {
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"observability"`

	Provider struct {
		BaseURL             string `yaml:"base_url"`
		AccessToken         string `yaml:"-"`
		CallbackURL         string `yaml:"callback_url"`
		PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
		MaxWaitSeconds      int    `yaml:"max_wait_seconds"`
	} `yaml:"provider"`

	Media struct {
		SupportedFormats    []string `yaml:"supported_formats"`
		ProbeTimeoutSeconds int      `yaml:"probe_timeout_seconds"`
	} `yaml:"media"`

	Retry struct {
		MaxAttempts            int `yaml:"max_attempts"`
		InitialIntervalSeconds int `yaml:"initial_interval_seconds"`
	} `yaml:"retry"`

	Sheets struct {
		SpreadsheetID   string                   `yaml:"spreadsheet_id"`
		CredentialsFile string                   `yaml:"credentials_file"`
		SheetName       string                   `yaml:"sheet_name"`
		EmailColumn     string                   `yaml:"email_column"`
		QuestionColumns map[string]ColumnMapping `yaml:"question_columns"`
	} `yaml:"sheets"`

	Workbook struct {
		Path string `yaml:"path"`
	} `yaml:"workbook"`

	Ledger struct {
		Database        string `yaml:"database"`
		IntervalMinutes int    `yaml:"interval_minutes"`
		MaxAgeDays      int    `yaml:"max_age_days"`
	} `yaml:"ledger"`

	Kafka struct {
		Enabled   bool     `yaml:"enabled"`
		Brokers   []string `yaml:"brokers"`
		Topic     string   `yaml:"topic"`
		Principal string   `yaml:"principal"`
	} `yaml:"kafka"`
}

// Load reads the YAML file at path, fills in defaults, and applies
// environment overrides. A missing file is not an error: the service can run
// entirely from defaults plus environment.
func Load(path string) (*Config, error) {
	config := defaults()

	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnv(config)
	fillZeroes(config)
	return config, nil
}

func defaults() *Config {
	config := &Config{}
	config.Server.Host = "0.0.0.0"
	config.Server.Port = 8080
	config.Observability.MetricsAddr = ":9090"
	config.Provider.BaseURL = "https://api.rev.ai/speechtotext/v1"
	config.Provider.PollIntervalSeconds = 10
	config.Provider.MaxWaitSeconds = 300
	config.Media.SupportedFormats = []string{
		"mp3", "mp4", "ogg", "wav", "pcm", "flac", "aac", "m4a", "wma", "aiff",
	}
	config.Media.ProbeTimeoutSeconds = 10
	config.Retry.MaxAttempts = 3
	config.Retry.InitialIntervalSeconds = 1
	config.Sheets.CredentialsFile = "credentials.json"
	config.Sheets.SheetName = "Sheet1"
	config.Sheets.EmailColumn = "E"
	config.Sheets.QuestionColumns = map[string]ColumnMapping{
		"Staying Connected": {LinkColumn: "O", TranscriptColumn: "P"},
	}
	config.Workbook.Path = "results.xlsx"
	config.Ledger.IntervalMinutes = 60
	config.Ledger.MaxAgeDays = 90
	config.Kafka.Topic = "transcripts.completed"
	return config
}

// applyEnv lets deployment secrets win over file values.
func applyEnv(config *Config) {
	if v := os.Getenv("REV_AI_API_KEY"); v != "" {
		config.Provider.AccessToken = v
	}
	if v := os.Getenv("WEBHOOK_CALLBACK_URL"); v != "" {
		config.Provider.CallbackURL = v
	}
	if v := os.Getenv("SPREADSHEET_ID"); v != "" {
		config.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		config.Sheets.CredentialsFile = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		config.Kafka.Brokers = strings.Split(v, ",")
		config.Kafka.Enabled = true
	}
}

// fillZeroes restores defaults clobbered by explicit zero values in the file.
func fillZeroes(config *Config) {
	if config.Provider.PollIntervalSeconds <= 0 {
		config.Provider.PollIntervalSeconds = 10
	}
	if config.Provider.MaxWaitSeconds <= 0 {
		config.Provider.MaxWaitSeconds = 300
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry.MaxAttempts = 3
	}
	if config.Retry.InitialIntervalSeconds <= 0 {
		config.Retry.InitialIntervalSeconds = 1
	}
	if config.Media.ProbeTimeoutSeconds <= 0 {
		config.Media.ProbeTimeoutSeconds = 10
	}
}

// PollInterval returns the provider poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Provider.PollIntervalSeconds) * time.Second
}

// MaxWait returns the synchronous wait ceiling as a duration.
func (c *Config) MaxWait() time.Duration {
	return time.Duration(c.Provider.MaxWaitSeconds) * time.Second
}
