package common

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Sources     SourcesConfig  `toml:"sources"`
	Adzuna      AdzunaConfig   `toml:"adzuna"`
	Claude      ClaudeConfig   `toml:"claude"`
	Gemini      GeminiConfig   `toml:"gemini"`
	LLM         LLMConfig      `toml:"llm"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	Tables      TablesConfig   `toml:"tables"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite"`
	Badger BadgerConfig `toml:"badger"`
}

// SQLiteConfig represents the relational store configuration
type SQLiteConfig struct {
	Path          string `toml:"path" validate:"required"` // Database file path
	CacheSizeMB   int    `toml:"cache_size_mb"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
	WALMode       bool   `toml:"wal_mode"`
}

// BadgerConfig represents the checkpoint store configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// SourceConfig holds per-source fetch behavior. Each ATS gets a hand-picked
// inter-request delay; concurrency caps page fetches within one employer.
type SourceConfig struct {
	Enabled        bool          `toml:"enabled"`
	RequestDelay   time.Duration `toml:"request_delay"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	MaxConcurrency int           `toml:"max_concurrency" validate:"min=1,max=8"`
}

type SourcesConfig struct {
	Greenhouse      SourceConfig `toml:"greenhouse"`
	Lever           SourceConfig `toml:"lever"`
	Ashby           SourceConfig `toml:"ashby"`
	Workable        SourceConfig `toml:"workable"`
	SmartRecruiters SourceConfig `toml:"smartrecruiters"`
	Google          SourceConfig `toml:"google"`
}

// AdzunaConfig contains aggregator API configuration. Adzuna enforces a
// stricter request budget than the ATS boards (~25 req/min).
type AdzunaConfig struct {
	AppID             string                `toml:"app_id"`
	AppKey            string                `toml:"app_key"`
	RequestsPerMinute int                   `toml:"requests_per_minute" validate:"min=1,max=60"`
	RequestTimeout    string                `toml:"request_timeout"`
	Queries           []string              `toml:"queries"` // Predefined search query strings, paginated independently
	Cities            map[string]AdzunaCity `toml:"cities"`  // city_code -> country/location for the search endpoint
}

// AdzunaCity maps a city code onto Adzuna's country path segment and
// "where" search parameter.
type AdzunaCity struct {
	Country  string `toml:"country"`
	Location string `toml:"location"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for classification (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 2048)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`   // default: "gemini-3-flash-preview"
	Timeout     string  `toml:"timeout"` // default: "2m"
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig contains unified configuration for the classifier providers.
// SourceProviders lets individual sources run a different provider/model
// for A/B comparison; unlisted sources use the default.
type LLMConfig struct {
	DefaultProvider LLMProvider            `toml:"default_provider" validate:"omitempty,oneof=claude gemini"`
	SourceProviders map[string]LLMProvider `toml:"source_providers"`
}

// PipelineConfig contains orchestrator behavior settings
type PipelineConfig struct {
	MinDescriptionLength int    `toml:"min_description_length"` // Post-filter on description length (0 = disabled)
	ResumeWindowHours    int    `toml:"resume_window_hours"`    // Skip companies seen within this window (0 = disabled)
	Schedule             string `toml:"schedule"`               // Optional cron schedule for daemon mode ("" = one-shot)
	RecentErrorCap       int    `toml:"recent_error_cap"`       // Max error messages retained in sweep stats
}

// TablesConfig points at the read-only lookup tables directory.
// The directory carries employers.toml, filters.toml, taxonomy.toml,
// agency.toml and suppression.toml.
type TablesConfig struct {
	Dir string `toml:"dir" validate:"required"`
}

// NewDefaultConfig creates a configuration with default values.
// Per-source delays are hand-picked against each board's observed tolerance.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:          "./data/laboro.db",
				CacheSizeMB:   64,
				BusyTimeoutMS: 5000,
				WALMode:       true,
			},
			Badger: BadgerConfig{
				Path: "./data/checkpoints",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Sources: SourcesConfig{
			Greenhouse:      SourceConfig{Enabled: true, RequestDelay: 500 * time.Millisecond, RequestTimeout: 30 * time.Second, MaxConcurrency: 2},
			Lever:           SourceConfig{Enabled: true, RequestDelay: 1 * time.Second, RequestTimeout: 30 * time.Second, MaxConcurrency: 2},
			Ashby:           SourceConfig{Enabled: true, RequestDelay: 700 * time.Millisecond, RequestTimeout: 30 * time.Second, MaxConcurrency: 2},
			Workable:        SourceConfig{Enabled: true, RequestDelay: 2 * time.Second, RequestTimeout: 45 * time.Second, MaxConcurrency: 1},
			SmartRecruiters: SourceConfig{Enabled: true, RequestDelay: 1 * time.Second, RequestTimeout: 30 * time.Second, MaxConcurrency: 2},
			Google:          SourceConfig{Enabled: true, RequestDelay: 300 * time.Millisecond, RequestTimeout: 120 * time.Second, MaxConcurrency: 1},
		},
		Adzuna: AdzunaConfig{
			RequestsPerMinute: 24,
			RequestTimeout:    "30s",
			Queries:           []string{"data engineer", "product manager", "machine learning"},
			Cities: map[string]AdzunaCity{
				"lon": {Country: "gb", Location: "London"},
				"nyc": {Country: "us", Location: "New York"},
				"den": {Country: "us", Location: "Denver"},
				"sin": {Country: "sg", Location: "Singapore"},
			},
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   2048,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
		Pipeline: PipelineConfig{
			MinDescriptionLength: 0,
			ResumeWindowHours:    0,
			RecentErrorCap:       50,
		},
		Tables: TablesConfig{
			Dir: "./config",
		},
	}
}

// LoadFromFile loads configuration from a TOML file over defaults,
// then applies environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides resolves secrets from the environment. Environment
// values win over file values so deployments never persist keys on disk.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("LABORO_ADZUNA_APP_ID"); v != "" {
		config.Adzuna.AppID = v
	}
	if v := os.Getenv("LABORO_ADZUNA_APP_KEY"); v != "" {
		config.Adzuna.AppKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("LABORO_SQLITE_PATH"); v != "" {
		config.Storage.SQLite.Path = v
	}
}
