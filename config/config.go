package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Rules     RulesConfig
	Matching  MatchingConfig
	Embedding EmbeddingConfig
	Database  DatabaseConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RulesConfig points at the rule documents the matching engine loads
type RulesConfig struct {
	Dir string `mapstructure:"dir"`
}

// MatchingConfig holds matching engine thresholds
type MatchingConfig struct {
	MinConfidence      float64 `mapstructure:"min_confidence"`
	MaxMatches         int     `mapstructure:"max_matches"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// EmbeddingConfig holds embedding backend configuration
type EmbeddingConfig struct {
	Provider      string        `mapstructure:"provider"` // "ollama", "openai" or "mock"
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	APIKey        string        `mapstructure:"api_key"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

// DatabaseConfig holds sqlite configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shelfmatch/")

	// Environment variable settings
	v.SetEnvPrefix("SHELFMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Rules defaults
	v.SetDefault("rules.dir", "./rules")

	// Matching defaults
	v.SetDefault("matching.min_confidence", 0.65)
	v.SetDefault("matching.max_matches", 3)
	v.SetDefault("matching.enable_debug_logging", false)

	// Embedding defaults
	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.base_url", "http://localhost:11434/api")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.rate_per_second", 10.0)
	v.SetDefault("embedding.cache_ttl", "1h")

	// Database defaults
	v.SetDefault("database.path", "./shelfmatch.db")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Matching.MinConfidence < 0 || config.Matching.MinConfidence > 1 {
		return fmt.Errorf("matching min_confidence must be in [0,1], got: %v", config.Matching.MinConfidence)
	}

	if config.Matching.MaxMatches < 1 {
		return fmt.Errorf("matching max_matches must be at least 1, got: %d", config.Matching.MaxMatches)
	}

	switch config.Embedding.Provider {
	case "ollama", "openai", "mock":
	default:
		return fmt.Errorf("embedding provider must be 'ollama', 'openai' or 'mock', got: %s", config.Embedding.Provider)
	}

	if config.Embedding.Provider == "openai" && config.Embedding.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required (set SHELFMATCH_EMBEDDING_API_KEY)")
	}

	return nil
}
