package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
		MaxAge         int      `yaml:"max_age" env:"CORS_MAX_AGE"`
	} `yaml:"cors"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	AI struct {
		BaseURL             string        `yaml:"base_url" env:"AI_BASE_URL"`
		APIKey              string        `yaml:"api_key" env:"AI_API_KEY"`
		Model               string        `yaml:"model" env:"AI_MODEL"`
		MaxTokens           int           `yaml:"max_tokens" env:"AI_MAX_TOKENS"`
		EvaluationMaxTokens int           `yaml:"evaluation_max_tokens" env:"AI_EVALUATION_MAX_TOKENS"`
		Temperature         float64       `yaml:"temperature" env:"AI_TEMPERATURE"`
		TopP                float64       `yaml:"top_p" env:"AI_TOP_P"`
		ReplyMaxChars       int           `yaml:"reply_max_chars" env:"AI_REPLY_MAX_CHARS"`
		Timeout             time.Duration `yaml:"timeout" env:"AI_TIMEOUT"`
		PromptDir           string        `yaml:"prompt_dir" env:"AI_PROMPT_DIR"`
	} `yaml:"ai"`

	Seed struct {
		AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
		AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// The file is optional; env vars alone are enough in containers
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.CORS.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	config.CORS.MaxAge = 300

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "storetrainer"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "24h"
	config.JWT.Issuer = "storetrainer.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.AI.BaseURL = "https://api.openai.com/v1"
	config.AI.Model = "gpt-4o-mini"
	config.AI.MaxTokens = 200
	config.AI.EvaluationMaxTokens = 800
	config.AI.Temperature = 0.8
	config.AI.TopP = 0.9
	config.AI.ReplyMaxChars = 300
	config.AI.Timeout = 20 * time.Second
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid database connection lifetime: %w", err)
	}

	if config.AI.Timeout <= 0 {
		return fmt.Errorf("ai timeout must be positive")
	}

	if config.AI.Temperature < 0 || config.AI.Temperature > 2 {
		return fmt.Errorf("ai temperature must be within [0,2], got %v", config.AI.Temperature)
	}

	if config.AI.TopP <= 0 || config.AI.TopP > 1 {
		return fmt.Errorf("ai top_p must be within (0,1], got %v", config.AI.TopP)
	}

	if config.AI.MaxTokens <= 0 || config.AI.EvaluationMaxTokens <= 0 {
		return fmt.Errorf("ai token budgets must be positive")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
