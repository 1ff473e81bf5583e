package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port" env:"PORT"`
		ReadTimeout     time.Duration `yaml:"readTimeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    time.Duration `yaml:"writeTimeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		MaxBodyBytes    int64         `yaml:"maxBodyBytes" env:"SERVER_MAX_BODY_BYTES"`
	} `yaml:"server"`

	AI struct {
		Provider     string `yaml:"provider" env:"AI_PROVIDER"` // openai | gemini
		Model        string `yaml:"model" env:"AI_MODEL"`
		MaxTokens    int    `yaml:"maxTokens" env:"AI_MAX_TOKENS"`
		JSONMode     bool   `yaml:"jsonMode" env:"AI_JSON_MODE"`
		OpenAIAPIKey string `yaml:"openaiApiKey" env:"OPENAI_API_KEY"`
		OpenAIBase   string `yaml:"openaiBaseUrl" env:"OPENAI_BASE_URL"`
		GeminiAPIKey string `yaml:"geminiApiKey" env:"GEMINI_API_KEY"`
	} `yaml:"ai"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	} `yaml:"cors"`

	Auth struct {
		APIKeys []string `yaml:"apiKeys" env:"API_KEYS" envSeparator:","`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity" env:"RATE_LIMIT_CAPACITY"`
		RefillRate int `yaml:"refillRate" env:"RATE_LIMIT_REFILL_RATE"` // tokens per second
	} `yaml:"rateLimit"`

	Audit struct {
		Driver   string `yaml:"driver" env:"AUDIT_DRIVER"` // "", mysql or postgres
		Host     string `yaml:"host" env:"AUDIT_DB_HOST"`
		Port     int    `yaml:"port" env:"AUDIT_DB_PORT"`
		User     string `yaml:"user" env:"AUDIT_DB_USER"`
		Password string `yaml:"password" env:"AUDIT_DB_PASSWORD"`
		Name     string `yaml:"name" env:"AUDIT_DB_NAME"`
		SSLMode  string `yaml:"sslMode" env:"AUDIT_DB_SSLMODE"`
	} `yaml:"audit"`

	Archive struct {
		Endpoint   string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
		AccessKey  string `yaml:"accessKey" env:"MINIO_ACCESS_KEY"`
		SecretKey  string `yaml:"secretKey" env:"MINIO_SECRET_KEY"`
		BucketName string `yaml:"bucketName" env:"MINIO_BUCKET"`
		Region     string `yaml:"region" env:"MINIO_REGION"`
		UseSSL     bool   `yaml:"useSSL" env:"MINIO_USE_SSL"`
	} `yaml:"archive"`

	YouTube struct {
		APIKey     string `yaml:"apiKey" env:"YOUTUBE_API_KEY"`
		MaxResults int    `yaml:"maxResults" env:"YOUTUBE_MAX_RESULTS"`
	} `yaml:"youtube"`

	Log struct {
		Level   string `yaml:"level" env:"LOG_LEVEL"`
		// NoColor follows the NO_COLOR convention: any non-empty value disables color.
		NoColor string `yaml:"noColor" env:"NO_COLOR"`
	} `yaml:"log"`
}

// Default returns the configuration used when neither file nor environment say otherwise.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 120 * time.Second
	c.Server.ShutdownTimeout = 15 * time.Second
	c.Server.MaxBodyBytes = 20 << 20
	c.AI.Provider = "openai"
	c.AI.MaxTokens = 2048
	c.AI.JSONMode = true
	c.CORS.AllowedOrigins = []string{"*"}
	c.RateLimit.Capacity = 30
	c.RateLimit.RefillRate = 1
	c.Audit.SSLMode = "disable"
	c.Archive.BucketName = "homefix-raw"
	c.YouTube.MaxResults = 5
	c.Log.Level = "info"
	return &c
}

// Load reads the YAML file at path on top of the defaults, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with. Missing provider keys are
// allowed; requests then fail with a configuration error.
func (c *Config) Validate() error {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	switch c.AI.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("ai.provider must be openai or gemini, got %q", c.AI.Provider)
	}
	switch c.Audit.Driver {
	case "", "mysql", "postgres":
	default:
		return fmt.Errorf("audit.driver must be mysql or postgres, got %q", c.Audit.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.maxBodyBytes must be positive")
	}
	return nil
}

// APIKey returns the credential of the selected provider.
func (c *Config) APIKey() string {
	if c.AI.Provider == "gemini" {
		return c.AI.GeminiAPIKey
	}
	return c.AI.OpenAIAPIKey
}

// MySQLDSN builds the go-sql-driver DSN for the audit database.
func (c *Config) MySQLDSN() string {
	port := c.Audit.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Audit.User,
		c.Audit.Password,
		c.Audit.Host,
		port,
		c.Audit.Name,
	)
}

// PostgresDSN builds the lib/pq connection string for the audit database.
func (c *Config) PostgresDSN() string {
	port := c.Audit.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Audit.Host, port, c.Audit.User, c.Audit.Password, c.Audit.Name, c.Audit.SSLMode)
}
