// Package config provides configuration management for the ragpipe services.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration shared by the API server, the ingest
// worker and the queue monitor.
type Config struct {
	// Server settings
	API struct {
		Port string `yaml:"port"`
	} `yaml:"api"`

	// Document registry (Postgres)
	Database struct {
		URL string `yaml:"url"`
		// Schema is a free-text description of the queryable tables,
		// injected into the NL->SQL prompt.
		Schema         string `yaml:"schema"`
		MigrationsPath string `yaml:"migrations_path"`
	} `yaml:"database"`

	// Vector store settings
	Vector struct {
		Dimension int `yaml:"dimension"`
	} `yaml:"vector"`

	// Object storage (MinIO/S3)
	Minio struct {
		Endpoint        string `yaml:"endpoint"`
		AccessKey       string `yaml:"access_key"`
		SecretKey       string `yaml:"secret_key"`
		Secure          bool   `yaml:"secure"`
		Bucket          string `yaml:"bucket"`
		URLExpiryMinute int    `yaml:"url_expiry_minutes"`
	} `yaml:"minio"`

	// Multi-tenancy
	Tenancy struct {
		OrganizationPrefix string `yaml:"organization_prefix"`
	} `yaml:"tenancy"`

	// LLM (Ollama or any OpenAI-compatible endpoint)
	LLM struct {
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"llm"`

	// Embedder
	Embedder struct {
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"embedder"`

	// Query pipeline
	Query struct {
		Retriever struct {
			TopK int `yaml:"top_k"`
		} `yaml:"retriever"`
	} `yaml:"query"`

	// Temporal settings
	Temporal struct {
		Address   string `yaml:"address"`
		Namespace string `yaml:"namespace"`
		TaskQueue string `yaml:"task_queue"`
	} `yaml:"temporal"`

	// Auth settings
	Auth struct {
		JWKSUrl  string `yaml:"jwks_url"`
		Issuer   string `yaml:"issuer"`
		Audience string `yaml:"audience"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"auth"`
}

// Load reads config.yaml (when present) and applies environment-variable
// overrides with sensible defaults. A missing file is fine; the services
// can run from the environment alone.
func Load() (*Config, error) {
	return LoadFile(getEnv("RAGPIPE_CONFIG", "./config.yaml"))
}

// LoadFile loads configuration from the given YAML file path, then applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only operation
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.API.Port = getEnv("RAGPIPE_API_PORT", c.API.Port)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.Schema = getEnv("RAGPIPE_DB_SCHEMA", c.Database.Schema)
	c.Database.MigrationsPath = getEnv("RAGPIPE_MIGRATIONS_PATH", c.Database.MigrationsPath)

	c.Vector.Dimension = getEnvInt("EMBED_DIM", c.Vector.Dimension)

	c.Minio.Endpoint = getEnv("MINIO_ENDPOINT", c.Minio.Endpoint)
	c.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", c.Minio.AccessKey)
	c.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", c.Minio.SecretKey)
	c.Minio.Secure = getEnvBool("MINIO_SECURE", c.Minio.Secure)
	c.Minio.Bucket = getEnv("MINIO_BUCKET", c.Minio.Bucket)

	c.Tenancy.OrganizationPrefix = getEnv("RAGPIPE_ORG_PREFIX", c.Tenancy.OrganizationPrefix)

	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.Embedder.Model = getEnv("EMBEDDING_MODEL", c.Embedder.Model)
	c.Embedder.BaseURL = getEnv("EMBEDDING_BASE_URL", c.Embedder.BaseURL)

	c.Temporal.Address = getEnv("TEMPORAL_ADDRESS", c.Temporal.Address)
	c.Temporal.Namespace = getEnv("TEMPORAL_NAMESPACE", c.Temporal.Namespace)
	c.Temporal.TaskQueue = getEnv("RAGPIPE_TASK_QUEUE", c.Temporal.TaskQueue)

	c.Auth.JWKSUrl = getEnv("AUTH_JWKS_URL", c.Auth.JWKSUrl)
	c.Auth.Issuer = getEnv("AUTH_ISSUER", c.Auth.Issuer)
	c.Auth.Audience = getEnv("AUTH_AUDIENCE", c.Auth.Audience)
	c.Auth.Debug = getEnvBool("RAGPIPE_AUTH_DEBUG", c.Auth.Debug)
}

func (c *Config) applyDefaults() {
	if c.API.Port == "" {
		c.API.Port = "8000"
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "./migrations"
	}
	if c.Vector.Dimension <= 0 {
		c.Vector.Dimension = 768
	}
	if c.Minio.Endpoint == "" {
		c.Minio.Endpoint = "localhost:9000"
	}
	if c.Minio.Bucket == "" {
		c.Minio.Bucket = "ragpipe-uploads"
	}
	if c.Minio.URLExpiryMinute <= 0 {
		c.Minio.URLExpiryMinute = 10
	}
	if c.Tenancy.OrganizationPrefix == "" {
		c.Tenancy.OrganizationPrefix = "org"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://localhost:11434/v1"
	}
	if c.Embedder.BaseURL == "" {
		c.Embedder.BaseURL = c.LLM.BaseURL
	}
	if c.Query.Retriever.TopK <= 0 {
		c.Query.Retriever.TopK = 10
	}
	if c.Temporal.Address == "" {
		c.Temporal.Address = "localhost:7233"
	}
	if c.Temporal.Namespace == "" {
		c.Temporal.Namespace = "default"
	}
	if c.Temporal.TaskQueue == "" {
		c.Temporal.TaskQueue = "ragpipe-ingestion"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
