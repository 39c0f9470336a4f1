package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the supportrag API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	CORS      CORSConfig      `yaml:"cors"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Lexical   LexicalConfig   `yaml:"lexical"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	Upload    UploadConfig    `yaml:"upload"`
	Documents DocumentsConfig `yaml:"documents"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CORSConfig lists the browser origins allowed to call the API with credentials.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, embedded (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	VectorSearch     bool     `yaml:"vector_search"` // FT.CREATE/FT.SEARCH available
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	EmbeddedAddr     string   `yaml:"embedded_addr"` // listen address for driver=embedded
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	Model       string       `yaml:"model"` // hashing, openai (default: hashing)
	Dimensions  int          `yaml:"dimensions"`
	Seed        string       `yaml:"seed"`
	EagerLoad   bool         `yaml:"eager_load"`
	CacheTTLSec int          `yaml:"cache_ttl_sec"` // 0 = no expiry, -1 = cache disabled
	OpenAI      OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig holds settings for an OpenAI-compatible embeddings endpoint.
type OpenAIConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// RetrievalConfig tunes semantic retrieval.
type RetrievalConfig struct {
	TopK            int      `yaml:"top_k"`
	NumCandidates   int      `yaml:"num_candidates"`
	MinScore        *float64 `yaml:"min_score"` // nil = default
	EmbedTimeoutSec int      `yaml:"embed_timeout_sec"` // 0 = unbounded
	StoreTimeoutSec int      `yaml:"store_timeout_sec"` // 0 = unbounded
	HNSWM           int      `yaml:"hnsw_m"`
	HNSWEFConstruct int      `yaml:"hnsw_ef_construction"`
}

// LexicalConfig tunes the fuzzy text matcher used for website content.
type LexicalConfig struct {
	Threshold *float64 `yaml:"threshold"` // nil = default; 0 is a valid value
}

// CrawlerConfig holds website scraping settings.
type CrawlerConfig struct {
	URLs        []string `yaml:"urls"`
	TimeoutSec  int      `yaml:"timeout_sec"`
	UserAgent   string   `yaml:"user_agent"`
	Selector    string   `yaml:"selector"`
	MinTextLen  int      `yaml:"min_text_len"`
	Concurrency int      `yaml:"concurrency"`
	CacheTTLSec int      `yaml:"cache_ttl_sec"` // 0 = no caching
}

// UploadConfig limits document uploads.
type UploadConfig struct {
	MaxSizeMB  int    `yaml:"max_size_mb"`
	UploadedBy string `yaml:"uploaded_by"`
}

// DocumentsConfig holds listing settings.
type DocumentsConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "hashing"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 512
	}
	if c.Embedding.Seed == "" {
		c.Embedding.Seed = "supportrag"
	}
	if c.Embedding.OpenAI.Model == "" {
		c.Embedding.OpenAI.Model = "text-embedding-3-small"
	}
	if c.Embedding.OpenAI.TimeoutSec <= 0 {
		c.Embedding.OpenAI.TimeoutSec = 30
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 3
	}
	if c.Retrieval.NumCandidates <= 0 {
		c.Retrieval.NumCandidates = 300
	}
	if c.Retrieval.MinScore == nil {
		c.Retrieval.MinScore = ptr(0.02)
	}
	if c.Retrieval.HNSWM <= 0 {
		c.Retrieval.HNSWM = 16
	}
	if c.Retrieval.HNSWEFConstruct <= 0 {
		c.Retrieval.HNSWEFConstruct = 200
	}
	if c.Lexical.Threshold == nil {
		c.Lexical.Threshold = ptr(0.3)
	}
	if c.Crawler.TimeoutSec <= 0 {
		c.Crawler.TimeoutSec = 10
	}
	if c.Crawler.MinTextLen <= 0 {
		c.Crawler.MinTextLen = 20
	}
	if c.Crawler.Concurrency <= 0 {
		c.Crawler.Concurrency = 4
	}
	if c.Upload.MaxSizeMB <= 0 {
		c.Upload.MaxSizeMB = 20
	}
	if c.Upload.UploadedBy == "" {
		c.Upload.UploadedBy = "admin"
	}
	if c.Documents.DefaultPageSize <= 0 {
		c.Documents.DefaultPageSize = 20
	}
	if c.Documents.MaxPageSize <= 0 {
		c.Documents.MaxPageSize = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver redis")
		}
	case "embedded":
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"embedded\", got %q", c.Database.Driver)
	}
	switch c.Embedding.Model {
	case "hashing":
	case "openai":
		if c.Embedding.OpenAI.APIKey == "" {
			return fmt.Errorf("embedding.openai.api_key is required for model openai")
		}
	default:
		return fmt.Errorf("embedding.model must be \"hashing\" or \"openai\", got %q", c.Embedding.Model)
	}
	if m := c.Retrieval.MinScore; m != nil && (*m < -1 || *m > 1) {
		return fmt.Errorf("retrieval.min_score must be between -1 and 1, got %v", *m)
	}
	if c.Retrieval.EmbedTimeoutSec < 0 || c.Retrieval.StoreTimeoutSec < 0 {
		return fmt.Errorf("retrieval timeouts must not be negative")
	}
	if t := c.Lexical.Threshold; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("lexical.threshold must be between 0 and 1, got %v", *t)
	}
	if c.Crawler.CacheTTLSec < 0 {
		return fmt.Errorf("crawler.cache_ttl_sec must not be negative, got %d", c.Crawler.CacheTTLSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func ptr[T any](v T) *T { return &v }

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
