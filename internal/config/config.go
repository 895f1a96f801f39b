package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the lognlook configuration.
type Config struct {
	HTTP           HTTPConfig           `yaml:"http"`
	Database       DatabaseConfig       `yaml:"database"`
	Relational     RelationalConfig     `yaml:"relational"`
	LLM            LLMConfig            `yaml:"llm"`
	EmbeddingCache EmbeddingCacheConfig `yaml:"embedding_cache"`
	Auth           AuthConfig           `yaml:"auth"`
	Index          IndexConfig          `yaml:"index"`
	Retrieval      RetrievalConfig      `yaml:"retrieval"`
	Storage        StorageConfig        `yaml:"storage"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File       string `yaml:"file"`  // optional rotated JSON sink
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// AuthConfig holds admin API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds document store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RelationalConfig holds the project directory database settings.
type RelationalConfig struct {
	Driver          string `yaml:"driver"` // postgres, sqlite (default: sqlite)
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_sec"`
}

// LLMConfig selects and tunes the LLM provider.
type LLMConfig struct {
	Provider          string  `yaml:"provider"` // openai, anthropic, ollama, huggingface
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	ChatModel         string  `yaml:"chat_model"`
	EmbeddingModel    string  `yaml:"embedding_model"`
	Dimensions        int     `yaml:"dimensions"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float32 `yaml:"temperature"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`

	// Instruction prefixes for asymmetric embedding models such as
	// nomic-embed-text ("search_query: " / "search_document: ").
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`

	// Embedding configures the embedding sub-provider for backends without
	// an embedding API (anthropic).
	Embedding EmbeddingProviderConfig `yaml:"embedding"`
}

// EmbeddingProviderConfig holds the embedding sub-provider settings.
type EmbeddingProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// EmbeddingCacheConfig holds embedding cache settings.
type EmbeddingCacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"` // 0 = no expiry
}

// IndexConfig holds log index mapping settings.
type IndexConfig struct {
	VectorDim       int `yaml:"vector_dim"`
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// RetrievalConfig tunes the hybrid retriever.
type RetrievalConfig struct {
	DefaultK            int    `yaml:"default_k"`
	HybridK             int    `yaml:"hybrid_k"`
	CandidateMultiplier int    `yaml:"candidate_multiplier"`
	MinCandidates       int    `yaml:"min_candidates"`
	SubcallTimeoutMs    int    `yaml:"subcall_timeout_ms"`
	RRFK                int    `yaml:"rrf_k"` // 0 = reuse the request K
	TextField           string `yaml:"text_field"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, when present, is loaded first so that
// ${VAR} references can be resolved from it.
func Load(env string) (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env references in data, decodes it and applies defaults.
func Parse(data []byte) (Config, error) {
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

// LoadDotEnv loads variables from path without overriding the real environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
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
	if c.Relational.Driver == "" {
		c.Relational.Driver = "sqlite"
	}
	if c.Relational.DSN == "" && c.Relational.Driver == "sqlite" {
		c.Relational.DSN = "file:lognlook.db?_pragma=busy_timeout(5000)"
	}
	if c.Relational.MaxOpenConns <= 0 {
		c.Relational.MaxOpenConns = 10
	}
	if c.Relational.MaxIdleConns <= 0 {
		c.Relational.MaxIdleConns = 5
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}
	if c.LLM.Burst <= 0 {
		c.LLM.Burst = 1
	}
	if c.Index.VectorDim <= 0 {
		c.Index.VectorDim = 1536
	}
	if c.LLM.Dimensions <= 0 {
		c.LLM.Dimensions = c.Index.VectorDim
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.DefaultPageSize <= 0 {
		c.Index.DefaultPageSize = 20
	}
	if c.Index.MaxPageSize <= 0 {
		c.Index.MaxPageSize = 100
	}
	if c.Retrieval.DefaultK <= 0 {
		c.Retrieval.DefaultK = 10
	}
	if c.Retrieval.HybridK <= 0 {
		c.Retrieval.HybridK = 5
	}
	if c.Retrieval.CandidateMultiplier <= 0 {
		c.Retrieval.CandidateMultiplier = 10
	}
	if c.Retrieval.MinCandidates <= 0 {
		c.Retrieval.MinCandidates = 100
	}
	if c.Retrieval.SubcallTimeoutMs <= 0 {
		c.Retrieval.SubcallTimeoutMs = 5000
	}
	if c.Retrieval.TextField == "" {
		c.Retrieval.TextField = "comment"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "lognlook:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "redis", "valkey":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver must be redis, valkey or memory, got %q", c.Database.Driver)
	}
	switch c.Relational.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("relational.driver must be postgres or sqlite, got %q", c.Relational.Driver)
	}
	if c.Relational.DSN == "" {
		return fmt.Errorf("relational.dsn is required")
	}
	switch c.LLM.Provider {
	case "openai", "anthropic", "ollama", "huggingface":
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.Dimensions != c.Index.VectorDim {
		return fmt.Errorf("llm.dimensions (%d) must equal index.vector_dim (%d)",
			c.LLM.Dimensions, c.Index.VectorDim)
	}
	if c.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("llm.requests_per_second must not be negative")
	}
	if c.Retrieval.RRFK < 0 {
		return fmt.Errorf("retrieval.rrf_k must not be negative, got %d", c.Retrieval.RRFK)
	}
	switch c.Retrieval.TextField {
	case "comment", "message":
	default:
		return fmt.Errorf("retrieval.text_field must be comment or message, got %q", c.Retrieval.TextField)
	}
	if strings.Contains(strings.TrimSuffix(c.Storage.KeyPrefix, ":"), ":") {
		return fmt.Errorf("storage.key_prefix may only end with ':', got %q", c.Storage.KeyPrefix)
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
