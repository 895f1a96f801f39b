package lognlook

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis" or "memory"
	addrs    []string
	password string

	projectDriver string // "sqlite" or "postgres"
	projectDSN    string

	embedder Embedder
	chat     ChatModel

	vectorDimensions    int
	hnswM               int
	hnswEFConstruct     int
	keyPrefix           string
	concurrency         int
	candidateMultiplier int
	minCandidates       int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemory keeps documents in process. Nothing survives Close.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.addrs = nil
	})
}

// WithProjectDB sets the project directory database. driver is "sqlite"
// or "postgres". Defaults to an in-memory sqlite database.
func WithProjectDB(driver, dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.projectDriver = driver
		c.projectDSN = dsn
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithChatModel sets the model that writes comments and troubleshooting
// answers. Required.
func WithChatModel(m ChatModel) Option {
	return optionFunc(func(c *clientConfig) {
		c.chat = m
	})
}

// WithVectorDimensions sets the embedding size of new indexes.
// Defaults to 1536 (text-embedding-3-small).
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithKeyPrefix namespaces every key and index. Default: "lognlook:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithConcurrency bounds parallel enrichment in batch ingestion. Default: 4.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.concurrency = n
	})
}

// WithCandidatePool tunes the semantic search candidate pool:
// max(k*multiplier, minimum). Defaults: 10 and 100.
func WithCandidatePool(multiplier, minimum int) Option {
	return optionFunc(func(c *clientConfig) {
		c.candidateMultiplier = multiplier
		c.minCandidates = minimum
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
