// Package config loads the compliancewatch configuration file.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/compliancewatch/internal/alert"
	"github.com/ppiankov/compliancewatch/internal/ratelimit"
	"github.com/ppiankov/compliancewatch/internal/scoring"
	"github.com/ppiankov/compliancewatch/internal/similarity"
)

// Environment variables that override the embedding service URL, in
// priority order.
const (
	EnvEmbeddingURL       = "COMPLIANCEWATCH_EMBEDDING_URL"
	EnvEmbeddingURLLegacy = "EMBEDDING_SERVICE_URL"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Similarity selects the retrieval backend.
type Similarity struct {
	Strategy     string        `yaml:"strategy"`
	EmbeddingURL string        `yaml:"embedding_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Config holds all configurable parameters.
type Config struct {
	Similarity     Similarity          `yaml:"similarity"`
	Scoring        scoring.Config      `yaml:"scoring"`
	DenylistPath   string              `yaml:"denylist_path"`
	KnowledgeFiles []string            `yaml:"knowledge_files"`
	SeedDemo       bool                `yaml:"seed_demo"`
	AuditLog       string              `yaml:"audit_log"`
	HistoryDB      string              `yaml:"history_db"`
	Alerts         []alert.AlertConfig `yaml:"alerts"`
	RateLimit      ratelimit.Config    `yaml:"rate_limit"`
}

// DefaultConfig returns the built-in configuration: lexical similarity,
// calibrated scoring, demo seeding on, no audit log, history or alerts.
func DefaultConfig() *Config {
	return &Config{
		Similarity: Similarity{Strategy: similarity.StrategyLexical, Timeout: 10 * time.Second},
		Scoring:    scoring.DefaultConfig(),
		SeedDemo:   true,
	}
}

// DefaultPath is ~/.compliancewatch/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".compliancewatch", "config.yaml")
}

// Load reads the configuration from a YAML file and returns it with the
// SHA-256 of the raw bytes. Empty path falls back to DefaultPath. A missing
// file yields defaults and the hash of empty input. Invalid YAML is an
// error. Environment overrides are applied last.
func Load(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	var data []byte
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, "", goerr.Wrap(err, "failed to read config", goerr.V("path", path))
		}
		data = raw
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, "", goerr.Wrap(err, "failed to parse config", goerr.V("path", path))
		}
	}

	cfg.ApplyEnv()
	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, hash, nil
}

// LoadEnv loads .env files into the process environment. Missing files
// are ignored; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return goerr.Wrap(err, "failed to load env file", goerr.V("path", f))
		}
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	for _, key := range []string{EnvEmbeddingURL, EnvEmbeddingURLLegacy} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			c.Similarity.EmbeddingURL = v
			return
		}
	}
}

func (c *Config) expandPaths() {
	c.DenylistPath = ExpandHome(c.DenylistPath)
	c.AuditLog = ExpandHome(c.AuditLog)
	c.HistoryDB = ExpandHome(c.HistoryDB)
	for i, f := range c.KnowledgeFiles {
		c.KnowledgeFiles[i] = ExpandHome(f)
	}
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Similarity.Strategy)) {
	case "", similarity.StrategyLexical:
	case similarity.StrategyEmbedding:
		if c.Similarity.EmbeddingURL == "" {
			return goerr.Wrap(ErrInvalid, "embedding strategy requires similarity.embedding_url")
		}
	default:
		return goerr.Wrap(ErrInvalid, "unknown similarity strategy", goerr.V("strategy", c.Similarity.Strategy))
	}

	if err := c.Scoring.Validate(); err != nil {
		return goerr.Wrap(ErrInvalid, err.Error())
	}

	if c.RateLimit.MaxRequests < 0 || c.RateLimit.Window < 0 {
		return goerr.Wrap(ErrInvalid, "rate_limit values must not be negative")
	}

	for i, a := range c.Alerts {
		if a.URL == "" {
			return goerr.Wrap(ErrInvalid, "alert has no url", goerr.V("index", i))
		}
	}
	return nil
}

// Example is a commented starter configuration.
const Example = `# compliancewatch configuration
similarity:
  strategy: lexical          # lexical | embedding
  # embedding_url: http://localhost:8080/embed
  timeout: 10s

scoring:
  weights:                   # each weight within [0, 1]
    baseline: 0.15
    # severity: {low: 0.08, medium: 0.18, high: 0.35, block: 0.6}

seed_demo: true
# denylist_path: ~/.compliancewatch/denylist.yaml
# knowledge_files:
#   - ./kb/policies.yaml
# audit_log: ~/.compliancewatch/audit.jsonl
# history_db: ~/.compliancewatch/history.db

# rate_limit:                # HTTP API, per client address and route
#   max_requests: 60
#   window: 1m

# alerts:
#   - url: https://hooks.slack.com/services/...
#     format: slack
#     events: [block, high]
`
