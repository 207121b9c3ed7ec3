package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/compliancewatch/internal/model"
	"github.com/ppiankov/compliancewatch/internal/scoring"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvEmbeddingURL, "")
	t.Setenv(EnvEmbeddingURLLegacy, "")

	cfg, hash, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults, got error: %v", err)
	}
	if cfg.Similarity.Strategy != "lexical" || !cfg.SeedDemo {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Scoring.Weights.Baseline != 0.15 {
		t.Errorf("expected default baseline 0.15, got %v", cfg.Scoring.Weights.Baseline)
	}
	// sha256 of empty input
	if hash != "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("unexpected hash for missing file: %s", hash)
	}
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	t.Setenv(EnvEmbeddingURL, "")
	t.Setenv(EnvEmbeddingURLLegacy, "")

	path := writeConfig(t, `
similarity:
  timeout: 3s
scoring:
  weights:
    severity:
      block: 0.7
seed_demo: false
knowledge_files: [a.yaml, b.yaml]
alerts:
  - url: http://example.invalid/hook
    format: slack
    events: [block]
`)
	cfg, hash, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "sha256:") || len(hash) != 71 {
		t.Errorf("unexpected hash %q", hash)
	}
	if cfg.Similarity.Timeout != 3*time.Second || cfg.Similarity.Strategy != "lexical" {
		t.Errorf("unexpected similarity %+v", cfg.Similarity)
	}
	if cfg.SeedDemo {
		t.Error("expected seed_demo false")
	}
	w := cfg.Scoring.Weights
	if w.Severity[model.SevBlock] != 0.7 || w.Severity[model.SevHigh] != 0.35 {
		t.Errorf("expected merged severity weights, got %v", w.Severity)
	}
	if w.Baseline != 0.15 {
		t.Errorf("expected untouched baseline, got %v", w.Baseline)
	}
	if len(cfg.KnowledgeFiles) != 2 || len(cfg.Alerts) != 1 || cfg.Alerts[0].Format != "slack" {
		t.Errorf("unexpected lists %+v %+v", cfg.KnowledgeFiles, cfg.Alerts)
	}
}

func TestLoadHashChangesWithContent(t *testing.T) {
	_, h1, err := Load(writeConfig(t, "seed_demo: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, h2, err := Load(writeConfig(t, "seed_demo: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Fatal("expected different hashes for different files")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, _, err := Load(writeConfig(t, "similarity: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv(EnvEmbeddingURL, "")
	t.Setenv(EnvEmbeddingURLLegacy, "")

	tests := []struct {
		name string
		yaml string
	}{
		{"embedding without url", "similarity:\n  strategy: embedding\n"},
		{"unknown strategy", "similarity:\n  strategy: bm25\n"},
		{"baseline above one", "scoring:\n  weights:\n    baseline: 1.2\n    cap: 1.5\n    max_hits: -1\n"},
		{"negative severity weight", "scoring:\n  weights:\n    severity:\n      high: -0.2\n"},
		{"alert without url", "alerts:\n  - format: slack\n"},
		{"negative rate limit", "rate_limit:\n  max_requests: -1\n  window: 1m\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(writeConfig(t, tt.yaml))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestScoringBoundsAreNotConfigurable(t *testing.T) {
	t.Setenv(EnvEmbeddingURL, "")
	t.Setenv(EnvEmbeddingURLLegacy, "")

	cfg, _, err := Load(writeConfig(t, `
scoring:
  weights:
    baseline: 1
    signal_mix: 1
    cap: 1.5
    max_hits: -1
  thresholds:
    high: 0.9
    medium: 0.1
`))
	if err != nil {
		t.Fatal(err)
	}

	signals := []model.RiskSignal{{Code: "x", Severity: model.SevHigh}}
	got := scoring.Score(cfg.Scoring, signals, nil, nil, nil)
	if got.Probability != scoring.MaxProbability {
		t.Errorf("expected probability capped at %v, got %v", scoring.MaxProbability, got.Probability)
	}
	if got.Level != model.SevHigh {
		t.Errorf("expected fixed thresholds to give high, got %s", got.Level)
	}

	low := scoring.Score(cfg.Scoring, nil, nil, nil, nil)
	if low.Probability != scoring.MaxProbability {
		t.Errorf("expected baseline 1 to clamp, got %v", low.Probability)
	}
}

func TestEnvOverridesEmbeddingURL(t *testing.T) {
	t.Setenv(EnvEmbeddingURL, "")
	t.Setenv(EnvEmbeddingURLLegacy, "http://legacy:9000/embed")

	path := writeConfig(t, "similarity:\n  strategy: embedding\n  embedding_url: http://file/embed\n")
	cfg, _, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Similarity.EmbeddingURL != "http://legacy:9000/embed" {
		t.Errorf("expected legacy env override, got %s", cfg.Similarity.EmbeddingURL)
	}

	t.Setenv(EnvEmbeddingURL, "http://primary:9000/embed")
	cfg, _, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Similarity.EmbeddingURL != "http://primary:9000/embed" {
		t.Errorf("expected primary env to win, got %s", cfg.Similarity.EmbeddingURL)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv(EnvEmbeddingURL, "")
	os.Unsetenv(EnvEmbeddingURL)

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte(EnvEmbeddingURL+"=http://dotenv/embed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnv(envFile, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv(EnvEmbeddingURL); got != "http://dotenv/embed" {
		t.Errorf("expected value from .env, got %q", got)
	}
}

func TestExampleParses(t *testing.T) {
	t.Setenv(EnvEmbeddingURL, "")
	t.Setenv(EnvEmbeddingURLLegacy, "")

	cfg, _, err := Load(writeConfig(t, Example))
	if err != nil {
		t.Fatalf("example config must load: %v", err)
	}
	if cfg.Similarity.Timeout != 10*time.Second {
		t.Errorf("unexpected timeout %v", cfg.Similarity.Timeout)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/kb/a.yaml"); got != filepath.Join(home, "kb", "a.yaml") {
		t.Errorf("unexpected expansion %s", got)
	}
	if got := ExpandHome("/abs/a.yaml"); got != "/abs/a.yaml" {
		t.Errorf("absolute path must be untouched, got %s", got)
	}
}
