package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/specassist/internal/corpus"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChunkMaxSize != 256 || cfg.ChunkOverlap != 50 || cfg.ChunkUnit != "word" {
		t.Errorf("unexpected chunking defaults: %+v", cfg.Chunking())
	}
	if cfg.Metric != "ip" || cfg.TopK != 5 {
		t.Errorf("unexpected index defaults: metric=%s k=%d", cfg.Metric, cfg.TopK)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8090" {
		t.Errorf("expected default port, got %s", cfg.Port)
	}
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specassist.yaml")
	yml := `port: "9000"
chunk_max_size: 400
chunk_overlap: 40
metric: l2
generate_timeout: 15s
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9100")
	t.Setenv("EMBED_RPS", "2.5")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("env should win over file, got port %s", cfg.Port)
	}
	if cfg.ChunkMaxSize != 400 || cfg.ChunkOverlap != 40 {
		t.Errorf("file values not applied: %+v", cfg.Chunking())
	}
	if cfg.Metric != "l2" {
		t.Errorf("expected l2, got %s", cfg.Metric)
	}
	if cfg.GenerateTimeout != 15*time.Second {
		t.Errorf("expected 15s, got %s", cfg.GenerateTimeout)
	}
	if cfg.EmbedRPS != 2.5 {
		t.Errorf("expected rps 2.5, got %v", cfg.EmbedRPS)
	}
}

func TestLoadFile_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate_Overlap(t *testing.T) {
	cfg := Defaults()
	cfg.ChunkOverlap = cfg.ChunkMaxSize
	err := cfg.Validate()
	if !errors.Is(err, corpus.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestValidate_Providers(t *testing.T) {
	cfg := Defaults()
	cfg.EmbedProvider = EmbedOpenAI
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for openai embeddings without key")
	}
	cfg.EmbedAPIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg = Defaults()
	cfg.LLMProvider = "mystery"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown llm provider")
	}

	cfg = Defaults()
	cfg.Metric = "cosine-ish"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestEnvHelpers_IgnoreGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_FLOAT", "1.5")
	if envInt("X_INT", 7) != 7 {
		t.Error("envInt should fall back on parse error")
	}
	if envDuration("X_DUR", time.Second) != time.Second {
		t.Error("envDuration should fall back on parse error")
	}
	if envFloat("X_FLOAT", 0) != 1.5 {
		t.Error("envFloat should parse")
	}
}
