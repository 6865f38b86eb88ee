package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/specassist/internal/chunker"
	"github.com/dgallion1/specassist/internal/index"
	"github.com/dgallion1/specassist/internal/parser"
)

// Embedding providers.
const (
	EmbedHash   = "hash"
	EmbedOpenAI = "openai"
	EmbedOllama = "ollama"
)

// Generation providers. LLMGroq speaks the OpenAI chat completions API and
// works with any compatible endpoint via LLM_BASE_URL.
const (
	LLMGroq      = "groq"
	LLMOllama    = "ollama"
	LLMAnthropic = "anthropic"
	LLMNone      = "none"
)

// Config is read from an optional YAML file and then from the environment;
// environment variables win.
type Config struct {
	Port string `yaml:"port"`

	// Auth for /api/*. Empty disables auth.
	APIKey string `yaml:"-"`

	// Storage
	DataDir  string `yaml:"data_dir"`
	IndexDir string `yaml:"index_dir"`

	// Page extraction
	HeaderPattern        string `yaml:"header_pattern"`
	FooterPattern        string `yaml:"footer_pattern"`
	PDFFallbackPdftotext bool   `yaml:"pdf_fallback_pdftotext"`

	// Chunking
	ChunkMaxSize int    `yaml:"chunk_max_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	ChunkUnit    string `yaml:"chunk_unit"`

	// Embedding
	EmbedProvider  string        `yaml:"embed_provider"`
	EmbedModel     string        `yaml:"embed_model"`
	EmbedBaseURL   string        `yaml:"embed_base_url"`
	EmbedAPIKey    string        `yaml:"-"`
	EmbedDimension int           `yaml:"embed_dimension"` // hash provider only
	EmbedWorkers   int           `yaml:"embed_workers"`
	EmbedRPS       float64       `yaml:"embed_rps"` // <= 0 disables the limiter
	EmbedBurst     int           `yaml:"embed_burst"`
	EmbedTimeout   time.Duration `yaml:"embed_timeout"`

	// Index
	Metric string `yaml:"metric"`
	TopK   int    `yaml:"top_k"`

	// Generation
	LLMProvider     string        `yaml:"llm_provider"`
	LLMModel        string        `yaml:"llm_model"`
	LLMBaseURL      string        `yaml:"llm_base_url"`
	LLMTemperature  float64       `yaml:"llm_temperature"`
	GroqAPIKey      string        `yaml:"-"`
	AnthropicAPIKey string        `yaml:"-"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
	DocumentTitle   string        `yaml:"document_title"`

	// Rebuild jobs
	MaxQueueSize   int           `yaml:"max_queue_size"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	JobTTL         time.Duration `yaml:"job_ttl"`

	// Latency stats window
	StatsMaxAge time.Duration `yaml:"stats_max_age"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:     "8090",
		DataDir:  "data",
		IndexDir: "data/index",

		HeaderPattern:        parser.DefaultHeaderPattern,
		FooterPattern:        parser.DefaultFooterPattern,
		PDFFallbackPdftotext: true,

		ChunkMaxSize: 256,
		ChunkOverlap: 50,
		ChunkUnit:    string(chunker.UnitWord),

		EmbedProvider:  EmbedHash,
		EmbedDimension: 384,
		EmbedWorkers:   4,
		EmbedBurst:     1,
		EmbedTimeout:   30 * time.Second,

		Metric: string(index.MetricInnerProduct),
		TopK:   5,

		LLMProvider:     LLMGroq,
		LLMTemperature:  0.2,
		GenerateTimeout: 60 * time.Second,

		MaxQueueSize:   10,
		MaxUploadBytes: 52428800, // 50MB
		JobTTL:         1 * time.Hour,

		StatsMaxAge: 1 * time.Hour,
	}
}

// Load reads the file named by SPECASSIST_CONFIG, if any, then the environment.
func Load() (Config, error) {
	return LoadFile(os.Getenv("SPECASSIST_CONFIG"))
}

// LoadFile overlays the YAML file at path (skipped when empty or missing) on
// the defaults and then applies environment variables.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	cfg.fillZero()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("SPECASSIST_API_KEY", c.APIKey)

	c.DataDir = envOr("DATA_DIR", c.DataDir)
	c.IndexDir = envOr("INDEX_DIR", c.IndexDir)

	c.HeaderPattern = envOr("HEADER_PATTERN", c.HeaderPattern)
	c.FooterPattern = envOr("FOOTER_PATTERN", c.FooterPattern)
	c.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)

	c.ChunkMaxSize = envInt("CHUNK_MAX_SIZE", c.ChunkMaxSize)
	c.ChunkOverlap = envInt("CHUNK_OVERLAP", c.ChunkOverlap)
	c.ChunkUnit = envOr("CHUNK_UNIT", c.ChunkUnit)

	c.EmbedProvider = strings.ToLower(envOr("EMBED_PROVIDER", c.EmbedProvider))
	c.EmbedModel = envOr("EMBED_MODEL", c.EmbedModel)
	c.EmbedBaseURL = envOr("EMBED_BASE_URL", c.EmbedBaseURL)
	c.EmbedAPIKey = envOr("OPENAI_API_KEY", c.EmbedAPIKey)
	c.EmbedDimension = envInt("EMBED_DIMENSION", c.EmbedDimension)
	c.EmbedWorkers = envInt("EMBED_WORKERS", c.EmbedWorkers)
	c.EmbedRPS = envFloat("EMBED_RPS", c.EmbedRPS)
	c.EmbedBurst = envInt("EMBED_BURST", c.EmbedBurst)
	c.EmbedTimeout = envDuration("EMBED_TIMEOUT", c.EmbedTimeout)

	c.Metric = envOr("INDEX_METRIC", c.Metric)
	c.TopK = envInt("TOP_K", c.TopK)

	c.LLMProvider = strings.ToLower(envOr("LLM_PROVIDER", c.LLMProvider))
	c.LLMModel = envOr("LLM_MODEL", c.LLMModel)
	c.LLMBaseURL = envOr("LLM_BASE_URL", c.LLMBaseURL)
	c.LLMTemperature = envFloat("LLM_TEMPERATURE", c.LLMTemperature)
	c.GroqAPIKey = envOr("GROQ_API_KEY", c.GroqAPIKey)
	c.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.GenerateTimeout = envDuration("GENERATE_TIMEOUT", c.GenerateTimeout)
	c.DocumentTitle = envOr("DOCUMENT_TITLE", c.DocumentTitle)

	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)

	c.StatsMaxAge = envDuration("STATS_MAX_AGE", c.StatsMaxAge)
}

// fillZero restores defaults for sizes and timeouts set to zero or less.
// Chunk sizes are left alone so Validate can reject them.
func (c *Config) fillZero() {
	d := Defaults()
	if c.EmbedWorkers <= 0 {
		c.EmbedWorkers = d.EmbedWorkers
	}
	if c.EmbedBurst <= 0 {
		c.EmbedBurst = d.EmbedBurst
	}
	if c.EmbedDimension <= 0 {
		c.EmbedDimension = d.EmbedDimension
	}
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = d.EmbedTimeout
	}
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = d.GenerateTimeout
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.StatsMaxAge <= 0 {
		c.StatsMaxAge = d.StatsMaxAge
	}
}

// Chunking returns the chunker configuration.
func (c Config) Chunking() chunker.Config {
	return chunker.Config{
		MaxSize: c.ChunkMaxSize,
		Overlap: c.ChunkOverlap,
		Unit:    chunker.Unit(c.ChunkUnit),
	}
}

// Validate checks cross-field rules. It does not require generation
// credentials; a missing key surfaces as a generation error per request.
func (c Config) Validate() error {
	if err := c.Chunking().Validate(); err != nil {
		return err
	}
	if _, err := index.ParseMetric(c.Metric); err != nil {
		return err
	}
	switch c.EmbedProvider {
	case EmbedHash, EmbedOllama:
	case EmbedOpenAI:
		if c.EmbedAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for embed provider %q", c.EmbedProvider)
		}
	default:
		return fmt.Errorf("unknown embed provider %q", c.EmbedProvider)
	}
	switch c.LLMProvider {
	case LLMGroq, LLMOllama, LLMAnthropic, LLMNone:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLMProvider)
	}
	if c.IndexDir == "" {
		return fmt.Errorf("INDEX_DIR is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
