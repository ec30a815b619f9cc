package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Logging    LoggingConfig    `toml:"logging"`
	Extraction ExtractionConfig `toml:"extraction"`
	Gemini     GeminiConfig     `toml:"gemini"`
	Claude     ClaudeConfig     `toml:"claude"`
	Classifier ClassifierConfig `toml:"classifier"`
	OCR        OCRConfig        `toml:"ocr"`
	Storage    StorageConfig    `toml:"storage"`
	Export     ExportConfig     `toml:"export"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output []string `toml:"output"`                                       // "stdout", "file"
	File   string   `toml:"file"`                                         // Log file name, relative to the executable's logs dir
}

// ExtractionConfig controls batching, rasterization and cropping of the vision pipeline
type ExtractionConfig struct {
	BatchSize       int    `toml:"batch_size" validate:"gte=1,lte=50"`
	DPI             int    `toml:"dpi" validate:"gte=50,lte=600"`
	BatchDelay      string `toml:"batch_delay"`                                      // Duration string between batches, e.g. "1s"
	Rasterizer      string `toml:"rasterizer" validate:"oneof=pdftoppm embedded"`    // "pdftoppm" (Poppler) or "embedded" (pdfcpu page images)
	JPEGQuality     int    `toml:"jpeg_quality" validate:"gte=1,lte=100"`            // Quality for page payloads and crops
	MaxPageEdge     int    `toml:"max_page_edge" validate:"gte=0"`                   // Downscale pages whose longest edge exceeds this (0 = never)
	DiagramPadding  int    `toml:"diagram_padding" validate:"gte=0,lte=1000"`        // Vertical padding for box_2d crops (0-1000 scale)
	QuestionPadding int    `toml:"question_padding" validate:"gte=0,lte=1000"`       // Vertical padding for full_question_box_2d crops
	PdftoppmPath    string `toml:"pdftoppm_path"`                                    // Optional explicit path to pdftoppm
}

// GeminiConfig contains Google Gemini API configuration for the extraction models
type GeminiConfig struct {
	APIKey      string   `toml:"api_key"`                     // Fallback only; QBANK_GEMINI_API_KEY / GEMINI_API_KEY take precedence
	Models      []string `toml:"models" validate:"min=1"`     // Ordered fallback list
	Temperature float32  `toml:"temperature" validate:"gte=0"` // Extraction wants deterministic output (default: 0)
	Timeout     string   `toml:"timeout"`                     // Per-call timeout, "0" disables
	MaxRetries  int      `toml:"max_retries" validate:"gte=0"` // Rate-limit retries per model before falling back
}

// ClaudeConfig contains Anthropic Claude configuration for the optional fallback model
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`   // Empty disables the Claude fallback
	Model     string `toml:"model"`     // Vision-capable model name
	MaxTokens int    `toml:"max_tokens" validate:"gte=256"`
}

type ClassifierConfig struct {
	KeywordsFile string `toml:"keywords_file"` // Optional YAML keyword table replacing the embedded one
}

type OCRConfig struct {
	Languages []string `toml:"languages"` // Tesseract language codes
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

// ExportConfig controls exam and answer sheet rendering
type ExportConfig struct {
	FontPath string `toml:"font_path"` // TTF with CJK coverage; without it only Latin text renders
	Title    string `toml:"title"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
			File:   "qbank.log",
		},
		Extraction: ExtractionConfig{
			BatchSize:       10,
			DPI:             150,
			BatchDelay:      "1s", // Free-tier friendly pacing between batches
			Rasterizer:      "pdftoppm",
			JPEGQuality:     85,
			MaxPageEdge:     0,
			DiagramPadding:  5,
			QuestionPadding: 150,
		},
		Gemini: GeminiConfig{
			Models: []string{
				"gemini-2.5-flash",
				"gemini-2.5-pro",
				"gemini-2.0-flash",
				"gemini-1.5-pro",
			},
			Temperature: 0,
			Timeout:     "0",
			MaxRetries:  1,
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-5",
			MaxTokens: 16384,
		},
		OCR: OCRConfig{
			Languages: []string{"chi_tra", "eng"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Export: ExportConfig{
			Title: "物理試題",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. Flags are applied by the caller through ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies QBANK_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if level := os.Getenv("QBANK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("QBANK_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if batchSize := os.Getenv("QBANK_BATCH_SIZE"); batchSize != "" {
		if b, err := strconv.Atoi(batchSize); err == nil {
			config.Extraction.BatchSize = b
		}
	}
	if dpi := os.Getenv("QBANK_DPI"); dpi != "" {
		if d, err := strconv.Atoi(dpi); err == nil {
			config.Extraction.DPI = d
		}
	}
	if delay := os.Getenv("QBANK_BATCH_DELAY"); delay != "" {
		config.Extraction.BatchDelay = delay
	}
	if rasterizer := os.Getenv("QBANK_RASTERIZER"); rasterizer != "" {
		config.Extraction.Rasterizer = rasterizer
	}
	if pdftoppm := os.Getenv("QBANK_PDFTOPPM_PATH"); pdftoppm != "" {
		config.Extraction.PdftoppmPath = pdftoppm
	}

	if models := os.Getenv("QBANK_GEMINI_MODELS"); models != "" {
		list := []string{}
		for _, m := range strings.Split(models, ",") {
			if trimmed := strings.TrimSpace(m); trimmed != "" {
				list = append(list, trimmed)
			}
		}
		if len(list) > 0 {
			config.Gemini.Models = list
		}
	}
	if timeout := os.Getenv("QBANK_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}

	if key := os.Getenv("QBANK_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && config.Claude.APIKey == "" {
		config.Claude.APIKey = key
	}
	if model := os.Getenv("QBANK_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	if keywords := os.Getenv("QBANK_KEYWORDS_FILE"); keywords != "" {
		config.Classifier.KeywordsFile = keywords
	}

	if badgerPath := os.Getenv("QBANK_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if font := os.Getenv("QBANK_EXPORT_FONT"); font != "" {
		config.Export.FontPath = font
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, logLevel string, batchSize int, rasterizer string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if batchSize > 0 {
		config.Extraction.BatchSize = batchSize
	}
	if rasterizer != "" {
		config.Extraction.Rasterizer = rasterizer
	}
}

// Validate checks struct tag constraints and duration fields
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.BatchDelay(); err != nil {
		return fmt.Errorf("invalid extraction.batch_delay: %w", err)
	}
	if _, err := c.GeminiTimeout(); err != nil {
		return fmt.Errorf("invalid gemini.timeout: %w", err)
	}
	return nil
}

// BatchDelay returns the parsed pause between batches
func (c *Config) BatchDelay() (time.Duration, error) {
	return parseDuration(c.Extraction.BatchDelay)
}

// GeminiTimeout returns the parsed per-call timeout, 0 meaning none
func (c *Config) GeminiTimeout() (time.Duration, error) {
	return parseDuration(c.Gemini.Timeout)
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// ResolveGeminiAPIKey resolves the Gemini key: explicit value -> environment -> config fallback.
// Returns "" when nothing is configured; callers decide whether that is fatal.
func ResolveGeminiAPIKey(explicit string, config *Config) string {
	if k := strings.TrimSpace(explicit); k != "" {
		return k
	}
	for _, name := range []string{"QBANK_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	if config != nil {
		return strings.TrimSpace(config.Gemini.APIKey)
	}
	return ""
}
