package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Batch   BatchConfig   `yaml:"batch"`
	OCR     OCRConfig     `yaml:"ocr"`
	LLM     LLMConfig     `yaml:"llm"`
	History HistoryConfig `yaml:"history"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Log     LogConfig     `yaml:"log"`
}

// BatchConfig holds folder-walk configuration
type BatchConfig struct {
	Root           string `yaml:"root"`
	SplitMultipage bool   `yaml:"split_multipage"`
	SkipHidden     bool   `yaml:"skip_hidden"`
}

// OCRConfig holds text-extraction configuration
type OCRConfig struct {
	Pdftotext     string `yaml:"pdftotext"`
	Pdftoppm      string `yaml:"pdftoppm"`
	Tesseract     string `yaml:"tesseract"`
	Soffice       string `yaml:"soffice"`
	TesseractLang string `yaml:"tesseract_lang"`
	TessdataDir   string `yaml:"tessdata_dir"`
	DPI           int    `yaml:"dpi"`
	MaxPages      int    `yaml:"max_pages"`
	TempDir       string `yaml:"temp_dir"`
}

// ProviderConfig holds credentials and model for an HTTP model provider
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// GeminiConfig holds Vertex AI settings
type GeminiConfig struct {
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
	Model    string `yaml:"model"`
}

// LLMConfig holds inference configuration
type LLMConfig struct {
	Provider        string         `yaml:"provider"`
	Fallbacks       []string       `yaml:"fallbacks"`
	Temperature     float32        `yaml:"temperature"`
	Timeout         time.Duration  `yaml:"timeout"`
	MinInterval     time.Duration  `yaml:"min_interval"`
	AttachDocuments bool           `yaml:"attach_documents"`
	OpenAI          ProviderConfig `yaml:"openai"`
	Anthropic       ProviderConfig `yaml:"anthropic"`
	Gemini          GeminiConfig   `yaml:"gemini"`
}

// HistoryConfig holds the run-history store location; empty DSN disables it
type HistoryConfig struct {
	DSN         string        `yaml:"dsn"`
	MaxConns    int32         `yaml:"max_conns"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// DaemonConfig holds watch-mode configuration
type DaemonConfig struct {
	GRPCAddr string        `yaml:"grpc_addr"`
	Debounce time.Duration `yaml:"debounce"`
	Workers  int           `yaml:"workers"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Providers known to the inference factory.
var Providers = []string{"openai", "anthropic", "gemini"}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Batch: BatchConfig{
			Root:           getEnv("CERT_ROOT", "./certificates"),
			SplitMultipage: getEnvAsBool("SPLIT_MULTIPAGE", true),
			SkipHidden:     getEnvAsBool("SKIP_HIDDEN", true),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Soffice:       getEnv("SOFFICE_BIN", "soffice"),
			TesseractLang: getEnv("TESSERACT_LANG", "spa"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
			TempDir:       getEnv("OCR_TEMP_DIR", ""),
		},
		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("CERT_PROVIDER", "openai")),
			Fallbacks:       getEnvAsList("CERT_FALLBACKS", []string{"gemini", "anthropic"}),
			Temperature:     getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			MinInterval:     getEnvAsDuration("LLM_MIN_INTERVAL", 100*time.Millisecond),
			AttachDocuments: getEnvAsBool("LLM_ATTACH_DOCUMENTS", true),
			OpenAI: ProviderConfig{
				APIKey:  getEnv("API_OPENAI", getEnv("OPENAI_API_KEY", "")),
				Model:   getEnv("OPENAI_MODEL", "gpt-5-mini"),
				BaseURL: getEnv("OPENAI_BASE_URL", ""),
			},
			Anthropic: ProviderConfig{
				APIKey:  getEnv("ANTHROPIC_API_KEY", ""),
				Model:   getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
				BaseURL: getEnv("ANTHROPIC_BASE_URL", ""),
			},
			Gemini: GeminiConfig{
				Project:  getEnv("GEMINI_PROJECT", ""),
				Location: getEnv("GEMINI_LOCATION", "us-central1"),
				Model:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			},
		},
		History: HistoryConfig{
			DSN:         getEnv("HISTORY_DSN", ""),
			MaxConns:    getEnvAsInt32("HISTORY_MAX_CONNS", 4),
			DialTimeout: getEnvAsDuration("HISTORY_DIAL_TIMEOUT", 3*time.Second),
		},
		Daemon: DaemonConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
			Debounce: getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
			Workers:  getEnvAsInt("WATCH_WORKERS", 2),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// ApplyFile overlays a YAML file on top of c. Keys absent from the file keep their current value.
func (c *Config) ApplyFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError(CodeConfig, "read config file", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return NewAppError(CodeConfig, fmt.Sprintf("parse config file %s", path), err)
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	return nil
}

// SlogLevel maps Log.Level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("batch.root", c.Batch.Root, Required).
		Field("llm.provider", c.LLM.Provider, Required, OneOf(Providers...)).
		Field("llm.fallbacks", c.LLM.Fallbacks, EachOneOf(Providers...)).
		Field("llm.timeout", c.LLM.Timeout.Seconds(), Positive).
		Field("ocr.dpi", c.OCR.DPI, Positive)
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
