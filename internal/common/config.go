package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	ReceiptsDir string `mapstructure:"receipts_dir"`
	OutputDir   string `mapstructure:"output_dir"`
	VerifiedDir string `mapstructure:"verified_dir"`
	DBPath      string `mapstructure:"db_path"`
	Workers     int    `mapstructure:"workers"`

	OCR        OCRConfig        `mapstructure:"ocr"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Validation ValidationConfig `mapstructure:"validation"`
}

// OCRConfig holds text-recognition settings.
type OCRConfig struct {
	Pdftotext string `mapstructure:"pdftotext"`
	Pdftoppm  string `mapstructure:"pdftoppm"`
	Tesseract string `mapstructure:"tesseract"`
	Languages string `mapstructure:"languages"`
	DPI       int    `mapstructure:"dpi"`
	MaxPages  int    `mapstructure:"max_pages"`
	// TextLayerMin is the minimum number of characters a PDF text layer must
	// carry before OCR is skipped in favor of it.
	TextLayerMin int `mapstructure:"text_layer_min"`
}

// LLMConfig holds model-fallback settings.
type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ValidationConfig holds value-comparison settings.
type ValidationConfig struct {
	// AmountTolerance is the absolute EUR tolerance for amount comparisons.
	AmountTolerance float64 `mapstructure:"amount_tolerance"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("receipts_dir", "receipts")
	v.SetDefault("output_dir", "extracted")
	v.SetDefault("verified_dir", "verified")
	v.SetDefault("db_path", "huoltokirja.db")
	v.SetDefault("workers", 1)

	v.SetDefault("ocr.pdftotext", "pdftotext")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.languages", "fin+eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.text_layer_min", 100)

	v.SetDefault("llm.base_url", "http://localhost:11434/v1")
	v.SetDefault("llm.model", "llama3.1")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", 45*time.Second)

	v.SetDefault("validation.amount_tolerance", 0.01)
}

// Load reads configuration from an optional file plus HUOLTOKIRJA_* env vars.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HUOLTOKIRJA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("huoltokirja")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// missing file is fine; defaults + env apply
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option ranges.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1", ErrInvalidInput)
	}
	if c.OCR.DPI < 72 {
		return fmt.Errorf("%w: ocr.dpi must be >= 72", ErrInvalidInput)
	}
	if c.Validation.AmountTolerance < 0 {
		return fmt.Errorf("%w: validation.amount_tolerance must be >= 0", ErrInvalidInput)
	}
	return nil
}
