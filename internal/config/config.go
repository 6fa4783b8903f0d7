package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/recon/internal/atomicfile"
)

// FileName is the default configuration file name.
const FileName = "recon.yaml"

// Config represents the top-level recon.yaml configuration.
type Config struct {
	Locale  string        `yaml:"locale"`
	Locales []Locale      `yaml:"locales"`
	Output  OutputConfig  `yaml:"output"`
	Workers int           `yaml:"workers"`
	Summary SummaryConfig `yaml:"summary"`
}

// Locale describes how one bank's statement export is laid out.
type Locale struct {
	Name               string            `yaml:"name"`
	Delimiter          string            `yaml:"delimiter"`
	DateFormat         string            `yaml:"date_format"` // Go reference layout
	DecimalSeparator   string            `yaml:"decimal_separator"`
	ThousandsSeparator string            `yaml:"thousands_separator"`
	PurchaseDateMarker string            `yaml:"purchase_date_marker"`
	PendingMarker      string            `yaml:"pending_marker"`
	Encodings          []string          `yaml:"encodings"`
	Columns            map[string]string `yaml:"columns"` // source header -> canonical field
}

// OutputConfig controls where normalized files and reports go.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	ReportDir string `yaml:"report_dir"` // relative to Dir
}

// SummaryConfig controls the text summary.
type SummaryConfig struct {
	TopPatterns int `yaml:"top_patterns"`
}

// Load reads a recon.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := atomicfile.WriteFile(path, data); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the settings a run cannot do without.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Summary.TopPatterns < 0 {
		return fmt.Errorf("summary.top_patterns must not be negative, got %d", c.Summary.TopPatterns)
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir is required")
	}
	if _, ok := c.FindLocale(c.Locale); !ok {
		return fmt.Errorf("locale %q is not defined", c.Locale)
	}
	return nil
}

// FindLocale returns the locale with the given name.
func (c *Config) FindLocale(name string) (Locale, bool) {
	for _, l := range c.Locales {
		if l.Name == name {
			return l, true
		}
	}
	return Locale{}, false
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Locale:  DanishLocale().Name,
		Locales: []Locale{DanishLocale()},
		Output: OutputConfig{
			Dir:       "processed",
			ReportDir: "validation_report",
		},
		Workers: 4,
		Summary: SummaryConfig{
			TopPatterns: 10,
		},
	}
}

// DanishLocale returns the profile for Nordea-style Danish exports.
func DanishLocale() Locale {
	return Locale{
		Name:               "danish",
		Delimiter:          ";",
		DateFormat:         "2006/01/02",
		DecimalSeparator:   ",",
		ThousandsSeparator: ".",
		PurchaseDateMarker: "Den",
		PendingMarker:      "Reserveret",
		Encodings:          []string{"utf-8", "windows-1252", "iso-8859-1"},
		Columns: map[string]string{
			"Bogføringsdato": "booking_date",
			"Beløb":          "amount",
			"Afsender":       "sender",
			"Modtager":       "receiver",
			"Navn":           "name",
			"Beskrivelse":    "description",
			"Saldo":          "balance",
			"Valuta":         "currency",
			"Afstemt":        "reconciled",
		},
	}
}
