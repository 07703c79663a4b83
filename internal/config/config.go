package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fortneer/fluxo/internal/ingest"
	"github.com/fortneer/fluxo/internal/model"
)

const (
	// FileName is the project configuration file.
	FileName = "fluxo.yaml"
	// EnvFile holds optional FLUXO_* overrides next to FileName.
	EnvFile = ".env"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "FLUXO_"
)

// Config represents the top-level fluxo.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business" envPrefix:"BUSINESS_"`
	Ingest   IngestConfig   `yaml:"ingest"   envPrefix:"INGEST_"`
	Report   ReportConfig   `yaml:"report"   envPrefix:"REPORT_"`
	Logging  LoggingConfig  `yaml:"logging"  envPrefix:"LOG_"`
	Git      GitConfig      `yaml:"git"      envPrefix:"GIT_"`
}

// BusinessConfig identifies the organization.
type BusinessConfig struct {
	Name string `yaml:"name" env:"NAME"`
}

// IngestConfig controls how input sheets are read and defaulted.
type IngestConfig struct {
	// DefaultUnit fills records whose source has no unit.
	DefaultUnit string `yaml:"default_unit" env:"DEFAULT_UNIT"`
	// DefaultAccount is the catch-all analytic account.
	DefaultAccount string `yaml:"default_account" env:"DEFAULT_ACCOUNT"`
	CSVEncoding    string `yaml:"csv_encoding"    env:"CSV_ENCODING"`
	OnInvalidRow   string `yaml:"on_invalid_row"  env:"ON_INVALID_ROW"` // fail | skip
}

// ReportConfig holds report defaults.
type ReportConfig struct {
	Regime         string `yaml:"regime"          env:"REGIME"` // cash | accrual
	CurrencyPrefix string `yaml:"currency_prefix" env:"CURRENCY_PREFIX"`
	ExportDir      string `yaml:"export_dir"      env:"EXPORT_DIR"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"  env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // console | json
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"  env:"AUTO_COMMIT"`
	AuthorName  string `yaml:"author_name"  env:"AUTHOR_NAME"`
	AuthorEmail string `yaml:"author_email" env:"AUTHOR_EMAIL"`
}

// Load reads a fluxo.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadProject reads <root>/fluxo.yaml, loads <root>/.env into the process
// environment without overriding existing variables, then applies FLUXO_*
// overrides and validates the result.
func LoadProject(root string) (*Config, error) {
	cfg, err := Load(filepath.Join(root, FileName))
	if err != nil {
		return nil, err
	}

	envPath := filepath.Join(root, EnvFile)
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("loading %s: %w", EnvFile, err)
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays FLUXO_* environment variables onto cfg. Unset variables
// leave the file values in place.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := model.ParseRegime(c.Report.Regime); err != nil {
		return fmt.Errorf("report.regime: %w", err)
	}
	if _, err := ingest.ParseRowPolicy(c.Ingest.OnInvalidRow); err != nil {
		return fmt.Errorf("ingest.on_invalid_row: %w", err)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q (want console or json)", c.Logging.Format)
	}
	return nil
}

// IngestOptions converts the ingest section for the adapters.
func (c *Config) IngestOptions() ingest.Options {
	policy, _ := ingest.ParseRowPolicy(c.Ingest.OnInvalidRow)
	return ingest.Options{
		DefaultUnit:    c.Ingest.DefaultUnit,
		DefaultAccount: c.Ingest.DefaultAccount,
		OnInvalidRow:   policy,
	}
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name: businessName,
		},
		Ingest: IngestConfig{
			DefaultAccount: "Outros",
			CSVEncoding:    "utf-8",
			OnInvalidRow:   string(ingest.FailOnInvalid),
		},
		Report: ReportConfig{
			Regime:         string(model.RegimeCash),
			CurrencyPrefix: "R$",
			ExportDir:      "exports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Git: GitConfig{
			AuthorName:  "fluxo",
			AuthorEmail: "fluxo@localhost",
		},
	}
}
