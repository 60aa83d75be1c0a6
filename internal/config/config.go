package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = "stmt2tally.yaml"

// EnvPrefix prefixes every environment override, e.g. STMT2TALLY_BANK_LEDGER.
const EnvPrefix = "STMT2TALLY_"

// Config represents the top-level stmt2tally.yaml configuration.
type Config struct {
	Company CompanyConfig `yaml:"company"`
	Ledgers LedgersConfig `yaml:"ledgers"`
	Parser  ParserConfig  `yaml:"parser"`
	Export  ExportConfig  `yaml:"export"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Audit   AuditConfig   `yaml:"audit"`
}

// CompanyConfig names the Tally company vouchers are imported into.
type CompanyConfig struct {
	Name string `yaml:"name" env:"COMPANY"`
}

// LedgersConfig names the two sides of every voucher.
type LedgersConfig struct {
	Bank   string `yaml:"bank" env:"BANK_LEDGER"`
	Contra string `yaml:"contra" env:"CONTRA_LEDGER"`
}

// ParserConfig selects the statement column layout.
type ParserConfig struct {
	Layout string `yaml:"layout" env:"LAYOUT"` // auto, with-balance, without-balance
}

// ExportConfig controls the generated XML file.
type ExportConfig struct {
	FileName     string `yaml:"file_name" env:"EXPORT_FILE"`
	Indent       bool   `yaml:"indent" env:"EXPORT_INDENT"`
	XMLHeader    bool   `yaml:"xml_header" env:"EXPORT_XML_HEADER"`
	VoucherStart int    `yaml:"voucher_start" env:"VOUCHER_START"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Addr        string `yaml:"addr" env:"ADDR"`
	MaxUploadMB int64  `yaml:"max_upload_mb" env:"MAX_UPLOAD_MB"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"` // text or json
}

// AuditConfig enables the conversion audit log when Path is set.
type AuditConfig struct {
	Path string `yaml:"path,omitempty" env:"AUDIT_LOG"`
}

// Load reads a stmt2tally.yaml file from disk on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Resolve loads path if it exists (defaults otherwise) and applies
// STMT2TALLY_* environment overrides.
func Resolve(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from STMT2TALLY_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
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

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Company: CompanyConfig{
			Name: "Your Company Name",
		},
		Parser: ParserConfig{
			Layout: "auto",
		},
		Export: ExportConfig{
			FileName:     "TallyData.xml",
			VoucherStart: 1,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
