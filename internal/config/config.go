package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Units selects how weights are entered and displayed.
type Units string

const (
	Metric   Units = "metric"
	Imperial Units = "imperial"
)

// SetValue lets cleanenv reject unknown units in HEALTH_UNITS.
func (u *Units) SetValue(s string) error {
	switch Units(s) {
	case Metric, Imperial:
		*u = Units(s)
		return nil
	default:
		return fmt.Errorf(`units must be "metric" or "imperial", got %q`, s)
	}
}

// IsMetric reports whether weights are in kilograms.
func (u Units) IsMetric() bool {
	return u != Imperial
}

// Config represents the main configuration for health.
type Config struct {
	InstallID  string           `toml:"install_id" validate:"required,uuid"`
	BaseDir    string           `toml:"base_dir" validate:"required"`
	LogDir     string           `toml:"log_dir" env:"HEALTH_LOG_DIR" env-description:"directory for health.log" validate:"required"`
	Units      Units            `toml:"units" env:"HEALTH_UNITS" env-description:"metric or imperial weight entry" validate:"oneof=metric imperial"`
	Database   DatabaseConfig   `toml:"database"`
	Chart      ChartConfig      `toml:"chart"`
	Encryption EncryptionConfig `toml:"encryption"`
	Vault      VaultConfig      `toml:"vault"`
}

// DatabaseConfig represents configuration for the record store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type" validate:"oneof=sqlite memory"`
	DataDir string `toml:"data_dir,omitempty" env:"HEALTH_DATA_DIR" env-description:"directory holding health.db" validate:"required_if=Type sqlite"`
}

// ChartConfig holds the chart service settings. Only URLs are built; nothing
// is fetched.
type ChartConfig struct {
	BaseURL string `toml:"base_url" validate:"required,url"`
	Width   int    `toml:"width" validate:"gt=0,lte=1000"`
	Height  int    `toml:"height" validate:"gt=0,lte=1000"`
	Samples int    `toml:"samples" validate:"gte=0"` // points per chart; 0 means all
}

// EncryptionConfig holds paths to the age key pair used for exports and snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type" validate:"omitempty,oneof=age test"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path" validate:"required_unless=Type test"`
	PrivateKeyPath string `toml:"private_key_path" validate:"required_unless=Type test"`
	Armor          bool   `toml:"armor"` // PEM-armor encrypted output
}

// VaultConfig represents configuration for the snapshot vault.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type  string `toml:"type" validate:"oneof=filesystem memory"`
	Label string `toml:"label" validate:"required,excludes=/"` // snapshot name prefix

	// FileSystem-specific fields (only used when Type == "filesystem")
	Root string `toml:"root,omitempty" validate:"required_if=Type filesystem"`
}

// DefaultChartURL is the chart service the generated URLs point at.
const DefaultChartURL = "http://chart.apis.google.com/chart?"

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(installID, baseDir string) *Config {
	return &Config{
		InstallID: installID,
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		Units:     Metric,
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Chart: ChartConfig{
			BaseURL: DefaultChartURL,
			Width:   600,
			Height:  300,
			Samples: 30,
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "health.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "health.key"),
		},
		Vault: VaultConfig{
			Type:  "filesystem",
			Label: "health",
			Root:  filepath.Join(baseDir, "vault"),
		},
	}
}

// Validate checks field constraints and reports the first violation.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("validating config: %w", err)
		}
		return fmt.Errorf("invalid config: %s failed on %q", errs[0].Namespace(), errs[0].Tag())
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from path, applies environment overrides and
// validates the result.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// EnvHelp describes the environment variables that override config fields.
func EnvHelp() (string, error) {
	header := "Environment overrides:"
	return cleanenv.GetDescription(&Config{}, &header)
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init validates cfg and writes it to a new config file at path.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
