package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testInstallID = "6f1c2a9e-3b47-4d8a-9e0f-2c5b7a1d4e63"

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		InstallID: testInstallID,
		BaseDir:   "/home/user/.local/share/health",
		LogDir:    "/home/user/.local/share/health/log",
		Units:     Imperial,
		Database:  DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/health/data"},
		Chart:     ChartConfig{BaseURL: DefaultChartURL, Width: 400, Height: 200, Samples: 14},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/health/keys/health.pub",
			PrivateKeyPath: "/home/user/.local/share/health/keys/health.key",
			Armor:          true,
		},
		Vault: VaultConfig{Type: "filesystem", Label: "phone", Root: "/backup/vault"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.InstallID != original.InstallID {
		t.Errorf("InstallID = %q, want %q", got.InstallID, original.InstallID)
	}
	if got.Units != Imperial {
		t.Errorf("Units = %q, want %q", got.Units, Imperial)
	}
	if got.Database != original.Database {
		t.Errorf("Database = %+v, want %+v", got.Database, original.Database)
	}
	if got.Chart != original.Chart {
		t.Errorf("Chart = %+v, want %+v", got.Chart, original.Chart)
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
	if got.Vault != original.Vault {
		t.Errorf("Vault = %+v, want %+v", got.Vault, original.Vault)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(testInstallID, "/data/health")

	if cfg.LogDir != "/data/health/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/health/log")
	}
	if cfg.Database.DataDir != "/data/health/data" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/health/data")
	}
	if cfg.Encryption.PublicKeyPath != "/data/health/keys/health.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Encryption.PublicKeyPath)
	}
	if cfg.Vault.Root != "/data/health/vault" {
		t.Errorf("Vault.Root = %q, want %q", cfg.Vault.Root, "/data/health/vault")
	}
	if !cfg.Units.IsMetric() {
		t.Error("default units should be metric")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "bad install id",
			modify:  func(c *Config) { c.InstallID = "host-1" },
			wantErr: "InstallID",
		},
		{
			name:    "unknown units",
			modify:  func(c *Config) { c.Units = "stone" },
			wantErr: "Units",
		},
		{
			name:    "sqlite without data dir",
			modify:  func(c *Config) { c.Database.DataDir = "" },
			wantErr: "DataDir",
		},
		{
			name:   "memory database needs no data dir",
			modify: func(c *Config) { c.Database = DatabaseConfig{Type: "memory"} },
		},
		{
			name:    "chart too wide",
			modify:  func(c *Config) { c.Chart.Width = 1001 },
			wantErr: "Width",
		},
		{
			name:    "filesystem vault without root",
			modify:  func(c *Config) { c.Vault.Root = "" },
			wantErr: "Root",
		},
		{
			name:    "label with a slash",
			modify:  func(c *Config) { c.Vault.Label = "a/b" },
			wantErr: "Label",
		},
		{
			name:   "test encryption needs no keys",
			modify: func(c *Config) { c.Encryption = EncryptionConfig{Type: "test"} },
		},
		{
			name:    "age encryption needs keys",
			modify:  func(c *Config) { c.Encryption.PrivateKeyPath = "" },
			wantErr: "PrivateKeyPath",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(testInstallID, "/data/health")
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestUnits_SetValue(t *testing.T) {
	var u Units
	if err := u.SetValue("imperial"); err != nil || u != Imperial {
		t.Errorf("SetValue(imperial) = %v, units %q", err, u)
	}
	if err := u.SetValue("furlongs"); err == nil {
		t.Error("SetValue(furlongs) expected error")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "health.toml")

		if err := Init(path, NewConfig(testInstallID, dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "health.toml")
		cfg := NewConfig(testInstallID, dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "health.toml")

		if err := Init(path, NewConfig("", dir)); err == nil {
			t.Fatal("Init() expected error for missing install id")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("config file should not exist, stat error = %v", err)
		}
	})
}

func TestReadFromFile(t *testing.T) {
	writeConfig := func(t *testing.T) string {
		t.Helper()
		dir := t.TempDir()
		path := filepath.Join(dir, "health.toml")
		cfg := NewConfig(testInstallID, dir)
		cfg.Database = DatabaseConfig{Type: "memory"}
		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		return path
	}

	t.Run("reads valid config", func(t *testing.T) {
		got, err := ReadFromFile(writeConfig(t))
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.InstallID != testInstallID {
			t.Errorf("InstallID = %q, want %q", got.InstallID, testInstallID)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want memory", got.Database.Type)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t)
		t.Setenv("HEALTH_UNITS", "imperial")
		t.Setenv("HEALTH_LOG_DIR", "/tmp/health-logs")

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Units != Imperial {
			t.Errorf("Units = %q, want imperial", got.Units)
		}
		if got.LogDir != "/tmp/health-logs" {
			t.Errorf("LogDir = %q, want /tmp/health-logs", got.LogDir)
		}
	})

	t.Run("rejects bad environment value", func(t *testing.T) {
		path := writeConfig(t)
		t.Setenv("HEALTH_UNITS", "stone")

		if _, err := ReadFromFile(path); err == nil {
			t.Fatal("ReadFromFile() expected error for bad HEALTH_UNITS")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/health.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}

func TestEnvHelp(t *testing.T) {
	help, err := EnvHelp()
	if err != nil {
		t.Fatalf("EnvHelp() error = %v", err)
	}
	for _, name := range []string{"HEALTH_UNITS", "HEALTH_DATA_DIR", "HEALTH_LOG_DIR"} {
		if !strings.Contains(help, name) {
			t.Errorf("EnvHelp() missing %s:\n%s", name, help)
		}
	}
}
