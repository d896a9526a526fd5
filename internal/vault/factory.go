package vault

import (
	"fmt"

	"health-go/internal/config"
	"health-go/internal/health"
)

// NewVaultFromConfig creates a Vault implementation based on the vault config type.
func NewVaultFromConfig(cfg config.VaultConfig) (health.Vault, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryVault(cfg.Label), nil
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem vault requires root to be set")
		}
		v, err := NewFileSystemVault(cfg.Label, cfg.Root)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown vault type: %s", cfg.Type)
	}
}
