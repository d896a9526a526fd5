package encryption

import (
	"fmt"

	"health-go/internal/config"
	"health-go/internal/health"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// An empty type means age. The armor setting only applies to age.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (health.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("age encryption requires public_key_path and private_key_path")
		}
		if cfg.PublicKeyPath == cfg.PrivateKeyPath {
			return nil, fmt.Errorf("public and private key paths must differ: %s", cfg.PublicKeyPath)
		}
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
