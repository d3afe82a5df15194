package encryption

import (
	"fmt"

	"pedit/internal/config"
	"pedit/internal/edit"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// It returns nil, nil when backups are stored unencrypted.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (edit.Encryptor, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
