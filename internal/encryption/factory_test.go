package encryption

import (
	"testing"

	"pedit/internal/config"
)

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		for _, typ := range []string{"", "none"} {
			got, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: typ})
			if err != nil {
				t.Fatalf("NewEncryptorFromConfig(%q) error = %v", typ, err)
			}
			if got != nil {
				t.Errorf("NewEncryptorFromConfig(%q) = %T, want nil", typ, got)
			}
		}
	})

	t.Run("age", func(t *testing.T) {
		got, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "age"})
		if err != nil {
			t.Fatalf("NewEncryptorFromConfig() error = %v", err)
		}
		if _, ok := got.(*AgeEncryptor); !ok {
			t.Errorf("NewEncryptorFromConfig() = %T, want *AgeEncryptor", got)
		}
	})

	t.Run("test", func(t *testing.T) {
		got, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "test"})
		if err != nil {
			t.Fatalf("NewEncryptorFromConfig() error = %v", err)
		}
		if _, ok := got.(*TestEncryptor); !ok {
			t.Errorf("NewEncryptorFromConfig() = %T, want *TestEncryptor", got)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "rot13"}); err == nil {
			t.Error("NewEncryptorFromConfig() expected error for unknown type")
		}
	})
}
