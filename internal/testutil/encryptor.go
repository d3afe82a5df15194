package testutil

import (
	"pedit/internal/archive"
	"pedit/internal/encryption"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() *encryption.TestEncryptor {
	return encryption.NewTestEncryptor()
}

// NewTestArchive creates an empty in-memory archive.
func NewTestArchive() *archive.MemoryArchive {
	return archive.NewMemoryArchive("test")
}
