package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"pedit/internal/edit"
)

// testHeader marks data "encrypted" by TestEncryptor.
var testHeader = []byte("PEDITENC")

// ErrWrongPassphrase is returned by TestEncryptor.Unlock when the passphrase
// differs from the one given to Setup.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// TestEncryptor is a deterministic encryptor for tests. Encrypt prepends a
// fixed header and Decrypt strips it, so archived output differs from the
// plaintext without any real cryptography. It counts as configured from the
// start; after Setup, Unlock only accepts the same passphrase.
type TestEncryptor struct {
	mu         sync.Mutex
	passphrase string
	setup      bool
	unlocks    int
}

var _ edit.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.passphrase = passphrase
	e.setup = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (edit.DecryptionContext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unlocks++
	if e.setup && passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// Unlocks returns how many times Unlock was called.
func (e *TestEncryptor) Unlocks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unlocks
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ edit.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
