package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pedit/internal/config"
	"pedit/internal/model"
	"pedit/internal/testutil"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig(t.TempDir())
	cfg.Encryption.Type = "test"
	return cfg
}

func TestNewPEApp(t *testing.T) {
	t.Run("wires from defaults", func(t *testing.T) {
		cfg := newTestConfig(t)
		a, err := NewPEApp(cfg, "edit")
		if err != nil {
			t.Fatalf("NewPEApp() error = %v", err)
		}
		if err := a.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}

		for _, p := range []string{
			filepath.Join(cfg.DataDir, "history.db"),
			filepath.Join(cfg.LogDir, LogFileName),
			cfg.Archive.Root,
		} {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("expected %s to exist: %v", p, err)
			}
		}
	})

	t.Run("rejects unknown archive type", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Archive.Type = "tape"
		if _, err := NewPEApp(cfg, "edit"); err == nil {
			t.Error("NewPEApp() expected error for unknown archive type")
		}
	})
}

func TestPEApp_SessionIDInLogAndHistory(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Database.Type = "memory"
	a, err := NewPEApp(cfg, "edit")
	if err != nil {
		t.Fatalf("NewPEApp() error = %v", err)
	}
	defer a.Close()

	path := testutil.WriteRosterFile(t, "players.txt", testutil.FixturePlayers())
	if _, err := a.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := a.Service().Edit(0, model.FieldCA, "130"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	op, err := a.Service().Save("")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	sessionID := a.Service().SessionID()
	if op.SessionID != sessionID {
		t.Errorf("save operation session = %q, want %q", op.SessionID, sessionID)
	}
	data, err := os.ReadFile(filepath.Join(cfg.LogDir, LogFileName))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "\t"+sessionID+"\troster saved") {
		t.Errorf("log file does not tag the save with session %s:\n%s", sessionID, data)
	}
}

func TestPEApp_SaveAndRestore(t *testing.T) {
	cfg := newTestConfig(t)
	a, err := NewPEApp(cfg, "edit")
	if err != nil {
		t.Fatalf("NewPEApp() error = %v", err)
	}
	defer a.Close()

	if err := a.SetupKeys("secret"); err != nil {
		t.Fatalf("SetupKeys() error = %v", err)
	}

	path := testutil.WriteRosterFile(t, "players.txt", testutil.FixturePlayers())
	original, _ := os.ReadFile(path)
	if n, err := a.Load(path); err != nil || n != 3 {
		t.Fatalf("Load() = %d, %v, want 3, nil", n, err)
	}

	svc := a.Service()
	if _, err := svc.Edit(0, model.FieldCA, "130"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	op, err := svc.Save("")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !op.Encrypted {
		t.Error("op.Encrypted = false, want true")
	}

	versions, err := a.ListBackups(path)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(versions) != 1 || versions[0] != op.ID {
		t.Errorf("ListBackups() = %v, want [%d]", versions, op.ID)
	}

	passphrase := func() (string, error) { return "secret", nil }

	var buf bytes.Buffer
	if _, err := a.RestoreBackup(op.ID, passphrase, "", &buf); err != nil {
		t.Fatalf("RestoreBackup() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), original) {
		t.Error("RestoreBackup() to writer did not return the original file")
	}

	out := filepath.Join(t.TempDir(), "restored.txt")
	if _, err := a.RestoreBackup(op.ID, passphrase, out, nil); err != nil {
		t.Fatalf("RestoreBackup() to file error = %v", err)
	}
	restored, _ := os.ReadFile(out)
	if !bytes.Equal(restored, original) {
		t.Error("restored file differs from the original")
	}

	if _, err := a.RestoreBackup(op.ID, passphrase, out, nil); err == nil || !strings.Contains(err.Error(), "output file") {
		t.Errorf("RestoreBackup() over an existing file error = %v, want output file error", err)
	}
}

func TestPEApp_KeysDisabled(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Encryption.Type = "none"
	a, err := NewPEApp(cfg, "keys init")
	if err != nil {
		t.Fatalf("NewPEApp() error = %v", err)
	}
	defer a.Close()

	if a.EncryptionEnabled() {
		t.Error("EncryptionEnabled() = true, want false")
	}
	if err := a.SetupKeys("secret"); err == nil {
		t.Error("SetupKeys() expected error when encryption is disabled")
	}
	if _, err := a.PublicKey(); err == nil {
		t.Error("PublicKey() expected error when encryption is disabled")
	}
}
