package archive

import (
	"context"
	"testing"

	"pedit/internal/config"
)

func TestNewArchiveFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		for _, typ := range []string{"", "none"} {
			got, err := NewArchiveFromConfig(ctx, config.ArchiveConfig{Type: typ})
			if err != nil {
				t.Fatalf("NewArchiveFromConfig(%q) error = %v", typ, err)
			}
			if got != nil {
				t.Errorf("NewArchiveFromConfig(%q) = %v, want nil", typ, got)
			}
		}
	})

	t.Run("memory", func(t *testing.T) {
		got, err := NewArchiveFromConfig(ctx, config.ArchiveConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewArchiveFromConfig() error = %v", err)
		}
		if _, ok := got.(*MemoryArchive); !ok {
			t.Errorf("NewArchiveFromConfig() = %T, want *MemoryArchive", got)
		}
	})

	t.Run("filesystem", func(t *testing.T) {
		got, err := NewArchiveFromConfig(ctx, config.ArchiveConfig{Type: "filesystem", Root: t.TempDir()})
		if err != nil {
			t.Fatalf("NewArchiveFromConfig() error = %v", err)
		}
		if _, ok := got.(*FileSystemArchive); !ok {
			t.Errorf("NewArchiveFromConfig() = %T, want *FileSystemArchive", got)
		}
	})

	t.Run("filesystem without root", func(t *testing.T) {
		got, err := NewArchiveFromConfig(ctx, config.ArchiveConfig{Type: "filesystem"})
		if err == nil {
			t.Error("NewArchiveFromConfig() expected error for missing root")
		}
		if got != nil {
			t.Error("NewArchiveFromConfig() should return nil on error")
		}
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		got, err := NewArchiveFromConfig(ctx, config.ArchiveConfig{Type: "s3"})
		if err == nil {
			t.Error("NewArchiveFromConfig() expected error for missing bucket")
		}
		if got != nil {
			t.Error("NewArchiveFromConfig() should return nil on error")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewArchiveFromConfig(ctx, config.ArchiveConfig{Type: "ftp"})
		if err == nil {
			t.Error("NewArchiveFromConfig() expected error for unknown type")
		}
	})
}
