package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		DataDir:  "/home/user/.local/share/pedit",
		LogDir:   "/home/user/.local/share/pedit/log",
		LogLevel: "debug",
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/pedit"},
		Archive: ArchiveConfig{
			Type:        "s3",
			S3Bucket:    "rosters",
			S3Prefix:    "backups/",
			S3Region:    "eu-west-1",
			S3Endpoint:  "http://localhost:9000",
			S3PathStyle: true,
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/pedit/keys/pedit.pub",
			PrivateKeyPath: "/home/user/.local/share/pedit/keys/pedit.key",
		},
		Editor: EditorConfig{PageSize: 50, DefaultSort: []string{"ca_desc", "name_asc"}},
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

	if got.DataDir != original.DataDir {
		t.Errorf("DataDir = %q, want %q", got.DataDir, original.DataDir)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, "debug")
	}
	if got.Archive != original.Archive {
		t.Errorf("Archive = %+v, want %+v", got.Archive, original.Archive)
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
	if got.Editor.PageSize != 50 {
		t.Errorf("Editor.PageSize = %d, want 50", got.Editor.PageSize)
	}
	if len(got.Editor.DefaultSort) != 2 || got.Editor.DefaultSort[1] != "name_asc" {
		t.Errorf("Editor.DefaultSort = %v, want [ca_desc name_asc]", got.Editor.DefaultSort)
	}
}

func TestManager_Read_DefaultPageSize(t *testing.T) {
	m := &Manager{}
	got, err := m.Read(strings.NewReader("[database]\ntype = \"memory\"\n"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Editor.PageSize != DefaultPageSize {
		t.Errorf("Editor.PageSize = %d, want %d", got.Editor.PageSize, DefaultPageSize)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/pedit")

	if cfg.LogDir != "/data/pedit/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/pedit/log")
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != "/data/pedit" {
		t.Errorf("Database = %+v, want sqlite in /data/pedit", cfg.Database)
	}
	if cfg.Archive.Root != "/data/pedit/archive" {
		t.Errorf("Archive.Root = %q, want %q", cfg.Archive.Root, "/data/pedit/archive")
	}
	if cfg.Encryption.PublicKeyPath != "/data/pedit/keys/pedit.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/pedit/keys/pedit.pub")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/pedit/keys/pedit.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/pedit/keys/pedit.key")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on default config: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "memory database", mutate: func(c *Config) { c.Database.Type = "memory" }},
		{name: "empty archive type", mutate: func(c *Config) { c.Archive.Type = "" }},
		{name: "unknown database", mutate: func(c *Config) { c.Database.Type = "postgres" }, wantErr: true},
		{name: "unknown archive", mutate: func(c *Config) { c.Archive.Type = "ftp" }, wantErr: true},
		{name: "unknown encryption", mutate: func(c *Config) { c.Encryption.Type = "rot13" }, wantErr: true},
		{name: "negative page size", mutate: func(c *Config) { c.Editor.PageSize = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/data/pedit")
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "pedit.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "pedit.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "pedit.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
		if got.DataDir != dir {
			t.Errorf("DataDir = %q, want %q", got.DataDir, dir)
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pedit.toml")
		if err := os.WriteFile(path, []byte("[database]\ntype = \"oracle\"\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := ReadFromFile(path); err == nil {
			t.Fatal("ReadFromFile() expected error for unknown database type")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/pedit.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
