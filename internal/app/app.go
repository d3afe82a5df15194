package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pedit/internal/archive"
	"pedit/internal/config"
	"pedit/internal/database"
	"pedit/internal/edit"
	"pedit/internal/encryption"
	"pedit/internal/roster"
	"pedit/internal/rosterfile"
)

// PEApp is the application layer between the CLI and the edit Service.
// It constructs all dependencies from config and manages the history
// database and log file lifecycle on Close.
type PEApp struct {
	cfg       *config.Config
	history   edit.History
	archive   edit.Archive
	encryptor edit.Encryptor
	roster    *roster.MemoryRoster
	service   *edit.Service
	cmd       *Command
	logger    edit.Logger
	logFile   *os.File
}

// NewPEApp creates a fully wired PEApp from the given config.
// command identifies the CLI command being run (e.g. "edit", "history").
// The caller must call Close when done.
func NewPEApp(cfg *config.Config, command string, args ...string) (*PEApp, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	history, err := database.NewHistoryFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	arch, err := archive.NewArchiveFromConfig(context.Background(), cfg.Archive)
	if err != nil {
		history.Close()
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	if arch != nil {
		if err := arch.ValidateSetup(); err != nil {
			history.Close()
			return nil, fmt.Errorf("validating archive: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		history.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	sessionID := edit.NewSessionID()
	slogger, logFile, err := newLogger(cfg.LogDir, sessionID, parseLevel(cfg.LogLevel))
	if err != nil {
		history.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	clock := edit.RealClock{}
	r := roster.NewMemoryRoster(logger)
	svc := edit.NewService(sessionID, r, rosterfile.NewCodec(), history, arch, enc, logger, clock, edit.NewClockIDGenerator(clock))

	cmd := NewCommand(command, args...)
	logger.Debug("command started", "command", cmd.Name, "args", cmd.Args)

	return &PEApp{
		cfg:       cfg,
		history:   history,
		archive:   arch,
		encryptor: enc,
		roster:    r,
		service:   svc,
		cmd:       cmd,
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// Service returns the editing session's service.
func (a *PEApp) Service() *edit.Service { return a.service }

// Config returns the configuration the app was built from.
func (a *PEApp) Config() *config.Config { return a.cfg }

// Logger returns the app's structured logger.
func (a *PEApp) Logger() edit.Logger { return a.logger }

// Fail marks the command as failed so Close logs it as such.
func (a *PEApp) Fail(err error) {
	if err != nil {
		a.cmd.Status = StatusError
	}
}

// Load reads a roster file into the session.
func (a *PEApp) Load(rawPath string) (int, error) {
	path, err := filepath.Abs(rawPath)
	if err != nil {
		return 0, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.Load(path)
}

// EncryptionEnabled reports whether archived backups are encrypted.
func (a *PEApp) EncryptionEnabled() bool {
	return a.encryptor != nil
}

// SetupKeys generates the backup encryption key pair.
func (a *PEApp) SetupKeys(passphrase string) error {
	if a.encryptor == nil {
		return fmt.Errorf("encryption is disabled: set [encryption] type in the config")
	}
	return a.encryptor.Setup(passphrase)
}

// PublicKey returns the backup encryption public key.
func (a *PEApp) PublicKey() (string, error) {
	pk, ok := a.encryptor.(interface{ PublicKey() (string, error) })
	if !ok {
		return "", fmt.Errorf("encryptor does not expose a public key")
	}
	return pk.PublicKey()
}

// ListBackups returns the archived versions of the roster file at rawPath.
func (a *PEApp) ListBackups(rawPath string) ([]int64, error) {
	if a.archive == nil {
		return nil, fmt.Errorf("no archive configured")
	}
	return a.archive.ListBackups(filepath.Base(rawPath))
}

// RestoreBackup writes the backup taken by save operation id to outPath,
// or to w when outPath is empty. passphrase is called only for encrypted backups.
func (a *PEApp) RestoreBackup(id int64, passphrase func() (string, error), outPath string, w io.Writer) (*edit.SaveOperation, error) {
	if outPath == "" {
		return a.service.RestoreBackup(id, passphrase, w)
	}

	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	op, err := a.service.RestoreBackup(id, passphrase, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing output file: %w", closeErr)
	}
	if err != nil {
		os.Remove(outPath)
		return op, err
	}
	return op, nil
}

// Close logs the command result and closes the history database and log file.
func (a *PEApp) Close() error {
	var errs []error

	a.logger.Debug("command finished", "command", a.cmd.Name, "status", a.cmd.Status)
	if err := a.history.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing history database: %w", err))
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing log file: %w", err))
		}
	}
	return errors.Join(errs...)
}
