package testutil

import (
	"testing"

	"pedit/internal/database"
	"pedit/internal/edit"
	"pedit/internal/encryption"
	"pedit/internal/roster"
	"pedit/internal/rosterfile"
)

// ServiceEnv bundles an edit.Service with the test doubles behind it.
type ServiceEnv struct {
	Service   *edit.Service
	Roster    *roster.MemoryRoster
	History   *database.SQLiteHistory
	Clock     *StubClock
	IDGen     *StubIDGenerator
	Archive   edit.Archive
	Encryptor *encryption.TestEncryptor
}

// ServiceOption customises NewTestService.
type ServiceOption func(*ServiceEnv)

// WithArchive enables pre-save backups into a memory archive.
func WithArchive() ServiceOption {
	return func(env *ServiceEnv) { env.Archive = NewTestArchive() }
}

// WithEncryption encrypts backups with the test encryptor.
func WithEncryption() ServiceOption {
	return func(env *ServiceEnv) { env.Encryptor = NewTestEncryptor() }
}

// NewTestService builds a Service over an in-memory roster, the roster file
// codec and an in-memory history database. Archive and encryption are off
// unless enabled by opts.
func NewTestService(t *testing.T, opts ...ServiceOption) *ServiceEnv {
	t.Helper()

	env := &ServiceEnv{
		Roster:  roster.NewMemoryRoster(edit.NewNopLogger()),
		History: NewTestHistory(t),
		Clock:   FixedClock(),
		IDGen:   NewStubIDGenerator(),
	}
	for _, opt := range opts {
		opt(env)
	}

	var enc edit.Encryptor
	if env.Encryptor != nil {
		enc = env.Encryptor
	}
	env.Service = edit.NewService(edit.NewSessionID(), env.Roster, rosterfile.NewCodec(), env.History, env.Archive, enc, edit.NewNopLogger(), env.Clock, env.IDGen)
	return env
}

// LoadFixture writes FixturePlayers to a roster file, loads it into the
// service and returns the file's path.
func (env *ServiceEnv) LoadFixture(t *testing.T) string {
	t.Helper()
	path := WriteRosterFile(t, "players.txt", FixturePlayers())
	if _, err := env.Service.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return path
}
