package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"pedit/internal/model"
	"pedit/internal/rosterfile"
)

// FixturePlayers returns three records with IDs 0, 1 and 2, as if loaded
// from a three-line roster file.
func FixturePlayers() []model.PlayerRecord {
	return []model.PlayerRecord{
		{ID: 0, Player: model.Player{
			RecordType:    model.DetailedFutureRegen,
			FirstName:     "Ana",
			LastName:      "Silva",
			BirthDate:     "10/03/1990",
			NationalityID: 1,
			Ethnicity:     1,
			SkinTone:      2,
			HairColor:     3,
			Height:        180,
			Weight:        75,
			PreferredFoot: model.Ptr(1),
			Position:      model.Ptr("DEFENDER_CENTRAL"),
			CA:            model.Ptr(120),
			PA:            model.Ptr(150),
			ClubID:        model.Ptr(7),
		}},
		{ID: 1, Player: model.Player{
			RecordType:    model.DetailedFutureRegen,
			FirstName:     "Bruno",
			CommonName:    model.Ptr("Bruninho"),
			LastName:      "Costa",
			BirthDate:     "01/01/1985",
			NationalityID: 2,
			Ethnicity:     2,
			SkinTone:      4,
			HairColor:     1,
			Height:        175,
			Weight:        70,
			PreferredFoot: model.Ptr(2),
			CA:            model.Ptr(90),
			PA:            model.Ptr(140),
		}},
		{ID: 2, Player: model.Player{
			RecordType:    model.SupportStaff,
			FirstName:     "Carla",
			LastName:      "Dias",
			BirthDate:     "15/07/2001",
			NationalityID: 1,
			Height:        168,
			Weight:        60,
			BirthCity:     model.Ptr("Porto"),
		}},
	}
}

// EncodeRoster renders records in the roster file format.
func EncodeRoster(t *testing.T, records []model.PlayerRecord) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := rosterfile.NewCodec().Encode(&buf, records); err != nil {
		t.Fatalf("failed to encode roster: %v", err)
	}
	return buf.Bytes()
}

// WriteRosterFile writes records to name inside a fresh temp directory and
// returns the file's path.
func WriteRosterFile(t *testing.T, name string, records []model.PlayerRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, EncodeRoster(t, records), 0o644); err != nil {
		t.Fatalf("failed to write roster file: %v", err)
	}
	return path
}
