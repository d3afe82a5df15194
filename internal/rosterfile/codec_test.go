package rosterfile

import (
	"bytes"
	"strings"
	"testing"

	"pedit/internal/model"
)

const sampleLine = `"DETAILED_FUTURE_REGEN" "Lionel" "" "Andres" "24/06/1987" "3" "" "1" "2" "4" "170" "72" "1" "ATTACKER_CENTRAL" "10" "Rosario" "75" "190" "12"`

func TestCodec_Decode(t *testing.T) {
	input := strings.Join([]string{
		sampleLine,
		`"SUPPORT STAFF" "Ana" "Ani" "Lopez" "01/02/2003" "44" "7" "2" "5" "3" "181" "79" "" "" "" "" "" "" ""`,
		`"DETAILED_FUTURE_REGEN" "Short" "line"`,
		`"COACH" "Not" "" "Loaded" "01/01/1970" "1" "" "1" "1" "1" "180" "80" "" "" "" "" "" "" ""`,
		`"DETAILED_FUTURE_REGEN" "Bad" "" "Numbers" "01/01/2000" "x" "" "1" "1" "1" "tall" "80" "left" "" "" "" "" "" ""`,
		"",
		sampleLine,
	}, "\n")

	result, err := NewCodec().Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if len(result.Records) != 4 {
		t.Fatalf("Decode() records = %d, want 4", len(result.Records))
	}
	if got := result.ProblematicRows; len(got) != 2 || got[0] != 3 || got[1] != 6 {
		t.Errorf("ProblematicRows = %v, want [3 6]", got)
	}

	t.Run("ids are line indexes", func(t *testing.T) {
		want := []model.ID{0, 1, 4, 6}
		for i, rec := range result.Records {
			if rec.ID != want[i] {
				t.Errorf("record %d ID = %d, want %d", i, rec.ID, want[i])
			}
		}
	})

	t.Run("fields", func(t *testing.T) {
		p := result.Records[0].Player
		if p.FirstName != "Lionel" || p.LastName != "Andres" || p.CommonName != nil {
			t.Errorf("names = %q %v %q", p.FirstName, p.CommonName, p.LastName)
		}
		if p.CA == nil || *p.CA != 75 || p.PA == nil || *p.PA != 190 {
			t.Errorf("CA/PA = %v/%v, want 75/190", p.CA, p.PA)
		}
		if p.FavouriteTeamID != nil {
			t.Errorf("FavouriteTeamID = %d, want unset", *p.FavouriteTeamID)
		}
		if p.Position == nil || *p.Position != "ATTACKER_CENTRAL" {
			t.Errorf("Position = %v, want ATTACKER_CENTRAL", p.Position)
		}
		staff := result.Records[1].Player
		if staff.RecordType != model.SupportStaff {
			t.Errorf("RecordType = %q, want %q", staff.RecordType, model.SupportStaff)
		}
	})

	t.Run("lenient numbers", func(t *testing.T) {
		p := result.Records[2].Player
		if p.NationalityID != -1 {
			t.Errorf("NationalityID = %d, want -1", p.NationalityID)
		}
		if p.Height != 0 {
			t.Errorf("Height = %d, want 0", p.Height)
		}
		if p.PreferredFoot != nil {
			t.Errorf("PreferredFoot = %d, want unset", *p.PreferredFoot)
		}
	})
}

func TestCodec_DecodeLongLine(t *testing.T) {
	long := strings.Repeat("x", 2<<20)
	input := strings.Replace(sampleLine, `"Rosario"`, `"`+long+`"`, 1) + "\n" + sampleLine + "\n"

	result, err := NewCodec().Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(result.Records) != 2 || len(result.ProblematicRows) != 0 {
		t.Fatalf("Decode() = %d records, problematic %v, want 2 records", len(result.Records), result.ProblematicRows)
	}
	if city := result.Records[0].Player.BirthCity; city == nil || len(*city) != len(long) {
		t.Error("long birth city was truncated")
	}
	if result.Records[1].ID != 1 {
		t.Errorf("second record ID = %d, want 1", result.Records[1].ID)
	}
}

func TestCodec_EncodeRoundTrip(t *testing.T) {
	codec := NewCodec()
	result, err := codec.Decode(strings.NewReader(sampleLine + "\n"))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, result.Records); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if got := buf.String(); got != sampleLine+"\n" {
		t.Errorf("Encode() =\n%s\nwant\n%s", got, sampleLine)
	}
}

func TestCodec_EncodeOrder(t *testing.T) {
	records := []model.PlayerRecord{
		{ID: 9, Player: model.Player{RecordType: model.SupportStaff, FirstName: "Second"}},
		{ID: 2, Player: model.Player{RecordType: model.SupportStaff, FirstName: "First"}},
	}

	var buf bytes.Buffer
	if err := NewCodec().Encode(&buf, records); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Encode() lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"Second"`) || !strings.Contains(lines[1], `"First"`) {
		t.Errorf("Encode() did not keep the given order:\n%s", buf.String())
	}
}

func TestCodec_EncodeRejectsQuotes(t *testing.T) {
	records := []model.PlayerRecord{
		{ID: 0, Player: model.Player{RecordType: model.SupportStaff, FirstName: `Jo"hn`}},
	}
	var buf bytes.Buffer
	if err := NewCodec().Encode(&buf, records); err == nil {
		t.Error("Encode() expected error for a quote inside a field")
	}
}
