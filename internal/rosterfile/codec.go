// Package rosterfile reads and writes roster files: one record per line,
// every field wrapped in double quotes and separated by a space.
package rosterfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pedit/internal/edit"
	"pedit/internal/model"
)

// FieldCount is the number of quoted fields on a record line.
const FieldCount = 19

// Codec implements edit.RecordCodec for the quoted-field line format.
type Codec struct{}

var _ edit.RecordCodec = Codec{}

func NewCodec() Codec { return Codec{} }

// Decode reads records from r. A record's ID is its 0-based line index.
// Lines with fewer than FieldCount fields are reported as problematic
// (1-based); lines with an unknown record type are skipped silently.
// Line length is not bounded.
func (Codec) Decode(r io.Reader) (*edit.DecodeResult, error) {
	result := &edit.DecodeResult{}

	br := bufio.NewReader(r)
	for idx := 0; ; idx++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading roster: %w", err)
		}
		if line == "" && err != nil {
			break
		}
		decodeLine(result, idx, strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"))
		if err != nil {
			break
		}
	}
	return result, nil
}

func decodeLine(result *edit.DecodeResult, idx int, line string) {
	fields := splitQuoted(line)
	if len(fields) < FieldCount {
		result.ProblematicRows = append(result.ProblematicRows, idx+1)
		return
	}
	rt, ok := model.ParseRecordType(fields[0])
	if !ok {
		return
	}
	result.Records = append(result.Records, model.PlayerRecord{
		ID:     model.ID(idx),
		Player: decodePlayer(rt, fields),
	})
}

// splitQuoted returns the text between each pair of double quotes.
// Text outside quotes is ignored.
func splitQuoted(line string) []string {
	parts := strings.Split(line, `"`)
	fields := make([]string, 0, len(parts)/2)
	for i := 1; i < len(parts); i += 2 {
		fields = append(fields, parts[i])
	}
	return fields
}

// decodePlayer is lenient: unparseable required ids become -1, unparseable
// height and weight become 0 and unparseable optional numbers are unset.
func decodePlayer(rt model.RecordType, f []string) model.Player {
	return model.Player{
		RecordType:      rt,
		FirstName:       f[1],
		CommonName:      optString(f[2]),
		LastName:        f[3],
		BirthDate:       f[4],
		NationalityID:   intOr(f[5], -1),
		FavouriteTeamID: optInt(f[6]),
		Ethnicity:       intOr(f[7], -1),
		SkinTone:        intOr(f[8], -1),
		HairColor:       intOr(f[9], -1),
		Height:          intOr(f[10], 0),
		Weight:          intOr(f[11], 0),
		PreferredFoot:   optInt(f[12]),
		Position:        optString(f[13]),
		FavouriteNumber: optInt(f[14]),
		BirthCity:       optString(f[15]),
		CA:              optInt(f[16]),
		PA:              optInt(f[17]),
		ClubID:          optInt(f[18]),
	}
}

// Encode writes one line per record in the order given.
func (Codec) Encode(w io.Writer, records []model.PlayerRecord) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if err := writeLine(bw, rec.Player); err != nil {
			return fmt.Errorf("encoding record %d: %w", rec.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing roster: %w", err)
	}
	return nil
}

func writeLine(w *bufio.Writer, p model.Player) error {
	for i, name := range model.Fields {
		v, err := p.FieldValue(name)
		if err != nil {
			return err
		}
		if strings.ContainsAny(v, "\"\n") {
			return fmt.Errorf("field %s contains a quote or newline", name)
		}
		if i > 0 {
			w.WriteByte(' ')
		}
		w.WriteByte('"')
		w.WriteString(v)
		w.WriteByte('"')
	}
	return w.WriteByte('\n')
}

func intOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func optInt(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
