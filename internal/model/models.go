package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies one player record across its lifecycle.
// For records loaded from a file it is the 0-based line index.
type ID int64

// RecordType is the kind of record stored on a line of a roster file.
type RecordType string

const (
	DetailedFutureRegen RecordType = "DETAILED_FUTURE_REGEN"
	SupportStaff        RecordType = "SUPPORT STAFF"
)

// ParseRecordType returns the RecordType for a raw file value.
func ParseRecordType(s string) (RecordType, bool) {
	switch RecordType(s) {
	case DetailedFutureRegen, SupportStaff:
		return RecordType(s), true
	default:
		return "", false
	}
}

// Player is one editable record.
// Optional attributes are pointers; nil means the value is unset in the file.
type Player struct {
	RecordType      RecordType
	FirstName       string
	CommonName      *string
	LastName        string
	BirthDate       string // DD/MM/YYYY
	NationalityID   int
	FavouriteTeamID *int
	Ethnicity       int
	SkinTone        int
	HairColor       int
	Height          int
	Weight          int
	PreferredFoot   *int
	Position        *string
	FavouriteNumber *int
	BirthCity       *string
	CA              *int
	PA              *int
	ClubID          *int
}

// PlayerRecord pairs a player with its identifier.
type PlayerRecord struct {
	ID     ID
	Player Player
}

// Clone returns a deep copy of p, so later edits to either side never alias.
func (p Player) Clone() Player {
	c := p
	c.CommonName = clonePtr(p.CommonName)
	c.FavouriteTeamID = clonePtr(p.FavouriteTeamID)
	c.PreferredFoot = clonePtr(p.PreferredFoot)
	c.Position = clonePtr(p.Position)
	c.FavouriteNumber = clonePtr(p.FavouriteNumber)
	c.BirthCity = clonePtr(p.BirthCity)
	c.CA = clonePtr(p.CA)
	c.PA = clonePtr(p.PA)
	c.ClubID = clonePtr(p.ClubID)
	return c
}

// DisplayName returns the common name when set, otherwise "first last".
func (p Player) DisplayName() string {
	if p.CommonName != nil && *p.CommonName != "" {
		return *p.CommonName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// BirthYear parses the year out of a DD/MM/YYYY birth date.
func (p Player) BirthYear() (int, bool) {
	parts := strings.Split(p.BirthDate, "/")
	if len(parts) != 3 {
		return 0, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, false
	}
	return year, true
}

// BirthDateKey returns the birth date as YYYYMMDD so that dates order
// chronologically. Unparseable dates report false.
func (p Player) BirthDateKey() (int, bool) {
	parts := strings.Split(p.BirthDate, "/")
	if len(parts) != 3 {
		return 0, false
	}
	var n [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return 0, false
		}
		n[i] = v
	}
	day, month, year := n[0], n[1], n[2]
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return 0, false
	}
	return year*10000 + month*100 + day, true
}

// Equal reports whether two snapshots hold the same value for every tracked field.
// A nil snapshot stands for the absent/deleted sentinels and is never equal to anything.
func Equal(a, b *Player) bool {
	if a == nil || b == nil {
		return false
	}
	return a.RecordType == b.RecordType &&
		a.FirstName == b.FirstName &&
		eqPtr(a.CommonName, b.CommonName) &&
		a.LastName == b.LastName &&
		a.BirthDate == b.BirthDate &&
		a.NationalityID == b.NationalityID &&
		eqPtr(a.FavouriteTeamID, b.FavouriteTeamID) &&
		a.Ethnicity == b.Ethnicity &&
		a.SkinTone == b.SkinTone &&
		a.HairColor == b.HairColor &&
		a.Height == b.Height &&
		a.Weight == b.Weight &&
		eqPtr(a.PreferredFoot, b.PreferredFoot) &&
		eqPtr(a.Position, b.Position) &&
		eqPtr(a.FavouriteNumber, b.FavouriteNumber) &&
		eqPtr(a.BirthCity, b.BirthCity) &&
		eqPtr(a.CA, b.CA) &&
		eqPtr(a.PA, b.PA) &&
		eqPtr(a.ClubID, b.ClubID)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v. Handy for building optional fields.
func Ptr[T any](v T) *T {
	return &v
}

func (id ID) String() string {
	return fmt.Sprintf("%d", int64(id))
}
