package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Field name constants, in roster file column order.
const (
	FieldRecordType      = "record_type"
	FieldFirstName       = "first_name"
	FieldCommonName      = "common_name"
	FieldLastName        = "last_name"
	FieldBirthDate       = "birth_date"
	FieldNationalityID   = "nationality_id"
	FieldFavouriteTeamID = "favourite_team_id"
	FieldEthnicity       = "ethnicity"
	FieldSkinTone        = "skin_tone"
	FieldHairColor       = "hair_color"
	FieldHeight          = "height"
	FieldWeight          = "weight"
	FieldPreferredFoot   = "preferred_foot"
	FieldPosition        = "position"
	FieldFavouriteNumber = "favourite_number"
	FieldBirthCity       = "birth_city"
	FieldCA              = "ca"
	FieldPA              = "pa"
	FieldClubID          = "club_id"
)

// Fields lists every field in file column order.
var Fields = []string{
	FieldRecordType, FieldFirstName, FieldCommonName, FieldLastName, FieldBirthDate,
	FieldNationalityID, FieldFavouriteTeamID, FieldEthnicity, FieldSkinTone, FieldHairColor,
	FieldHeight, FieldWeight, FieldPreferredFoot, FieldPosition, FieldFavouriteNumber,
	FieldBirthCity, FieldCA, FieldPA, FieldClubID,
}

// ErrUnknownField is returned when a field name is not one of Fields.
var ErrUnknownField = errors.New("unknown field")

// ErrUnstorableValue is returned for values the roster file format cannot
// hold: fields are double-quoted and one record is one line.
var ErrUnstorableValue = errors.New("value cannot contain a double quote or line break")

// FieldValue renders one field as text. Unset optional fields render as "".
func (p Player) FieldValue(name string) (string, error) {
	switch name {
	case FieldRecordType:
		return string(p.RecordType), nil
	case FieldFirstName:
		return p.FirstName, nil
	case FieldCommonName:
		return strOrEmpty(p.CommonName), nil
	case FieldLastName:
		return p.LastName, nil
	case FieldBirthDate:
		return p.BirthDate, nil
	case FieldNationalityID:
		return strconv.Itoa(p.NationalityID), nil
	case FieldFavouriteTeamID:
		return intOrEmpty(p.FavouriteTeamID), nil
	case FieldEthnicity:
		return strconv.Itoa(p.Ethnicity), nil
	case FieldSkinTone:
		return strconv.Itoa(p.SkinTone), nil
	case FieldHairColor:
		return strconv.Itoa(p.HairColor), nil
	case FieldHeight:
		return strconv.Itoa(p.Height), nil
	case FieldWeight:
		return strconv.Itoa(p.Weight), nil
	case FieldPreferredFoot:
		return intOrEmpty(p.PreferredFoot), nil
	case FieldPosition:
		return strOrEmpty(p.Position), nil
	case FieldFavouriteNumber:
		return intOrEmpty(p.FavouriteNumber), nil
	case FieldBirthCity:
		return strOrEmpty(p.BirthCity), nil
	case FieldCA:
		return intOrEmpty(p.CA), nil
	case FieldPA:
		return intOrEmpty(p.PA), nil
	case FieldClubID:
		return intOrEmpty(p.ClubID), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
}

// SetField parses value and assigns it to the named field.
// An empty value clears an optional field.
func (p *Player) SetField(name, value string) error {
	if strings.ContainsAny(value, "\"\r\n") {
		return fmt.Errorf("%w: %s", ErrUnstorableValue, name)
	}
	var err error
	switch name {
	case FieldRecordType:
		rt, ok := ParseRecordType(value)
		if !ok {
			return fmt.Errorf("invalid record type %q", value)
		}
		p.RecordType = rt
	case FieldFirstName:
		p.FirstName = value
	case FieldCommonName:
		p.CommonName = optString(value)
	case FieldLastName:
		p.LastName = value
	case FieldBirthDate:
		p.BirthDate = value
	case FieldNationalityID:
		p.NationalityID, err = parseInt(name, value)
	case FieldFavouriteTeamID:
		p.FavouriteTeamID, err = parseOptInt(name, value)
	case FieldEthnicity:
		p.Ethnicity, err = parseInt(name, value)
	case FieldSkinTone:
		p.SkinTone, err = parseInt(name, value)
	case FieldHairColor:
		p.HairColor, err = parseInt(name, value)
	case FieldHeight:
		p.Height, err = parseInt(name, value)
	case FieldWeight:
		p.Weight, err = parseInt(name, value)
	case FieldPreferredFoot:
		p.PreferredFoot, err = parseOptInt(name, value)
	case FieldPosition:
		p.Position = optString(value)
	case FieldFavouriteNumber:
		p.FavouriteNumber, err = parseOptInt(name, value)
	case FieldBirthCity:
		p.BirthCity = optString(value)
	case FieldCA:
		p.CA, err = parseOptInt(name, value)
	case FieldPA:
		p.PA, err = parseOptInt(name, value)
	case FieldClubID:
		p.ClubID, err = parseOptInt(name, value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return err
}

func parseInt(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	return n, nil
}

func parseOptInt(name, value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	n, err := parseInt(name, value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrEmpty(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
