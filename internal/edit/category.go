package edit

import (
	"errors"
	"fmt"
)

// Category classifies a tracked record by its (original, current) pair.
type Category string

const (
	// CategoryNone is the zero value; used for untracked records and for the
	// "all categories" view.
	CategoryNone     Category = ""
	CategoryModified Category = "modified"
	CategoryAdded    Category = "added"
	CategoryDeleted  Category = "deleted"
)

// Categories lists the three tracked categories.
var Categories = []Category{CategoryModified, CategoryAdded, CategoryDeleted}

// ErrUnknownCategory is returned by ParseCategory for anything other than
// modified, added or deleted.
var ErrUnknownCategory = errors.New("unknown category")

// ParseCategory parses one of "modified", "added" or "deleted".
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryModified, CategoryAdded, CategoryDeleted:
		return c, nil
	default:
		return CategoryNone, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

// ParseView parses a view name: "all" (or "") maps to CategoryNone.
func ParseView(s string) (Category, error) {
	if s == "" || s == "all" {
		return CategoryNone, nil
	}
	return ParseCategory(s)
}

func (c Category) String() string {
	if c == CategoryNone {
		return "all"
	}
	return string(c)
}
