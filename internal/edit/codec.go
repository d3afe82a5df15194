package edit

import (
	"io"

	"pedit/internal/model"
)

// DecodeResult is the outcome of reading a roster file.
type DecodeResult struct {
	Records []model.PlayerRecord
	// ProblematicRows lists 1-based line numbers that could not be parsed.
	ProblematicRows []int
}

// RecordCodec reads and writes the roster file format.
type RecordCodec interface {
	Decode(r io.Reader) (*DecodeResult, error)
	// Encode writes records in the order given.
	Encode(w io.Writer, records []model.PlayerRecord) error
}
