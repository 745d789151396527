package pdfinfo

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Counter reports the page count of an in-memory PDF. Parsing failures are
// returned as-is; malformed uploads surface as failed extraction runs rather
// than panics.
type Counter struct{}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Count(data []byte) (count int, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			count = 0
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	return reader.NumPage(), nil
}
