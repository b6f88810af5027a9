package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"h1b-statistics/internal/model"
	"h1b-statistics/pkg/utils"
)

// Delimiter separates fields in both input and output tables.
const Delimiter = ';'

// RecordSource yields records one at a time and returns io.EOF when exhausted.
type RecordSource interface {
	Next() (model.Record, error)
}

// headerSource is implemented by sources that know their columns up front.
type headerSource interface {
	Header() []string
}

// CSVReader reads `;` delimited, `"` quoted rows keyed by the header row.
type CSVReader struct {
	r      *csv.Reader
	header []string
}

// NewCSVReader reads the header row from r. Alternate header names listed in
// aliases are renamed to their canonical field unless the canonical name is
// already present.
func NewCSVReader(r io.Reader, aliases map[string][]string) (*CSVReader, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1 // short rows are reported as missing fields by the tally
	cr.ReuseRecord = true

	raw, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	header := make([]string, len(raw))
	present := make(map[string]bool, len(raw))
	for i, h := range raw {
		header[i] = utils.CleanHeader(h)
		present[header[i]] = true
	}
	resolveAliases(header, present, aliases)

	return &CSVReader{r: cr, header: header}, nil
}

func resolveAliases(header []string, present map[string]bool, aliases map[string][]string) {
	for canonical, alts := range aliases {
		if present[canonical] {
			continue
		}
		for _, alt := range alts {
			idx := indexOf(header, alt)
			if idx < 0 {
				continue
			}
			header[idx] = canonical
			present[canonical] = true
			break
		}
	}
}

func indexOf(items []string, s string) int {
	for i, item := range items {
		if item == s {
			return i
		}
	}
	return -1
}

// Header returns the cleaned column names.
func (c *CSVReader) Header() []string {
	return c.header
}

// Next returns the next row. Columns beyond the end of a short row are absent
// from the record; cells beyond the header are ignored.
func (c *CSVReader) Next() (model.Record, error) {
	row, err := c.r.Read()
	if err != nil {
		return nil, err
	}
	rec := make(model.Record, len(c.header))
	for i, h := range c.header {
		if i >= len(row) {
			break
		}
		rec[h] = row[i]
	}
	return rec, nil
}

// SliceSource serves records from memory, mostly for tests and callers that
// already hold parsed rows.
type SliceSource struct {
	records []model.Record
	pos     int
}

// NewSliceSource wraps records without copying them.
func NewSliceSource(records []model.Record) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next() (model.Record, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}
