// Package iocsv reads and writes species tables.
// This is an impure I/O package. It keeps every column of the input
// file intact and exposes the three logical columns the resolution
// works on, creating them when the input lacks them.
package iocsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gnames/gntaxid/pkg/record"
	"golang.org/x/text/encoding/charmap"
)

// Column headers recognized in the input file, compared after
// trimming surrounding whitespace.
const (
	CommonHeader = "Common Name"
	LatinHeader  = "Latin name"
	TaxIDHeader  = "Taxonomy ID"
)

// Table is a species table with its provenance data.
type Table struct {
	// Headers are the trimmed column names, including the bootstrapped
	// logical columns.
	Headers []string

	// Rows hold all cells of the input, padded to the header width.
	Rows [][]string

	// Lines are the file line numbers of the rows, for log messages.
	Lines []int

	// Indexes of the three logical columns.
	CommonCol, LatinCol, TaxIDCol int

	// Malformed counts rows the CSV parser rejected.
	Malformed int

	// Latin1 reports that the file was not valid UTF-8 and was
	// decoded as Latin-1.
	Latin1 bool
}

// Read loads a species table. Files that are not valid UTF-8 are
// decoded as Latin-1. Rows the CSV parser cannot handle are counted
// and skipped, they never abort the read.
func Read(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, OpenError(path, err)
	}

	res := &Table{}
	if !utf8.Valid(data) {
		slog.Warn("Input is not valid UTF-8, decoding as Latin-1",
			"file", path,
		)
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, DecodeError(path, err)
		}
		res.Latin1 = true
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	headers, err := r.Read()
	if err != nil {
		return nil, HeaderError(path, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	res.Headers = headers

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Malformed++
			slog.Warn("Skipping malformed row",
				"file", path,
				"error", err,
			)
			continue
		}
		line, _ := r.FieldPos(0)
		res.Rows = append(res.Rows, row)
		res.Lines = append(res.Lines, line)
	}

	res.CommonCol = res.ensureColumn(CommonHeader)
	res.LatinCol = res.ensureColumn(LatinHeader)
	res.TaxIDCol = res.ensureColumn(TaxIDHeader)
	res.padRows()

	return res, nil
}

// ensureColumn finds a header, appending it when the input does
// not have it.
func (t *Table) ensureColumn(header string) int {
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	slog.Warn("Column not found, creating it", "column", header)
	t.Headers = append(t.Headers, header)
	return len(t.Headers) - 1
}

// padRows grows short rows to the header width. Rows longer than
// the header keep their extra cells.
func (t *Table) padRows() {
	for i, row := range t.Rows {
		for len(row) < len(t.Headers) {
			row = append(row, "")
		}
		t.Rows[i] = row
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Record extracts the logical fields of row i.
func (t *Table) Record(i int) record.SpeciesRecord {
	row := t.Rows[i]
	return record.SpeciesRecord{
		Row:        t.Lines[i],
		CommonName: row[t.CommonCol],
		LatinName:  row[t.LatinCol],
		TaxonomyID: row[t.TaxIDCol],
	}
}

// SetRecord writes the logical fields back into row i, leaving all
// other columns alone.
func (t *Table) SetRecord(i int, rec record.SpeciesRecord) {
	row := t.Rows[i]
	row[t.CommonCol] = rec.CommonName
	row[t.LatinCol] = rec.LatinName
	row[t.TaxIDCol] = rec.TaxonomyID
}

// Write saves the table as UTF-8 CSV.
func Write(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return WriteError(path, err)
	}

	w := csv.NewWriter(f)
	if err = w.Write(t.Headers); err != nil {
		f.Close()
		return WriteError(path, err)
	}
	for _, row := range t.Rows {
		if err = w.Write(row); err != nil {
			f.Close()
			return WriteError(path, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		f.Close()
		return WriteError(path, err)
	}
	if err = f.Close(); err != nil {
		return WriteError(path, err)
	}
	return nil
}
