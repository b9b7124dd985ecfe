// Package fetcher reads tabular input files (CSV, XLSX) and unpacks ZIP archives.
package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// utf8BOM is stripped from the first header cell; spreadsheet exports add it.
const utf8BOM = "\ufeff"

// Sheet is a header row plus the data rows that follow it.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the named header column, or -1.
// Matching ignores case and surrounding whitespace.
func (s *Sheet) Column(name string) int {
	want := strings.TrimSpace(name)
	for i, h := range s.Header {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return i
		}
	}
	return -1
}

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string, opts CSVOptions) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return ReadCSV(f, opts)
}

// ReadCSV parses a CSV document whose first record is the header.
// An empty document yields an empty Sheet, not an error.
func ReadCSV(r io.Reader, opts CSVOptions) (*Sheet, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	sheet := &Sheet{}
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		if opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}

		if first {
			first = false
			if len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], utf8BOM)
			}
			sheet.Header = record
			continue
		}
		sheet.Rows = append(sheet.Rows, record)
	}

	return sheet, nil
}
