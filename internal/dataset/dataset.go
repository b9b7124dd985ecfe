// Package dataset loads the per-country value table that drives a choropleth.
package dataset

import (
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/choropleth-cli/internal/fetcher"
)

// Sentinel errors. Match with eris.Is.
var (
	ErrInputFile = eris.New("input file missing or unreadable")
	ErrSchema    = eris.New("required column missing")
)

// Row is one country's entry in the input table.
type Row struct {
	Code    string
	Value   float64
	Present bool // false when the value cell was empty or not numeric
	Label   string
	Line    int // 1-based line of the source file (header is line 1)
}

// Table holds rows unique by code, in order of first appearance.
type Table struct {
	Rows       []Row
	Duplicates []string // codes seen more than once; the last occurrence won

	index map[string]int
}

// Lookup returns the row for an ISO-3 code.
func (t *Table) Lookup(code string) (Row, bool) {
	i, ok := t.index[code]
	if !ok {
		return Row{}, false
	}
	return t.Rows[i], true
}

// Len returns the number of distinct codes.
func (t *Table) Len() int { return len(t.Rows) }

// PresentCount returns how many rows carry a usable value.
func (t *Table) PresentCount() int {
	n := 0
	for _, r := range t.Rows {
		if r.Present {
			n++
		}
	}
	return n
}

// Options names the input file and its columns.
type Options struct {
	Path     string
	CodeCol  string
	ValueCol string
	LabelCol string
	// LabelRequired makes a missing LabelCol a schema error instead of
	// silently dropping labels.
	LabelRequired bool
	// Sheet selects an XLSX worksheet by name; empty means the first one.
	Sheet string
}

// Load reads a CSV or XLSX file into a Table.
func Load(opts Options) (*Table, error) {
	log := zap.L().With(zap.String("component", "dataset"), zap.String("path", opts.Path))

	if _, err := os.Stat(opts.Path); err != nil {
		return nil, eris.Wrapf(ErrInputFile, "dataset: stat %s: %v", opts.Path, err)
	}

	var (
		sheet *fetcher.Sheet
		err   error
	)
	switch strings.ToLower(filepath.Ext(opts.Path)) {
	case ".xlsx":
		sheet, err = fetcher.ReadXLSX(opts.Path, fetcher.XLSXOptions{SheetName: opts.Sheet})
	default:
		sheet, err = fetcher.ReadCSVFile(opts.Path, fetcher.CSVOptions{LazyQuotes: true})
	}
	if err != nil {
		return nil, eris.Wrapf(ErrInputFile, "dataset: read %s: %v", opts.Path, err)
	}

	table, err := FromSheet(sheet, opts)
	if err != nil {
		return nil, err
	}

	log.Debug("loaded data table",
		zap.Int("rows", table.Len()),
		zap.Int("present", table.PresentCount()),
		zap.Int("duplicates", len(table.Duplicates)),
	)
	return table, nil
}

// FromSheet converts parsed rows into a Table. Duplicate codes keep the
// position of their first appearance and the values of their last.
func FromSheet(sheet *fetcher.Sheet, opts Options) (*Table, error) {
	codeIdx := sheet.Column(opts.CodeCol)
	valueIdx := sheet.Column(opts.ValueCol)
	if codeIdx < 0 || valueIdx < 0 {
		return nil, eris.Wrapf(ErrSchema, "dataset: file must include columns %q and %q (header: %v)",
			opts.CodeCol, opts.ValueCol, sheet.Header)
	}

	labelIdx := -1
	if opts.LabelCol != "" {
		labelIdx = sheet.Column(opts.LabelCol)
		if labelIdx < 0 && opts.LabelRequired {
			return nil, eris.Wrapf(ErrSchema, "dataset: label column %q not found", opts.LabelCol)
		}
	}

	log := zap.L().With(zap.String("component", "dataset"))
	table := &Table{index: make(map[string]int, len(sheet.Rows))}

	for i, rec := range sheet.Rows {
		line := i + 2
		code := NormalizeCode(cell(rec, codeIdx))
		if code == "" {
			log.Warn("skipping row without country code", zap.Int("line", line))
			continue
		}

		value, ok := ParseValue(cell(rec, valueIdx))
		row := Row{
			Code:    code,
			Value:   value,
			Present: ok,
			Line:    line,
		}
		if labelIdx >= 0 {
			row.Label = strings.TrimSpace(cell(rec, labelIdx))
		}

		if prev, dup := table.index[code]; dup {
			log.Warn("duplicate country code, last row wins",
				zap.String("code", code),
				zap.Int("first_line", table.Rows[prev].Line),
				zap.Int("line", line),
			)
			table.Rows[prev] = row
			table.Duplicates = append(table.Duplicates, code)
			continue
		}
		table.index[code] = len(table.Rows)
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// NormalizeCode trims, folds compatibility forms (e.g. fullwidth letters)
// and upper-cases a country code.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFKC.String(s)))
}

// groupedNumber matches a number with comma thousands separators.
var groupedNumber = regexp.MustCompile(`^[-+]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseValue parses a numeric cell. Surrounding whitespace and comma
// thousands separators ("1,234.5") are tolerated; empty, non-numeric, NaN
// and infinite values report ok=false.
func ParseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if groupedNumber.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}
