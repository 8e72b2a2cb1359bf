// Package frame provides a small column-oriented container for tabular
// survey data, with loaders for CSV and XLSX exports and a CSV writer.
// Cells are stored as strings; the empty string denotes a missing value.
package frame

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Frame holds a header and row-major records. Column order is preserved
// across every transformation so output files are deterministic.
type Frame struct {
	cols []string
	idx  map[string]int
	rows [][]string
}

// New builds a frame from a header and rows. Short rows are padded with
// empty cells; long rows are truncated to the header width.
func New(cols []string, rows [][]string) *Frame {
	f := &Frame{cols: append([]string(nil), cols...)}
	f.rows = make([][]string, len(rows))
	for i, row := range rows {
		r := make([]string, len(cols))
		copy(r, row)
		f.rows[i] = r
	}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.idx = make(map[string]int, len(f.cols))
	for i, c := range f.cols {
		f.idx[c] = i
	}
}

// Load reads a raw export, dispatching on the file extension. ".xlsx"
// goes through the Excel reader; everything else is parsed as CSV.
func Load(path string) (*Frame, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path)
	}
	return ReadCSV(path)
}

// ReadCSV reads a delimited file into a frame. The header row is required.
func ReadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "frame: open %s", path)
	}
	defer file.Close()

	return readCSV(file)
}

// ReadCSVHead reads at most n data rows. Used for post-write probes.
func ReadCSVHead(path string, n int) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "frame: open %s", path)
	}
	defer file.Close()

	reader := newReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "frame: read header")
	}

	var rows [][]string
	for len(rows) < n {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "frame: read row")
		}
		rows = append(rows, record)
	}
	return New(header, rows), nil
}

func readCSV(r io.Reader) (*Frame, error) {
	reader := newReader(r)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "frame: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("frame: csv has no header row")
	}
	return New(records[0], records[1:]), nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

// ReadXLSX reads the first sheet of an Excel export into a frame.
func ReadXLSX(path string) (*Frame, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "frame: open xlsx %s", path)
	}
	if len(file.Sheets) == 0 {
		return nil, eris.Errorf("frame: xlsx %s has no sheets", path)
	}

	sheet := file.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("frame: xlsx %s first sheet is empty", path)
	}

	header := rowToStrings(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, rowToStrings(row))
	}
	return New(header, rows), nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}

// WriteCSV persists the frame, creating intermediate directories.
func (f *Frame) WriteCSV(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "frame: mkdir %s", dir)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "frame: create %s", path)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(f.cols); err != nil {
		return eris.Wrap(err, "frame: write header")
	}
	for _, row := range f.rows {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "frame: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "frame: flush")
	}
	return nil
}

// Columns returns a copy of the header.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

// NumRows reports the number of data rows.
func (f *Frame) NumRows() int { return len(f.rows) }

// NumCols reports the number of columns.
func (f *Frame) NumCols() int { return len(f.cols) }

// HasColumn reports whether a column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.idx[name]
	return ok
}

// Column returns a copy of one column's values. The second return is
// false when the column does not exist.
func (f *Frame) Column(name string) ([]string, bool) {
	i, ok := f.idx[name]
	if !ok {
		return nil, false
	}
	vals := make([]string, len(f.rows))
	for r, row := range f.rows {
		vals[r] = row[i]
	}
	return vals, true
}

// Value returns one cell. Missing columns read as empty.
func (f *Frame) Value(row int, col string) string {
	i, ok := f.idx[col]
	if !ok || row < 0 || row >= len(f.rows) {
		return ""
	}
	return f.rows[row][i]
}

// Set writes one cell. A missing column is a no-op.
func (f *Frame) Set(row int, col, value string) {
	i, ok := f.idx[col]
	if !ok || row < 0 || row >= len(f.rows) {
		return
	}
	f.rows[row][i] = value
}

// MapColumn applies fn to every cell of a column in place. Returns false
// when the column does not exist.
func (f *Frame) MapColumn(name string, fn func(string) string) bool {
	i, ok := f.idx[name]
	if !ok {
		return false
	}
	for _, row := range f.rows {
		row[i] = fn(row[i])
	}
	return true
}

// MapCells applies fn to every cell in the frame.
func (f *Frame) MapCells(fn func(string) string) {
	for _, row := range f.rows {
		for i, v := range row {
			row[i] = fn(v)
		}
	}
}

// SetColumns replaces the header. The new header must match the current
// column count.
func (f *Frame) SetColumns(cols []string) error {
	if len(cols) != len(f.cols) {
		return eris.Errorf("frame: header width mismatch (%d != %d)", len(cols), len(f.cols))
	}
	f.cols = append([]string(nil), cols...)
	f.reindex()
	return nil
}

// Rename applies a name mapping to the header; names absent from the
// mapping are untouched.
func (f *Frame) Rename(mapping map[string]string) {
	for i, c := range f.cols {
		if to, ok := mapping[c]; ok {
			f.cols[i] = to
		}
	}
	f.reindex()
}

// DropColumns removes the named columns, preserving the order of the rest.
func (f *Frame) DropColumns(names []string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	var keep []int
	var cols []string
	for i, c := range f.cols {
		if !drop[c] {
			keep = append(keep, i)
			cols = append(cols, c)
		}
	}

	for r, row := range f.rows {
		next := make([]string, len(keep))
		for j, i := range keep {
			next[j] = row[i]
		}
		f.rows[r] = next
	}
	f.cols = cols
	f.reindex()
}

// EmptyColumns lists columns whose every cell is empty.
func (f *Frame) EmptyColumns() []string {
	var empty []string
	for i, c := range f.cols {
		allEmpty := true
		for _, row := range f.rows {
			if row[i] != "" {
				allEmpty = false
				break
			}
		}
		if allEmpty {
			empty = append(empty, c)
		}
	}
	return empty
}
