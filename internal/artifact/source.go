package artifact

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Grid is the raw content of a report sheet: the header row plus every data
// row below it, as excelize returns them. All typed interpretation happens in
// the record reader; the grid only offers bounds-safe access.
type Grid struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the trimmed value at the given data-row/column (0-based).
// Out-of-range coordinates read as empty, matching how a sparse sheet looks.
func (g *Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g.Rows) {
		return ""
	}
	r := g.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// Column collects the non-empty cells of one column from fromRow downwards,
// skipping blanks. An empty result is a valid "nothing recorded" run.
func (g *Grid) Column(col, fromRow int) []string {
	var out []string
	for row := fromRow; row < len(g.Rows); row++ {
		if v := g.Cell(row, col); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Source reads the per-visit maintenance report workbook.
type Source struct {
	path  string
	sheet string
}

func NewSource(path, sheet string) *Source {
	return &Source{path: path, sheet: sheet}
}

// Path returns the report file location, used when attaching it to the
// notification mail.
func (s *Source) Path() string { return s.path }

// Load reads the report sheet into a Grid. The file is closed before Load
// returns; the report is never written to.
func (s *Source) Load() (*Grid, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", s.sheet, s.path, err)
	}
	if len(rows) == 0 {
		return &Grid{}, nil
	}
	return &Grid{Headers: rows[0], Rows: rows[1:]}, nil
}
