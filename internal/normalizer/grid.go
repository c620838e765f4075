package normalizer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrParse is matched by every error produced while reading or normalizing a spreadsheet.
var ErrParse = errors.New("invalid spreadsheet")

// ParseError is a spreadsheet that could not be turned into records.
type ParseError struct {
	// Stage is one of "open", "sheet", "rows" or "columns".
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse spreadsheet (%s): %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// Grid is a rectangular table of cell values, empty cells are "".
type Grid [][]string

// NewGrid pads `rows` so that every row is as wide as the widest one.
func NewGrid(rows [][]string) Grid {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	grid := make(Grid, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		grid[i] = padded
	}
	return grid
}

// Width is the number of columns of the widest row.
func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		width = max(width, len(row))
	}
	return width
}

// Cell returns the value at (row, col) or "" when it is outside of the grid.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	if col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// ReadGrid reads the first sheet of an xlsx workbook. Merged cells only keep
// their value in the top-left cell, the rest of the merged area reads as "".
func ReadGrid(data []byte) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Stage: "open", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Stage: "sheet", Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Stage: "rows", Err: fmt.Errorf("sheet %q: %w", sheets[0], err)}
	}
	return NewGrid(rows), nil
}
