package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Record is one teaching slot of one group.
type Record struct {
	Week    string `json:"week"`
	Day     string `json:"day"`
	Number  string `json:"number"`
	Subject string `json:"subject"`
	Group   string `json:"group"`
}

// GroupMode decides where the group of a subject cell comes from.
type GroupMode string

const (
	// GroupFromHeader takes the group from row 0 of the subject's column.
	GroupFromHeader GroupMode = "header"
	// GroupFromPattern extracts a group code from the subject text itself.
	GroupFromPattern GroupMode = "pattern"
)

const (
	colWeek = iota
	colDay
	colNumber
	firstSubjectCol
)

const (
	DefaultMissingMarker = "undefined"
	DefaultUnknownGroup  = "unknown"
)

// DefaultGroupPattern matches codes like "ИПБ-24" or "GR-101" standing on
// their own, so "ABCDE-12" and "GR-1234" are not codes. The code is the
// first capture group.
var DefaultGroupPattern = regexp.MustCompile(`(?:^|[^\p{L}\d])(\p{Lu}{2,4}-\d{2,3})(?:\D|$)`)

type Options struct {
	GroupMode GroupMode
	// MissingMarker is text left behind by broken exports, cells containing it are skipped.
	MissingMarker string
	UnknownGroup  string
	// GroupPattern yields its first capture group when it has one, the whole match otherwise.
	GroupPattern *regexp.Regexp
}

func (o Options) withDefaults() Options {
	if o.GroupMode == "" {
		o.GroupMode = GroupFromHeader
	}
	if o.MissingMarker == "" {
		o.MissingMarker = DefaultMissingMarker
	}
	if o.UnknownGroup == "" {
		o.UnknownGroup = DefaultUnknownGroup
	}
	if o.GroupPattern == nil {
		o.GroupPattern = DefaultGroupPattern
	}
	return o
}

// Validate rejects unknown group modes.
func (o Options) Validate() error {
	switch o.GroupMode {
	case "", GroupFromHeader, GroupFromPattern:
		return nil
	}
	return fmt.Errorf("unknown group mode %q", o.GroupMode)
}

func (o Options) isSubject(text string) bool {
	if utf8.RuneCountInString(text) <= 1 {
		return false
	}
	return !strings.Contains(text, o.MissingMarker)
}

func (o Options) group(header []string, col int, subject string) string {
	if o.GroupMode == GroupFromPattern {
		match := o.GroupPattern.FindStringSubmatch(subject)
		if match == nil {
			return o.UnknownGroup
		}
		group := match[0]
		if len(match) > 1 {
			group = match[1]
		}
		if group == "" {
			return o.UnknownGroup
		}
		return group
	}

	if col >= len(header) {
		return o.UnknownGroup
	}
	group := strings.TrimSpace(header[col])
	if group == "" {
		return o.UnknownGroup
	}
	return group
}

// Normalize flattens a schedule grid into records in row-major order.
//
// Columns 0-2 hold week, day and period number. An empty context cell takes
// the nearest non-empty value above it in the same column, which is how a
// vertically merged cell reads once it is flattened. A whitespace-only cell
// above counts as non-empty and resolves to "". Every column from 3 on holds
// subjects, row 0 is the header row.
func Normalize(grid Grid, opts Options) ([]Record, error) {
	err := opts.Validate()
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	if len(grid) < 2 {
		return []Record{}, nil
	}
	width := grid.Width()
	if width <= firstSubjectCol {
		return nil, &ParseError{
			Stage: "columns",
			Err:   errors.New("expected week, day, number and at least one group column"),
		}
	}

	header := grid[0]
	var lastSeen [firstSubjectCol]string
	for col := range lastSeen {
		lastSeen[col] = strings.TrimSpace(grid.Cell(0, col))
	}

	records := []Record{}
	for rowIdx := 1; rowIdx < len(grid); rowIdx++ {
		var resolved [firstSubjectCol]string
		for col := range lastSeen {
			raw := grid.Cell(rowIdx, col)
			value := strings.TrimSpace(raw)
			resolved[col] = value
			if value == "" {
				resolved[col] = lastSeen[col]
			}
			if raw != "" {
				lastSeen[col] = value
			}
		}

		for col := firstSubjectCol; col < width; col++ {
			subject := strings.TrimSpace(grid.Cell(rowIdx, col))
			if !opts.isSubject(subject) {
				continue
			}
			records = append(records, Record{
				Week:    resolved[colWeek],
				Day:     resolved[colDay],
				Number:  resolved[colNumber],
				Subject: subject,
				Group:   opts.group(header, col, subject),
			})
		}
	}

	return records, nil
}

// Parse reads the first sheet of `data` and normalizes it.
func Parse(data []byte, opts Options) ([]Record, error) {
	grid, err := ReadGrid(data)
	if err != nil {
		return nil, err
	}
	return Normalize(grid, opts)
}
