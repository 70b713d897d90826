package artifact

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

func axis(row, col int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", fmt.Errorf("cell (%d,%d): %w", row, col, err)
	}
	return cell, nil
}

func cellValue(f *excelize.File, sheet string, row, col int) (string, error) {
	cell, err := axis(row, col)
	if err != nil {
		return "", err
	}
	v, err := f.GetCellValue(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("read %s!%s: %w", sheet, cell, err)
	}
	return strings.TrimSpace(v), nil
}

func setCell(f *excelize.File, sheet string, row, col int, value any) error {
	cell, err := axis(row, col)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// setDateCell writes a date value and forces the dd/mm/yyyy display format,
// so the cell survives a round trip through day-first parsing.
func setDateCell(f *excelize.File, sheet string, row, col int, d time.Time) error {
	cell, err := axis(row, col)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, d); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	numFmt := dateNumFmt
	styleID, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("date style: %w", err)
	}
	if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
		return fmt.Errorf("style %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// appendToCell appends text to whatever the cell already holds, separated by
// sep. Empty cells just receive the text.
func appendToCell(f *excelize.File, sheet string, row, col int, text, sep string) error {
	existing, err := cellValue(f, sheet, row, col)
	if err != nil {
		return err
	}
	if existing != "" {
		text = existing + sep + text
	}
	return setCell(f, sheet, row, col, text)
}

// nextFreeRow scans a column from the bottom of the sheet upwards until a
// non-empty cell is found and returns the row below it.
func nextFreeRow(rows [][]string, col int) int {
	for r := len(rows); r >= 1; r-- {
		row := rows[r-1]
		if len(row) >= col && strings.TrimSpace(row[col-1]) != "" {
			return r + 1
		}
	}
	return 1
}

// intOrZero reads a cell as an integer, treating empty or non-numeric content
// as zero. Running totals start from sheets whose prior rows may hold labels
// or nothing at all.
func intOrZero(f *excelize.File, sheet string, row, col int) (int, error) {
	raw, err := cellValue(f, sheet, row, col)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(v), nil
	}
	// Stock cells carry a suffix like "12 (80 %, 90 %)"; the leading
	// number is the value.
	if first, _, found := strings.Cut(raw, " "); found {
		if n, err := strconv.Atoi(first); err == nil {
			return n, nil
		}
	}
	return 0, nil
}
