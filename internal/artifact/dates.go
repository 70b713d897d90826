package artifact

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Accepted textual date layouts, day-first throughout. The report sheets are
// filled in by hand, so several separators and short years show up.
var dateLayouts = []string{
	"02/01/2006 15:04",
	"02/01/06 15:04",
	"02-01-06 15:04",
	"02-01-2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02/01/06",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseCellDateTime normalizes a cell value to a timestamp. Native date cells
// come back from excelize as serial numbers and pass through exactly; string
// values are parsed day-first.
func ParseCellDateTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date cell")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	// An unformatted native date arrives as an Excel serial number.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("excel serial %q: %w", s, err)
		}
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseCellDate is ParseCellDateTime truncated to the calendar date (UTC).
func ParseCellDate(raw string) (time.Time, error) {
	t, err := ParseCellDateTime(raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
