package artifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"lidar_maintenance/internal/models"
)

// MasterStore is the master tracking sheet as the pipeline sees it.
type MasterStore interface {
	FindRow(deviceID string) (int, error)
	AppendDeviceRow(deviceID, location, country, client string) (int, error)
	PreviousVisitDate(row int) (time.Time, bool, error)
	SetVisitDate(row int, d time.Time) error
	SetComment(row int, text string) error
	AppendSecondaryComment(row int, text string) error
	StampUpdated(d time.Time) error
	CheckWritable() error
}

// Master accesses the single workbook summarizing every device.
type Master struct {
	path  string
	sheet string
}

var _ MasterStore = (*Master)(nil)

func NewMaster(path, sheet string) *Master {
	return &Master{path: path, sheet: sheet}
}

// CheckWritable runs the advisory open-for-write pre-check on the workbook.
func (m *Master) CheckWritable() error {
	return CheckWritable(m.path)
}

// FindRow scans the device id column from MasterFirstRow down. A device that
// is not registered is a format problem of the artifact, not a new device:
// registration only happens through the row locator.
func (m *Master) FindRow(deviceID string) (int, error) {
	f, err := excelize.OpenFile(m.path)
	if err != nil {
		return 0, fmt.Errorf("open master %s: %w", m.path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(m.sheet)
	if err != nil {
		return 0, fmt.Errorf("read master sheet %q: %w", m.sheet, err)
	}
	for i := MasterFirstRow; i <= len(rows); i++ {
		row := rows[i-1]
		if len(row) >= MasterColDeviceID && strings.TrimSpace(row[MasterColDeviceID-1]) == deviceID {
			return i, nil
		}
	}
	return 0, &models.FormatError{
		Field:  "master sheet",
		Value:  deviceID,
		Reason: "device not found",
	}
}

// AppendDeviceRow registers a new device: identity columns plus a placeholder
// previous-visit date, so the first real visit never looks like a duplicate.
func (m *Master) AppendDeviceRow(deviceID, location, country, client string) (int, error) {
	var row int
	err := m.update(func(f *excelize.File) error {
		rows, err := f.GetRows(m.sheet)
		if err != nil {
			return fmt.Errorf("read master sheet %q: %w", m.sheet, err)
		}
		row = nextFreeRow(rows, MasterColDeviceID)
		if row < MasterFirstRow {
			row = MasterFirstRow
		}
		for col, v := range map[int]string{
			MasterColDeviceID: deviceID,
			MasterColLocation: location,
			MasterColCountry:  country,
			MasterColClient:   client,
		} {
			if err := setCell(f, m.sheet, row, col, v); err != nil {
				return err
			}
		}
		placeholder := time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
		return setDateCell(f, m.sheet, row, MasterColVisitDate, placeholder)
	})
	return row, err
}

// PreviousVisitDate reads the stored visit date for a device row. The second
// return value is false when the cell is empty.
func (m *Master) PreviousVisitDate(row int) (time.Time, bool, error) {
	f, err := excelize.OpenFile(m.path)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("open master %s: %w", m.path, err)
	}
	defer func() { _ = f.Close() }()

	raw, err := cellValue(f, m.sheet, row, MasterColVisitDate)
	if err != nil {
		return time.Time{}, false, err
	}
	if raw == "" {
		return time.Time{}, false, nil
	}
	d, err := ParseCellDate(raw)
	if err != nil {
		return time.Time{}, false, &models.FormatError{
			Field:  fmt.Sprintf("master row %d visit date", row),
			Value:  raw,
			Reason: err.Error(),
		}
	}
	return d, true, nil
}

func (m *Master) SetVisitDate(row int, d time.Time) error {
	return m.update(func(f *excelize.File) error {
		return setDateCell(f, m.sheet, row, MasterColVisitDate, d)
	})
}

// SetComment overwrites the master comment; history keeps the old ones.
func (m *Master) SetComment(row int, text string) error {
	return m.update(func(f *excelize.File) error {
		return setCell(f, m.sheet, row, MasterColComment, text)
	})
}

// AppendSecondaryComment appends to the secondary comment column with the
// " | " convention; prior content is never overwritten.
func (m *Master) AppendSecondaryComment(row int, text string) error {
	return m.update(func(f *excelize.File) error {
		return appendToCell(f, m.sheet, row, MasterColSecondary, text, " | ")
	})
}

// StampUpdated records when the master was last touched by a run. The stamp
// lives in the header area, above the first device row.
func (m *Master) StampUpdated(d time.Time) error {
	return m.update(func(f *excelize.File) error {
		return setDateCell(f, m.sheet, 1, 2, d)
	})
}

// update opens the workbook, applies fn and saves.
func (m *Master) update(fn func(f *excelize.File) error) error {
	f, err := excelize.OpenFile(m.path)
	if err != nil {
		return fmt.Errorf("open master %s: %w", m.path, err)
	}
	defer func() { _ = f.Close() }()

	if err := fn(f); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save master %s: %w", m.path, err)
	}
	return nil
}
