package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

// HistoryStore is the per-device history workbook as the locator and the
// field updaters see it.
type HistoryStore interface {
	Path(deviceID string) string
	Exists(deviceID string) (bool, error)
	CheckWritable(deviceID string) error
	CreateFromTemplate(deviceID, location string) (int, error)
	HasSheet(deviceID, location string) (bool, error)
	AddLocationSheet(deviceID, location string) (int, error)
	NextFreeRow(deviceID, location string) (int, error)
	CellString(deviceID, location string, row, col int) (string, error)
	CellInt(deviceID, location string, row, col int) (int, error)
	SetCell(deviceID, location string, row, col int, value any) error
	SetDateCell(deviceID, location string, row, col int, d time.Time) error
	AppendToCell(deviceID, location string, row, col int, text, sep string) error
	DeleteRow(deviceID, location string, row int) error
}

// History manages one workbook per device under dir, one sheet per location.
// New workbooks and location sheets are stamped out of a template file.
type History struct {
	dir           string
	templatePath  string
	templateSheet string
}

var _ HistoryStore = (*History)(nil)

func NewHistory(dir, templatePath, templateSheet string) *History {
	return &History{dir: dir, templatePath: templatePath, templateSheet: templateSheet}
}

// Path returns the workbook location for a device.
func (h *History) Path(deviceID string) string {
	return filepath.Join(h.dir, deviceID+".xlsx")
}

func (h *History) Exists(deviceID string) (bool, error) {
	_, err := os.Stat(h.Path(deviceID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat history for %s: %w", deviceID, err)
}

func (h *History) CheckWritable(deviceID string) error {
	return CheckWritable(h.Path(deviceID))
}

// CreateFromTemplate registers a brand-new device: copies the template file,
// renames its single sheet to the location and seeds the identity cells.
// Returns the template's first editable row.
func (h *History) CreateFromTemplate(deviceID, location string) (int, error) {
	data, err := os.ReadFile(h.templatePath)
	if err != nil {
		return 0, fmt.Errorf("read template %s: %w", h.templatePath, err)
	}
	path := h.Path(deviceID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("create history %s: %w", path, err)
	}

	err = h.update(deviceID, func(f *excelize.File) error {
		if idx, err := f.GetSheetIndex(h.templateSheet); err != nil || idx < 0 {
			return fmt.Errorf("template has no sheet %q", h.templateSheet)
		}
		if err := f.SetSheetName(h.templateSheet, location); err != nil {
			return fmt.Errorf("rename template sheet: %w", err)
		}
		return seedIdentityCells(f, location, deviceID)
	})
	if err != nil {
		return 0, err
	}
	return HistoryFirstRow, nil
}

func (h *History) HasSheet(deviceID, location string) (bool, error) {
	f, err := h.open(deviceID)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	idx, err := f.GetSheetIndex(location)
	if err != nil {
		return false, fmt.Errorf("sheet lookup %q: %w", location, err)
	}
	return idx >= 0, nil
}

// AddLocationSheet duplicates the template sheet into a newly created sheet
// named after the location: cell values, styles, column widths and row
// heights. Charts, images and macros are not carried over.
func (h *History) AddLocationSheet(deviceID, location string) (int, error) {
	tmpl, err := excelize.OpenFile(h.templatePath)
	if err != nil {
		return 0, fmt.Errorf("open template %s: %w", h.templatePath, err)
	}
	defer func() { _ = tmpl.Close() }()

	if idx, err := tmpl.GetSheetIndex(h.templateSheet); err != nil || idx < 0 {
		return 0, fmt.Errorf("template has no sheet %q", h.templateSheet)
	}

	err = h.update(deviceID, func(f *excelize.File) error {
		if _, err := f.NewSheet(location); err != nil {
			return fmt.Errorf("create sheet %q: %w", location, err)
		}
		if err := copySheetContents(tmpl, h.templateSheet, f, location); err != nil {
			return err
		}
		return seedIdentityCells(f, location, deviceID)
	})
	if err != nil {
		return 0, err
	}
	return HistoryFirstRow, nil
}

// NextFreeRow scans the device id column upwards from the bottom and returns
// the first empty row below recorded visits.
func (h *History) NextFreeRow(deviceID, location string) (int, error) {
	f, err := h.open(deviceID)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(location)
	if err != nil {
		return 0, fmt.Errorf("read history sheet %q: %w", location, err)
	}
	row := nextFreeRow(rows, HistColDeviceID)
	if row < HistoryFirstRow {
		row = HistoryFirstRow
	}
	return row, nil
}

func (h *History) CellString(deviceID, location string, row, col int) (string, error) {
	f, err := h.open(deviceID)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	return cellValue(f, location, row, col)
}

func (h *History) CellInt(deviceID, location string, row, col int) (int, error) {
	f, err := h.open(deviceID)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return intOrZero(f, location, row, col)
}

func (h *History) SetCell(deviceID, location string, row, col int, value any) error {
	return h.update(deviceID, func(f *excelize.File) error {
		return setCell(f, location, row, col, value)
	})
}

func (h *History) SetDateCell(deviceID, location string, row, col int, d time.Time) error {
	return h.update(deviceID, func(f *excelize.File) error {
		return setDateCell(f, location, row, col, d)
	})
}

func (h *History) AppendToCell(deviceID, location string, row, col int, text, sep string) error {
	return h.update(deviceID, func(f *excelize.File) error {
		return appendToCell(f, location, row, col, text, sep)
	})
}

// DeleteRow removes one visit row, shifting the rows below it up. Used by the
// duplicate-date rollback.
func (h *History) DeleteRow(deviceID, location string, row int) error {
	return h.update(deviceID, func(f *excelize.File) error {
		if err := f.RemoveRow(location, row); err != nil {
			return fmt.Errorf("delete row %d of %q: %w", row, location, err)
		}
		return nil
	})
}

func (h *History) open(deviceID string) (*excelize.File, error) {
	path := h.Path(deviceID)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	return f, nil
}

func (h *History) update(deviceID string, fn func(f *excelize.File) error) error {
	f, err := h.open(deviceID)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := fn(f); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save history %s: %w", h.Path(deviceID), err)
	}
	return nil
}

func seedIdentityCells(f *excelize.File, sheet, deviceID string) error {
	if err := setCell(f, sheet, HistorySeedIDRow, HistColDeviceID, deviceID); err != nil {
		return err
	}
	return setCell(f, sheet, HistorySeedLocationRow, HistorySeedLocationCol, sheet)
}

// copySheetContents clones values, styles, column widths and row heights from
// a sheet in src into a sheet in dst. Style IDs are file-scoped, so each
// source style is re-registered in dst and cached.
func copySheetContents(src *excelize.File, srcSheet string, dst *excelize.File, dstSheet string) error {
	rows, err := src.GetRows(srcSheet)
	if err != nil {
		return fmt.Errorf("read template sheet %q: %w", srcSheet, err)
	}

	styleCache := map[int]int{}
	maxCols := 0
	for r, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
		for c, v := range row {
			cell, err := axis(r+1, c+1)
			if err != nil {
				return err
			}
			if v != "" {
				if err := dst.SetCellValue(dstSheet, cell, v); err != nil {
					return fmt.Errorf("copy cell %s: %w", cell, err)
				}
			}
			srcStyle, err := src.GetCellStyle(srcSheet, cell)
			if err != nil || srcStyle == 0 {
				continue
			}
			dstStyle, ok := styleCache[srcStyle]
			if !ok {
				def, err := src.GetStyle(srcStyle)
				if err != nil {
					continue
				}
				dstStyle, err = dst.NewStyle(def)
				if err != nil {
					continue
				}
				styleCache[srcStyle] = dstStyle
			}
			if err := dst.SetCellStyle(dstSheet, cell, cell, dstStyle); err != nil {
				return fmt.Errorf("copy style %s: %w", cell, err)
			}
		}
	}

	for c := 1; c <= maxCols; c++ {
		name, err := excelize.ColumnNumberToName(c)
		if err != nil {
			continue
		}
		if w, err := src.GetColWidth(srcSheet, name); err == nil {
			_ = dst.SetColWidth(dstSheet, name, name, w)
		}
	}
	for r := 1; r <= len(rows); r++ {
		if hgt, err := src.GetRowHeight(srcSheet, r); err == nil {
			_ = dst.SetRowHeight(dstSheet, r, hgt)
		}
	}
	return nil
}
