package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lidar_maintenance/internal/models"
)

// fakeMaster is an in-memory MasterStore keyed by row and column.
type fakeMaster struct {
	devices  map[string]int // device id -> row
	cells    map[[2]int]string
	dates    map[int]time.Time
	stamped  time.Time
	writable bool
	nextRow  int
}

func newFakeMaster() *fakeMaster {
	return &fakeMaster{
		devices:  map[string]int{},
		cells:    map[[2]int]string{},
		dates:    map[int]time.Time{},
		writable: true,
		nextRow:  3,
	}
}

func (m *fakeMaster) addDevice(id string, lastVisit time.Time) int {
	row := m.nextRow
	m.nextRow++
	m.devices[id] = row
	m.dates[row] = lastVisit
	return row
}

func (m *fakeMaster) FindRow(deviceID string) (int, error) {
	row, ok := m.devices[deviceID]
	if !ok {
		return 0, &models.FormatError{Field: "device id", Value: deviceID, Reason: "not in master"}
	}
	return row, nil
}

func (m *fakeMaster) AppendDeviceRow(deviceID, location, country, client string) (int, error) {
	row := m.addDevice(deviceID, time.Time{})
	m.cells[[2]int{row, 2}] = location
	m.cells[[2]int{row, 3}] = country
	m.cells[[2]int{row, 4}] = client
	return row, nil
}

func (m *fakeMaster) PreviousVisitDate(row int) (time.Time, bool, error) {
	d, ok := m.dates[row]
	if !ok || d.IsZero() {
		return time.Time{}, false, nil
	}
	return d, true, nil
}

func (m *fakeMaster) SetVisitDate(row int, d time.Time) error {
	m.dates[row] = d
	return nil
}

func (m *fakeMaster) SetComment(row int, text string) error {
	m.cells[[2]int{row, 8}] = text
	return nil
}

func (m *fakeMaster) AppendSecondaryComment(row int, text string) error {
	key := [2]int{row, 17}
	if prev := m.cells[key]; prev != "" {
		text = prev + " | " + text
	}
	m.cells[key] = text
	return nil
}

func (m *fakeMaster) StampUpdated(d time.Time) error {
	m.stamped = d
	return nil
}

func (m *fakeMaster) CheckWritable() error {
	if !m.writable {
		return fmt.Errorf("master: %w", models.ErrConcurrentAccess)
	}
	return nil
}

// fakeHistory is an in-memory HistoryStore: device -> sheet -> cells.
type fakeHistory struct {
	books    map[string]map[string]map[[2]int]string
	writable bool
	deleted  [][3]any // device, location, row
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{books: map[string]map[string]map[[2]int]string{}, writable: true}
}

func (h *fakeHistory) addSheet(deviceID, location string) {
	if h.books[deviceID] == nil {
		h.books[deviceID] = map[string]map[[2]int]string{}
	}
	if h.books[deviceID][location] == nil {
		h.books[deviceID][location] = map[[2]int]string{}
	}
}

func (h *fakeHistory) sheet(deviceID, location string) map[[2]int]string {
	h.addSheet(deviceID, location)
	return h.books[deviceID][location]
}

func (h *fakeHistory) Path(deviceID string) string { return "fake/" + deviceID + ".xlsx" }

func (h *fakeHistory) Exists(deviceID string) (bool, error) {
	_, ok := h.books[deviceID]
	return ok, nil
}

func (h *fakeHistory) CheckWritable(deviceID string) error {
	if !h.writable {
		return fmt.Errorf("history %s: %w", deviceID, models.ErrConcurrentAccess)
	}
	return nil
}

func (h *fakeHistory) CreateFromTemplate(deviceID, location string) (int, error) {
	h.addSheet(deviceID, location)
	h.sheet(deviceID, location)[[2]int{5, 1}] = deviceID
	return 5, nil
}

func (h *fakeHistory) HasSheet(deviceID, location string) (bool, error) {
	_, ok := h.books[deviceID][location]
	return ok, nil
}

func (h *fakeHistory) AddLocationSheet(deviceID, location string) (int, error) {
	h.addSheet(deviceID, location)
	h.sheet(deviceID, location)[[2]int{5, 1}] = deviceID
	return 5, nil
}

func (h *fakeHistory) NextFreeRow(deviceID, location string) (int, error) {
	sheet := h.sheet(deviceID, location)
	row := 5
	for key := range sheet {
		if key[1] == 1 && key[0] >= row {
			row = key[0] + 1
		}
	}
	return row, nil
}

func (h *fakeHistory) CellString(deviceID, location string, row, col int) (string, error) {
	return h.sheet(deviceID, location)[[2]int{row, col}], nil
}

func (h *fakeHistory) CellInt(deviceID, location string, row, col int) (int, error) {
	raw := h.sheet(deviceID, location)[[2]int{row, col}]
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	if first, _, found := strings.Cut(raw, " "); found {
		if n, err := strconv.Atoi(first); err == nil {
			return n, nil
		}
	}
	return 0, nil
}

func (h *fakeHistory) SetCell(deviceID, location string, row, col int, value any) error {
	h.sheet(deviceID, location)[[2]int{row, col}] = fmt.Sprint(value)
	return nil
}

func (h *fakeHistory) SetDateCell(deviceID, location string, row, col int, d time.Time) error {
	h.sheet(deviceID, location)[[2]int{row, col}] = d.Format("02/01/2006")
	return nil
}

func (h *fakeHistory) AppendToCell(deviceID, location string, row, col int, text, sep string) error {
	key := [2]int{row, col}
	sheet := h.sheet(deviceID, location)
	if prev := sheet[key]; prev != "" {
		text = prev + sep + text
	}
	sheet[key] = text
	return nil
}

func (h *fakeHistory) DeleteRow(deviceID, location string, row int) error {
	h.deleted = append(h.deleted, [3]any{deviceID, location, row})
	sheet := h.sheet(deviceID, location)
	for key := range sheet {
		if key[0] == row {
			delete(sheet, key)
		}
	}
	return nil
}
