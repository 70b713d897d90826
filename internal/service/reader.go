package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lidar_maintenance/internal/artifact"
	"lidar_maintenance/internal/logger"
	"lidar_maintenance/internal/models"
)

// minReportColumns is the width a report sheet must have to hold every
// field block, the send time column and the recipients column.
const minReportColumns = 19

// operatorsFirstRow is the first data row of the operator name lists.
const operatorsFirstRow = 6

// RecordReader turns a raw report grid into a validated MaintenanceRecord.
type RecordReader struct {
	log *logger.Logger
}

func NewRecordReader(log *logger.Logger) *RecordReader {
	return &RecordReader{log: log}
}

// Read extracts and normalizes every maintenance field from the grid.
func (r *RecordReader) Read(grid *artifact.Grid) (*models.MaintenanceRecord, error) {
	if err := checkShape(grid); err != nil {
		return nil, err
	}

	rec := &models.MaintenanceRecord{}

	rec.DeviceID = grid.Cell(0, 0)
	if rec.DeviceID == "" {
		return nil, &models.FormatError{Field: "device id", Reason: "cell is empty"}
	}
	rec.Location = grid.Cell(2, 0)
	if rec.Location == "" {
		return nil, &models.FormatError{Field: "location", Reason: "cell is empty"}
	}

	visit, err := parseDateCell("visit date", grid.Cell(0, 1))
	if err != nil {
		return nil, err
	}
	rec.VisitDate = visit
	rec.Comment = grid.Cell(0, 16)

	flags := []struct {
		field string
		raw   string
		dst   *bool
	}{
		{"EFOY works", grid.Cell(0, 2), &rec.EFOYWorks},
		{"filters replaced", grid.Cell(0, 3), &rec.FiltersReplaced},
		{"brush ok", grid.Cell(0, 4), &rec.BrushOK},
		{"batteries changed", grid.Cell(0, 9), &rec.BatteriesChanged},
		{"pump ok", grid.Cell(0, 10), &rec.PumpOK},
		{"extinguisher present", grid.Cell(0, 11), &rec.ExtinguisherPresent},
		{"data downloaded", grid.Cell(0, 12), &rec.DataDownloaded},
		{"sensors changed", grid.Cell(0, 13), &rec.SensorsChanged},
	}
	for _, f := range flags {
		v, err := parseYesNo(f.field, f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	rec.EFOYOnlineRaw = grid.Cell(2, 2)

	if rec.FiltersDiscarded, err = parseAmount("filters discarded", grid.Cell(2, 3)); err != nil {
		return nil, err
	}
	if rec.FilterSpares, err = parseAmount("filter spares", grid.Cell(4, 3)); err != nil {
		return nil, err
	}
	if rec.BrushSpares, err = parseAmount("brush spares", grid.Cell(2, 4)); err != nil {
		return nil, err
	}
	if rec.PumpSpares, err = parseAmount("pump spares", grid.Cell(2, 10)); err != nil {
		return nil, err
	}

	if rec.FluidAddedLiters, rec.FluidAdded, err = parseOptionalAmount("fluid added", grid.Cell(0, 5)); err != nil {
		return nil, err
	}
	if rec.FluidRemaining, err = parseAmount("fluid remaining", grid.Cell(0, 6)); err != nil {
		return nil, err
	}
	if rec.MethanolToUnit, rec.MethanolChanged, err = parseOptionalAmount("methanol to unit", grid.Cell(0, 7)); err != nil {
		return nil, err
	}
	if rec.MethanolToStock, err = parseAmount("methanol to stock", grid.Cell(0, 8)); err != nil {
		return nil, err
	}
	if rec.Cartridge1Pct, err = parseAmount("cartridge 1 level", grid.Cell(2, 7)); err != nil {
		return nil, err
	}
	if rec.Cartridge2Pct, err = parseAmount("cartridge 2 level", grid.Cell(2, 8)); err != nil {
		return nil, err
	}

	if rec.BatterySOH, err = parseFloatList("battery soh", grid.Column(9, 1)); err != nil {
		return nil, err
	}

	if rec.ExtinguisherPresent {
		if rec.ExtinguisherExpiry, err = parseDateCell("extinguisher expiry", grid.Cell(2, 11)); err != nil {
			return nil, err
		}
	}
	if rec.DataDownloaded {
		if rec.DataFrom, err = parseDateCell("data from", grid.Cell(2, 12)); err != nil {
			return nil, err
		}
		if rec.DataTo, err = parseDateCell("data to", grid.Cell(4, 12)); err != nil {
			return nil, err
		}
	}

	rec.SensorNames = grid.Column(13, 1)
	rec.SensorOldSerials = grid.Column(14, 1)
	rec.SensorNewSerials = grid.Column(15, 1)

	rec.InternalOperators = grid.Column(0, operatorsFirstRow)
	rec.ExternalOperators = grid.Column(1, operatorsFirstRow)
	if len(rec.InternalOperators) == 0 && len(rec.ExternalOperators) == 0 {
		return nil, models.ErrMissingOperators
	}

	r.log.Debugf("report read: device %s at %s, visit %s",
		rec.DeviceID, rec.Location, rec.VisitDate.Format("02-01-2006"))
	return rec, nil
}

// ReadNotification extracts the send schedule and the recipient list.
func (r *RecordReader) ReadNotification(grid *artifact.Grid) (*models.NotificationPlan, error) {
	if err := checkShape(grid); err != nil {
		return nil, err
	}

	plan := &models.NotificationPlan{
		Recipients: grid.Column(18, 0),
	}

	if raw := grid.Cell(0, 17); raw != "" {
		sendAt, err := artifact.ParseCellDateTime(raw)
		if err != nil {
			return nil, &models.FormatError{Field: "send time", Value: raw, Reason: "not a recognized date"}
		}
		plan.SendAt = sendAt
	}
	return plan, nil
}

func checkShape(grid *artifact.Grid) error {
	if len(grid.Rows) == 0 {
		return &models.FormatError{Field: "report table", Reason: "no data rows"}
	}
	if len(grid.Headers) < minReportColumns {
		return &models.FormatError{
			Field:  "report table",
			Value:  strconv.Itoa(len(grid.Headers)),
			Reason: fmt.Sprintf("expected at least %d columns", minReportColumns),
		}
	}
	return nil
}

// parseYesNo normalizes the SI/NO answer cells, case insensitively.
func parseYesNo(field, raw string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SI":
		return true, nil
	case "NO":
		return false, nil
	default:
		return false, &models.ValidationError{Field: field, Value: raw, Reason: "expected SI or NO"}
	}
}

// parseAmount reads a numeric cell, treating an empty cell as zero.
func parseAmount(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, &models.ValidationError{Field: field, Value: raw, Reason: "not a number"}
	}
	return v, nil
}

// parseOptionalAmount reads a quantity cell whose presence doubles as a
// flag. Empty or zero means the action did not happen.
func parseOptionalAmount(field, raw string) (float64, bool, error) {
	v, err := parseAmount(field, raw)
	if err != nil {
		return 0, false, err
	}
	return v, v != 0, nil
}

func parseFloatList(field string, raw []string) ([]float64, error) {
	out := make([]float64, 0, len(raw))
	for _, cell := range raw {
		v, err := parseAmount(field, cell)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseDateCell(field, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, &models.FormatError{Field: field, Reason: "cell is empty"}
	}
	t, err := artifact.ParseCellDate(raw)
	if err != nil {
		return time.Time{}, &models.FormatError{Field: field, Value: raw, Reason: "not a recognized date"}
	}
	return t, nil
}
