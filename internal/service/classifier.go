package service

import (
	"fmt"
	"strings"
	"time"

	"lidar_maintenance/internal/logger"
	"lidar_maintenance/internal/models"
)

// extinguisherWarnMonths is how close to expiry an extinguisher may get
// before the visit report flags it for replacement.
const extinguisherWarnMonths = 3

// Classifier derives the incident list from a validated record. It never
// mutates the record and performs no I/O.
type Classifier struct {
	log *logger.Logger
}

func NewClassifier(log *logger.Logger) *Classifier {
	return &Classifier{log: log}
}

// Classify applies every incident rule in a fixed order. Informational
// entries and errors share the one list; callers separate them by tag.
func (c *Classifier) Classify(rec *models.MaintenanceRecord) ([]models.Incident, error) {
	var incidents []models.Incident

	incidents = append(incidents, models.FluidIncident{
		Added:           rec.FluidAdded,
		AddedLiters:     rec.FluidAddedLiters,
		RemainingLiters: rec.FluidRemaining,
	})

	incidents = append(incidents, models.MethanolIncident{
		Changed:       rec.MethanolChanged,
		AddedToUnit:   rec.MethanolToUnit,
		AddedToStock:  rec.MethanolToStock,
		Cartridge1Pct: rec.Cartridge1Pct,
		Cartridge2Pct: rec.Cartridge2Pct,
	})

	efoy, err := classifyEFOY(rec)
	if err != nil {
		return nil, err
	}
	incidents = append(incidents, efoy...)

	filter, err := classifyFilters(rec)
	if err != nil {
		return nil, err
	}
	incidents = append(incidents, filter)

	if rec.BrushSpares < 0 {
		return nil, &models.ValidationError{Field: "brush spares", Value: fmt.Sprint(rec.BrushSpares), Reason: "must not be negative"}
	}
	brush := models.BrushIncident{Code: models.TagBrush, Remaining: rec.BrushSpares}
	if !rec.BrushOK {
		brush.Code = models.TagErrorBrush
	}
	incidents = append(incidents, brush)

	battery, err := classifyBatteries(rec)
	if err != nil {
		return nil, err
	}
	if battery != nil {
		incidents = append(incidents, battery)
	}

	if rec.PumpSpares < 0 {
		return nil, &models.ValidationError{Field: "pump spares", Value: fmt.Sprint(rec.PumpSpares), Reason: "must not be negative"}
	}
	pump := models.PumpIncident{Code: models.TagPump, Remaining: rec.PumpSpares}
	if !rec.PumpOK {
		pump.Code = models.TagErrorPump
	}
	incidents = append(incidents, pump)

	if rec.ExtinguisherPresent {
		incidents = append(incidents, classifyExtinguisher(rec))
	} else {
		c.log.Warnf("device %s: no extinguisher recorded, skipping expiry check", rec.DeviceID)
	}

	incidents = append(incidents, models.DataDownloadIncident{
		Downloaded: rec.DataDownloaded,
		From:       rec.DataFrom,
		To:         rec.DataTo,
	})

	if sensors := c.classifySensors(rec); sensors != nil {
		incidents = append(incidents, sensors)
	}

	return incidents, nil
}

func classifyEFOY(rec *models.MaintenanceRecord) ([]models.Incident, error) {
	var out []models.Incident
	if !rec.EFOYWorks {
		out = append(out, models.StatusIncident{Code: models.TagErrorEFOY})
	}
	switch strings.ToUpper(strings.TrimSpace(rec.EFOYOnlineRaw)) {
	case "SI":
	case "NO":
		out = append(out, models.StatusIncident{Code: models.TagErrorEFOYOffline})
	default:
		return nil, fmt.Errorf("%w: EFOY online answer %q", models.ErrAmbiguousStatus, rec.EFOYOnlineRaw)
	}
	return out, nil
}

func classifyFilters(rec *models.MaintenanceRecord) (models.Incident, error) {
	if rec.FilterSpares < 0 {
		return nil, &models.ValidationError{Field: "filter spares", Value: fmt.Sprint(rec.FilterSpares), Reason: "must not be negative"}
	}
	if rec.FiltersDiscarded < 0 {
		return nil, &models.ValidationError{Field: "filters discarded", Value: fmt.Sprint(rec.FiltersDiscarded), Reason: "must not be negative"}
	}
	inc := models.FilterIncident{
		Code:      models.TagFilter,
		Discarded: rec.FiltersDiscarded,
		Remaining: rec.FilterSpares,
	}
	if rec.FiltersReplaced {
		if rec.FiltersDiscarded > 0 {
			inc.Code = models.TagErrorFilterDiscarded
		} else {
			inc.Code = models.TagErrorFilterReplaced
		}
	}
	return inc, nil
}

func classifyBatteries(rec *models.MaintenanceRecord) (models.Incident, error) {
	for _, v := range rec.BatterySOH {
		if v < 0 || v > 100 {
			return nil, &models.ValidationError{Field: "battery soh", Value: fmt.Sprint(v), Reason: "must be between 0 and 100"}
		}
	}
	if rec.BatteriesChanged {
		return models.BatteryIncident{Code: models.TagErrorBatteries, SOH: rec.BatterySOH}, nil
	}
	if len(rec.BatterySOH) > 0 {
		return models.BatteryIncident{Code: models.TagBatteryStatus, SOH: rec.BatterySOH}, nil
	}
	return nil, nil
}

func classifyExtinguisher(rec *models.MaintenanceRecord) models.Incident {
	inc := models.ExtinguisherIncident{Expiry: rec.ExtinguisherExpiry}
	switch months := monthsBetween(rec.VisitDate, rec.ExtinguisherExpiry); {
	case months > extinguisherWarnMonths:
		inc.Code = models.TagExtinguisherDate
	case months >= 0:
		inc.Code = models.TagErrorExtinguisher
	default:
		inc.Code = models.TagErrorExtinguisherExpired
	}
	return inc
}

func (c *Classifier) classifySensors(rec *models.MaintenanceRecord) models.Incident {
	if !rec.SensorsChanged || len(rec.SensorNames) == 0 {
		return nil
	}
	n := len(rec.SensorNames)
	if len(rec.SensorOldSerials) != n || len(rec.SensorNewSerials) != n {
		c.log.Warnf("device %s: sensor columns have uneven lengths (%d names, %d old, %d new), pairing up to the shortest",
			rec.DeviceID, n, len(rec.SensorOldSerials), len(rec.SensorNewSerials))
		n = min(n, min(len(rec.SensorOldSerials), len(rec.SensorNewSerials)))
	}
	changes := make([]models.SensorChange, 0, n)
	for i := 0; i < n; i++ {
		changes = append(changes, models.SensorChange{
			Name:      rec.SensorNames[i],
			OldSerial: rec.SensorOldSerials[i],
			NewSerial: rec.SensorNewSerials[i],
		})
	}
	if len(changes) == 0 {
		return nil
	}
	return models.SensorIncident{Changes: changes}
}

// monthsBetween counts whole calendar months from a to b, ignoring the day
// of month. 31 January to 1 April is three months.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
