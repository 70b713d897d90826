package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lidar_maintenance/internal/artifact"
	"lidar_maintenance/internal/logger"
	"lidar_maintenance/internal/models"
)

// ErrDuplicateVisit aborts a run whose visit date equals the device's last
// recorded visit: the report was already processed.
var ErrDuplicateVisit = errors.New("visit already recorded")

const (
	cellDateFormat = "02-01-2006"

	// noDataDownloaded is written verbatim into the data-window cell.
	noDataDownloaded = "No se descargaron de datos."
)

// Updaters writes one visit into the master sheet and the device history.
// Every method re-resolves the master row itself, so the methods stay
// independently callable and testable.
type Updaters struct {
	master  artifact.MasterStore
	history artifact.HistoryStore
	log     *logger.Logger
}

func NewUpdaters(master artifact.MasterStore, history artifact.HistoryStore, log *logger.Logger) *Updaters {
	return &Updaters{master: master, history: history, log: log}
}

// UpdateDate is the duplicate gate: it must run before any other updater.
// On a duplicate visit it deletes the history row allocated by the locator
// and returns ErrDuplicateVisit, leaving both artifacts as they were.
func (u *Updaters) UpdateDate(rec *models.MaintenanceRecord, histRow int) error {
	row, err := u.master.FindRow(rec.DeviceID)
	if err != nil {
		return err
	}
	prev, present, err := u.master.PreviousVisitDate(row)
	if err != nil {
		return err
	}
	if !present {
		return &models.FormatError{Field: "last visit date", Reason: "master cell is empty"}
	}
	if prev.Equal(rec.VisitDate) {
		if delErr := u.history.DeleteRow(rec.DeviceID, rec.Location, histRow); delErr != nil {
			u.log.Errorf("rollback of history row %d for %s failed: %v", histRow, rec.DeviceID, delErr)
		}
		return fmt.Errorf("%w: device %s on %s", ErrDuplicateVisit, rec.DeviceID, rec.VisitDate.Format(cellDateFormat))
	}

	if err := u.master.SetVisitDate(row, rec.VisitDate); err != nil {
		return err
	}
	return u.history.SetDateCell(rec.DeviceID, rec.Location, histRow, artifact.HistColVisitDate, rec.VisitDate)
}

func (u *Updaters) UpdateComment(rec *models.MaintenanceRecord, histRow int) error {
	row, err := u.master.FindRow(rec.DeviceID)
	if err != nil {
		return err
	}
	if err := u.master.SetComment(row, rec.Comment); err != nil {
		return err
	}
	return u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColComment, rec.Comment)
}

// UpdateOperators writes "DEKRA: a, b; Externos: c", with N/A for an empty
// side. The reader guarantees at least one side is populated.
func (u *Updaters) UpdateOperators(rec *models.MaintenanceRecord, histRow int) error {
	text := fmt.Sprintf("DEKRA: %s; Externos: %s",
		nameListOrNA(rec.InternalOperators), nameListOrNA(rec.ExternalOperators))
	return u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColOperators, text)
}

// UpdateMethanol keeps the cartridge stock as a running total: previous
// stock plus what went into storage minus what went into the unit. The used
// column accumulates the same way.
func (u *Updaters) UpdateMethanol(rec *models.MaintenanceRecord, incidents []models.Incident, histRow int) error {
	inc, ok := models.FindIncident[models.MethanolIncident](incidents)
	if !ok {
		return fmt.Errorf("%w: metanol", models.ErrMissingIncidentData)
	}
	if !inc.Changed {
		return nil
	}

	prevStock, err := u.history.CellInt(rec.DeviceID, rec.Location, histRow-1, artifact.HistColMethanolStock)
	if err != nil {
		return err
	}
	prevUsed, err := u.history.CellInt(rec.DeviceID, rec.Location, histRow-1, artifact.HistColMethanolUsed)
	if err != nil {
		return err
	}

	stock := prevStock + int(inc.AddedToStock) - int(inc.AddedToUnit)
	cell := fmt.Sprintf("%d (%v %%, %v %%)", stock, inc.Cartridge1Pct, inc.Cartridge2Pct)
	if err := u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColMethanolStock, cell); err != nil {
		return err
	}
	return u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColMethanolUsed, prevUsed+int(inc.AddedToUnit))
}

func (u *Updaters) UpdateFluid(rec *models.MaintenanceRecord, incidents []models.Incident, histRow int) error {
	inc, ok := models.FindIncident[models.FluidIncident](incidents)
	if !ok {
		return fmt.Errorf("%w: líquido", models.ErrMissingIncidentData)
	}
	if err := u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColFluidRemaining, inc.RemainingLiters); err != nil {
		return err
	}
	if !inc.Added {
		return nil
	}
	return u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColFluidUsed, inc.AddedLiters)
}

func (u *Updaters) UpdateFilters(rec *models.MaintenanceRecord, incidents []models.Incident, histRow int) error {
	inc, ok := models.FindIncident[models.FilterIncident](incidents)
	if !ok {
		return fmt.Errorf("%w: filtros", models.ErrMissingIncidentData)
	}
	if err := u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColFilterStock, inc.Remaining); err != nil {
		return err
	}
	return u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColFiltersDiscarded, inc.Discarded)
}

func (u *Updaters) UpdateBrush(rec *models.MaintenanceRecord, incidents []models.Incident, histRow int) error {
	inc, ok := models.FindIncident[models.BrushIncident](incidents)
	if !ok {
		return fmt.Errorf("%w: escobilla", models.ErrMissingIncidentData)
	}
	return u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColBrushStock, inc.Remaining)
}

func (u *Updaters) UpdatePump(rec *models.MaintenanceRecord, incidents []models.Incident, histRow int) error {
	inc, ok := models.FindIncident[models.PumpIncident](incidents)
	if !ok {
		return fmt.Errorf("%w: bomba", models.ErrMissingIncidentData)
	}
	return u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColPumpStock, inc.Remaining)
}

// UpdateExtinguisher tolerates a visit with no extinguisher on site: the
// classifier logged the gap and the cell stays empty.
func (u *Updaters) UpdateExtinguisher(rec *models.MaintenanceRecord, incidents []models.Incident, histRow int) error {
	inc, ok := models.FindIncident[models.ExtinguisherIncident](incidents)
	if !ok {
		u.log.Infof("device %s: no extinguisher data, leaving expiry cell untouched", rec.DeviceID)
		return nil
	}
	return u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColExtinguisher, inc.Expiry.Format(cellDateFormat))
}

func (u *Updaters) UpdateDataWindow(rec *models.MaintenanceRecord, incidents []models.Incident, histRow int) error {
	inc, ok := models.FindIncident[models.DataDownloadIncident](incidents)
	if !ok {
		return fmt.Errorf("%w: descarga de datos", models.ErrMissingIncidentData)
	}
	text := noDataDownloaded
	if inc.Downloaded {
		text = fmt.Sprintf("Desde: %s \n Hasta: %s", inc.From.Format(cellDateFormat), inc.To.Format(cellDateFormat))
	}
	return u.history.SetCell(rec.DeviceID, rec.Location, histRow, artifact.HistColDataWindow, text)
}

// UpdateBatteries appends a health summary line to the battery log cell.
// Healthy means a state of health of 80 or above.
func (u *Updaters) UpdateBatteries(rec *models.MaintenanceRecord, incidents []models.Incident, histRow int) error {
	inc, ok := models.FindIncident[models.BatteryIncident](incidents)
	if !ok {
		return nil
	}
	bad := 0
	for _, v := range inc.SOH {
		if v < 80 {
			bad++
		}
	}
	text := fmt.Sprintf("%d de %d baterías en mal estado", bad, len(inc.SOH))
	if inc.Code == models.TagErrorBatteries {
		text += "; se han cambiado"
	}
	return u.history.AppendToCell(rec.DeviceID, rec.Location, histRow, artifact.HistColBatteryLog, text, "\n")
}

// UpdateSensors records swaps as "Name (old -> new)" in both artifacts.
func (u *Updaters) UpdateSensors(rec *models.MaintenanceRecord, incidents []models.Incident, histRow int) error {
	inc, ok := models.FindIncident[models.SensorIncident](incidents)
	if !ok {
		return nil
	}
	parts := make([]string, 0, len(inc.Changes))
	for _, ch := range inc.Changes {
		parts = append(parts, fmt.Sprintf("%s (%s -> %s)", ch.Name, ch.OldSerial, ch.NewSerial))
	}
	text := strings.Join(parts, ", ")

	row, err := u.master.FindRow(rec.DeviceID)
	if err != nil {
		return err
	}
	if err := u.master.AppendSecondaryComment(row, "Sensores cambiados: "+text); err != nil {
		return err
	}
	return u.history.AppendToCell(rec.DeviceID, rec.Location, histRow, artifact.HistColSensorLog, text, "\n")
}

// UpdateIncidents appends the error tags to the secondary master comment and
// to the history comment so open issues are visible at a glance.
func (u *Updaters) UpdateIncidents(rec *models.MaintenanceRecord, incidents []models.Incident, histRow int) error {
	tags := models.ErrorTags(incidents)
	if len(tags) == 0 {
		return nil
	}
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, string(t))
	}
	text := "Incidencias: " + strings.Join(parts, ", ")

	row, err := u.master.FindRow(rec.DeviceID)
	if err != nil {
		return err
	}
	if err := u.master.AppendSecondaryComment(row, text); err != nil {
		return err
	}
	return u.history.AppendToCell(rec.DeviceID, rec.Location, histRow, artifact.HistColComment, text, " | ")
}

// StampUpdated writes the processing date into the master header.
func (u *Updaters) StampUpdated(now time.Time) error {
	return u.master.StampUpdated(models.DateOnly(now))
}

func nameListOrNA(names []string) string {
	if len(names) == 0 {
		return "N/A"
	}
	return strings.Join(names, ", ")
}
