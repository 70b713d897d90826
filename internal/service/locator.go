package service

import (
	"fmt"

	"lidar_maintenance/internal/artifact"
	"lidar_maintenance/internal/logger"
	"lidar_maintenance/internal/models"
	"lidar_maintenance/internal/prompt"
)

// RowLocator finds, or creates, the history row a visit will be written to.
// Creating a workbook or a sheet changes the tracking artifacts, so both
// paths require confirmation through the supplied Confirmer.
type RowLocator struct {
	master  artifact.MasterStore
	history artifact.HistoryStore
	confirm prompt.Confirmer
	log     *logger.Logger
}

func NewRowLocator(master artifact.MasterStore, history artifact.HistoryStore, confirm prompt.Confirmer, log *logger.Logger) *RowLocator {
	return &RowLocator{master: master, history: history, confirm: confirm, log: log}
}

// Locate returns the first free history row for the record's device and
// location. The returned row already carries the device id.
func (l *RowLocator) Locate(rec *models.MaintenanceRecord) (int, error) {
	exists, err := l.history.Exists(rec.DeviceID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return l.registerDevice(rec)
	}

	if err := l.history.CheckWritable(rec.DeviceID); err != nil {
		return 0, err
	}

	has, err := l.history.HasSheet(rec.DeviceID, rec.Location)
	if err != nil {
		return 0, err
	}
	if !has {
		return l.registerLocation(rec)
	}

	row, err := l.history.NextFreeRow(rec.DeviceID, rec.Location)
	if err != nil {
		return 0, err
	}
	if err := l.history.SetCell(rec.DeviceID, rec.Location, row, artifact.HistColDeviceID, rec.DeviceID); err != nil {
		return 0, err
	}
	return row, nil
}

// registerDevice creates the workbook from the template and appends the
// device to the master sheet, asking for the fields only a person knows.
func (l *RowLocator) registerDevice(rec *models.MaintenanceRecord) (int, error) {
	ok, err := l.confirm.Confirm(fmt.Sprintf(
		"No existe registro histórico del LIDAR %s. ¿Estás registrando un equipo nuevo?", rec.DeviceID))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: comprueba que el número de equipo %s es correcto", models.ErrCancelled, rec.DeviceID)
	}

	row, err := l.history.CreateFromTemplate(rec.DeviceID, rec.Location)
	if err != nil {
		return 0, err
	}

	country, err := l.confirm.PromptText(fmt.Sprintf("País del equipo %s:", rec.DeviceID))
	if err != nil {
		return 0, err
	}
	client, err := l.confirm.PromptText(fmt.Sprintf("Cliente del equipo %s:", rec.DeviceID))
	if err != nil {
		return 0, err
	}
	if _, err := l.master.AppendDeviceRow(rec.DeviceID, rec.Location, country, client); err != nil {
		return 0, err
	}

	l.log.Infof("registered new device %s at %s", rec.DeviceID, rec.Location)
	return row, nil
}

func (l *RowLocator) registerLocation(rec *models.MaintenanceRecord) (int, error) {
	ok, err := l.confirm.Confirm(fmt.Sprintf(
		"No existe la hoja %q en el histórico del LIDAR %s. ¿Se ha movido el equipo a una nueva ubicación?",
		rec.Location, rec.DeviceID))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: comprueba que la ubicación %q es correcta", models.ErrCancelled, rec.Location)
	}

	row, err := l.history.AddLocationSheet(rec.DeviceID, rec.Location)
	if err != nil {
		return 0, err
	}
	l.log.Infof("added location sheet %q to device %s history", rec.Location, rec.DeviceID)
	return row, nil
}
