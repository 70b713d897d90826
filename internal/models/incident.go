package models

import (
	"strings"
	"time"
)

// IncidentTag identifies one kind of observation. The literal values are an
// external contract: they are written into spreadsheet comment cells and into
// the notification mail, so they keep the wording the tracking sheets use.
type IncidentTag string

const (
	TagFluid    IncidentTag = "Líquido"
	TagMethanol IncidentTag = "Metanol"

	TagErrorEFOY        IncidentTag = "Error_EFOY"
	TagErrorEFOYOffline IncidentTag = "Error_EFOY_Offline"

	TagFilter               IncidentTag = "Filtro"
	TagErrorFilterReplaced  IncidentTag = "Error_Filtro_Sustituido"
	TagErrorFilterDiscarded IncidentTag = "Error_Filtro_Desechado"

	TagBrush      IncidentTag = "Escobilla"
	TagErrorBrush IncidentTag = "Error_Escobilla"

	TagBatteryStatus  IncidentTag = "Estado_Baterias"
	TagErrorBatteries IncidentTag = "Error_Baterias"

	TagPump      IncidentTag = "Bomba"
	TagErrorPump IncidentTag = "Error_Bomba"

	TagExtinguisherDate         IncidentTag = "Fecha_Extintor"
	TagErrorExtinguisher        IncidentTag = "Error_Extintor"
	TagErrorExtinguisherExpired IncidentTag = "Error_Extintor_Caducado"

	TagDataDates         IncidentTag = "Fechas_Datos"
	TagErrorDataDownload IncidentTag = "Error_DescargaDatos"

	TagErrorSensors IncidentTag = "Error_Sensores"
)

// IsError reports whether the tag marks a problem to highlight, as opposed to
// an informational entry.
func (t IncidentTag) IsError() bool {
	return strings.HasPrefix(string(t), "Error")
}

// Incident is one tagged observation derived from a validated record. Each
// kind is its own type carrying a typed payload; updaters look incidents up
// by type, never by position.
type Incident interface {
	Tag() IncidentTag
}

// FluidIncident is always emitted: windscreen-washer fluid state.
type FluidIncident struct {
	Added           bool
	AddedLiters     float64
	RemainingLiters float64
}

func (FluidIncident) Tag() IncidentTag { return TagFluid }

// MethanolIncident is always emitted: methanol cartridge state.
type MethanolIncident struct {
	Changed       bool
	AddedToUnit   float64
	AddedToStock  float64
	Cartridge1Pct float64
	Cartridge2Pct float64
}

func (MethanolIncident) Tag() IncidentTag { return TagMethanol }

// StatusIncident carries no payload beyond its tag (EFOY faults).
type StatusIncident struct {
	Code IncidentTag
}

func (i StatusIncident) Tag() IncidentTag { return i.Code }

// FilterIncident: lidar filter state. Code is one of TagFilter,
// TagErrorFilterReplaced, TagErrorFilterDiscarded.
type FilterIncident struct {
	Code      IncidentTag
	Discarded float64
	Remaining float64
}

func (i FilterIncident) Tag() IncidentTag { return i.Code }

// BrushIncident: wiper brush state with remaining spares.
type BrushIncident struct {
	Code      IncidentTag
	Remaining float64
}

func (i BrushIncident) Tag() IncidentTag { return i.Code }

// PumpIncident: water pump state with remaining spares.
type PumpIncident struct {
	Code      IncidentTag
	Remaining float64
}

func (i PumpIncident) Tag() IncidentTag { return i.Code }

// BatteryIncident: recorded state-of-health percentages. Code is
// TagErrorBatteries when the batteries were swapped, TagBatteryStatus when
// only readings were taken.
type BatteryIncident struct {
	Code IncidentTag
	SOH  []float64
}

func (i BatteryIncident) Tag() IncidentTag { return i.Code }

// ExtinguisherIncident: fire-extinguisher expiry, tagged by urgency.
type ExtinguisherIncident struct {
	Code   IncidentTag
	Expiry time.Time
}

func (i ExtinguisherIncident) Tag() IncidentTag { return i.Code }

// DataDownloadIncident: the data-download window, or its absence.
type DataDownloadIncident struct {
	Downloaded bool
	From       time.Time
	To         time.Time
}

func (i DataDownloadIncident) Tag() IncidentTag {
	if i.Downloaded {
		return TagDataDates
	}
	return TagErrorDataDownload
}

// SensorChange records one swapped sensor.
type SensorChange struct {
	Name      string
	OldSerial string
	NewSerial string
}

// SensorIncident lists the sensors swapped during the visit.
type SensorIncident struct {
	Changes []SensorChange
}

func (SensorIncident) Tag() IncidentTag { return TagErrorSensors }

// FindIncident returns the first incident of type T in the list.
func FindIncident[T Incident](incidents []Incident) (T, bool) {
	for _, inc := range incidents {
		if v, ok := inc.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// ErrorTags collects the tags of all error incidents, in order.
func ErrorTags(incidents []Incident) []IncidentTag {
	var tags []IncidentTag
	for _, inc := range incidents {
		if inc.Tag().IsError() {
			tags = append(tags, inc.Tag())
		}
	}
	return tags
}
