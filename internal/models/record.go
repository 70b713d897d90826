package models

import "time"

// MaintenanceRecord holds one visit's validated readings. It is built once by
// the record reader and never mutated afterwards; downstream code may rely on
// every field having passed its type check.
type MaintenanceRecord struct {
	DeviceID  string
	Location  string
	VisitDate time.Time // date only, UTC midnight
	Comment   string

	InternalOperators []string // DEKRA technicians
	ExternalOperators []string

	EFOYWorks     bool
	EFOYOnlineRaw string // raw token; resolved by the classifier

	FiltersReplaced  bool
	FiltersDiscarded float64
	FilterSpares     float64

	BrushOK     bool
	BrushSpares float64

	FluidAdded       bool // derived: a non-zero amount was recorded
	FluidAddedLiters float64
	FluidRemaining   float64

	MethanolChanged bool // derived: cartridges were added to the unit
	MethanolToUnit  float64
	MethanolToStock float64
	Cartridge1Pct   float64
	Cartridge2Pct   float64

	BatteriesChanged bool
	BatterySOH       []float64

	PumpOK     bool
	PumpSpares float64

	ExtinguisherPresent bool
	ExtinguisherExpiry  time.Time // zero when no extinguisher is present

	DataDownloaded bool
	DataFrom       time.Time
	DataTo         time.Time

	SensorsChanged   bool
	SensorNames      []string
	SensorOldSerials []string
	SensorNewSerials []string
}

// NotificationPlan is read from the report's notification columns: who to
// mail and, optionally, when. A zero SendAt means send immediately.
type NotificationPlan struct {
	Recipients []string
	SendAt     time.Time
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
