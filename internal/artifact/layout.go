// Package artifact gives structured access to the three spreadsheet files the
// workflow owns: the per-visit report, the master tracking sheet and the
// per-device history workbooks. Cell layout is the external contract with the
// people who fill these files in; the constants here are that contract.
//
// Every method opens its workbook, mutates, saves and closes within the call.
// No handle is held across calls; concurrent runs are only guarded by the
// advisory CheckWritable pre-check.
package artifact

// Master sheet: one row per device starting at MasterFirstRow.
const (
	MasterFirstRow = 3

	MasterColDeviceID  = 1
	MasterColLocation  = 2
	MasterColCountry   = 3
	MasterColClient    = 4
	MasterColVisitDate = 5 // previous ("second-to-last") visit until overwritten
	MasterColComment   = 8
	MasterColSecondary = 17 // sensor swaps and incident tags appended here
)

// History workbook: one sheet per location, one row per visit. The template
// reserves rows 1-4 for headers; HistoryFirstRow is the first editable row.
const (
	HistoryFirstRow = 5

	HistorySeedIDRow        = 5 // device id seeded here on sheet creation
	HistorySeedLocationRow  = 3
	HistorySeedLocationCol  = 2

	HistColDeviceID         = 1
	HistColVisitDate        = 2
	HistColComment          = 3
	HistColMethanolStock    = 4
	HistColMethanolUsed     = 5
	HistColFluidRemaining   = 6
	HistColFluidUsed        = 7
	HistColFilterStock      = 8
	HistColFiltersDiscarded = 9
	HistColBrushStock       = 10
	HistColBatteryLog       = 11
	HistColSensorLog        = 12
	HistColExtinguisher     = 13
	HistColDataWindow       = 14
	HistColPumpStock        = 15
	HistColOperators        = 16
)

// dateNumFmt is applied to every date cell written by this package.
const dateNumFmt = "dd/mm/yyyy"
