package service

import (
	"errors"
	"testing"
	"time"

	"lidar_maintenance/internal/artifact"
	"lidar_maintenance/internal/logger"
	"lidar_maintenance/internal/models"
)

// validReportGrid builds a complete report the way the field crews fill the
// template in. Tests mutate copies of it.
func validReportGrid() *artifact.Grid {
	row := func(cells map[int]string) []string {
		r := make([]string, minReportColumns)
		for col, v := range cells {
			r[col] = v
		}
		return r
	}
	return &artifact.Grid{
		Headers: row(map[int]string{0: "Equipo"}),
		Rows: [][]string{
			row(map[int]string{
				0: "WLS866-101", 1: "15/03/2024", 2: "SI", 3: "SI", 4: "SI",
				5: "2", 6: "3.5", 7: "2", 8: "4", 9: "NO", 10: "SI",
				11: "SI", 12: "SI", 13: "NO", 16: "Revisión rutinaria",
				17: "20/03/2024 09:00", 18: "tecnico@dekra.example",
			}),
			row(map[int]string{9: "85", 18: "jefe@dekra.example"}),
			row(map[int]string{
				0: "Parque Norte", 2: "SI", 3: "1", 4: "2",
				7: "80", 8: "95", 10: "1", 11: "10/10/2025", 12: "01/01/2024",
			}),
			row(nil),
			row(map[int]string{3: "4", 12: "14/03/2024"}),
			row(nil),
			row(map[int]string{0: "Ana Pérez", 1: "Luis Gómez"}),
			row(map[int]string{0: "Marta Ruiz"}),
		},
	}
}

func testLogger() *logger.Logger {
	return logger.Get(logger.ErrorLevel)
}

func TestRecordReaderRead(t *testing.T) {
	t.Parallel()
	reader := NewRecordReader(testLogger())

	rec, err := reader.Read(validReportGrid())
	if err != nil {
		t.Fatalf("Read: unexpected error: %v", err)
	}

	if rec.DeviceID != "WLS866-101" {
		t.Errorf("DeviceID = %q, want WLS866-101", rec.DeviceID)
	}
	if rec.Location != "Parque Norte" {
		t.Errorf("Location = %q, want Parque Norte", rec.Location)
	}
	wantVisit := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !rec.VisitDate.Equal(wantVisit) {
		t.Errorf("VisitDate = %v, want %v", rec.VisitDate, wantVisit)
	}
	if !rec.EFOYWorks || !rec.FiltersReplaced || !rec.BrushOK || !rec.PumpOK {
		t.Errorf("boolean flags not parsed: %+v", rec)
	}
	if rec.BatteriesChanged {
		t.Error("BatteriesChanged = true, want false")
	}
	if !rec.FluidAdded || rec.FluidAddedLiters != 2 {
		t.Errorf("fluid = (%v, %v), want (true, 2)", rec.FluidAdded, rec.FluidAddedLiters)
	}
	if !rec.MethanolChanged || rec.MethanolToUnit != 2 || rec.MethanolToStock != 4 {
		t.Errorf("methanol = (%v, %v, %v), want (true, 2, 4)",
			rec.MethanolChanged, rec.MethanolToUnit, rec.MethanolToStock)
	}
	if rec.FiltersDiscarded != 1 || rec.FilterSpares != 4 {
		t.Errorf("filters = (%v, %v), want (1, 4)", rec.FiltersDiscarded, rec.FilterSpares)
	}
	if len(rec.BatterySOH) != 1 || rec.BatterySOH[0] != 85 {
		t.Errorf("BatterySOH = %v, want [85]", rec.BatterySOH)
	}
	if got := rec.ExtinguisherExpiry; got.IsZero() {
		t.Error("ExtinguisherExpiry not parsed")
	}
	wantFrom := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !rec.DataFrom.Equal(wantFrom) {
		t.Errorf("DataFrom = %v, want %v", rec.DataFrom, wantFrom)
	}
	if len(rec.InternalOperators) != 2 || rec.InternalOperators[0] != "Ana Pérez" {
		t.Errorf("InternalOperators = %v", rec.InternalOperators)
	}
	if len(rec.ExternalOperators) != 1 || rec.ExternalOperators[0] != "Luis Gómez" {
		t.Errorf("ExternalOperators = %v", rec.ExternalOperators)
	}
}

func TestRecordReaderReadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(g *artifact.Grid)
		wantErr func(err error) bool
	}{
		{
			name:    "empty table",
			mutate:  func(g *artifact.Grid) { g.Rows = nil },
			wantErr: isFormatError,
		},
		{
			name:    "too few columns",
			mutate:  func(g *artifact.Grid) { g.Headers = g.Headers[:10] },
			wantErr: isFormatError,
		},
		{
			name:    "missing device id",
			mutate:  func(g *artifact.Grid) { g.Rows[0][0] = "" },
			wantErr: isFormatError,
		},
		{
			name:    "unparseable visit date",
			mutate:  func(g *artifact.Grid) { g.Rows[0][1] = "pronto" },
			wantErr: isFormatError,
		},
		{
			name:    "boolean cell neither SI nor NO",
			mutate:  func(g *artifact.Grid) { g.Rows[0][3] = "quizás" },
			wantErr: isValidationError,
		},
		{
			name:    "non-numeric amount",
			mutate:  func(g *artifact.Grid) { g.Rows[0][6] = "tres" },
			wantErr: isValidationError,
		},
		{
			name: "no operators at all",
			mutate: func(g *artifact.Grid) {
				g.Rows[6][0], g.Rows[6][1], g.Rows[7][0] = "", "", ""
			},
			wantErr: func(err error) bool { return errors.Is(err, models.ErrMissingOperators) },
		},
		{
			name:    "extinguisher present but expiry empty",
			mutate:  func(g *artifact.Grid) { g.Rows[2][11] = "" },
			wantErr: isFormatError,
		},
	}

	reader := NewRecordReader(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := validReportGrid()
			tt.mutate(g)
			if _, err := reader.Read(g); err == nil || !tt.wantErr(err) {
				t.Errorf("Read: error = %v, want matching error", err)
			}
		})
	}
}

func TestRecordReaderReadNotification(t *testing.T) {
	t.Parallel()
	reader := NewRecordReader(testLogger())

	plan, err := reader.ReadNotification(validReportGrid())
	if err != nil {
		t.Fatalf("ReadNotification: %v", err)
	}
	if len(plan.Recipients) != 2 {
		t.Fatalf("Recipients = %v, want 2 entries", plan.Recipients)
	}
	want := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	if !plan.SendAt.Equal(want) {
		t.Errorf("SendAt = %v, want %v", plan.SendAt, want)
	}

	g := validReportGrid()
	g.Rows[0][17] = ""
	plan, err = reader.ReadNotification(g)
	if err != nil {
		t.Fatalf("ReadNotification without schedule: %v", err)
	}
	if !plan.SendAt.IsZero() {
		t.Errorf("SendAt = %v, want zero for immediate delivery", plan.SendAt)
	}

	g = validReportGrid()
	g.Rows[0][17] = "ayer"
	if _, err := reader.ReadNotification(g); !isFormatError(err) {
		t.Errorf("ReadNotification with bad send time: error = %v, want FormatError", err)
	}
}

func TestParseYesNo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want bool
	}{
		{"SI", true},
		{"si", true},
		{"Si", true},
		{" Si ", true},
		{"NO", false},
		{"no", false},
		{" nO ", false},
	}
	for _, tt := range tests {
		got, err := parseYesNo("campo", tt.raw)
		if err != nil {
			t.Errorf("parseYesNo(%q): %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseYesNo(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}

	// Anything that is not an SI/NO answer is a validation failure, accented
	// variants included.
	for _, raw := range []string{"", "Sí", "sí", "yes", "N0", "SI NO"} {
		if _, err := parseYesNo("campo", raw); !isValidationError(err) {
			t.Errorf("parseYesNo(%q): error = %v, want ValidationError", raw, err)
		}
	}
}

func isFormatError(err error) bool {
	var fe *models.FormatError
	return errors.As(err, &fe)
}

func isValidationError(err error) bool {
	var ve *models.ValidationError
	return errors.As(err, &ve)
}
