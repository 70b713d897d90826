package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"lidar_maintenance/internal/artifact"
	"lidar_maintenance/internal/models"
	"lidar_maintenance/internal/prompt"
)

// writeReportFile renders the grid into a real workbook, the shape the
// field crews upload.
func writeReportFile(t *testing.T, grid *artifact.Grid) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Hoja1"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	writeRow := func(row int, cells []string) {
		for col, v := range cells {
			if v == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, axis, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	writeRow(1, grid.Headers)
	for i, row := range grid.Rows {
		writeRow(i+2, row)
	}

	path := filepath.Join(t.TempDir(), "informe.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save report: %v", err)
	}
	return path
}

func newTestPipeline(master *fakeMaster, history *fakeHistory, runs *fakeRunStore, mailer *fakeMailer) *Pipeline {
	log := testLogger()
	return NewPipeline(PipelineDeps{
		ReportSheet: "Hoja1",
		Master:      master,
		History:     history,
		Reader:      NewRecordReader(log),
		Classifier:  NewClassifier(log),
		Updaters:    NewUpdaters(master, history, log),
		Notifier:    NewNotifier(mailer, nil, log),
		Runs:        runs,
		Log:         log,
	})
}

func TestPipelineProcess(t *testing.T) {
	t.Parallel()

	reportPath := writeReportFile(t, validReportGrid())

	master := newFakeMaster()
	master.addDevice("WLS866-101", date(2024, 1, 10))
	history := newFakeHistory()
	history.addSheet("WLS866-101", "Parque Norte")
	history.sheet("WLS866-101", "Parque Norte")[[2]int{5, 1}] = "WLS866-101"
	runs := &fakeRunStore{}
	mailer := &fakeMailer{}

	p := newTestPipeline(master, history, runs, mailer)
	summary, err := p.Process(context.Background(), ProcessRequest{
		ReportPath: reportPath,
		Confirmer:  prompt.Policy{},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if summary.DeviceID != "WLS866-101" || summary.Location != "Parque Norte" {
		t.Errorf("summary identity = %s/%s", summary.DeviceID, summary.Location)
	}
	if len(runs.runs) != 1 || runs.runs[0].Status != models.RunStatusOK {
		t.Fatalf("runs = %+v, want one OK run", runs.runs)
	}
	if runs.runs[0].DeviceID != "WLS866-101" {
		t.Errorf("run device = %q", runs.runs[0].DeviceID)
	}

	// One mail, with the report and the PDF summary attached.
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if len(msg.Attachments) != 2 {
		t.Fatalf("attachments = %d, want report plus pdf", len(msg.Attachments))
	}
	if !strings.HasPrefix(string(msg.Attachments[1].Content), "%PDF") {
		t.Error("second attachment is not a PDF")
	}

	// Visit landed in the history row below the previous one.
	if got := cell(history, "WLS866-101", "Parque Norte", 6, artifact.HistColVisitDate); got != "15/03/2024" {
		t.Errorf("history visit cell = %q", got)
	}
	if master.stamped.IsZero() {
		t.Error("master update stamp not written")
	}

	stages := map[string]bool{}
	for _, e := range runs.events {
		stages[e.Stage] = true
	}
	for _, want := range []string{models.StageRead, models.StageClassify, models.StageLocate, models.StageUpdate, models.StageNotify} {
		if !stages[want] {
			t.Errorf("missing %s audit event", want)
		}
	}
}

func TestPipelineDuplicateVisitAborts(t *testing.T) {
	t.Parallel()

	reportPath := writeReportFile(t, validReportGrid())

	master := newFakeMaster()
	master.addDevice("WLS866-101", date(2024, 3, 15)) // same visit date as the report
	history := newFakeHistory()
	history.addSheet("WLS866-101", "Parque Norte")
	history.sheet("WLS866-101", "Parque Norte")[[2]int{5, 1}] = "WLS866-101"
	runs := &fakeRunStore{}
	mailer := &fakeMailer{}

	p := newTestPipeline(master, history, runs, mailer)
	_, err := p.Process(context.Background(), ProcessRequest{ReportPath: reportPath, Confirmer: prompt.Policy{}})
	if !errors.Is(err, ErrDuplicateVisit) {
		t.Fatalf("Process: error = %v, want ErrDuplicateVisit", err)
	}

	if len(runs.runs) != 1 || runs.runs[0].Status != models.RunStatusAborted {
		t.Errorf("runs = %+v, want one ABORTED run", runs.runs)
	}
	if len(mailer.sent) != 0 {
		t.Error("mail sent despite aborted run")
	}
	if len(history.deleted) != 1 {
		t.Errorf("history rollback = %v, want the allocated row deleted", history.deleted)
	}
}

func TestPipelineLockedMasterFails(t *testing.T) {
	t.Parallel()

	reportPath := writeReportFile(t, validReportGrid())
	master := newFakeMaster()
	master.writable = false
	runs := &fakeRunStore{}

	p := newTestPipeline(master, newFakeHistory(), runs, &fakeMailer{})
	_, err := p.Process(context.Background(), ProcessRequest{ReportPath: reportPath, Confirmer: prompt.Policy{}})
	if !errors.Is(err, models.ErrConcurrentAccess) {
		t.Fatalf("Process: error = %v, want ErrConcurrentAccess", err)
	}
	if len(runs.runs) != 1 || runs.runs[0].Status != models.RunStatusFailed {
		t.Errorf("runs = %+v, want one FAILED run", runs.runs)
	}
}
