package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"lidar_maintenance/internal/artifact"
	"lidar_maintenance/internal/logger"
	"lidar_maintenance/internal/models"
	"lidar_maintenance/internal/notify"
	"lidar_maintenance/internal/prompt"
	"lidar_maintenance/internal/repository"
)

// ProcessRequest is one report to run through the pipeline. The Confirmer
// decides what happens when the report names an unknown device or location:
// console prompts in one-shot mode, a fixed policy in server mode.
type ProcessRequest struct {
	ReportPath string
	Confirmer  prompt.Confirmer
}

// PipelineDeps wires a Pipeline.
type PipelineDeps struct {
	ReportSheet string
	Master      artifact.MasterStore
	History     artifact.HistoryStore
	Reader      *RecordReader
	Classifier  *Classifier
	Updaters    *Updaters
	Notifier    *Notifier
	Runs        repository.RunStore
	Log         *logger.Logger
}

// Pipeline runs one report end to end. The tracking artifacts are shared
// files, so runs are serialized behind a mutex.
type Pipeline struct {
	reportSheet string
	master      artifact.MasterStore
	history     artifact.HistoryStore
	reader      *RecordReader
	classifier  *Classifier
	updaters    *Updaters
	notifier    *Notifier
	runs        repository.RunStore
	log         *logger.Logger

	mu sync.Mutex
}

func NewPipeline(d PipelineDeps) *Pipeline {
	return &Pipeline{
		reportSheet: d.ReportSheet,
		master:      d.Master,
		history:     d.History,
		reader:      d.Reader,
		classifier:  d.Classifier,
		updaters:    d.Updaters,
		notifier:    d.Notifier,
		runs:        d.Runs,
		log:         d.Log,
	}
}

func (p *Pipeline) Process(ctx context.Context, req ProcessRequest) (*models.RunSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	run := models.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Status:    models.RunStatusRunning,
	}
	if err := p.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create audit run: %w", err)
	}

	summary, err := p.process(ctx, req, run.ID)
	if err != nil {
		status := models.RunStatusFailed
		if errors.Is(err, ErrDuplicateVisit) || errors.Is(err, models.ErrCancelled) {
			status = models.RunStatusAborted
		}
		p.event(ctx, run.ID, models.StageError, err.Error())
		p.finish(ctx, run.ID, status, err.Error())
		return nil, err
	}

	p.finish(ctx, run.ID, models.RunStatusOK, "")
	return summary, nil
}

func (p *Pipeline) process(ctx context.Context, req ProcessRequest, runID string) (*models.RunSummary, error) {
	// Fail before touching anything if the master is not writable.
	if err := p.master.CheckWritable(); err != nil {
		return nil, err
	}

	grid, err := artifact.NewSource(req.ReportPath, p.reportSheet).Load()
	if err != nil {
		return nil, err
	}
	rec, err := p.reader.Read(grid)
	if err != nil {
		return nil, err
	}
	plan, err := p.reader.ReadNotification(grid)
	if err != nil {
		return nil, err
	}
	if err := p.runs.SetRunDevice(ctx, runID, rec.DeviceID, rec.Location); err != nil {
		p.log.Errorf("audit: set run device: %v", err)
	}
	p.event(ctx, runID, models.StageRead, fmt.Sprintf("report read: device %s at %s, visit %s",
		rec.DeviceID, rec.Location, rec.VisitDate.Format(cellDateFormat)))

	incidents, err := p.classifier.Classify(rec)
	if err != nil {
		return nil, err
	}
	errTags := models.ErrorTags(incidents)
	p.event(ctx, runID, models.StageClassify,
		fmt.Sprintf("%d incidents, %d errors", len(incidents), len(errTags)))

	locator := NewRowLocator(p.master, p.history, req.Confirmer, p.log)
	histRow, err := locator.Locate(rec)
	if err != nil {
		return nil, err
	}
	p.event(ctx, runID, models.StageLocate, fmt.Sprintf("history row %d", histRow))

	// The date updater runs first: it is the duplicate gate.
	steps := []struct {
		name string
		fn   func() error
	}{
		{"date", func() error { return p.updaters.UpdateDate(rec, histRow) }},
		{"comment", func() error { return p.updaters.UpdateComment(rec, histRow) }},
		{"operators", func() error { return p.updaters.UpdateOperators(rec, histRow) }},
		{"methanol", func() error { return p.updaters.UpdateMethanol(rec, incidents, histRow) }},
		{"fluid", func() error { return p.updaters.UpdateFluid(rec, incidents, histRow) }},
		{"filters", func() error { return p.updaters.UpdateFilters(rec, incidents, histRow) }},
		{"brush", func() error { return p.updaters.UpdateBrush(rec, incidents, histRow) }},
		{"pump", func() error { return p.updaters.UpdatePump(rec, incidents, histRow) }},
		{"extinguisher", func() error { return p.updaters.UpdateExtinguisher(rec, incidents, histRow) }},
		{"data window", func() error { return p.updaters.UpdateDataWindow(rec, incidents, histRow) }},
		{"batteries", func() error { return p.updaters.UpdateBatteries(rec, incidents, histRow) }},
		{"sensors", func() error { return p.updaters.UpdateSensors(rec, incidents, histRow) }},
		{"incidents", func() error { return p.updaters.UpdateIncidents(rec, incidents, histRow) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return nil, fmt.Errorf("update %s: %w", step.name, err)
		}
		p.event(ctx, runID, models.StageUpdate, step.name)
	}

	if err := p.updaters.StampUpdated(time.Now()); err != nil {
		return nil, err
	}

	attachments, err := p.buildAttachments(req.ReportPath, rec, incidents)
	if err != nil {
		return nil, err
	}
	if err := p.notifier.Notify(ctx, rec, incidents, plan, attachments); err != nil {
		return nil, err
	}
	p.event(ctx, runID, models.StageNotify, fmt.Sprintf("mail scheduled to %d recipients", len(plan.Recipients)))

	allTags := make([]models.IncidentTag, 0, len(incidents))
	for _, inc := range incidents {
		allTags = append(allTags, inc.Tag())
	}
	return &models.RunSummary{
		RunID:     runID,
		DeviceID:  rec.DeviceID,
		Location:  rec.Location,
		VisitDate: rec.VisitDate,
		Incidents: allTags,
		Errors:    errTags,
	}, nil
}

func (p *Pipeline) buildAttachments(reportPath string, rec *models.MaintenanceRecord, incidents []models.Incident) ([]notify.Attachment, error) {
	report, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("read report for attachment: %w", err)
	}
	pdf, err := notify.BuildVisitSummaryPDF(rec, incidents)
	if err != nil {
		return nil, err
	}
	return []notify.Attachment{
		{Filename: filepath.Base(reportPath), Content: report},
		{Filename: fmt.Sprintf("resumen_%s.pdf", rec.DeviceID), Content: pdf},
	}, nil
}

// event and finish are best-effort audit writes: a failing audit log must
// not fail the run itself.
func (p *Pipeline) event(ctx context.Context, runID, stage, message string) {
	err := p.runs.AppendEvent(ctx, models.RunEvent{RunID: runID, Stage: stage, Message: message})
	if err != nil {
		p.log.Errorf("audit: append %s event: %v", stage, err)
	}
}

func (p *Pipeline) finish(ctx context.Context, runID, status, errMsg string) {
	if err := p.runs.FinishRun(ctx, runID, status, errMsg, time.Now().UTC()); err != nil {
		p.log.Errorf("audit: finish run %s: %v", runID, err)
	}
}
