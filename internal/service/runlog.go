package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"lidar_maintenance/internal/logger"
	"lidar_maintenance/internal/models"
	"lidar_maintenance/internal/repository"
)

var errInvalidTimeRange = errors.New("from must not be after to")

// RunEventFilter narrows an audit query. Zero fields are ignored.
type RunEventFilter struct {
	RunID string
	From  time.Time
	To    time.Time
	Stage string
}

var validStages = map[string]struct{}{
	models.StageRead:     {},
	models.StageClassify: {},
	models.StageLocate:   {},
	models.StageUpdate:   {},
	models.StageNotify:   {},
	models.StageError:    {},
}

// RunLogService reads the audit trail out of the run store.
type RunLogService struct {
	runs repository.RunStore
	log  *logger.Logger
}

func NewRunLogService(runs repository.RunStore, log *logger.Logger) *RunLogService {
	return &RunLogService{runs: runs, log: log}
}

func (s *RunLogService) Runs(ctx context.Context) ([]models.Run, error) {
	return s.runs.ListRuns(ctx)
}

func (s *RunLogService) Events(ctx context.Context, f RunEventFilter) ([]models.RunEvent, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return nil, errInvalidTimeRange
	}
	stage := strings.ToUpper(strings.TrimSpace(f.Stage))
	if stage != "" {
		if _, ok := validStages[stage]; !ok {
			return nil, &models.ValidationError{Field: "stage", Value: f.Stage, Reason: "unknown stage"}
		}
	}
	return s.runs.ListEvents(ctx, f.RunID, f.From, f.To, stage)
}

// Latest returns the most recent run with its events, or (nil, nil, nil)
// when nothing has run yet.
func (s *RunLogService) Latest(ctx context.Context) (*models.Run, []models.RunEvent, error) {
	run, err := s.runs.LatestRun(ctx)
	if err != nil || run == nil {
		return nil, nil, err
	}
	events, err := s.runs.ListEvents(ctx, run.ID, time.Time{}, time.Time{}, "")
	if err != nil {
		return nil, nil, err
	}
	return run, events, nil
}
