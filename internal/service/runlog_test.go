package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lidar_maintenance/internal/models"
)

// fakeRunStore records calls in memory; filtering mirrors the SQL store.
type fakeRunStore struct {
	runs   []models.Run
	events []models.RunEvent
}

func (s *fakeRunStore) CreateRun(_ context.Context, r models.Run) error {
	s.runs = append(s.runs, r)
	return nil
}

func (s *fakeRunStore) FinishRun(_ context.Context, id, status, errMsg string, finishedAt time.Time) error {
	for i := range s.runs {
		if s.runs[i].ID == id {
			s.runs[i].Status = status
			s.runs[i].Error = errMsg
			t := finishedAt
			s.runs[i].FinishedAt = &t
		}
	}
	return nil
}

func (s *fakeRunStore) SetRunDevice(_ context.Context, id, deviceID, location string) error {
	for i := range s.runs {
		if s.runs[i].ID == id {
			s.runs[i].DeviceID = deviceID
			s.runs[i].Location = location
		}
	}
	return nil
}

func (s *fakeRunStore) ListRuns(context.Context) ([]models.Run, error) {
	return s.runs, nil
}

func (s *fakeRunStore) LatestRun(context.Context) (*models.Run, error) {
	if len(s.runs) == 0 {
		return nil, nil
	}
	r := s.runs[len(s.runs)-1]
	return &r, nil
}

func (s *fakeRunStore) AppendEvent(_ context.Context, e models.RunEvent) error {
	s.events = append(s.events, e)
	return nil
}

func (s *fakeRunStore) ListEvents(_ context.Context, runID string, from, to time.Time, stage string) ([]models.RunEvent, error) {
	var out []models.RunEvent
	for _, e := range s.events {
		if runID != "" && e.RunID != runID {
			continue
		}
		if stage != "" && e.Stage != stage {
			continue
		}
		if !from.IsZero() && e.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.OccurredAt.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func TestRunLogEventsFilterValidation(t *testing.T) {
	t.Parallel()
	svc := NewRunLogService(&fakeRunStore{}, testLogger())

	_, err := svc.Events(context.Background(), RunEventFilter{
		From: date(2024, 3, 2),
		To:   date(2024, 3, 1),
	})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Errorf("inverted range: error = %v, want errInvalidTimeRange", err)
	}

	if _, err := svc.Events(context.Background(), RunEventFilter{Stage: "SMELT"}); !isValidationError(err) {
		t.Errorf("unknown stage: error = %v, want ValidationError", err)
	}
}

func TestRunLogEventsStageNormalized(t *testing.T) {
	t.Parallel()

	store := &fakeRunStore{events: []models.RunEvent{
		{RunID: "r1", Stage: models.StageRead, OccurredAt: date(2024, 3, 1)},
		{RunID: "r1", Stage: models.StageNotify, OccurredAt: date(2024, 3, 1)},
	}}
	svc := NewRunLogService(store, testLogger())

	events, err := svc.Events(context.Background(), RunEventFilter{Stage: " read "})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 1 || events[0].Stage != models.StageRead {
		t.Errorf("events = %v, want the single READ event", events)
	}
}

func TestRunLogLatest(t *testing.T) {
	t.Parallel()

	store := &fakeRunStore{}
	svc := NewRunLogService(store, testLogger())

	run, events, err := svc.Latest(context.Background())
	if err != nil || run != nil || events != nil {
		t.Fatalf("Latest on empty log = (%v, %v, %v), want all nil", run, events, err)
	}

	_ = store.CreateRun(context.Background(), models.Run{ID: "r1", Status: models.RunStatusOK})
	_ = store.AppendEvent(context.Background(), models.RunEvent{RunID: "r1", Stage: models.StageRead})

	run, events, err = svc.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if run == nil || run.ID != "r1" || len(events) != 1 {
		t.Errorf("Latest = (%+v, %v), want run r1 with one event", run, events)
	}
}
