package service

import (
	"context"
	"time"

	"lidar_maintenance/internal/artifact"
	"lidar_maintenance/internal/config"
	"lidar_maintenance/internal/logger"
	"lidar_maintenance/internal/models"
	"lidar_maintenance/internal/notify"
	"lidar_maintenance/internal/repository"
)

// ReportProcessor runs a maintenance report end to end: read, classify,
// locate, update the tracking artifacts and schedule the notification.
type ReportProcessor interface {
	Process(ctx context.Context, req ProcessRequest) (*models.RunSummary, error)
}

// RunLog exposes the audit trail of past processing runs.
type RunLog interface {
	Runs(ctx context.Context) ([]models.Run, error)
	Events(ctx context.Context, f RunEventFilter) ([]models.RunEvent, error)
	Latest(ctx context.Context) (*models.Run, []models.RunEvent, error)
}

// Authorization manages users and JWT tokens for the HTTP mode.
type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(token string) (int, error)
}

// Service aggregates every application service behind one value.
type Service struct {
	Processor     ReportProcessor
	RunLog        RunLog
	Authorization Authorization
}

// Deps carries everything the services need to be built.
type Deps struct {
	Artifacts config.Artifacts
	Auth      config.Auth
	Master    artifact.MasterStore
	History   artifact.HistoryStore
	Mailer    notify.Mailer
	CC        []string
	Repos     *repository.Repository
	Log       *logger.Logger
}

func NewService(d Deps) *Service {
	reader := NewRecordReader(d.Log)
	classifier := NewClassifier(d.Log)
	updaters := NewUpdaters(d.Master, d.History, d.Log)
	notifier := NewNotifier(d.Mailer, d.CC, d.Log)

	return &Service{
		Processor: NewPipeline(PipelineDeps{
			ReportSheet: d.Artifacts.ReportSheet,
			Master:      d.Master,
			History:     d.History,
			Reader:      reader,
			Classifier:  classifier,
			Updaters:    updaters,
			Notifier:    notifier,
			Runs:        d.Repos.Runs,
			Log:         d.Log,
		}),
		RunLog:        NewRunLogService(d.Repos.Runs, d.Log),
		Authorization: NewAuthService(d.Repos.Auth, d.Auth.SigningKey, time.Duration(d.Auth.TokenTTLMins)*time.Minute),
	}
}
