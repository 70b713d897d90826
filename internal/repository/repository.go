package repository

import (
	"context"
	"database/sql"
	"time"

	"lidar_maintenance/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// RunStore persists the processing audit log: one row per run plus the
// per-stage events attached to it.
type RunStore interface {
	CreateRun(ctx context.Context, r models.Run) error
	FinishRun(ctx context.Context, id, status, errMsg string, finishedAt time.Time) error
	SetRunDevice(ctx context.Context, id, deviceID, location string) error
	ListRuns(ctx context.Context) ([]models.Run, error)
	LatestRun(ctx context.Context) (*models.Run, error)
	AppendEvent(ctx context.Context, e models.RunEvent) error
	ListEvents(ctx context.Context, runID string, from, to time.Time, stage string) ([]models.RunEvent, error)
}

type Repository struct {
	Runs RunStore
	Auth Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Runs: NewRunSQLite(db),
		Auth: NewUserSQLite(db),
	}
}
