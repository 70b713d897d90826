package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"lidar_maintenance/internal/models"
)

// sqliteTimeFormat is the TIMESTAMP layout SQLite understands natively.
const sqliteTimeFormat = "2006-01-02 15:04:05"

type RunSQLite struct {
	db *sql.DB
}

func NewRunSQLite(db *sql.DB) *RunSQLite { return &RunSQLite{db: db} }

var _ RunStore = (*RunSQLite)(nil)

const (
	insertRunSQL = `
		INSERT INTO runs (id, started_at, status, device_id, location, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	finishRunSQL    = `UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`
	setRunDeviceSQL = `UPDATE runs SET device_id = ?, location = ? WHERE id = ?`
	selectRunsSQL   = `
		SELECT id, started_at, finished_at, status, device_id, location, error
		FROM runs
	`
	insertRunEventSQL = `
		INSERT INTO run_events (id, run_id, occurred_at, stage, message)
		VALUES (?, ?, ?, ?, ?)
	`
)

// CreateRun inserts a new run. A zero ID or StartedAt is filled in.
func (r *RunSQLite) CreateRun(ctx context.Context, run models.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = models.RunStatusRunning
	}
	_, err := r.db.ExecContext(ctx, insertRunSQL,
		run.ID,
		run.StartedAt.UTC().Format(sqliteTimeFormat),
		run.Status,
		run.DeviceID,
		run.Location,
		run.Error,
	)
	return err
}

func (r *RunSQLite) FinishRun(ctx context.Context, id, status, errMsg string, finishedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, finishRunSQL,
		status, errMsg, finishedAt.UTC().Format(sqliteTimeFormat), id)
	return err
}

func (r *RunSQLite) SetRunDevice(ctx context.Context, id, deviceID, location string) error {
	_, err := r.db.ExecContext(ctx, setRunDeviceSQL, deviceID, location, id)
	return err
}

func (r *RunSQLite) ListRuns(ctx context.Context) ([]models.Run, error) {
	rows, err := r.db.QueryContext(ctx, selectRunsSQL+" ORDER BY started_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Run, 0, 32)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// LatestRun returns the most recently started run, or nil when the log is
// empty.
func (r *RunSQLite) LatestRun(ctx context.Context) (*models.Run, error) {
	row := r.db.QueryRowContext(ctx, selectRunsSQL+" ORDER BY started_at DESC LIMIT 1")
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// AppendEvent inserts an audit event. If EventID or OccurredAt are empty,
// they are set.
func (r *RunSQLite) AppendEvent(ctx context.Context, e models.RunEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, insertRunEventSQL,
		e.EventID,
		e.RunID,
		e.OccurredAt.UTC().Format(sqliteTimeFormat),
		strings.ToUpper(strings.TrimSpace(e.Stage)),
		e.Message,
	)
	return err
}

// ListEvents returns events filtered by run, [from, to] (inclusive) and
// stage, ordered ascending.
func (r *RunSQLite) ListEvents(ctx context.Context, runID string, from, to time.Time, stage string) ([]models.RunEvent, error) {
	var (
		conds []string
		args  []any
	)
	if runID != "" {
		conds = append(conds, "run_id = ?")
		args = append(args, runID)
	}
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeFormat))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeFormat))
	}
	if stage = strings.ToUpper(strings.TrimSpace(stage)); stage != "" {
		conds = append(conds, "stage = ?")
		args = append(args, stage)
	}

	q := `SELECT id, run_id, occurred_at, stage, message FROM run_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.RunEvent, 0, 64)
	for rows.Next() {
		var ev models.RunEvent
		if err := rows.Scan(&ev.EventID, &ev.RunID, &ev.OccurredAt, &ev.Stage, &ev.Message); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (models.Run, error) {
	var (
		run      models.Run
		finished sql.NullTime
		device   sql.NullString
		location sql.NullString
		errMsg   sql.NullString
	)
	if err := row.Scan(&run.ID, &run.StartedAt, &finished, &run.Status, &device, &location, &errMsg); err != nil {
		return models.Run{}, err
	}
	run.StartedAt = run.StartedAt.UTC()
	if finished.Valid {
		t := finished.Time.UTC()
		run.FinishedAt = &t
	}
	run.DeviceID = device.String
	run.Location = location.String
	run.Error = errMsg.String
	return run, nil
}
