package handlers

import (
	"context"
	"errors"

	"lidar_maintenance/internal/models"
	"lidar_maintenance/internal/service"
)

// Hand-written service mocks for handler tests. Each field overrides one
// method; unset methods fall back to a benign default.

type mockProcessor struct {
	ProcessFn func(ctx context.Context, req service.ProcessRequest) (*models.RunSummary, error)
	LastReq   service.ProcessRequest
}

func (m *mockProcessor) Process(ctx context.Context, req service.ProcessRequest) (*models.RunSummary, error) {
	m.LastReq = req
	if m.ProcessFn != nil {
		return m.ProcessFn(ctx, req)
	}
	return &models.RunSummary{RunID: "run-1"}, nil
}

type mockRunLog struct {
	RunsFn   func(ctx context.Context) ([]models.Run, error)
	EventsFn func(ctx context.Context, f service.RunEventFilter) ([]models.RunEvent, error)
	LatestFn func(ctx context.Context) (*models.Run, []models.RunEvent, error)
}

func (m *mockRunLog) Runs(ctx context.Context) ([]models.Run, error) {
	if m.RunsFn != nil {
		return m.RunsFn(ctx)
	}
	return nil, nil
}

func (m *mockRunLog) Events(ctx context.Context, f service.RunEventFilter) ([]models.RunEvent, error) {
	if m.EventsFn != nil {
		return m.EventsFn(ctx, f)
	}
	return nil, nil
}

func (m *mockRunLog) Latest(ctx context.Context) (*models.Run, []models.RunEvent, error) {
	if m.LatestFn != nil {
		return m.LatestFn(ctx)
	}
	return nil, nil, nil
}

type mockAuth struct {
	SignUpFn        func(ctx context.Context, username, password string) (int, error)
	GenerateTokenFn func(ctx context.Context, username, password string) (string, error)
	ParseTokenFn    func(token string) (int, error)
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	if m.SignUpFn != nil {
		return m.SignUpFn(ctx, username, password)
	}
	return 1, nil
}

func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, username, password)
	}
	return "token", nil
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	if m.ParseTokenFn != nil {
		return m.ParseTokenFn(token)
	}
	if token != "valid-token" {
		return 0, errors.New("invalid token")
	}
	return 1, nil
}

func newMockService(p *mockProcessor, rl *mockRunLog, a *mockAuth) *service.Service {
	if p == nil {
		p = &mockProcessor{}
	}
	if rl == nil {
		rl = &mockRunLog{}
	}
	if a == nil {
		a = &mockAuth{}
	}
	return &service.Service{Processor: p, RunLog: rl, Authorization: a}
}
