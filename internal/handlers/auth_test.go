package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lidar_maintenance/internal/service"
)

func TestSignUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		signUpFn   func(ctx context.Context, username, password string) (int, error)
		wantStatus int
		wantBody   string
	}{
		{
			name: "created",
			body: `{"username":"ops","password":"secret"}`,
			signUpFn: func(_ context.Context, username, password string) (int, error) {
				if username != "ops" || password != "secret" {
					t.Fatalf("SignUp got %q/%q", username, password)
				}
				return 7, nil
			},
			wantStatus: http.StatusOK,
			wantBody:   `"id":7`,
		},
		{
			name:       "missing password",
			body:       `{"username":"ops"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"username":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate user",
			body: `{"username":"ops","password":"secret"}`,
			signUpFn: func(context.Context, string, string) (int, error) {
				return 0, service.ErrUserExists
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   service.ErrUserExists.Error(),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newTestHandler(nil, nil, &mockAuth{SignUpFn: tt.signUpFn})
			router := h.InitRoutes()

			req := httptest.NewRequest(http.MethodPost, "/auth/sign-up", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Fatalf("body %s does not contain %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	t.Parallel()

	t.Run("returns token", func(t *testing.T) {
		t.Parallel()

		auth := &mockAuth{GenerateTokenFn: func(_ context.Context, username, password string) (string, error) {
			if username != "ops" || password != "secret" {
				t.Fatalf("GenerateToken got %q/%q", username, password)
			}
			return "jwt-token", nil
		}}
		h := newTestHandler(nil, nil, auth)
		router := h.InitRoutes()

		req := httptest.NewRequest(http.MethodPost, "/auth/sign-in",
			strings.NewReader(`{"username":"ops","password":"secret"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp["token"] != "jwt-token" {
			t.Fatalf("token = %q, want jwt-token", resp["token"])
		}
	})

	t.Run("bad credentials do not leak the cause", func(t *testing.T) {
		t.Parallel()

		auth := &mockAuth{GenerateTokenFn: func(context.Context, string, string) (string, error) {
			return "", errors.New("user not found in table users")
		}}
		h := newTestHandler(nil, nil, auth)
		router := h.InitRoutes()

		req := httptest.NewRequest(http.MethodPost, "/auth/sign-in",
			strings.NewReader(`{"username":"ops","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if strings.Contains(w.Body.String(), "table users") {
			t.Fatalf("response leaked internal error: %s", w.Body.String())
		}
	})
}
