package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"lidar_maintenance/internal/logger"
)

func newTestHandler(p *mockProcessor, rl *mockRunLog, a *mockAuth) *Handler {
	gin.SetMode(gin.TestMode)
	return NewHandler(newMockService(p, rl, a), logger.Get(logger.ErrorLevel))
}

func TestUserIdMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no token after scheme",
			authHeader: "Bearer",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty token after scheme",
			authHeader: "Bearer ",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bad token",
			authHeader: "Bearer garbage",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token",
			authHeader: "Bearer valid-token",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newTestHandler(nil, nil, nil)
			router := h.InitRoutes()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestUserIdMiddlewareStoresUserId(t *testing.T) {
	t.Parallel()

	auth := &mockAuth{ParseTokenFn: func(token string) (int, error) {
		if token != "t-42" {
			t.Fatalf("ParseToken got %q", token)
		}
		return 42, nil
	}}
	h := newTestHandler(nil, nil, auth)

	router := gin.New()
	var gotUserId int
	router.GET("/probe", h.userIdMiddleware, func(c *gin.Context) {
		gotUserId = c.GetInt("userId")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer t-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if gotUserId != 42 {
		t.Fatalf("userId = %d, want 42", gotUserId)
	}
}
