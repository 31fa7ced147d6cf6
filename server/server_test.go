package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/gobatch/component"
	apperrors "github.com/kbukum/gobatch/errors"
	"github.com/kbukum/gobatch/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 7},
		{"512", 512},
		{"512B", 512},
		{"1KB", 1024},
		{"10mb", 10 * 1024 * 1024},
		{" 2GB ", 2 * 1024 * 1024 * 1024},
		{"lots", 7},
		{"-1KB", 7},
	}
	for _, tt := range tests {
		if got := ParseSize(tt.in, 7); got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.MaxBodySize != "10MB" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected port error")
	}
	cfg.Port = 8080
	cfg.MaxBodySize = "huge"
	if err := cfg.Validate(); err == nil {
		t.Error("expected max_body_size error")
	}
}

func TestServer_DefaultEndpoints(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	s := New(cfg, logger.Nop())

	checker := func(context.Context) []component.Health {
		return []component.Health{{Name: "store", Status: component.StatusUnhealthy, Message: "down"}}
	}
	s.ApplyDefaults("gobatch", checker, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	}))

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("/health with an unhealthy component: expected 503, got %d", w.Code)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("request id middleware should be applied")
	}

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || w.Body.String() != "# metrics" {
		t.Errorf("/metrics: got %d %q", w.Code, w.Body.String())
	}
}

func TestServer_RecoversPanics(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	s := New(cfg, logger.Nop())
	s.ApplyMiddleware()
	s.GinEngine().GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp apperrors.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != apperrors.ErrCodeInternal {
		t.Errorf("expected %s, got %s", apperrors.ErrCodeInternal, resp.Error.Code)
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{"app error", apperrors.CyclicDependency([]string{"A", "B"}), http.StatusBadRequest, apperrors.ErrCodeCyclicDependency},
		{"wrapped app error", fmt.Errorf("submit: %w", apperrors.Unavailable("batch endpoint")), http.StatusServiceUnavailable, apperrors.ErrCodeUnavailable},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			RespondWithError(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			var resp apperrors.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("expected %s, got %s", tt.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestComponent_Health(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 18090}
	cfg.ApplyDefaults()
	sc := NewComponent(New(cfg, logger.Nop()))

	if h := sc.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before Start, got %s", h.Status)
	}
	if err := sc.Start(context.Background()); err != nil {
		t.Skipf("port unavailable: %v", err)
	}
	defer func() { _ = sc.Stop(context.Background()) }()

	if h := sc.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after Start, got %s", h.Status)
	}
	if d := sc.Describe(); d.Type != "server" {
		t.Errorf("unexpected description %+v", d)
	}
}
