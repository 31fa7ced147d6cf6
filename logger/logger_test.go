package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, buf, "batch-test")
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.Service() != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.Service())
	}
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "debug").WithComponent("transport")

	l.Info("batch submitted", Fields(FieldBatchID, "b-1", FieldNodes, 3))

	line := decodeLine(t, &buf)
	if line["message"] != "batch submitted" {
		t.Errorf("unexpected message %v", line["message"])
	}
	if line[FieldComponent] != "transport" {
		t.Errorf("expected component=transport, got %v", line[FieldComponent])
	}
	if line[FieldBatchID] != "b-1" {
		t.Errorf("expected batch_id=b-1, got %v", line[FieldBatchID])
	}
	if line[FieldService] != "batch-test" {
		t.Errorf("expected service tag, got %v", line[FieldService])
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "warn")

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}

	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn line, got %q", buf.String())
	}
}

func TestLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "chatty")

	l.Debug("hidden")
	l.Info("visible")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected info level fallback, got %q", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info").WithFields(map[string]interface{}{FieldNodeID: "2"})

	l.Error("node failed", ErrorFields("invoke", errors.New("boom")))

	line := decodeLine(t, &buf)
	if line[FieldNodeID] != "2" || line[FieldError] != "boom" {
		t.Errorf("unexpected fields %v", line)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("nothing")
	l.WithComponent("x").Error("still nothing")
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	cfg.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFieldsHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("odd trailing key must be ignored, got %v", f)
	}

	d := WithDuration(nil, 1500*time.Millisecond)
	if d[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", d[FieldDuration])
	}
}
