package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	logger := NewSlogLoggerWith(slog.New(handler))

	logger.Info("call_started", "call_id", "CA123")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v (output: %s)", err, buf.String())
	}
	if record["msg"] != "call_started" {
		t.Errorf("expected msg 'call_started', got %v", record["msg"])
	}
	if record["call_id"] != "CA123" {
		t.Errorf("expected call_id 'CA123', got %v", record["call_id"])
	}
}

func TestSlogLoggerWithCallIDAttachesField(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	logger := NewSlogLoggerWith(slog.New(handler)).WithCallID("CA456")

	logger.Warn("barge_in")

	if !strings.Contains(buf.String(), `"call_id":"CA456"`) {
		t.Errorf("expected bound call_id in output, got %s", buf.String())
	}
}
