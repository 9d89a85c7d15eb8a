package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		in   string
		want LogFormat
	}{
		{"json", LogFormatJSON},
		{"JSON", LogFormatJSON},
		{"text", LogFormatText},
		{"pretty", LogFormatPretty},
		{"", LogFormatPretty},
		{"bogus", LogFormatPretty},
	}
	for _, tt := range tests {
		if got := ParseLogFormat(tt.in); got != tt.want {
			t.Errorf("ParseLogFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, LogFormatJSON, slog.LevelInfo))

	log.Debug("hidden")
	log.Info("article created", "category", "article", "id", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "article created" || entry["category"] != "article" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewHandlerPretty(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, LogFormatPretty, slog.LevelDebug))

	log.Debug("article viewed", "article", "Foo")

	out := buf.String()
	if !strings.Contains(out, "article viewed") || !strings.Contains(out, "article=Foo") {
		t.Errorf("unexpected pretty output: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no color codes when not writing to stderr: %q", out)
	}
}
