package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logFunc   func(*slog.Logger)
		shouldLog bool
	}{
		{
			name:      "debug level logs debug",
			level:     "debug",
			logFunc:   func(l *slog.Logger) { l.Debug("test message") },
			shouldLog: true,
		},
		{
			name:      "info level skips debug",
			level:     "info",
			logFunc:   func(l *slog.Logger) { l.Debug("test message") },
			shouldLog: false,
		},
		{
			name:      "info level logs info",
			level:     "info",
			logFunc:   func(l *slog.Logger) { l.Info("test message") },
			shouldLog: true,
		},
		{
			name:      "warn level skips info",
			level:     "warn",
			logFunc:   func(l *slog.Logger) { l.Info("test message") },
			shouldLog: false,
		},
		{
			name:      "error level logs error",
			level:     "error",
			logFunc:   func(l *slog.Logger) { l.Error("test message") },
			shouldLog: true,
		},
		{
			name:      "unknown level defaults to info",
			level:     "verbose",
			logFunc:   func(l *slog.Logger) { l.Debug("test message") },
			shouldLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, "json", tt.level)
			tt.logFunc(logger)

			logged := strings.Contains(buf.String(), "test message")
			if logged != tt.shouldLog {
				t.Errorf("logged = %v, want %v (output: %q)", logged, tt.shouldLog, buf.String())
			}
		})
	}
}

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "text", "info")
	logger.Info("hello", "job_id", "abc")

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("text format produced JSON: %q", out)
	}
	if !strings.Contains(out, "job_id=abc") {
		t.Errorf("text output missing attribute: %q", out)
	}
}

func TestRedactSecrets(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		redact bool
	}{
		{"token suffix", "GITHUB_TOKEN", true},
		{"secret suffix", "client_secret", true},
		{"password anywhere", "db_password_hash", true},
		{"api key", "OPENAI_API_KEY", true},
		{"plain key", "job_id", false},
		{"run folder", "run_folder", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, "json", "info")
			logger.Info("msg", tt.key, "hunter2")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("output is not JSON: %v", err)
			}

			got, _ := entry[tt.key].(string)
			if tt.redact && got != "***REDACTED***" {
				t.Errorf("%s = %q, want redacted", tt.key, got)
			}
			if !tt.redact && got != "hunter2" {
				t.Errorf("%s = %q, want the original value", tt.key, got)
			}
		})
	}
}

func TestNew_OpensLogFile(t *testing.T) {
	path := t.TempDir() + "/sweeprun.log"

	logger, err := New(Options{Format: "json", Level: "info", Output: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("written to file")
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "json", "info")

	ctx := WithContext(context.Background(), logger)
	got := FromContext(ctx)
	got.Info("via context")

	if !strings.Contains(buf.String(), "via context") {
		t.Error("logger from context did not write to the attached writer")
	}
}

func TestFromContext_Fallback(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Error("FromContext() without an attached logger should return a fallback")
	}
}
