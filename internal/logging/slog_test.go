package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")

	logger.Info("hello", MeetingID(42), Method("fallback"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry[KeyMeetingID] != float64(42) {
		t.Errorf("%s = %v, want 42", KeyMeetingID, entry[KeyMeetingID])
	}
	if entry[KeyMethod] != "fallback" {
		t.Errorf("%s = %v, want fallback", KeyMethod, entry[KeyMethod])
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn", "text")

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOrDefault(t *testing.T) {
	if OrDefault(nil) != slog.Default() {
		t.Error("OrDefault(nil) should return slog.Default()")
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if OrDefault(logger) != logger {
		t.Error("OrDefault should return the provided logger")
	}
}

func TestWithOperation(t *testing.T) {
	if WithOperation(slog.Default(), "schedule") == nil {
		t.Error("WithOperation returned nil")
	}
}

func TestWithComponent_NilLogger(t *testing.T) {
	if WithComponent(nil, "linker") == nil {
		t.Error("WithComponent(nil, ...) returned nil")
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("generate_links"), KeyOperation, "generate_links"},
		{"method", Method("calendar_api"), KeyMethod, "calendar_api"},
		{"audience", Audience("admins"), KeyAudience, "admins"},
		{"status", Status(StatusSuccess), KeyStatus, StatusSuccess},
		{"meeting id", MeetingID(7), KeyMeetingID, "7"},
		{"event id", EventID("evt-1"), KeyEventID, "evt-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "boom" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "boom")
	}

	attr = Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string (empty group)", attr.Key)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	got := AnonymizeEmail("jane@example.com")
	if len(got) != 21 {
		t.Errorf("AnonymizeEmail length = %d, want 21", len(got))
	}
	if !strings.HasPrefix(got, "user:") {
		t.Errorf("AnonymizeEmail should start with 'user:', got %q", got)
	}
	if AnonymizeEmail("") != "" {
		t.Error("AnonymizeEmail(\"\") should be empty")
	}
	if AnonymizeEmail("Jane@Example.com") != got {
		t.Error("AnonymizeEmail should be case-insensitive")
	}
	if AnonymizeEmail("other@example.com") == got {
		t.Error("different emails should produce different hashes")
	}
}

func TestUserHash(t *testing.T) {
	attr := UserHash("jane@example.com")
	if attr.Key != KeyUserHash {
		t.Errorf("UserHash key = %q, want %q", attr.Key, KeyUserHash)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"ya29.a0AfH6SMBx", "[token:15 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}
