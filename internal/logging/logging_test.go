package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	f()

	defaultLogger = oldLogger
	return buf.String()
}

// captureLogOutputWithInit captures output by reinitializing the logger
// to write to a buffer. This tests the actual InitLogger ReplaceAttr logic.
func captureLogOutputWithInit(level Level, format Format, f func()) string {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	outCh := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		outCh <- buf.String()
	}()

	InitLogger(level, format)
	f()

	w.Close()
	os.Stderr = oldStderr
	output := <-outCh

	InitLogger(LevelInfo, FormatText)
	return output
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		format Format
	}{
		{"Debug level JSON format", LevelDebug, FormatJSON},
		{"Info level JSON format", LevelInfo, FormatJSON},
		{"Warn level JSON format", LevelWarn, FormatJSON},
		{"Error level JSON format", LevelError, FormatJSON},
		{"Info level Text format", LevelInfo, FormatText},
		{"Debug level Text format", LevelDebug, FormatText},
		{"Default level (invalid value)", Level(999), FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitLogger(tt.level, tt.format)
			if GetLogger() == nil {
				t.Error("Expected logger to be initialized, got nil")
			}
		})
	}

	InitLogger(LevelInfo, FormatText)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"ERROR", LevelError},
		{"nonsense", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %d, want %d", tt.name, got, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name     string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"text", FormatText},
		{"logfmt", FormatText},
		{"", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFormat(tt.name); got != tt.expected {
				t.Errorf("ParseFormat(%q) = %d, want %d", tt.name, got, tt.expected)
			}
		})
	}
}

func TestNewRunID(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRunID()
		if len(id) != 36 {
			t.Fatalf("Expected run ID length 36, got %d (%q)", len(id), id)
		}
		if id[14] != '4' {
			t.Errorf("Expected version 4 UUID, got %q", id)
		}
		if ids[id] {
			t.Error("Generated duplicate run ID")
		}
		ids[id] = true
	}
}

func TestWithRunID(t *testing.T) {
	ctx := context.Background()
	runID := "test-run-id-123"

	newCtx := WithRunID(ctx, runID)

	if got := GetRunID(newCtx); got != runID {
		t.Errorf("Expected run ID %s, got %s", runID, got)
	}
}

func TestGetRunID(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		expected string
	}{
		{
			name:     "Context with run ID",
			ctx:      context.WithValue(context.Background(), RunIDKey, "test-id"),
			expected: "test-id",
		},
		{
			name:     "Context without run ID",
			ctx:      context.Background(),
			expected: "",
		},
		{
			name:     "Context with wrong type value",
			ctx:      context.WithValue(context.Background(), RunIDKey, 12345),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetRunID(tt.ctx); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestLoggerFromContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"Context with run ID", WithRunID(context.Background(), "test-123")},
		{"Context without run ID", context.Background()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if LoggerFromContext(tt.ctx) == nil {
				t.Error("Expected logger to be non-nil")
			}
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"Debug", func() { Debug("debug message", "key", "value") }},
		{"Info", func() { Info("info message", "key", "value") }},
		{"Warn", func() { Warn("warning message", "key", "value") }},
		{"Error", func() { Error("error message", "key", "value") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureLogOutput(tt.fn)
			if output == "" {
				t.Error("Expected log output, got empty string")
			}
			if !strings.Contains(output, "key") {
				t.Error("Expected output to contain attribute key")
			}
		})
	}
}

func TestContextLoggingFunctions(t *testing.T) {
	ctx := WithRunID(context.Background(), "test-run-id")

	tests := []struct {
		name string
		fn   func()
	}{
		{"DebugContext", func() { DebugContext(ctx, "debug message") }},
		{"InfoContext", func() { InfoContext(ctx, "info message") }},
		{"WarnContext", func() { WarnContext(ctx, "warning message") }},
		{"ErrorContext", func() { ErrorContext(ctx, "error message") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureLogOutput(tt.fn)
			if output == "" {
				t.Error("Expected log output, got empty string")
			}
			if !strings.Contains(output, "test-run-id") {
				t.Error("Expected output to contain run ID")
			}
		})
	}
}

func TestDatabaseOpened(t *testing.T) {
	output := captureLogOutput(func() {
		DatabaseOpened("/data/orchard.db", 4096, 12, 3)
	})

	if !strings.Contains(output, "database_opened") {
		t.Error("Expected output to contain database_opened")
	}
	if !strings.Contains(output, "/data/orchard.db") {
		t.Error("Expected output to contain path")
	}
	if !strings.Contains(output, "4096") {
		t.Error("Expected output to contain page size")
	}
}

func TestDatabaseOpenedWithArgs(t *testing.T) {
	output := captureLogOutput(func() {
		DatabaseOpened("/data/orchard.db", 4096, 12, 3, "encoding", "utf-8")
	})

	if !strings.Contains(output, "encoding") {
		t.Error("Expected output to contain custom args")
	}
}

func TestCatalogLoaded(t *testing.T) {
	output := captureLogOutput(func() {
		CatalogLoaded("/data/orchard.db", 6)
	})

	if !strings.Contains(output, "catalog_loaded") {
		t.Error("Expected output to contain catalog_loaded")
	}
	if !strings.Contains(output, "/data/orchard.db") {
		t.Error("Expected output to contain the path")
	}
	if !strings.Contains(output, "6") {
		t.Error("Expected output to contain the entry count")
	}
}

func TestTableWalk(t *testing.T) {
	output := captureLogOutput(func() {
		TableWalk("apples", 42, 7*time.Millisecond)
	})

	if !strings.Contains(output, "table_walk") {
		t.Error("Expected output to contain table_walk")
	}
	if !strings.Contains(output, "apples") {
		t.Error("Expected output to contain table name")
	}
	if !strings.Contains(output, "42") {
		t.Error("Expected output to contain row count")
	}
}

func TestDecodeError(t *testing.T) {
	testErr := errors.New("corrupt database (page 3): cell pointer outside the page content area")

	output := captureLogOutput(func() {
		DecodeError("/data/orchard.db", testErr, "operation", "count")
	})

	if !strings.Contains(output, "decode_error") {
		t.Error("Expected output to contain decode_error")
	}
	if !strings.Contains(output, "cell pointer") {
		t.Error("Expected output to contain error message")
	}
	if !strings.Contains(output, "operation") {
		t.Error("Expected output to contain custom args")
	}
}

func TestReplaceAttrTimestamp(t *testing.T) {
	// Timestamps come out in RFC3339 through the actual InitLogger path.
	output := captureLogOutputWithInit(LevelInfo, FormatJSON, func() {
		Info("timestamp test")
	})

	if output == "" {
		t.Error("Expected log output")
	}
	if !strings.Contains(output, "T") {
		t.Error("Expected timestamp to be in RFC3339 format")
	}
	if !strings.Contains(output, "timestamp test") {
		t.Error("Expected output to contain test message")
	}
}

func TestLevelFiltering(t *testing.T) {
	output := captureLogOutputWithInit(LevelError, FormatJSON, func() {
		Info("should be filtered")
		Error("should appear")
	})

	if strings.Contains(output, "should be filtered") {
		t.Error("Info message not filtered at error level")
	}
	if !strings.Contains(output, "should appear") {
		t.Error("Error message missing at error level")
	}
}

func TestInit(t *testing.T) {
	if defaultLogger == nil {
		t.Error("Expected defaultLogger to be initialized by init()")
	}
}

func TestLevelConstants(t *testing.T) {
	if LevelDebug >= LevelInfo {
		t.Error("Expected LevelDebug < LevelInfo")
	}
	if LevelInfo >= LevelWarn {
		t.Error("Expected LevelInfo < LevelWarn")
	}
	if LevelWarn >= LevelError {
		t.Error("Expected LevelWarn < LevelError")
	}
}
