package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logger, err := New("warn")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("warn logger should not enable info")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn logger should enable warn")
	}
}

func TestNewConsole(t *testing.T) {
	logger, err := NewConsole("debug")
	if err != nil {
		t.Fatalf("NewConsole() error = %v", err)
	}

	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug logger should enable debug")
	}
}
