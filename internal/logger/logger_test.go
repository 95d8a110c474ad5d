package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func jsonCore(buf *bytes.Buffer) zapcore.Core {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)
}

func TestProperty_LogEntriesAreStructuredJSON(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every log entry parses as JSON with level, timestamp and message", prop.ForAll(
		func(message string, level string) bool {
			var buf bytes.Buffer
			logger := zap.New(jsonCore(&buf))
			defer logger.Sync()

			switch level {
			case "debug":
				logger.Debug(message)
			case "info":
				logger.Info(message)
			case "warn":
				logger.Warn(message)
			case "error":
				logger.Error(message)
			}

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}
			if _, ok := entry["level"]; !ok {
				return false
			}
			if _, ok := entry["timestamp"]; !ok {
				return false
			}
			return entry["message"] == message
		},
		gen.AnyString(),
		gen.OneConstOf("debug", "info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_FieldsAppearInOutput(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("structured fields survive into the encoded entry", prop.ForAll(
		func(message string, value string) bool {
			var buf bytes.Buffer
			logger := zap.New(jsonCore(&buf))
			defer logger.Sync()

			logger.Error(message, zap.String("error", value))

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}
			return entry["error"] == value
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNewBuildsForEachEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development", "staging"} {
		logger, err := New(env)
		if err != nil {
			t.Fatalf("env %q: failed to build logger: %v", env, err)
		}
		if logger == nil {
			t.Fatalf("env %q: expected a logger", env)
		}
		logger.Sync()
	}
}

func TestNewRespectsLogLevelOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	logger, err := New("production")
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info to be disabled when LOG_LEVEL=error")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected error level to remain enabled")
	}
}

func TestNewWithDefaultsNeverNil(t *testing.T) {
	t.Setenv("SERVER_ENV", "")

	logger := NewWithDefaults()
	if logger == nil {
		t.Fatal("expected a logger")
	}
	logger.Sync()
}
