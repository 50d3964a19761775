package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bondmaster/backend/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestNew_SetsGlobalLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			require.NotNil(t, log)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("dropped")
	assert.Empty(t, buf.String())

	log.Warn("page budget exhausted")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "page budget exhausted", entry["message"])
}

func TestFieldsAndComponent(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	log.Component("paginator").
		WithFields(map[string]interface{}{"page": 2, "rp": 30}).
		WithField("bond_id", "113001").
		Debug("page fetched")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "paginator", entry["component"])
	assert.Equal(t, float64(2), entry["page"])
	assert.Equal(t, float64(30), entry["rp"])
	assert.Equal(t, "113001", entry["bond_id"])
	assert.Equal(t, "page fetched", entry["message"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	log.WithError(errors.New("redeem feed unavailable")).Warn("enrichment degraded")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "redeem feed unavailable", entry["error"])
	assert.Equal(t, "enrichment degraded", entry["message"])
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.WithField("k", "v").Info("nothing")
		log.WithError(errors.New("x")).Error("still nothing")
	})
}

func TestWithContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	ctx := ContextWithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", RequestID(ctx))

	log.WithContext(ctx).Info("aggregated")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-42", entry["request_id"])

	buf.Reset()
	log.WithContext(context.Background()).Info("plain")
	entry = decodeLine(t, &buf)
	_, ok := entry["request_id"]
	assert.False(t, ok)
}
