package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapter_WithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"taskType": "extract-intent"})

	log.Warn("intent fallback", map[string]interface{}{"reason": "invalid json"})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "intent fallback", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "extract-intent", ctx["taskType"])
	assert.Equal(t, "invalid json", ctx["reason"])
}

func TestZapAdapter_ErrorFieldsAreNamedErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapAdapter(zap.New(core))

	log.Error("model call failed", map[string]interface{}{"error": errors.New("boom")})
	log.WithError(errors.New("outer")).Info("done", nil)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["error"])
	assert.Equal(t, "outer", logs.All()[1].ContextMap()["error"])
}

func TestNew_LevelAndFormat(t *testing.T) {
	l := New("warn", "json")
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	d := New("debug", "console")
	assert.True(t, d.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l := New("chatty", "json")
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestZapAdapter_NamedAndDurations(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).Named("pipeline")

	log.Debug("stage done", map[string]interface{}{"elapsed": 1500 * time.Millisecond, "stage": "filter-records"})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "pipeline", entry.LoggerName)
	require.Len(t, entry.Context, 2)
	assert.Equal(t, "elapsed", entry.Context[0].Key)
	assert.Equal(t, zapcore.DurationType, entry.Context[0].Type)
	assert.Equal(t, "stage", entry.Context[1].Key)
}
