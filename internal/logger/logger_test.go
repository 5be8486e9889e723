package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	atomic := zap.NewAtomicLevelAt(level)
	core, logs := observer.New(atomic)
	return &Logger{SugaredLogger: zap.New(core).Sugar(), atomicLevel: atomic}, logs
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		for _, development := range []bool{false, true} {
			l, err := NewLogger(level, development)
			require.NoError(t, err)
			require.Equal(t, level, l.GetLevel())
		}
	}

	l, err := NewLogger("verbose", false)
	require.Error(t, err)
	require.Nil(t, l)
}

func TestSetLevelIsSharedWithChildren(t *testing.T) {
	base, err := NewLogger("info", false)
	require.NoError(t, err)

	store := base.WithComponent("store")
	tagged := store.WithFields("indexer", "voting")
	require.Equal(t, "store", tagged.GetComponent())

	require.NoError(t, base.SetLevel("debug"))
	require.Equal(t, "debug", store.GetLevel())
	require.Equal(t, "debug", tagged.GetLevel())

	require.Error(t, tagged.SetLevel("loud"))
	require.Equal(t, "debug", base.GetLevel())
}

func TestWithComponentAndFields(t *testing.T) {
	base, logs := observed(zapcore.DebugLevel)

	base.WithComponent("processor").WithFields("indexer", "funding", "block", 7).Infof("stored %d records", 3)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "stored 3 records", entries[0].Message)
	require.Equal(t, map[string]any{
		"component": "processor",
		"indexer":   "funding",
		"block":     int64(7),
	}, entries[0].ContextMap())
}

func TestLevelFiltering(t *testing.T) {
	l, logs := observed(zapcore.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	require.Equal(t, 1, logs.Len())

	require.NoError(t, l.SetLevel("debug"))
	l.Debug("shown")
	require.Equal(t, 2, logs.Len())
}

type staticLoggingConfig struct {
	defaultLevel string
	levels       map[string]string
}

func (c staticLoggingConfig) GetComponentLevel(component string) string {
	if level, ok := c.levels[component]; ok {
		return level
	}
	return c.defaultLevel
}

func (c staticLoggingConfig) GetDefaultLevel() string { return c.defaultLevel }
func (c staticLoggingConfig) IsDevelopment() bool     { return false }

func TestNewComponentLoggerFromConfig(t *testing.T) {
	cfg := staticLoggingConfig{defaultLevel: "warn", levels: map[string]string{"downloader": "debug"}}

	tests := []struct {
		component string
		cfg       LoggingConfig
		level     string
	}{
		{"downloader", cfg, "debug"},
		{"sync-manager", cfg, "warn"},
		{"maintenance", nil, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.component, func(t *testing.T) {
			l := NewComponentLoggerFromConfig(tt.component, tt.cfg)
			require.Equal(t, tt.component, l.GetComponent())
			require.Equal(t, tt.level, l.GetLevel())
		})
	}

	require.Panics(t, func() { NewComponentLogger("api", "loud", false) })
}

func TestDefaultLogger(t *testing.T) {
	first := GetDefaultLogger()
	require.NotNil(t, first)
	require.Same(t, first, GetDefaultLogger())

	replacement := NewNopLogger()
	SetDefaultLogger(replacement)
	t.Cleanup(func() { SetDefaultLogger(first) })
	require.Same(t, replacement, GetDefaultLogger())
	require.Empty(t, replacement.GetComponent())
}
