package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_LevelParsing(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":         zapcore.InfoLevel,
		"debug":    zapcore.DebugLevel,
		" WARN ":   zapcore.WarnLevel,
		"nonsense": zapcore.InfoLevel,
	}
	for in, want := range cases {
		logger, err := New(in, false)
		require.NoError(t, err, in)
		require.True(t, logger.Core().Enabled(want), in)
		if want > zapcore.DebugLevel {
			require.False(t, logger.Core().Enabled(want-1), in)
		}
	}
}

func TestNew_DevConsole(t *testing.T) {
	logger, err := New("debug", true)
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestPrintfAdapter_WritesInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewPrintfAdapter(zap.New(core)).Printf("applied %d migrations\n", 3)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "applied 3 migrations", entries[0].Message)
}

func TestPrintfAdapter_NilLogger(t *testing.T) {
	require.NotPanics(t, func() { NewPrintfAdapter(nil).Printf("noop") })
}
