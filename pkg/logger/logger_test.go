package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("chatty"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestNewHonoursLevel(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatConsole, "yaml"} {
		t.Run(format, func(t *testing.T) {
			log, err := New("error", format)
			require.NoError(t, err)
			assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
			assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
		})
	}
}

func TestGetIsStable(t *testing.T) {
	assert.Same(t, Get(), Get())
}
