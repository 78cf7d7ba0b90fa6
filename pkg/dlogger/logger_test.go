package dlogger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetLogger(t *testing.T) {
	for _, level := range []string{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelNone} {
		l, err := GetLogger(level)
		require.NoErrorf(t, err, "level %s", level)
		require.NotNil(t, l)
	}

	_, err := GetLogger("loud")
	require.Error(t, err)

	require.Panics(t, func() { MustGetLogger("loud") })
}

func TestPrintf(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewPrintf(zap.New(core))

	p.Infof("opened %d tables\n", 3)
	p.Warningf("slow")
	p.Errorf("broken: %v", "disk")
	p.Debugf("tick")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, "opened 3 tables", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "broken: disk", entries[2].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
}
