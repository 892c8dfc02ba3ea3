package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level string
		dev   bool
		want  zapcore.Level
	}{
		{level: "", dev: true, want: zapcore.InfoLevel},
		{level: "debug", dev: true, want: zapcore.DebugLevel},
		{level: "warn", dev: false, want: zapcore.WarnLevel},
		{level: "ERROR", dev: false, want: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, err := New(tt.level, tt.dev)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.want))
			assert.False(t, log.Core().Enabled(tt.want-1))
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", false)
	assert.Error(t, err)
}
