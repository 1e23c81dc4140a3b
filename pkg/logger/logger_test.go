package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"warning", false},
		{"error", false},
		{"disabled", false},
		{"", false},
		{"verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parseLogLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	require.Error(t, err)
}

func TestTestLoggerCapturesDerivedMessages(t *testing.T) {
	tl := NewTestLogger()

	derived := tl.WithField("task", "abc")
	derived.Warn("livephoto index inferred")
	tl.Info("done")

	msgs := tl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, "abc", msgs[0].Fields["task"])
	assert.True(t, tl.HasMessage("WARN", "livephoto"))
	assert.False(t, tl.HasMessage("ERROR", "livephoto"))
}
