package internal

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "prod", "info")

	logger.Info().Str("op", "attributes.add").Msg("document rewritten")
	logger.Debug().Msg("dropped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "attributes.add", entry["op"])
	assert.Equal(t, "document rewritten", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		warnSeen  bool
	}{
		{level: "debug", debugSeen: true, warnSeen: true},
		{level: "info", debugSeen: false, warnSeen: true},
		{level: "error", debugSeen: false, warnSeen: false},
		{level: "verbose", debugSeen: false, warnSeen: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, "dev", tt.level)

			logger.Debug().Msg("debug-line")
			logger.Warn().Msg("warn-line")

			assert.Equal(t, tt.debugSeen, bytes.Contains(buf.Bytes(), []byte("debug-line")))
			assert.Equal(t, tt.warnSeen, bytes.Contains(buf.Bytes(), []byte("warn-line")))
		})
	}
}
