package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("driftsim", "info", false, &buf)

	log.Debug("hidden")
	log.Info("frame written", "index", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO]  driftsim: frame written: index=3")
}

func TestNewLogger_DefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("driftsim", "", false, &buf)

	log.Info("quiet")
	log.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("driftsim", "debug", true, &buf)
	log.Debug("run finished", "state", "completed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run finished", entry["@message"])
	assert.Equal(t, "completed", entry["state"])
	assert.Equal(t, "driftsim", entry["@module"])
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("trace"))
	assert.True(t, ValidLevel("ERROR"))
	assert.False(t, ValidLevel("loud"))
}
