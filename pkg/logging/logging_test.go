package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn", "json")
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("round limit reached", "rounds", 5)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "round limit reached", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
	assert.InDelta(t, 5, rec["rounds"], 0)
}

func TestNew_TextDefaults(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "", "")
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("turn complete", "device", "dev-1")

	assert.Contains(t, buf.String(), "msg=\"turn complete\" device=dev-1")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", "text")
	assert.ErrorContains(t, err, `invalid level "loud"`)

	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}
