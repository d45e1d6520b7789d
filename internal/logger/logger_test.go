package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONInProduction(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(false, buf)

	Component("guard").WithField("category", "SQL Injection").Warn("blocked")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "guard", line["component"])
	assert.Equal(t, "SQL Injection", line["category"])
	assert.Equal(t, "blocked", line["msg"])
}

func TestInit_DebugEnablesDebugLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(true, buf)

	Log().Debug("rule table loaded")
	assert.Contains(t, buf.String(), "rule table loaded")

	Init(false, buf)
	buf.Reset()
	Log().Debug("hidden")
	assert.Empty(t, buf.String())
}
