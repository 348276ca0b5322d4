package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", "json")

	Component("registry").Debug("room loaded", "gameId", "g1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "room loaded", rec["msg"])
	assert.Equal(t, "registry", rec["component"])
	assert.Equal(t, "g1", rec["gameId"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", "text")

	Info("hidden")
	assert.Empty(t, buf.String())

	Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "info", "text")

	assert.Same(t, Get(), FromContext(context.Background()))

	l := With("gameId", "g2")
	ctx := IntoContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
