package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestContextFieldsAppearInOutput(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithClientTxnID(context.Background(), "dev-1-1-x")
	ctx = logg.WithBranchID(ctx, "b1")
	logg.Info(ctx, "sale completed")

	line := decodeLine(t, &buf)
	assert.Equal(t, "test", line["service"])
	assert.Equal(t, "dev-1-1-x", line["client_txn_id"])
	assert.Equal(t, "b1", line["branch_id"])
	assert.Equal(t, "sale completed", line["message"])
}

func TestErrorAlwaysCarriesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	logg.Error(context.Background(), "boom", errors.New("cause"))

	line := decodeLine(t, &buf)
	assert.Equal(t, "cause", line["error"])
	assert.NotEmpty(t, line["stack"])
}

func TestWarnStackIsOptional(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})
	logg.Warn(context.Background(), "degraded")
	line := decodeLine(t, &buf)
	assert.NotContains(t, line, "stack")

	buf.Reset()
	logg = New(Options{ServiceName: "test", Output: &buf, WarnStack: true})
	logg.Warn(context.Background(), "degraded")
	line = decodeLine(t, &buf)
	assert.NotEmpty(t, line["stack"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf, Level: zerolog.InfoLevel})
	logg.Debug(context.Background(), "noise")
	assert.Zero(t, buf.Len())
}
