package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("DEBUG"))
	assert.Equal(t, Warn, ParseLevel("warning"))
	assert.Equal(t, Error, ParseLevel(" error "))
	assert.Equal(t, Info, ParseLevel(""))
	assert.Equal(t, Info, ParseLevel("verbose"))
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Warn, Output: &buf})

	l.Info("ignored", nil)
	l.Warn("kept", Fields{"dropped": 2})

	out := buf.String()
	assert.NotContains(t, out, "ignored")
	assert.Contains(t, out, "msg=kept")
	assert.Contains(t, out, "dropped=2")
	assert.Contains(t, out, "level=warn")
}

func TestLogger_JSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Debug, Format: FormatJSON, App: "guineapal", Output: &buf}).
		With(Fields{"store": "pets"})

	l.Error("write failed", Fields{"err": errors.New("disk full")})

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "guineapal", entry["app"])
	assert.Equal(t, "pets", entry["store"])
	assert.Equal(t, "disk full", entry["err"])
	assert.Equal(t, "error", entry["level"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing", nil)
	assert.NotNil(t, l.With(Fields{"a": 1}))
}
