package diagnostics_test

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clc/internal/diagnostics"
)

var ansiRe = regexp.MustCompile("\x1b\\[[0-9]+m")

func stripANSI(s string) string { return ansiRe.ReplaceAllString(s, "") }

func TestWireFormatWithLine(t *testing.T) {
	var buf bytes.Buffer
	sink := diagnostics.New(&buf, false)
	sink.Signal(diagnostics.Error, "bad thing", 7)

	assert.Equal(t, "ERROR at line 7 : bad thing.\n", buf.String())
}

func TestWireFormatWithoutLine(t *testing.T) {
	var buf bytes.Buffer
	sink := diagnostics.New(&buf, false)
	sink.Signal(diagnostics.Warning, "unused thing", diagnostics.NoLine)

	assert.Equal(t, "WARNING : unused thing.\n", buf.String())
}

// Supplementary property 11: stripping ANSI from the colorized path yields
// byte-identical text to the uncolored path, for every severity.
func TestColorizedOutputStripsToPlainFormat(t *testing.T) {
	for _, sev := range []diagnostics.Severity{diagnostics.Error, diagnostics.Warning} {
		var plainBuf, colorBuf bytes.Buffer
		plain := diagnostics.New(&plainBuf, false)
		colored := diagnostics.New(&colorBuf, true)

		plain.Signal(sev, "message", 3)
		colored.Signal(sev, "message", 3)

		require.NotEqual(t, plainBuf.String(), colorBuf.String())
		assert.Equal(t, plainBuf.String(), stripANSI(colorBuf.String()))
	}
}

func TestHasErrorAndHasWarningTrackIndependently(t *testing.T) {
	sink := diagnostics.New(&bytes.Buffer{}, false)
	assert.False(t, sink.HasError())
	assert.False(t, sink.HasWarning())

	sink.Signal(diagnostics.Warning, "w", diagnostics.NoLine)
	assert.False(t, sink.HasError())
	assert.True(t, sink.HasWarning())

	sink.Signal(diagnostics.Error, "e", diagnostics.NoLine)
	assert.True(t, sink.HasError())
}
