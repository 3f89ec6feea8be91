package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"quiet", LevelQuiet},
		{"normal", LevelNormal},
		{"verbose", LevelVerbose},
		{"debug", LevelDebug},
		{"", LevelNormal},
		{"loud", LevelNormal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewPlainLogger(LevelQuiet, &buf)

	l.Infof("hidden %d", 1)
	l.Verbosef("hidden")
	l.Debugf("hidden")
	l.Errorf("shown %s", "error")
	l.Failuref("detail")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "✗ Error: shown error")
	assert.Contains(t, out, "detail")
}

func TestLogger_PlainHasNoANSI(t *testing.T) {
	var buf bytes.Buffer
	l := NewPlainLogger(LevelDebug, &buf)
	l.Successf("ok")
	l.Debugf("dispatching %s", "Button")

	out := buf.String()
	assert.NotContains(t, out, "\033[")
	assert.Contains(t, out, "✓ ok")
	assert.Contains(t, out, "[DEBUG] dispatching Button")
}

func TestLogger_Table(t *testing.T) {
	var buf bytes.Buffer
	l := NewPlainLogger(LevelQuiet, &buf)
	l.Table([]string{"html"}, [][]string{{`<div id="a">`}, {`<span>`}})

	out := buf.String()
	assert.Contains(t, out, "html")
	assert.Contains(t, out, `<div id="a">`)
	assert.Contains(t, out, `<span>`)
}
