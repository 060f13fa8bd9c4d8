package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorWrap(t *testing.T) {
	err := NewParseError("unexpected token", nil)
	require.Equal(t, "ParseError: unexpected token", err.Error())
}

func TestPassReportDirty(t *testing.T) {
	var r PassReport
	require.False(t, r.Dirty())
	r.RecordRewrite()
	require.True(t, r.Dirty())
}

func TestUnifiedDiff(t *testing.T) {
	out, err := UnifiedDiff("var a = 1;\n", "var a = 2;\n", "input.js", 3)
	require.NoError(t, err)
	require.Contains(t, out, "-var a = 1;")
	require.Contains(t, out, "+var a = 2;")
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, LevelInfo)
	l.Debug("should not appear", nil)
	l.Warn("should appear", Fields{"pass": "P1"})
	require.NotContains(t, buf.String(), "should not appear")
	require.Contains(t, buf.String(), "should appear")
}
