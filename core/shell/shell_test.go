package shell

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybersh/core/logger"
)

func TestEvalTokenPreview(t *testing.T) {
	s := newTestShell(t)
	buf := capture(s)

	s.Eval("echo hi | grep x?")

	assert.Contains(t, buf.String(), "[TOKENS] 'echo' 'hi' '|' 'grep' 'x'")
	// Previewed lines still land in history.
	assert.Equal(t, []string{"echo hi | grep x?"}, s.History.Entries())
}

func TestEvalHistoryReplay(t *testing.T) {
	s := newTestShell(t)
	buf := capture(s)

	s.Eval("set NAME trinity")
	buf.Reset()

	s.Eval("!1")

	assert.Contains(t, buf.String(), "[HISTORY] set NAME trinity")
	// The resolved line, not !1, is what history records.
	assert.Equal(t, []string{"set NAME trinity"}, s.History.Entries())
}

func TestEvalHistoryReplayMissing(t *testing.T) {
	s := newTestShell(t)
	buf := capture(s)

	s.Eval("!99")

	assert.Contains(t, buf.String(), "no such history entry")
	assert.Equal(t, 0, s.History.Len())
}

func TestEvalAliasExpansion(t *testing.T) {
	s := newTestShell(t)
	capture(s)
	s.Aliases.Set("greet", "set MSG hello")

	s.Eval("greet world")

	value, ok := s.Vars.Get("MSG")
	require.True(t, ok)
	assert.Equal(t, "hello world", value)
}

func TestEvalVariableExpansion(t *testing.T) {
	s := newTestShell(t)
	capture(s)
	s.Vars.Set("X", "hi")

	s.Eval("set COPY $X!")

	value, ok := s.Vars.Get("COPY")
	require.True(t, ok)
	assert.Equal(t, "hi!", value)
}

func TestEvalOperatorOnlyLineRunsNothing(t *testing.T) {
	s := newTestShell(t)
	capture(s)

	s.Eval("|")

	assert.Equal(t, 0, s.lastStatus)
	assert.Empty(t, s.Jobs.Jobs())
}

func TestEvalTracksLastStatus(t *testing.T) {
	s := newTestShell(t)
	capture(s)

	s.Eval("no-such-command-qzx")

	assert.Equal(t, 127, s.lastStatus)
}

func TestEvalRecordsEventLog(t *testing.T) {
	s := newTestShell(t)
	capture(s)
	var events bytes.Buffer
	s.Log = logger.New(&events)

	s.Eval("set NAME neo")

	var records []logger.Record
	require.NoError(t, logger.Read(&events, func(rec logger.Record) {
		records = append(records, rec)
	}))
	require.Len(t, records, 1)
	assert.Equal(t, "set NAME neo", records[0].Command)
	assert.Equal(t, 0, records[0].Status)
	assert.False(t, records[0].Background)
}
