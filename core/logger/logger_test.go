package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	want := []Record{
		{Time: time.Unix(1700000000, 0).UTC(), Command: "echo hi", Status: 0},
		{Time: time.Unix(1700000060, 0).UTC(), Command: "sleep 5 &", Status: 0, Background: true, JobID: 1},
		{Time: time.Unix(1700000120, 0).UTC(), Command: "nope", Status: 127},
	}
	for _, rec := range want {
		require.NoError(t, log.Record(rec))
	}

	var got []Record
	require.NoError(t, Read(&buf, func(rec Record) {
		got = append(got, rec)
	}))
	assert.Equal(t, want, got)
}

func TestOpenAppends(t *testing.T) {
	fs := afero.NewMemMapFs()

	first, err := Open(fs, "/events.log")
	require.NoError(t, err)
	require.NoError(t, first.Record(Record{Command: "one"}))
	require.NoError(t, first.Close())

	second, err := Open(fs, "/events.log")
	require.NoError(t, err)
	require.NoError(t, second.Record(Record{Command: "two"}))
	require.NoError(t, second.Close())

	contents, err := afero.ReadFile(fs, "/events.log")
	require.NoError(t, err)

	var commands []string
	require.NoError(t, Read(bytes.NewReader(contents), func(rec Record) {
		commands = append(commands, rec.Command)
	}))
	assert.Equal(t, []string{"one", "two"}, commands)
}

func TestReadRejectsGarbage(t *testing.T) {
	assert.Error(t, Read(bytes.NewReader([]byte("not json\n")), func(Record) {}))
}
