package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name     string
		tokens   []string
		expected Pipeline
	}{
		{
			"single-command",
			[]string{"ls", "-l"},
			Pipeline{Stages: []Stage{{Args: []string{"ls", "-l"}}}},
		},
		{
			"three-stage-pipeline-with-redirect",
			[]string{"a", "|", "b", "-x", "|", "c", ">", "out.txt"},
			Pipeline{Stages: []Stage{
				{Args: []string{"a"}},
				{Args: []string{"b", "-x"}},
				{Args: []string{"c"}, OutFile: "out.txt"},
			}},
		},
		{
			"background",
			[]string{"sleep", "5", "&"},
			Pipeline{
				Stages:     []Stage{{Args: []string{"sleep", "5"}}},
				Background: true,
			},
		},
		{
			"input-redirect",
			[]string{"wc", "-l", "<", "in.txt"},
			Pipeline{Stages: []Stage{{Args: []string{"wc", "-l"}, InFile: "in.txt"}}},
		},
		{
			"append-redirect",
			[]string{"echo", "hi", ">>", "log.txt"},
			Pipeline{Stages: []Stage{{Args: []string{"echo", "hi"}, OutFile: "log.txt", Append: true}}},
		},
		{
			"last-redirect-wins",
			[]string{"cmd", ">", "first", ">>", "second"},
			Pipeline{Stages: []Stage{{Args: []string{"cmd"}, OutFile: "second", Append: true}}},
		},
		{
			"missing-redirect-filename-dropped",
			[]string{"cat", ">"},
			Pipeline{Stages: []Stage{{Args: []string{"cat"}}}},
		},
		{
			"empty-stage-between-pipes-dropped",
			[]string{"a", "|", "|", "b"},
			Pipeline{Stages: []Stage{
				{Args: []string{"a"}},
				{Args: []string{"b"}},
			}},
		},
		{
			"only-pipe-yields-no-stages",
			[]string{"|"},
			Pipeline{},
		},
		{
			"redirect-only-final-stage-kept",
			[]string{"a", "|", ">", "out"},
			Pipeline{Stages: []Stage{
				{Args: []string{"a"}},
				{OutFile: "out"},
			}},
		},
		{
			// Historical quirk: & does not terminate the argument scan.
			"ampersand-does-not-close-stage",
			[]string{"sleep", "5", "&", "extra"},
			Pipeline{
				Stages:     []Stage{{Args: []string{"sleep", "5", "extra"}}},
				Background: true,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Parse(tc.tokens))
		})
	}
}

func TestParseOperatorsNeverLeakIntoArgv(t *testing.T) {
	pl := Parse([]string{"a", "<", "in", "|", "b", ">>", "out", "&"})

	for _, st := range pl.Stages {
		for _, arg := range st.Args {
			assert.NotContains(t, []string{"|", "<", ">", ">>", "&"}, arg)
		}
	}
	assert.True(t, pl.Background)
}
