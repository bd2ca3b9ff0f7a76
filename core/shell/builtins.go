package shell

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pborman/getopt/v2"
	"golang.org/x/sys/unix"

	"cybersh/core/config"
	"cybersh/core/job"
	"cybersh/core/ui"
)

// ShellBuiltin is a command implemented by the shell itself.
type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

// ShellBuiltinFunc adapts a function to the ShellBuiltin interface.
type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// AllBuiltins maps command names to their implementations.
var AllBuiltins = make(map[string]ShellBuiltin)

func init() {
	AllBuiltins["alias"] = ShellBuiltinFunc(builtinAlias)
	AllBuiltins["aliases"] = ShellBuiltinFunc(builtinAliases)
	AllBuiltins["bg"] = ShellBuiltinFunc(builtinBg)
	AllBuiltins["cd"] = ShellBuiltinFunc(builtinCd)
	AllBuiltins["clear"] = ShellBuiltinFunc(builtinClear)
	AllBuiltins["exit"] = ShellBuiltinFunc(builtinExit)
	AllBuiltins["fg"] = ShellBuiltinFunc(builtinFg)
	AllBuiltins["help"] = ShellBuiltinFunc(builtinHelp)
	AllBuiltins["histsearch"] = ShellBuiltinFunc(builtinHistsearch)
	AllBuiltins["history"] = ShellBuiltinFunc(builtinHistory)
	AllBuiltins["jobs"] = ShellBuiltinFunc(builtinJobs)
	AllBuiltins["mkdir"] = ShellBuiltinFunc(builtinMkdir)
	AllBuiltins["set"] = ShellBuiltinFunc(builtinSet)
	AllBuiltins["touch"] = ShellBuiltinFunc(builtinTouch)
	AllBuiltins["unalias"] = ShellBuiltinFunc(builtinUnalias)
	AllBuiltins["unset"] = ShellBuiltinFunc(builtinUnset)
	AllBuiltins["vars"] = ShellBuiltinFunc(builtinVars)
}

// BuiltinNames returns every builtin name in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(AllBuiltins))
	for name := range AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builtinCd(s *Shell, args []string) int {
	target := ""
	if len(args) > 1 {
		target = args[1]
	}
	if target == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			s.UI.Error("cd: home directory unknown")
			return 1
		}
		target = home
	}
	if err := os.Chdir(config.ExpandHome(target)); err != nil {
		s.UI.Error(fmt.Sprintf("cd: directory not found: %s", target))
		return 1
	}
	return 0
}

func builtinExit(s *Shell, args []string) int {
	status := 0
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			status = n
		}
	}
	_ = s.Close()
	os.Exit(status)
	return status
}

func builtinJobs(s *Shell, args []string) int {
	s.UI.JobTable(s.Jobs.Jobs())
	s.Jobs.ReapDone()
	return 0
}

func builtinFg(s *Shell, args []string) int {
	if len(args) < 2 {
		s.UI.Error("usage: fg JOB_ID")
		return 1
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		s.UI.Error(fmt.Sprintf("fg: bad job id: %s", args[1]))
		return 1
	}
	j, ok := s.Jobs.ByID(id)
	if !ok || j.State == job.Done {
		s.UI.Error(fmt.Sprintf("fg: no such job: %d", id))
		return 1
	}

	events := s.Bridge.Watch(j.Pgid)
	s.Bridge.SetForeground(j.Pgid)
	s.Jobs.SetState(id, job.Running)

	if err := unix.Kill(-j.Pgid, unix.SIGCONT); err != nil {
		s.Jobs.SetState(id, job.Done)
		s.detach(j.Pgid, events)
		s.UI.Error(fmt.Sprintf("fg: job %d is gone", id))
		return 1
	}

	for {
		ev := <-events

		if ev.Status.Stopped() {
			s.Jobs.SetState(id, job.Stopped)
			s.detach(j.Pgid, events)
			stopped, _ := s.Jobs.ByID(id)
			s.UI.JobStopped(stopped)
			return 0
		}

		if ev.Status.Exited() || ev.Status.Signaled() {
			// The group is done once no member answers a null signal.
			if unix.Kill(-j.Pgid, 0) != nil {
				s.Jobs.SetState(id, job.Done)
				s.detach(j.Pgid, events)
				return exitCode(ev.Status)
			}
		}
	}
}

func builtinBg(s *Shell, args []string) int {
	if len(args) < 2 {
		s.UI.Error("usage: bg JOB_ID")
		return 1
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		s.UI.Error(fmt.Sprintf("bg: bad job id: %s", args[1]))
		return 1
	}
	j, ok := s.Jobs.ByID(id)
	if !ok || j.State == job.Done {
		s.UI.Error(fmt.Sprintf("bg: no such job: %d", id))
		return 1
	}
	if j.State != job.Stopped {
		s.UI.Error(fmt.Sprintf("bg: job %d is already running", id))
		return 1
	}

	s.Jobs.SetState(id, job.Running)
	if err := unix.Kill(-j.Pgid, unix.SIGCONT); err != nil {
		s.Jobs.SetState(id, job.Done)
		s.UI.Error(fmt.Sprintf("bg: job %d is gone", id))
		return 1
	}
	s.UI.Notice("BACKGROUND", fmt.Sprintf("job [%d] resumed: %s", id, j.Command))
	return 0
}

func builtinAlias(s *Shell, args []string) int {
	if len(args) == 1 {
		return builtinAliases(s, args)
	}
	if len(args) < 3 {
		s.UI.Error("usage: alias NAME COMMAND...")
		return 1
	}
	s.Aliases.Set(args[1], strings.Join(args[2:], " "))
	if s.Feats != nil {
		s.Feats.Unlock("ALIAS_CREATOR", "defined your first alias")
	}
	return 0
}

func builtinUnalias(s *Shell, args []string) int {
	if len(args) < 2 {
		s.UI.Error("usage: unalias NAME")
		return 1
	}
	if !s.Aliases.Remove(args[1]) {
		s.UI.Error(fmt.Sprintf("unalias: no such alias: %s", args[1]))
		return 1
	}
	return 0
}

func builtinAliases(s *Shell, args []string) int {
	var pairs []ui.Pair
	for _, name := range s.Aliases.Names() {
		value, _ := s.Aliases.Get(name)
		pairs = append(pairs, ui.Pair{Name: name, Value: value})
	}
	s.UI.PairList("ALIASES", pairs)
	return 0
}

func builtinSet(s *Shell, args []string) int {
	if len(args) < 3 {
		s.UI.Error("usage: set NAME VALUE...")
		return 1
	}
	s.Vars.Set(args[1], strings.Join(args[2:], " "))
	return 0
}

func builtinUnset(s *Shell, args []string) int {
	if len(args) < 2 {
		s.UI.Error("usage: unset NAME")
		return 1
	}
	if !s.Vars.Unset(args[1]) {
		s.UI.Error(fmt.Sprintf("unset: no such variable: %s", args[1]))
		return 1
	}
	return 0
}

func builtinVars(s *Shell, args []string) int {
	var pairs []ui.Pair
	for _, name := range s.Vars.Names() {
		value, _ := s.Vars.Get(name)
		pairs = append(pairs, ui.Pair{Name: name, Value: value})
	}
	s.UI.PairList("VARIABLES", pairs)
	return 0
}

func builtinHistory(s *Shell, args []string) int {
	opts := getopt.New()
	clearAll := opts.BoolLong("clear", 'c', "forget all history entries")
	if err := opts.Getopt(args, nil); err != nil {
		s.UI.Error(fmt.Sprintf("history: %v", err))
		return 1
	}
	if *clearAll {
		s.History.Clear()
		return 0
	}
	s.UI.NumberedList("HISTORY", s.History.Entries())
	return 0
}

func builtinHistsearch(s *Shell, args []string) int {
	if len(args) < 2 {
		s.UI.Error("usage: histsearch TERM")
		return 1
	}
	term := strings.Join(args[1:], " ")

	// Matches keep their original history numbers so !N still works.
	var pairs []ui.Pair
	for i, entry := range s.History.Entries() {
		if strings.Contains(entry, term) {
			pairs = append(pairs, ui.Pair{Name: strconv.Itoa(i + 1), Value: entry})
		}
	}
	s.UI.PairList("MATCHES", pairs)
	return 0
}

func builtinMkdir(s *Shell, args []string) int {
	if len(args) < 2 {
		s.UI.Error("usage: mkdir DIR...")
		return 1
	}
	status := 0
	for _, dir := range args[1:] {
		if err := s.FS.MkdirAll(dir, 0755); err != nil {
			s.UI.Error(fmt.Sprintf("mkdir: %v", err))
			status = 1
		}
	}
	return status
}

func builtinTouch(s *Shell, args []string) int {
	if len(args) < 2 {
		s.UI.Error("usage: touch FILE...")
		return 1
	}
	status := 0
	now := time.Now()
	for _, path := range args[1:] {
		f, err := s.FS.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			s.UI.Error(fmt.Sprintf("touch: %v", err))
			status = 1
			continue
		}
		f.Close()
		_ = s.FS.Chtimes(path, now, now)
	}
	return status
}

func builtinClear(s *Shell, args []string) int {
	fmt.Fprint(s.Stdout, "\x1b[2J\x1b[H")
	return 0
}

func builtinHelp(s *Shell, args []string) int {
	s.UI.Help(BuiltinNames())
	return 0
}
