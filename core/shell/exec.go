package shell

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"cybersh/core/job"
	"cybersh/core/ui"
)

// Execute launches every stage of a parsed pipeline and returns the
// pipeline's exit status: the status of the last stage, or 128 plus
// the signal number when that stage died on a signal.
//
// External stages share one process group so the whole pipeline can be
// signaled, stopped and resumed as a unit. Builtin stages run as
// goroutines over a stage-local view of the shell, so a builtin in the
// middle of a pipeline cannot mutate the session, mirroring how a
// forked child's changes never reach its parent. A lone foreground
// builtin runs in-process instead, which is what lets cd, set and
// alias take effect.
func (s *Shell) Execute(pl Pipeline, raw string) int {
	if len(pl.Stages) == 0 {
		return 0
	}

	stages := make([]Stage, len(pl.Stages))
	for i, st := range pl.Stages {
		stages[i] = s.expandStage(st)
	}

	// A lone foreground builtin with no redirection runs in-process on
	// the session itself; any other shape takes the stage-isolated
	// path below.
	if len(stages) == 1 && len(stages[0].Args) > 0 && !pl.Background && !stages[0].hasRedirect() {
		if b, ok := AllBuiltins[stages[0].Args[0]]; ok {
			return b.Main(s, stages[0].Args)
		}
	}

	statuses := make([]int, len(stages))
	procs := make(map[int]int) // external pid -> stage index
	pgid := 0

	var wg sync.WaitGroup   // builtin stages
	var parentClose []*os.File
	var prevRead *os.File

	for i, st := range stages {
		in, out := s.Stdin, s.Stdout
		if prevRead != nil {
			in = prevRead
		}

		var nextRead *os.File
		if i < len(stages)-1 {
			r, w, err := os.Pipe()
			if err != nil {
				s.UI.Error(fmt.Sprintf("pipe: %v", err))
				closeAll(parentClose)
				return 1
			}
			out, nextRead = w, r
			parentClose = append(parentClose, r, w)
		}
		prevRead = nextRead

		if len(st.Args) == 0 {
			// A redirect-only stage runs nothing and touches nothing;
			// its dangling pipe ends close with the parent's copies.
			continue
		}

		// Redirections override the pipe ends, last dup wins.
		rin, rout, err := openRedirects(st)
		if err != nil {
			s.UI.Error(err.Error())
			statuses[i] = 1
			continue
		}
		if rin != nil {
			in = rin
			parentClose = append(parentClose, rin)
		}
		if rout != nil {
			out = rout
			parentClose = append(parentClose, rout)
		}

		if b, ok := AllBuiltins[st.Args[0]]; ok {
			// The goroutine takes over the stage's non-terminal files;
			// closing its write end is what signals EOF downstream.
			var owned []*os.File
			for _, f := range []*os.File{in, out} {
				if f != s.Stdin && f != s.Stdout {
					owned = append(owned, f)
					parentClose = removeFile(parentClose, f)
				}
			}
			sub := s.isolated(in, out)
			wg.Add(1)
			go func(i int, b ShellBuiltin, args []string) {
				defer wg.Done()
				statuses[i] = b.Main(sub, args)
				for _, f := range owned {
					f.Close()
				}
			}(i, b, st.Args)
			continue
		}

		path, err := exec.LookPath(st.Args[0])
		if err != nil {
			s.UI.Error(fmt.Sprintf("command not found: %s", st.Args[0]))
			statuses[i] = 127
			continue
		}

		proc, err := os.StartProcess(path, st.Args, &os.ProcAttr{
			Files: []*os.File{in, out, s.Stderr},
			Sys:   &syscall.SysProcAttr{Setpgid: true, Pgid: pgid},
		})
		if err != nil {
			// Spawn failure abandons the rest of the launch; stages
			// already started run on as orphans.
			s.UI.Error(fmt.Sprintf("%s: %v", st.Args[0], err))
			closeAll(parentClose)
			return 1
		}
		if pgid == 0 {
			// First child leads the group; the rest join it.
			pgid = proc.Pid
		}
		s.Bridge.Register(proc.Pid, pgid)
		procs[proc.Pid] = i
	}

	// The children hold duplicates of the pipe and redirect fds; the
	// parent's copies must go or downstream readers never see EOF.
	closeAll(parentClose)

	if pgid == 0 {
		// Builtins only. There is no process group to background, so
		// the pipeline completes synchronously either way.
		wg.Wait()
		return statuses[len(statuses)-1]
	}

	if pl.Background {
		j := s.Jobs.Add(pgid, raw, job.Running)
		s.lastJobID = j.ID
		s.Bridge.Replay(pgid)
		s.UI.JobStarted(j)
		return 0
	}

	return s.waitForeground(pgid, raw, procs, statuses, &wg)
}

// waitForeground hands the terminal to the pipeline's group and
// consumes child events until every external stage has exited or the
// group stops. A stopped group becomes a job and the shell prompt
// returns immediately.
func (s *Shell) waitForeground(pgid int, raw string, procs map[int]int, statuses []int, wg *sync.WaitGroup) int {
	events := s.Bridge.Watch(pgid)
	s.Bridge.SetForeground(pgid)

	for len(procs) > 0 {
		ev := <-events

		if ev.Status.Stopped() {
			j := s.Jobs.Add(pgid, raw, job.Stopped)
			s.lastJobID = j.ID
			s.detach(pgid, events)
			s.UI.JobStopped(j)
			return 0
		}

		if ev.Status.Exited() || ev.Status.Signaled() {
			if idx, ok := procs[ev.Pid]; ok {
				delete(procs, ev.Pid)
				statuses[idx] = exitCode(ev.Status)
			}
		}
	}

	s.detach(pgid, events)
	wg.Wait()
	return statuses[len(statuses)-1]
}

// detach unsubscribes from the group's events and takes the terminal
// back. Events already buffered are re-routed so nothing is lost.
func (s *Shell) detach(pgid int, events <-chan job.ChildEvent) {
	s.Bridge.Unwatch(pgid)
	for {
		select {
		case ev := <-events:
			s.Bridge.Notify(ev)
		default:
			s.Bridge.ClearForeground()
			return
		}
	}
}

// expandStage resolves the stage's command through the alias table.
// The stage's words are rejoined and offered to first-word expansion;
// when the alias changed anything the text is re-tokenized, so a
// multi-word alias value splits into arguments and its $NAME
// references resolve. Expansion is applied once, never recursively.
func (s *Shell) expandStage(st Stage) Stage {
	if len(st.Args) == 0 {
		return st
	}
	text := strings.Join(st.Args, " ")
	if expanded := s.Aliases.Expand(text); expanded != text {
		st.Args = Tokenize(expanded, s.LookupVar)
	}
	return st
}

// isolated is the pipeline-stage view of the shell: stdio rebound and
// the mutable tables snapshotted, so a builtin stage's writes die with
// the stage the way a forked child's would.
func (s *Shell) isolated(in, out *os.File) *Shell {
	c := s.withStdio(in, out)
	c.Vars = s.Vars.Clone()
	c.Aliases = s.Aliases.Clone()
	c.History = s.History.Clone()
	return c
}

// withStdio rebinds the shell's stdio for an in-process builtin; the
// session tables stay shared so cd, set and alias take effect.
func (s *Shell) withStdio(in, out *os.File) *Shell {
	c := *s
	if in != nil {
		c.Stdin = in
	}
	if out != nil {
		c.Stdout = out
		c.UI = ui.New(out)
	}
	return &c
}

// openRedirects opens a stage's redirection targets. Either returned
// file is nil when that side has no redirection.
func openRedirects(st Stage) (in, out *os.File, err error) {
	if st.InFile != "" {
		in, err = os.Open(st.InFile)
		if err != nil {
			return nil, nil, err
		}
	}
	if st.OutFile != "" {
		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if st.Append {
			flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		out, err = os.OpenFile(st.OutFile, flags, 0644)
		if err != nil {
			if in != nil {
				in.Close()
			}
			return nil, nil, err
		}
	}
	return in, out, nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}

func removeFile(files []*os.File, f *os.File) []*os.File {
	for i, have := range files {
		if have == f {
			return append(files[:i], files[i+1:]...)
		}
	}
	return files
}

func exitCode(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	}
	return 0
}
