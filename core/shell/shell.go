// Package shell implements the interactive shell: tokenizer, pipeline
// parser, pipeline executor, builtins and the read-eval loop.
package shell

import (
	"io"
	"log"
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/readline"
	"github.com/spf13/afero"
	"golang.org/x/term"

	"cybersh/core/config"
	"cybersh/core/history"
	"cybersh/core/job"
	"cybersh/core/logger"
	"cybersh/core/state"
	"cybersh/core/ui"
)

// Shell ties the core components together for one interactive session.
type Shell struct {
	Config  *config.Configuration
	FS      afero.Fs
	Vars    *state.Vars
	Aliases *state.Aliases
	History *history.History
	Jobs    *job.Table
	Bridge  *job.Bridge
	UI      *ui.Renderer

	// Log and Feats are optional; nil disables them.
	Log   *logger.Log
	Feats *ui.Achievements

	Readline *readline.Instance

	// Stdio for the shell itself and for pipeline stages that have no
	// pipe or redirection.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	lastStatus   int
	lastJobID    int
	commandCount int
}

// New wires a Shell for the local terminal: job table, signal bridge,
// alias/variable/history tables seeded from the configuration and
// their persisted files, the readline editor and the event log.
func New(cfg *config.Configuration, fs afero.Fs) (*Shell, error) {
	renderer := ui.New(os.Stdout)

	sh := &Shell{
		Config:  cfg,
		FS:      fs,
		Vars:    state.NewVars(),
		Aliases: state.NewAliases(),
		History: history.New(cfg.HistoryLimit),
		Jobs:    job.NewTable(),
		UI:      renderer,
		Feats:   ui.NewAchievements(renderer),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}

	tty := -1
	if term.IsTerminal(int(os.Stdin.Fd())) {
		tty = int(os.Stdin.Fd())
	}
	sh.Bridge = job.NewBridge(sh.Jobs, tty)

	for name, value := range cfg.Aliases {
		sh.Aliases.Set(name, value)
	}
	for name, value := range cfg.Vars {
		sh.Vars.Set(name, value)
	}

	// Persisted definitions win over config seeds.
	if err := state.Load(fs, cfg.StatePath(), sh.Vars, sh.Aliases); err != nil {
		log.Printf("couldn't load state: %v", err)
	}
	if err := sh.History.Load(fs, cfg.HistoryPath()); err != nil {
		log.Printf("couldn't load history: %v", err)
	}

	if path := cfg.EventLogPath(); path != "" {
		eventLog, err := logger.Open(fs, path)
		if err != nil {
			log.Printf("couldn't open event log: %v", err)
		} else {
			sh.Log = eventLog
		}
	}

	var completions []readline.PrefixCompleterInterface
	for _, name := range BuiltinNames() {
		completions = append(completions, readline.PcItem(name))
	}

	rl, err := readline.NewEx(&readline.Config{
		AutoComplete:    readline.NewPrefixCompleter(completions...),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return nil, err
	}
	sh.Readline = rl

	return sh, nil
}

// Run is the read-eval-execute loop. It returns when input is closed;
// the exit builtin terminates the process directly.
func (s *Shell) Run() error {
	s.Bridge.Start()
	defer s.Bridge.Stop()

	if s.Config.Banner {
		s.UI.Banner(s.username(), s.hostname(), time.Now())
	}

	for {
		for _, done := range s.Jobs.ReapDone() {
			s.UI.JobCompleted(done)
		}

		s.Readline.SetPrompt(s.UI.Prompt(s.promptInfo()))
		line, err := s.Readline.Readline()

		switch {
		case err == io.EOF:
			return s.Close()

		case err == readline.ErrInterrupt:
			continue

		case err != nil:
			log.Printf("error reading line: %v", err)
			continue
		}

		s.Eval(line)
	}
}

// Eval runs one completed input line through history replay,
// tokenization, parsing and execution.
func (s *Shell) Eval(line string) {
	if line == "" {
		return
	}

	raw, ok := s.replayHistory(line)
	if !ok {
		return
	}

	s.History.Push(raw)
	s.commandCount++
	if s.Feats != nil {
		s.Feats.Check(raw, s.commandCount)
	}

	// A trailing ? previews the tokenized command instead of running it.
	if strings.HasSuffix(raw, "?") {
		preview := s.Aliases.Expand(strings.TrimSuffix(raw, "?"))
		s.UI.TokenPreview(Tokenize(preview, s.LookupVar))
		return
	}

	// Aliases are resolved later, per pipeline stage, inside Execute.
	tokens := Tokenize(raw, s.LookupVar)
	if len(tokens) == 0 {
		return
	}
	pl := Parse(tokens)
	if len(pl.Stages) == 0 {
		return
	}

	s.lastJobID = 0
	status := s.Execute(pl, raw)
	s.lastStatus = status

	if s.Log != nil {
		err := s.Log.Record(logger.Record{
			Time:       time.Now(),
			Command:    raw,
			Status:     status,
			Background: pl.Background,
			JobID:      s.lastJobID,
		})
		if err != nil {
			log.Printf("couldn't record command: %v", err)
		}
	}
}

// replayHistory resolves a !N prefix against the history store.
// It reports false when the line referenced a missing entry and was
// discarded.
func (s *Shell) replayHistory(line string) (string, bool) {
	if len(line) < 2 || line[0] != '!' || !isDigit(line[1]) {
		return line, true
	}

	digits := 1
	for digits < len(line) && isDigit(line[digits]) {
		digits++
	}
	n, err := strconv.Atoi(line[1:digits])
	if err != nil {
		return line, true
	}

	resolved, err := s.History.Lookup(n)
	if err != nil {
		s.UI.Error("no such history entry")
		return "", false
	}
	s.UI.HistoryEcho(resolved)
	return resolved, true
}

// LookupVar resolves $NAME references: shell-local variables first,
// then the process environment.
func (s *Shell) LookupVar(name string) (string, bool) {
	if value, ok := s.Vars.Get(name); ok {
		return value, true
	}
	return os.LookupEnv(name)
}

// Close persists history and state and releases the session's
// resources.
func (s *Shell) Close() error {
	var lastErr error
	if err := s.History.Save(s.FS, s.Config.HistoryPath()); err != nil {
		lastErr = err
	}
	if err := state.Save(s.FS, s.Config.StatePath(), s.Vars, s.Aliases); err != nil {
		lastErr = err
	}
	if s.Log != nil {
		if err := s.Log.Close(); err != nil {
			lastErr = err
		}
	}
	if s.Readline != nil {
		if err := s.Readline.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (s *Shell) promptInfo() ui.PromptInfo {
	cwd, _ := os.Getwd()
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if strings.HasPrefix(cwd, home) {
			cwd = "~" + strings.TrimPrefix(cwd, home)
		}
	}

	return ui.PromptInfo{
		User:           s.username(),
		Host:           s.hostname(),
		Cwd:            cwd,
		Clock:          time.Now().Format("15:04"),
		LastStatus:     s.lastStatus,
		BackgroundJobs: s.Jobs.RunningCount(),
	}
}

func (s *Shell) username() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "user"
}

func (s *Shell) hostname() string {
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "localhost"
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
