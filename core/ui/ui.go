// Package ui renders the shell's structured results for a human on a
// color terminal. It is a pure consumer of core types: nothing in here
// affects parsing, execution or job control.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"cybersh/core/job"
)

var (
	cyan   = color.New(color.FgHiCyan).SprintFunc()
	pink   = color.New(color.FgHiMagenta).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	blue   = color.New(color.FgHiBlue).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	purple = color.New(color.FgMagenta).SprintFunc()
)

// Renderer writes formatted output to a single writer.
type Renderer struct {
	out io.Writer
}

func New(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func tag(colorize func(...interface{}) string, name string) string {
	return gray("[") + colorize(name) + gray("]")
}

// Error prints a user-facing diagnostic.
func (r *Renderer) Error(msg string) {
	fmt.Fprintf(r.out, "%s %s\n", tag(pink, "ERROR"), pink(msg))
}

// Notice prints a tagged informational line.
func (r *Renderer) Notice(name, msg string) {
	fmt.Fprintf(r.out, "%s %s\n", tag(cyan, name), msg)
}

// PromptInfo carries everything the prompt displays.
type PromptInfo struct {
	User           string
	Host           string
	Cwd            string
	Clock          string
	LastStatus     int
	BackgroundJobs int
}

// Prompt builds the prompt string for one read-eval iteration.
func (r *Renderer) Prompt(p PromptInfo) string {
	icon := green("✓")
	if p.LastStatus != 0 {
		icon = pink("✗")
	}

	prompt := fmt.Sprintf("%s %s%s%s %s %s %s %s %s ",
		gray("[")+icon+gray("]"),
		pink(p.User), gray("@"), cyan(p.Host),
		gray("•"), yellow(p.Clock),
		blue(p.Cwd),
		gray("•"), cyan("➜"))

	if p.BackgroundJobs > 0 {
		prompt = fmt.Sprintf("%s%s ", prompt, yellow(fmt.Sprintf("[bg:%d]", p.BackgroundJobs)))
	}
	return prompt
}

// Banner prints the startup header.
func (r *Renderer) Banner(user, host string, now time.Time) {
	fmt.Fprintln(r.out, cyan("cybersh")+gray(" — ")+purple("advanced command interface"))
	r.Notice("SYSTEM", fmt.Sprintf("%s@%s • %s", user, host, now.Format("15:04:05 • 2006-01-02")))
	r.Notice("SYSTEM", "type 'help' for commands • 'exit' to quit")
}

// JobTable lists all active jobs.
func (r *Renderer) JobTable(jobs []job.Job) {
	fmt.Fprintf(r.out, "%s\n", tag(cyan, "JOBS"))
	for _, j := range jobs {
		state := fmt.Sprintf("%-8s", j.State)
		switch j.State {
		case job.Running:
			state = green(state)
		case job.Stopped:
			state = yellow(state)
		default:
			state = pink(state)
		}
		fmt.Fprintf(r.out, "  [%d]  %s %s\n", j.ID, state, j.Command)
	}
}

// JobStarted reports a background launch with job id and leader pid.
func (r *Renderer) JobStarted(j job.Job) {
	r.Notice("BACKGROUND", fmt.Sprintf("job [%d] started with pid %d", j.ID, j.Pgid))
}

// JobStopped reports a foreground group suspension.
func (r *Renderer) JobStopped(j job.Job) {
	r.Notice("STOPPED", fmt.Sprintf("job [%d] stopped: %s", j.ID, j.Command))
}

// JobCompleted reports a finished background job.
func (r *Renderer) JobCompleted(j job.Job) {
	r.Notice("JOB COMPLETED", fmt.Sprintf("job [%d] finished", j.ID))
}

// HistoryEcho shows a replayed history line before it executes.
func (r *Renderer) HistoryEcho(line string) {
	r.Notice("HISTORY", line)
}

// TokenPreview shows the tokenized form of a line without executing it.
func (r *Renderer) TokenPreview(tokens []string) {
	fmt.Fprintf(r.out, "%s", tag(cyan, "TOKENS"))
	for _, tok := range tokens {
		fmt.Fprintf(r.out, " '%s'", tok)
	}
	fmt.Fprintln(r.out)
}

// NumberedList prints lines with 1-based indexes, history style.
func (r *Renderer) NumberedList(title string, lines []string) {
	fmt.Fprintf(r.out, "%s\n", tag(cyan, title))
	for i, line := range lines {
		fmt.Fprintf(r.out, "%s  %s\n", purple(fmt.Sprintf("%5d", i+1)), line)
	}
}

// Pair is one name/value row for PairList.
type Pair struct {
	Name  string
	Value string
}

// PairList prints name/value rows, alias table style.
func (r *Renderer) PairList(title string, pairs []Pair) {
	fmt.Fprintf(r.out, "%s\n", tag(cyan, title))
	for _, p := range pairs {
		fmt.Fprintf(r.out, "  %s %s %s\n", green(fmt.Sprintf("%-16s", p.Name)), gray("→"), p.Value)
	}
}

// Help prints the builtin summary.
func (r *Renderer) Help(builtins []string) {
	fmt.Fprintf(r.out, "%s\n", tag(cyan, "HELP"))
	fmt.Fprintln(r.out, "  pipes and redirection: | > >> <, background with &")
	fmt.Fprintln(r.out, "  $NAME expands shell variables, then the environment")
	fmt.Fprintln(r.out, "  !N re-runs history entry N; end a line with ? to preview tokens")
	fmt.Fprintln(r.out, "  builtins:")
	for _, b := range builtins {
		fmt.Fprintf(r.out, "    %s\n", green(b))
	}
}
