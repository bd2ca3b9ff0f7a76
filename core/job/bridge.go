package job

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// maxPending bounds the ring of child events that arrived before any
// subscriber or job existed for their group.
const maxPending = 64

// ChildEvent is one child-state notification drained from the kernel.
type ChildEvent struct {
	Pid    int
	Pgid   int
	Status unix.WaitStatus
}

// Bridge maps terminal signals to the current foreground process group
// and reaps child-state changes asynchronously.
//
// All wait syscalls happen on a single watcher goroutine; the main loop
// observes child state either through the job table or through a
// per-group event subscription. That keeps the table mutations and the
// foreground marker race-free without a true interrupt handler.
type Bridge struct {
	table *Table
	// tty is the controlling terminal fd, or -1 when stdin is not a
	// terminal (terminal handoff becomes a no-op).
	tty       int
	shellPgid int

	mu       sync.Mutex
	fgPgid   int
	watchers map[int]chan ChildEvent
	pending  []ChildEvent
	// pids maps launched pids to their process group. Wait4 reaps a
	// pid before the watcher can ask the kernel for its group, so
	// Getpgid on an exited child fails; launch-time registration is
	// the only reliable mapping for non-leader pipeline members.
	pids map[int]int

	sigchld chan os.Signal
	fwd     chan os.Signal
	done    chan struct{}
}

// NewBridge creates a bridge for the given job table. ttyFd is the
// controlling terminal file descriptor, or -1 for none.
func NewBridge(table *Table, ttyFd int) *Bridge {
	return &Bridge{
		table:    table,
		tty:      ttyFd,
		watchers: make(map[int]chan ChildEvent),
		pids:     make(map[int]int),
		sigchld:  make(chan os.Signal, 16),
		fwd:      make(chan os.Signal, 16),
		done:     make(chan struct{}),
	}
}

// Start installs signal routing and launches the watcher.
//
// The shell takes over its own process group and the terminal, ignores
// the terminal-stop signals so background jobs touching the terminal
// cannot stop it, and routes SIGCHLD/SIGINT/SIGTSTP through channels.
func (b *Bridge) Start() {
	b.shellPgid = unix.Getpgrp()
	if pid := unix.Getpid(); b.shellPgid != pid {
		if err := unix.Setpgid(pid, pid); err == nil {
			b.shellPgid = pid
		}
	}
	b.setTerminalGroup(b.shellPgid)

	signal.Ignore(unix.SIGTTOU, unix.SIGTTIN)
	signal.Notify(b.sigchld, unix.SIGCHLD)
	signal.Notify(b.fwd, unix.SIGINT, unix.SIGTSTP)

	go b.reapLoop()
	go b.forwardLoop()
}

// Stop removes signal routing and stops the watcher goroutines.
func (b *Bridge) Stop() {
	signal.Stop(b.sigchld)
	signal.Stop(b.fwd)
	close(b.done)
}

// ShellPgid returns the shell's own process group id.
func (b *Bridge) ShellPgid() int {
	return b.shellPgid
}

// Foreground returns the current foreground process group id,
// or 0 when no group other than the shell is foregrounded.
func (b *Bridge) Foreground() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fgPgid
}

// SetForeground marks pgid as the foreground group and hands it the
// controlling terminal.
func (b *Bridge) SetForeground(pgid int) {
	b.mu.Lock()
	b.fgPgid = pgid
	b.mu.Unlock()
	b.setTerminalGroup(pgid)
}

// ClearForeground returns terminal control to the shell and clears the
// foreground marker.
func (b *Bridge) ClearForeground() {
	b.mu.Lock()
	b.fgPgid = 0
	b.mu.Unlock()
	b.setTerminalGroup(b.shellPgid)
}

func (b *Bridge) setTerminalGroup(pgid int) {
	if b.tty < 0 || pgid <= 0 {
		return
	}
	// SIGTTOU is ignored, so this succeeds even while backgrounded.
	_ = unix.IoctlSetPointerInt(b.tty, unix.TIOCSPGRP, pgid)
}

// Register records a launched pid as a member of pgid. The entry is
// dropped once the pid's terminal event has been drained.
func (b *Bridge) Register(pid, pgid int) {
	b.mu.Lock()
	b.pids[pid] = pgid
	b.mu.Unlock()
}

// Watch subscribes to child events for the given process group.
// Events that arrived before the subscription are replayed from the
// pending ring. The caller must Unwatch when done.
func (b *Bridge) Watch(pgid int) <-chan ChildEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan ChildEvent, maxPending)
	b.watchers[pgid] = ch
	b.replayLocked(pgid, func(ev ChildEvent) {
		select {
		case ch <- ev:
		default:
		}
	})
	return ch
}

// Unwatch removes the subscription for pgid.
func (b *Bridge) Unwatch(pgid int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.watchers, pgid)
}

// Replay re-applies pending events for pgid against the job table.
// It closes the window between launching a background pipeline and
// recording its job, during which an exit notification has no home.
func (b *Bridge) Replay(pgid int) {
	b.mu.Lock()
	var replay []ChildEvent
	b.replayLocked(pgid, func(ev ChildEvent) {
		replay = append(replay, ev)
	})
	b.mu.Unlock()

	for _, ev := range replay {
		b.updateTable(ev)
	}
}

func (b *Bridge) replayLocked(pgid int, f func(ChildEvent)) {
	var keep []ChildEvent
	for _, ev := range b.pending {
		if ev.Pgid == pgid || ev.Pid == pgid {
			f(ev)
		} else {
			keep = append(keep, ev)
		}
	}
	b.pending = keep
}

func (b *Bridge) reapLoop() {
	for {
		select {
		case <-b.done:
			return
		case <-b.sigchld:
			b.drain()
		}
	}
}

// drain consumes every pending child-state change. SIGCHLD coalesces,
// so one wakeup may cover several children.
func (b *Bridge) drain() {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)
		if err != nil || pid <= 0 {
			return
		}
		b.mu.Lock()
		pgid, known := b.pids[pid]
		if known && (ws.Exited() || ws.Signaled()) {
			delete(b.pids, pid)
		}
		b.mu.Unlock()
		if !known {
			// Unregistered child; the kernel only answers while the
			// pid is alive, so fall back to pid (a leader's pgid
			// equals its pid).
			if g, err := unix.Getpgid(pid); err == nil {
				pgid = g
			} else {
				pgid = pid
			}
		}
		b.Notify(ChildEvent{Pid: pid, Pgid: pgid, Status: ws})
	}
}

// Notify routes one child event: subscribers first, then the job
// table. An event matching neither is kept in the pending ring so a
// subscriber registering momentarily later still sees it.
func (b *Bridge) Notify(ev ChildEvent) {
	b.mu.Lock()
	ch := b.watchers[ev.Pgid]
	if ch == nil {
		ch = b.watchers[ev.Pid]
	}
	if ch != nil {
		select {
		case ch <- ev:
		default:
		}
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	if !b.updateTable(ev) {
		b.mu.Lock()
		b.pending = append(b.pending, ev)
		if len(b.pending) > maxPending {
			b.pending = b.pending[len(b.pending)-maxPending:]
		}
		b.mu.Unlock()
	}
}

// updateTable applies a child event to the owning job, if any.
// A pid belongs to a job when it is the group leader or its group id
// matches the job's pgid. Unmatched pids are the caller's concern.
func (b *Bridge) updateTable(ev ChildEvent) bool {
	pgid := ev.Pgid
	if _, ok := b.table.ByPgid(pgid); !ok {
		pgid = ev.Pid
	}

	switch {
	case ev.Status.Exited() || ev.Status.Signaled():
		_, ok := b.table.SetStateByPgid(pgid, Done)
		return ok
	case ev.Status.Stopped():
		_, ok := b.table.SetStateByPgid(pgid, Stopped)
		return ok
	case ev.Status.Continued():
		_, ok := b.table.SetStateByPgid(pgid, Running)
		return ok
	}
	return false
}

func (b *Bridge) forwardLoop() {
	for {
		select {
		case <-b.done:
			return
		case sig := <-b.fwd:
			// Forward to the foreground group; absorb when there is none.
			if fg := b.Foreground(); fg > 0 {
				if s, ok := sig.(unix.Signal); ok {
					_ = unix.Kill(-fg, s)
				}
			}
		}
	}
}
