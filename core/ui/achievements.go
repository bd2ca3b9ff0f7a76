package ui

import (
	"fmt"
	"strings"
)

// Achievements is a small cosmetic tracker that unlocks popups as the
// user exercises shell features. Purely presentational.
type Achievements struct {
	r        *Renderer
	unlocked map[string]bool
	bgCount  int
}

func NewAchievements(r *Renderer) *Achievements {
	return &Achievements{r: r, unlocked: make(map[string]bool)}
}

// Unlock shows the popup for name once; later calls are no-ops.
func (a *Achievements) Unlock(name, description string) {
	if a.unlocked[name] {
		return
	}
	a.unlocked[name] = true
	a.r.Notice("ACHIEVEMENT", fmt.Sprintf("%s — %s", name, description))
}

// Check inspects an executed command line for unlockable feats.
func (a *Achievements) Check(command string, commandCount int) {
	if commandCount == 1 {
		a.Unlock("FIRST_COMMAND", "execute your first command")
	}
	if strings.Contains(command, "|") {
		a.Unlock("PIPE_MASTER", "use pipeline operations in commands")
	}
	if strings.Contains(command, "&") {
		a.bgCount++
		if a.bgCount >= 3 {
			a.Unlock("BACKGROUND_OPERATOR", "run commands in the background")
		}
	}
}
