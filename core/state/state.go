// Package state holds the shell's variable and alias tables.
//
// Both tables are explicit owned containers handed to the components
// that need them (the tokenizer reads variables, the executor expands
// aliases) rather than process-wide globals.
package state

import (
	"sort"
	"strings"
	"sync"
)

// Vars is an in-memory shell variable table.
type Vars struct {
	rw   sync.RWMutex
	vals map[string]string
}

func NewVars() *Vars {
	return &Vars{}
}

// Set stores a variable, replacing any previous value.
func (v *Vars) Set(name, value string) {
	v.rw.Lock()
	defer v.rw.Unlock()
	if v.vals == nil {
		v.vals = make(map[string]string)
	}
	v.vals[name] = value
}

// Unset removes a variable. It reports whether the variable existed.
func (v *Vars) Unset(name string) bool {
	v.rw.Lock()
	defer v.rw.Unlock()
	_, ok := v.vals[name]
	delete(v.vals, name)
	return ok
}

// Get looks up a variable and reports whether it was set.
func (v *Vars) Get(name string) (string, bool) {
	v.rw.RLock()
	defer v.rw.RUnlock()
	val, ok := v.vals[name]
	return val, ok
}

// Names returns the defined variable names in sorted order.
func (v *Vars) Names() []string {
	v.rw.RLock()
	defer v.rw.RUnlock()
	var out []string
	for k := range v.vals {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the table.
func (v *Vars) Clone() *Vars {
	v.rw.RLock()
	defer v.rw.RUnlock()
	c := NewVars()
	if len(v.vals) > 0 {
		c.vals = make(map[string]string, len(v.vals))
		for k, val := range v.vals {
			c.vals[k] = val
		}
	}
	return c
}

// Aliases is an in-memory command alias table.
type Aliases struct {
	rw   sync.RWMutex
	vals map[string]string
}

func NewAliases() *Aliases {
	return &Aliases{}
}

// Set stores an alias, replacing any previous definition.
func (a *Aliases) Set(name, value string) {
	a.rw.Lock()
	defer a.rw.Unlock()
	if a.vals == nil {
		a.vals = make(map[string]string)
	}
	a.vals[name] = value
}

// Remove deletes an alias. It reports whether the alias existed.
func (a *Aliases) Remove(name string) bool {
	a.rw.Lock()
	defer a.rw.Unlock()
	_, ok := a.vals[name]
	delete(a.vals, name)
	return ok
}

// Get looks up an alias definition.
func (a *Aliases) Get(name string) (string, bool) {
	a.rw.RLock()
	defer a.rw.RUnlock()
	val, ok := a.vals[name]
	return val, ok
}

// Names returns the defined alias names in sorted order.
func (a *Aliases) Names() []string {
	a.rw.RLock()
	defer a.rw.RUnlock()
	var out []string
	for k := range a.vals {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the table.
func (a *Aliases) Clone() *Aliases {
	a.rw.RLock()
	defer a.rw.RUnlock()
	c := NewAliases()
	if len(a.vals) > 0 {
		c.vals = make(map[string]string, len(a.vals))
		for k, val := range a.vals {
			c.vals[k] = val
		}
	}
	return c
}

// Expand replaces the first word of command with its alias definition,
// if one exists. Expansion is applied once and is not recursive.
func (a *Aliases) Expand(command string) string {
	trimmed := strings.TrimLeft(command, " \t")
	if trimmed == "" {
		return command
	}

	first := trimmed
	rest := ""
	if idx := strings.IndexAny(trimmed, " \t"); idx >= 0 {
		first = trimmed[:idx]
		rest = strings.TrimLeft(trimmed[idx:], " \t")
	}

	value, ok := a.Get(first)
	if !ok {
		return command
	}
	if rest == "" {
		return value
	}
	return value + " " + rest
}
