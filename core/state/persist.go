package state

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// Save writes the alias and variable tables to path as one definition
// per line:
//
//	alias NAME=VALUE
//	set NAME=VALUE
func Save(fs afero.Fs, path string, vars *Vars, aliases *Aliases) error {
	fd, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer fd.Close()

	for _, name := range aliases.Names() {
		value, _ := aliases.Get(name)
		if _, err := fmt.Fprintf(fd, "alias %s=%s\n", name, value); err != nil {
			return err
		}
	}
	for _, name := range vars.Names() {
		value, _ := vars.Get(name)
		if _, err := fmt.Fprintf(fd, "set %s=%s\n", name, value); err != nil {
			return err
		}
	}
	return nil
}

// Load reads definitions written by Save into the given tables.
// A missing file is not an error. Unrecognized lines are skipped.
func Load(fs afero.Fs, path string, vars *Vars, aliases *Aliases) error {
	fd, err := fs.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer fd.Close()

	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "alias "):
			if name, value, ok := splitDefinition(line[len("alias "):]); ok {
				aliases.Set(name, value)
			}
		case strings.HasPrefix(line, "set "):
			if name, value, ok := splitDefinition(line[len("set "):]); ok {
				vars.Set(name, value)
			}
		}
	}
	return scanner.Err()
}

func splitDefinition(def string) (name, value string, ok bool) {
	idx := strings.Index(def, "=")
	if idx <= 0 {
		return "", "", false
	}
	return def[:idx], def[idx+1:], true
}
