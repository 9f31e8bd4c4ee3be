package picker

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Command is a resolved picker invocation.
type Command struct {
	Executable string
	Args       []string
}

// ResolveCommand locates the configured picker. Bare names are looked up
// on PATH; paths starting with "~/" are expanded against the home directory.
func ResolveCommand(options Options) (Command, error) {
	options = options.withDefaults()
	name := strings.TrimSpace(options.Command)
	if name == "" {
		return Command{}, fmt.Errorf("picker command is empty")
	}

	if strings.HasPrefix(name, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return Command{}, fmt.Errorf("expand picker path %q: %w", name, err)
		}
		name = expandHome(name, home)
	}

	executable, err := exec.LookPath(name)
	if err != nil {
		return Command{}, fmt.Errorf("picker %q not found: %w", name, err)
	}
	return Command{Executable: executable, Args: append([]string{}, options.Args...)}, nil
}

func expandHome(path string, home string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	return filepath.Join(home, path[1:])
}
