package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// HelperEnv marks a test binary that was re-executed as a fake picker.
const HelperEnv = "GO_WANT_PICKER_HELPER"

// SetupFakePicker installs an executable named "fake-picker" that re-runs
// the current test binary as the given scenario. The script's directory is
// prepended to PATH and its absolute path is returned.
func SetupFakePicker(t *testing.T, scenario string) string {
	t.Helper()
	return SetupFakePickerNamed(t, "fake-picker", scenario)
}

// SetupFakePickerNamed is SetupFakePicker with a chosen executable name, so
// a test can stand in for a picker found by PATH lookup.
func SetupFakePickerNamed(t *testing.T, name string, scenario string) string {
	t.Helper()

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable failed: %v", err)
	}

	dir := t.TempDir()
	scriptPath := filepath.Join(dir, name)
	script := fmt.Sprintf("#!/bin/sh\nset -eu\n%s=1 exec %q -test.run '^TestHelperProcess$' -- %q \"$@\"\n", HelperEnv, exe, scenario)
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake picker: %v", err)
	}

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return scriptPath
}

// IsHelperProcess reports whether the running test binary is acting as a
// fake picker.
func IsHelperProcess() bool {
	return os.Getenv(HelperEnv) == "1"
}

// ScenarioFromArgs returns the scenario following "--" and any arguments
// the picker was started with after it.
func ScenarioFromArgs(args []string, fallback string) (string, []string) {
	for index, arg := range args {
		if arg == "--" && index+1 < len(args) {
			return args[index+1], args[index+2:]
		}
	}
	return fallback, nil
}

// RunHelper is the body of a package's TestHelperProcess. It never returns
// when the binary runs as a fake picker.
func RunHelper() {
	if !IsHelperProcess() {
		return
	}

	scenario, args := ScenarioFromArgs(os.Args, ScenarioHappy)
	code, err := RunScenario(scenario, args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "helper scenario failed: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}
