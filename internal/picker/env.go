package picker

import (
	"os"
	"sort"
	"strings"
)

// DefaultEnvAllowlist names the variables a picker inherits. Display and
// session bus variables are needed by graphical pickers.
var DefaultEnvAllowlist = []string{
	"HOME",
	"PATH",
	"USER",
	"LOGNAME",
	"LANG",
	"TERM",
	"SHELL",
	"TMPDIR",
	"TZ",
	"DISPLAY",
	"WAYLAND_DISPLAY",
	"XAUTHORITY",
	"DBUS_SESSION_BUS_ADDRESS",
	"GPG_TTY",
}

var DefaultEnvAllowPrefixes = []string{
	"XDG_",
	"LC_",
}

// buildEnv returns the picker environment. Explicit Environment entries
// override inherited values. With InheritEnvironment off only the explicit
// entries are passed.
func buildEnv(options Options) []string {
	result := map[string]string{}

	if options.InheritEnvironment {
		allowlist := options.EnvAllowlist
		if allowlist == nil {
			allowlist = DefaultEnvAllowlist
		}
		allowPrefixes := options.EnvAllowPrefixes
		if allowPrefixes == nil {
			allowPrefixes = DefaultEnvAllowPrefixes
		}

		allowed := map[string]bool{}
		for _, key := range allowlist {
			allowed[key] = true
		}

		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			if allowed[key] || hasAllowedPrefix(key, allowPrefixes) {
				result[key] = value
			}
		}
	}

	for key, value := range options.Environment {
		result[key] = value
	}

	return mapToEnvSlice(result)
}

func hasAllowedPrefix(key string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func mapToEnvSlice(values map[string]string) []string {
	out := make([]string, 0, len(values))
	for key, value := range values {
		out = append(out, key+"="+value)
	}
	sort.Strings(out)
	return out
}
