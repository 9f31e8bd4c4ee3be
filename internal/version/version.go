// Package version reports the pinentry-picker version and build metadata.
//
// CommitHash is set with -ldflags during release builds.
package version

import (
	"fmt"
	"strings"
)

// CommitHash stores the git commit of this build.
var CommitHash string

// semanticAlphabet lists the characters a pre-release tag may use.
const semanticAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

const (
	appMajor uint = 0
	appMinor uint = 3
	appPatch uint = 0

	appPreRelease = ""
)

// Version returns the semantic version, as reported by GETINFO version.
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if preRelease := normalize(appPreRelease); preRelease != "" {
		version += "-" + preRelease
	}
	return version
}

// RichVersion appends the commit hash when the build recorded one.
func RichVersion() string {
	commit := strings.TrimSpace(CommitHash)
	if commit == "" {
		return Version()
	}
	return fmt.Sprintf("%s commit_hash=%s", Version(), commit)
}

func normalize(value string) string {
	var builder strings.Builder
	for _, r := range value {
		if strings.ContainsRune(semanticAlphabet, r) {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
