// Package version reports build details stamped in by the linker, e.g.
//
//	go build -ldflags "-X github.com/zizibee/zizibee/version.Version=1.2.0"
package version

import (
	"fmt"
	"strings"
)

// Build and version details
var (
	GitCommit = ""
	GitBranch = ""
	BuildDate = ""
	Version   = "dev"
)

// String formats the version details which are set, one per line.
func String() string {
	lines := []string{}
	for _, kv := range [][2]string{
		{"git commit", GitCommit},
		{"git branch", GitBranch},
		{"build date", BuildDate},
	} {
		if kv[1] != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", kv[0], kv[1]))
		}
	}
	lines = append(lines, "version: "+Version)
	return strings.Join(lines, "\n")
}

// LogFields returns the version details as logger key/value pairs.
func LogFields() []interface{} {
	return []interface{}{
		"GitCommit", GitCommit,
		"GitBranch", GitBranch,
		"BuildDate", BuildDate,
		"Version", Version,
	}
}
