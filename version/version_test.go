package version

import "testing"

func TestString(t *testing.T) {
	Version, GitCommit, GitBranch, BuildDate = "1.2.0", "abc123", "", ""
	if s := String(); s != "git commit: abc123\nversion: 1.2.0" {
		t.Errorf("unexpected version string %q", s)
	}
}
