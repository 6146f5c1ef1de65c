// Package version describes the build of tenet. Values missing from the linker flags are filled from the VCS
// settings Go embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Masterminds/semver"
)

// These variables can be set via ldflags at build time.
var (
	// Version is the semantic version of the build.
	Version = "0.3.0"
	// GitCommit is the git commit hash.
	GitCommit = ""
	// GitCommitTime is the RFC 3339 timestamp of the git commit.
	GitCommitTime = ""
	// GitTreeDirty is "true" if the git tree had uncommitted changes at build time.
	GitTreeDirty = ""
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		GitCommit, GitCommitTime, GitTreeDirty = fillFromBuildSettings(info.Settings, GitCommit, GitCommitTime, GitTreeDirty)
	}
}

// fillFromBuildSettings returns commit, commitTime and dirty, replacing each empty value with the matching VCS build
// setting.
func fillFromBuildSettings(settings []debug.BuildSetting, commit, commitTime, dirty string) (string, string, string) {
	for _, setting := range settings {
		switch {
		case setting.Key == "vcs.revision" && commit == "":
			commit = setting.Value
		case setting.Key == "vcs.time" && commitTime == "":
			commitTime = setting.Value
		case setting.Key == "vcs.modified" && dirty == "":
			dirty = setting.Value
		}
	}
	return commit, commitTime, dirty
}

// Info describes a build.
type Info struct {
	Version       string
	GitCommit     string
	GitCommitTime string
	GitTreeDirty  bool
	GoVersion     string
}

// GetInfo returns the Info of the running binary.
func GetInfo() Info {
	return Info{
		Version:       Version,
		GitCommit:     GitCommit,
		GitCommitTime: GitCommitTime,
		GitTreeDirty:  GitTreeDirty == "true",
		GoVersion:     runtime.Version(),
	}
}

// Semver parses Version.
func (i Info) Semver() (*semver.Version, error) {
	return semver.NewVersion(i.Version)
}

// ShortCommit returns the abbreviated commit hash.
func (i Info) ShortCommit() string {
	const length = 7
	if len(i.GitCommit) > length {
		return i.GitCommit[:length]
	}
	return i.GitCommit
}

// commitLabel returns the abbreviated commit hash, marked if the tree was dirty.
func (i Info) commitLabel() string {
	if i.GitTreeDirty {
		return i.ShortCommit() + "-dirty"
	}
	return i.ShortCommit()
}

// FormattedTime renders the commit time, or "unknown" if it is not known.
func (i Info) FormattedTime() string {
	if i.GitCommitTime == "" {
		return "unknown"
	}
	t, err := time.Parse(time.RFC3339, i.GitCommitTime)
	if err != nil {
		return i.GitCommitTime
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}

// String renders the Info over multiple lines for the version command.
func (i Info) String() string {
	lines := []string{"tenet version " + i.Version}
	if i.GitCommit != "" {
		lines = append(lines, fmt.Sprintf("  Commit:     %s", i.commitLabel()))
	}
	if i.GitCommitTime != "" {
		lines = append(lines, fmt.Sprintf("  Built:      %s", i.FormattedTime()))
	}
	lines = append(lines, fmt.Sprintf("  Go version: %s", i.GoVersion))
	return strings.Join(lines, "\n") + "\n"
}

// Short renders the version with the commit as semver build metadata.
func (i Info) Short() string {
	if i.GitCommit == "" {
		return i.Version
	}
	return i.Version + "+" + i.commitLabel()
}
