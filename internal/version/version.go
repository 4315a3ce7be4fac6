package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Name is the program name used in version strings.
const Name = "projctl"

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/projctl/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/projctl/internal/version.Commit=abc123"
//
// Builds without ldflags fall back to the VCS stamp in the binary, then to a
// dev version.
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the short git commit hash
	Commit = ""
)

const shortHash = 7

func init() {
	if Version == "" || Commit == "" {
		fromVCS(vcsSettings())
	}
	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// vcsSettings returns the vcs.* build settings stamped by the go tool.
func vcsSettings() map[string]string {
	settings := map[string]string{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

// fromVCS fills whichever of Version and Commit is still empty.
// Build info carries no tags, so the version is the commit date.
func fromVCS(settings map[string]string) {
	if rev := settings["vcs.revision"]; Commit == "" && rev != "" {
		if len(rev) > shortHash {
			rev = rev[:shortHash]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}

	if Version == "" {
		if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns the version with its commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent identifies projctl to HTTP peers and in mDNS TXT records.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s/%s)", Name, Version, runtime.GOOS, runtime.GOARCH)
}
