package version

import (
	"fmt"
	"runtime"
)

// Overridden with -ldflags "-X github.com/soyeahso/agentgallery/internal/version.Version=..."
// (likewise Commit and Date).
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns the full build description shown by `agentgallery version`.
func Info() string {
	return fmt.Sprintf("agentgallery %s (commit: %s, built: %s, %s/%s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// UserAgent is sent on every outbound API request.
func UserAgent() string {
	return "agentgallery/" + Version
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
