package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Indirection for tests; runtime.GOOS is a constant.
var currentOS = func() string { return runtime.GOOS }

// OpenBrowser hands the URL to the platform's default browser. Both OAuth
// flows use this to get the user to Tidal's authorization page; callers fall
// back to printing the URL when it fails.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch os := currentOS(); os {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", os)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
