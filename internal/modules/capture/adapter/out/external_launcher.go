package out

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	captureout "avrec/internal/modules/capture/port/out"
)

// OSLauncher plays media with the desktop's default application.
type OSLauncher struct{}

func NewOSLauncher() captureout.Launcher {
	return &OSLauncher{}
}

func (l *OSLauncher) Open(_ context.Context, target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "linux":
		cmd = exec.Command("xdg-open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return fmt.Errorf("playback is not supported on %s", runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch player: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
