package desktop

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/sirupsen/logrus"
)

// SystemLauncher opens URLs with the operating system's default handler.
type SystemLauncher struct {
	// command builds the process to run; tests replace it.
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewSystemLauncher() *SystemLauncher {
	return &SystemLauncher{command: exec.CommandContext}
}

// OpenURL starts the handler and returns without waiting for it to exit.
func (l *SystemLauncher) OpenURL(ctx context.Context, rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("open url: empty url")
	}
	name, args := openCommand(runtime.GOOS, rawURL)
	command := l.command
	if command == nil {
		command = exec.CommandContext
	}
	cmd := command(context.WithoutCancel(ctx), name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", name, err)
	}
	logrus.WithField("url", rawURL).Info("Opened in external browser")
	go func() { _ = cmd.Wait() }()
	return nil
}

func openCommand(goos, rawURL string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{rawURL}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}
	default:
		return "xdg-open", []string{rawURL}
	}
}
