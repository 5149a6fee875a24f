package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nhle/taskboard/internal/model"
)

// Notifier delivers a notification to the user.
type Notifier interface {
	// Supported reports whether notifications can be shown at all.
	Supported() bool
	Notify(ctx context.Context, n model.Notification) error
}

// Desktop shows OS-level notifications: osascript on macOS and
// notify-send on Linux.
type Desktop struct {
	AppName string

	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

var _ Notifier = (*Desktop)(nil)

// NewDesktop returns a Desktop notifier for the running platform.
func NewDesktop(appName string) *Desktop {
	return &Desktop{
		AppName:  appName,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// command returns the program that displays notifications on this platform.
func (d *Desktop) command() string {
	switch d.goos {
	case "darwin":
		return "osascript"
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send"
	default:
		return ""
	}
}

// Supported reports whether the notification program is installed.
func (d *Desktop) Supported() bool {
	cmd := d.command()
	if cmd == "" {
		return false
	}
	_, err := d.lookPath(cmd)
	return err == nil
}

// Notify displays n. It returns an error when the platform has no
// notification program or the program fails.
func (d *Desktop) Notify(ctx context.Context, n model.Notification) error {
	switch cmd := d.command(); cmd {
	case "osascript":
		script := fmt.Sprintf(
			`display notification %s with title %s`,
			escapeAppleScript(n.Body),
			escapeAppleScript(n.Title),
		)
		return d.run(ctx, cmd, "-e", script)
	case "notify-send":
		return d.run(ctx, cmd, "-a", d.AppName, n.Title, n.Body)
	default:
		return fmt.Errorf("desktop notifications unsupported on %s", d.goos)
	}
}

// escapeAppleScript returns a quoted AppleScript string with internal
// quotes and backslashes escaped.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Async delivers notifications on a separate goroutine so a slow
// notification program never stalls the caller. Failures are logged.
type Async struct {
	Notifier
	logger *log.Logger
}

// NewAsync wraps n.
func NewAsync(n Notifier, logger *log.Logger) *Async {
	return &Async{Notifier: n, logger: logger}
}

// Notify starts delivery and returns immediately.
func (a *Async) Notify(ctx context.Context, n model.Notification) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := a.Notifier.Notify(ctx, n); err != nil {
			a.logger.Warn("showing notification", "change_request_id", n.ChangeRequestID, "err", err)
		}
	}()
	return nil
}
