// Package notify toggles the OS's do-not-disturb state in response to
// focus-mode activation. Best-effort: a failure to toggle DND never blocks
// the daemon's tick loop, it is only logged.
package notify

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Controller suppresses or allows OS notifications.
type Controller struct {
	log *zap.Logger
}

// New constructs a Controller. log may be nil (a no-op logger is used).
func New(log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{log: log}
}

// Suppress enables Do Not Disturb / Focus Assist for the current platform.
func (c *Controller) Suppress() bool {
	return c.toggle(true)
}

// Allow disables Do Not Disturb.
func (c *Controller) Allow() bool {
	return c.toggle(false)
}

func (c *Controller) toggle(enable bool) bool {
	var err error
	switch runtime.GOOS {
	case "windows":
		err = c.windowsDND(enable)
	case "darwin":
		err = c.macosDND(enable)
	default:
		err = c.linuxDND(enable)
	}
	if err != nil {
		c.log.Warn("dnd toggle failed", zap.Bool("enable", enable), zap.Error(err))
		return false
	}
	return true
}

func runWithTimeout(ctx context.Context, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).Run()
}

func (c *Controller) windowsDND(enable bool) error {
	value := "0"
	if enable {
		value = "1"
	}
	return runWithTimeout(context.Background(), "powershell", "-Command",
		"Set-ItemProperty -Path 'HKCU:\\Software\\Microsoft\\Windows\\CurrentVersion\\CloudContent' "+
			"-Name 'DisableWindowsSpotlightFeatures' -Value "+value+" -Type DWord")
}

func (c *Controller) macosDND(enable bool) error {
	value := "FALSE"
	if enable {
		value = "TRUE"
	}
	if err := runWithTimeout(context.Background(), "defaults", "-currentHost", "write",
		"com.apple.notificationcenterui", "doNotDisturb", "-boolean", value); err != nil {
		return err
	}
	return runWithTimeout(context.Background(), "killall", "NotificationCenter")
}

func (c *Controller) linuxDND(enable bool) error {
	value := "true"
	if enable {
		value = "false"
	}
	return runWithTimeout(context.Background(), "gsettings", "set",
		"org.gnome.desktop.notifications", "show-banners", value)
}
