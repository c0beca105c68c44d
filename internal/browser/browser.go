// Package browser navigates the desktop browser on behalf of the session
// manager.
package browser

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/skratchdot/open-golang/open"
)

var ErrUnsafeURL = errors.New("only http and https URLs can be opened")

// Launchers, swapped in tests.
var (
	openURL     = open.Run
	startCmd    = func(cmd *exec.Cmd) error { return cmd.Start() }
	linuxOpener = []string{"xdg-open", "x-www-browser", "www-browser", "firefox", "chromium", "google-chrome"}
)

// Navigator opens URLs in the default browser. The URL is also printed to
// Out so it can be opened by hand when no browser is available.
type Navigator struct {
	Out io.Writer
}

// New returns a Navigator printing to stderr.
func New() *Navigator {
	return &Navigator{Out: os.Stderr}
}

// Navigate opens target in the browser.
func (n *Navigator) Navigate(_ context.Context, target string) error {
	if err := validate(target); err != nil {
		return err
	}
	if n.Out != nil {
		fmt.Fprintf(n.Out, "Opening %s\n", target)
	}

	err := openURL(target)
	if err == nil {
		return nil
	}
	log.Debug().Err(err).Msg("open-golang failed, trying platform command")
	return openPlatformSpecific(target)
}

// Replace only logs: a browser tab opened by the CLI has no history the CLI
// can rewrite.
func (n *Navigator) Replace(_ context.Context, target string) error {
	log.Debug().Str("url", target).Msg("callback url cleaned")
	return nil
}

func validate(target string) error {
	if target == "" {
		return errors.Wrap(ErrUnsafeURL, "[browser.Navigate] empty URL")
	}
	u, err := url.Parse(target)
	if err != nil {
		return errors.Wrap(err, "[browser.Navigate] parse URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Wrapf(ErrUnsafeURL, "[browser.Navigate] scheme %q", u.Scheme)
	}
	return nil
}

func openPlatformSpecific(target string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	case "linux":
		for _, name := range linuxOpener {
			if _, err := exec.LookPath(name); err == nil {
				cmd = exec.Command(name, target)
				break
			}
		}
		if cmd == nil {
			return errors.New("[browser.Navigate] no browser found")
		}
	default:
		return errors.Errorf("[browser.Navigate] unsupported platform %s", runtime.GOOS)
	}

	if err := startCmd(cmd); err != nil {
		return errors.Wrap(err, "[browser.Navigate] start browser")
	}
	return nil
}
