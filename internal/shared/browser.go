package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// BrowserEnv names a browser command that takes precedence over the platform default.
const BrowserEnv = "BROWSER"

// browserCommand returns the program and arguments that open url on goos.
//
// A non-empty override (usually $BROWSER) is split on whitespace and the URL appended.
func browserCommand(goos, override, url string) (string, []string, error) {
	if fields := strings.Fields(override); len(fields) > 0 {
		return fields[0], append(fields[1:], url), nil
	}

	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenBrowser starts the user's browser on the authorization URL without waiting for it to exit.
//
// Callers print the URL themselves when this fails, so headless machines can still finish the OAuth flow.
func OpenBrowser(url string) error {
	name, args, err := browserCommand(runtime.GOOS, os.Getenv(BrowserEnv), url)
	if err != nil {
		return err
	}

	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser with %s: %w", name, err)
	}
	return nil
}
