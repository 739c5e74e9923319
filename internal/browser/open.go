// Package browser opens files and URLs with the desktop's default handler.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Open opens target, a URL or a local file path, with the default application.
func Open(target string) error {
	name, args, err := commandFor(runtime.GOOS, target)
	if err != nil {
		return err
	}
	return exec.Command(name, args...).Start()
}

func commandFor(goos, target string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{target}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	default:
		return "", nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}
