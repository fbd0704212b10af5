/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// open.go launches the platform default handler for a file.

package cmd

import (
	"os/exec"
	"runtime"
)

// openPath opens path with the platform's default application.
func openPath(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path).Start()
	default:
		return exec.Command("xdg-open", path).Start()
	}
}
