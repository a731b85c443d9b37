package main

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/rotisserie/eris"
)

// openInEditor launches the editor on the artifact and blocks until it exits.
func openInEditor(editor, path string) error {
	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return eris.Wrapf(err, "launch %s", editor)
	}
	return nil
}

// openInBrowser opens the URL in the default browser.
func openInBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/C", "start", "", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return eris.Wrap(err, "open browser")
	}
	return nil
}
