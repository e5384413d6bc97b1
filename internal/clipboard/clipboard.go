// Package clipboard reads pasted citation text from the system clipboard via
// shell commands.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// ErrClipboardUnavailable is returned when clipboard access is not available.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// pasteCommands lists, per OS, the commands that print the clipboard, in
// preference order.
var pasteCommands = map[string][][]string{
	"darwin": {{"pbpaste"}},
	"linux": {
		{"wl-paste", "--no-newline"},
		{"xclip", "-selection", "clipboard", "-out"},
		{"xsel", "--clipboard", "--output"},
	},
}

// pasteCommand returns the first paste command installed on goos.
func pasteCommand(goos string) ([]string, error) {
	for _, argv := range pasteCommands[goos] {
		if _, err := lookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// IsAvailable checks if clipboard functionality is available on this system.
func IsAvailable() bool {
	return availableOn(runtime.GOOS)
}

func availableOn(goos string) bool {
	_, err := pasteCommand(goos)
	return err == nil
}

// Paste returns the current clipboard text.
// Returns ErrClipboardUnavailable if clipboard access is not available.
func Paste() (string, error) {
	argv, err := pasteCommand(runtime.GOOS)
	if err != nil {
		return "", err
	}
	out, err := exec.Command(argv[0], argv[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("running %s: %w", argv[0], err)
	}
	return string(out), nil
}
