package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Opener opens stored PDF files in a desktop viewer.
type Opener struct {
	reader string
	goos   string
}

// NewOpener creates an opener for the named viewer ("system" when empty).
func NewOpener(reader string) *Opener {
	if reader == "" {
		reader = "system"
	}
	return &Opener{reader: reader, goos: runtime.GOOS}
}

// Open starts the viewer on the file at path without waiting for it.
func (o *Opener) Open(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("PDF file does not exist: %s", path)
		}
		return fmt.Errorf("checking PDF file: %w", err)
	}

	cmd, err := o.command(path)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// command returns the viewer command for the current platform.
func (o *Opener) command(path string) (*exec.Cmd, error) {
	switch o.goos {
	case "darwin":
		switch o.reader {
		case "skim":
			return exec.Command("open", "-a", "Skim", path), nil
		case "preview":
			return exec.Command("open", "-a", "Preview", path), nil
		default:
			return exec.Command("open", path), nil
		}
	case "linux":
		switch o.reader {
		case "zathura", "evince", "okular":
			return exec.Command(o.reader, path), nil
		default:
			return exec.Command("xdg-open", path), nil
		}
	default:
		return nil, fmt.Errorf("unsupported platform: %s", o.goos)
	}
}
