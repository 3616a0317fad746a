// Package printing spools rendered documents to the host print system.
// Printing is a post-commit, best-effort side action: a failure is reported
// to the caller and never unwinds an already-durable ticket.
package printing

import (
	"fmt"
	"os/exec"
	"strings"
)

// Spooler hands a file to the host print command. With no configured
// command it tries lp, then lpr.
type Spooler struct {
	Command string
}

func NewSpooler(command string) *Spooler {
	return &Spooler{Command: command}
}

func (s *Spooler) Spool(path string) error {
	commands := []string{s.Command}
	if s.Command == "" {
		commands = []string{"lp", "lpr"}
	}

	var lastErr error
	for _, command := range commands {
		bin, err := exec.LookPath(command)
		if err != nil {
			lastErr = err
			continue
		}
		out, err := exec.Command(bin, path).CombinedOutput()
		if err != nil {
			lastErr = fmt.Errorf("%s failed: %v (%s)", command, err, strings.TrimSpace(string(out)))
			continue
		}
		return nil
	}
	return fmt.Errorf("no usable print command: %w", lastErr)
}
