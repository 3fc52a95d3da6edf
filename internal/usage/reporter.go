package usage

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Reporter produces a fresh usage snapshot.
type Reporter interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// CommandReporter runs the host assistant's usage command and parses its
// machine-readable output. The command is expected to print the report JSON
// on stdout and exit zero.
type CommandReporter struct {
	// Command is the executable plus arguments, e.g.
	// ["copilot", "usage", "--json"]. The machine-readable flag must be part
	// of the configured arguments.
	Command []string
}

// DefaultReporter returns a reporter for the host assistant's usage command.
func DefaultReporter() *CommandReporter {
	return &CommandReporter{Command: []string{"copilot", "usage", "--json"}}
}

func (r *CommandReporter) Fetch(ctx context.Context) (*Snapshot, error) {
	if len(r.Command) == 0 {
		return nil, fmt.Errorf("usage reporter has no command configured")
	}

	//nolint:gosec // the reporter command is operator-configured, not untrusted input
	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", strings.Join(r.Command, " "), err)
	}

	return ParseReport(out, time.Now())
}
