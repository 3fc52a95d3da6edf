package tools

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

const execTimeout = 30 * time.Second

// allowedCommands is the fixed allowlist for the restricted runner. Scouts
// are read-only, so only inspection commands are permitted.
var allowedCommands = map[string]bool{
	"cat":  true,
	"find": true,
	"git":  true,
	"grep": true,
	"head": true,
	"ls":   true,
	"tail": true,
	"wc":   true,
}

// forbiddenGitSubcommands blocks the git verbs that mutate state.
var forbiddenGitSubcommands = map[string]bool{
	"add": true, "am": true, "apply": true, "checkout": true, "cherry-pick": true,
	"clean": true, "commit": true, "fetch": true, "merge": true, "pull": true,
	"push": true, "rebase": true, "reset": true, "restore": true, "revert": true,
	"rm": true, "stash": true, "switch": true,
}

func execTool(workspace string) Tool {
	names := make([]string, 0, len(allowedCommands))
	for name := range allowedCommands {
		names = append(names, name)
	}
	sort.Strings(names)

	return Tool{
		Name:        "run",
		Description: fmt.Sprintf("Run a read-only inspection command in the workspace. Allowed commands: %s.", strings.Join(names, ", ")),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "Command line to run, e.g. \"git log --oneline -5\"",
				},
			},
			"required": []string{"command"},
		},
		Run: func(ctx context.Context, rawArgs map[string]any) (string, error) {
			var args struct {
				Command string `mapstructure:"command"`
			}
			if err := mapstructure.Decode(rawArgs, &args); err != nil {
				return "", fmt.Errorf("decoding run arguments: %w", err)
			}

			fields := strings.Fields(args.Command)
			if len(fields) == 0 {
				return "", fmt.Errorf("empty command")
			}
			if !allowedCommands[fields[0]] {
				return "", fmt.Errorf("command %q is not on the read-only allowlist", fields[0])
			}
			if fields[0] == "git" && len(fields) > 1 && forbiddenGitSubcommands[fields[1]] {
				return "", fmt.Errorf("git %s mutates the repository and is not allowed", fields[1])
			}

			execCtx, cancel := context.WithTimeout(ctx, execTimeout)
			defer cancel()

			//nolint:gosec // the executable comes from a fixed allowlist
			cmd := exec.CommandContext(execCtx, fields[0], fields[1:]...)
			cmd.Dir = workspace

			out, err := cmd.CombinedOutput()
			if err != nil {
				return "", fmt.Errorf("%s: %w\n%s", args.Command, err, strings.TrimSpace(string(out)))
			}

			text := strings.TrimSpace(string(out))
			if text == "" {
				return "(no output)", nil
			}
			return text, nil
		},
	}
}
