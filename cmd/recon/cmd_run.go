package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"recon/internal/dispatch"
	"recon/internal/scouts"
	"recon/internal/selection"
	"recon/internal/usage"
)

var (
	runWorkspace string
	runTier      string
	runWith      []string
	runJSON      bool
	runQuiet     bool
)

// progressWidth bounds the single-line progress display.
const progressWidth = 100

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scout> <query>",
		Short: "Run one or more scouts",
		Long: `Run a scout against the workspace.

The scout name selects a registered task (see "recon run --help" for the
built-ins: finder, oracle, researcher). Additional scouts can be dispatched
in parallel with --with.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runCommandE,
	}

	cmd.Flags().StringVarP(&runWorkspace, "workspace", "w", "", "Workspace directory (default: current directory)")
	cmd.Flags().StringVar(&runTier, "tier", "", "Model tier override: fast or capable")
	cmd.Flags().StringArrayVar(&runWith, "with", nil, "Additional scout to run in parallel, as name=query (can be repeated)")
	cmd.Flags().BoolVar(&runJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Suppress progress output")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	tier, err := parseTier(runTier)
	if err != nil {
		return err
	}

	tasks := []dispatch.Task{{
		Scout: args[0],
		Params: scouts.Params{
			Query:     strings.Join(args[1:], " "),
			Workspace: runWorkspace,
			Tier:      tier,
		},
	}}
	for _, extra := range runWith {
		name, query, ok := strings.Cut(extra, "=")
		if !ok || name == "" || query == "" {
			return fmt.Errorf("invalid --with value %q, expected name=query", extra)
		}
		tasks = append(tasks, dispatch.Task{
			Scout:  name,
			Params: scouts.Params{Query: query, Workspace: runWorkspace, Tier: tier},
		})
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	cache := usage.NewCache(usage.DefaultReporter())
	runner := dispatch.NewRunner(selection.NewEngine(reg, cache))
	aggregator := dispatch.NewAggregator(scouts.DefaultRegistry(), runner)

	var onProgress dispatch.AggregateProgressFunc
	if !runQuiet {
		onProgress = printAggregateProgress
	}

	state := aggregator.RunAll(cmd.Context(), tasks, onProgress)
	if !runQuiet {
		clearProgressLine()
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state); err != nil {
			return err
		}
	} else {
		printDigest(state)
	}

	if state.Status == dispatch.StatusError {
		return &RunFailureError{Message: "one or more scout runs failed"}
	}
	return nil
}

func parseTier(s string) (selection.Tier, error) {
	switch s {
	case "":
		return "", nil
	case string(selection.TierFast):
		return selection.TierFast, nil
	case string(selection.TierCapable):
		return selection.TierCapable, nil
	default:
		return "", fmt.Errorf("unknown tier %q, expected fast or capable", s)
	}
}

// printAggregateProgress renders a one-line rolling status to stderr.
func printAggregateProgress(state dispatch.AggregateState) {
	parts := make([]string, 0, len(state.Results))
	for _, r := range state.Results {
		part := fmt.Sprintf("%s:%s", r.TaskName, r.Details.Status)
		if len(r.Details.Runs) > 0 {
			rec := r.Details.Runs[0]
			if rec.TurnsCompleted > 0 {
				part += fmt.Sprintf(" t%d", rec.TurnsCompleted)
			}
			if n := len(rec.DisplayItems); n > 0 {
				last := rec.DisplayItems[n-1]
				if last.Kind == dispatch.DisplayTool {
					part += " " + last.Text
				}
			}
		}
		parts = append(parts, part)
	}

	line := runewidth.Truncate(strings.Join(parts, "  |  "), progressWidth, "...")
	fmt.Fprintf(os.Stderr, "\r%s", runewidth.FillRight(line, progressWidth))
}

func clearProgressLine() {
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", progressWidth))
}

// printDigest renders the human-readable outcome of a batch.
func printDigest(state dispatch.AggregateState) {
	for i, r := range state.Results {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("=== %s: %s ===\n", r.TaskName, r.Details.Status)

		if r.Details.ChosenModelID != "" {
			fmt.Printf("model: %s (%s", r.Details.ChosenModelID, r.Details.ChosenProvider)
			if r.Details.Reasoning != "" {
				fmt.Printf(", %s reasoning", r.Details.Reasoning)
			}
			fmt.Printf(")\n")
		}
		if r.Details.SelectionReason != "" {
			fmt.Printf("selection: %s\n", r.Details.SelectionReason)
		}

		if len(r.Details.Runs) > 0 {
			rec := r.Details.Runs[0]
			fmt.Printf("turns: %d, tool calls: %d\n", rec.TurnsCompleted, rec.ToolCalls)
			if len(rec.ToolsUsed) > 0 {
				fmt.Printf("tools: %s\n", formatToolsUsed(rec.ToolsUsed))
			}
			if rec.Error != "" {
				fmt.Printf("error: %s\n", rec.Error)
			}
		}

		for _, block := range r.Content {
			fmt.Printf("\n%s\n", block.Text)
		}
	}

	if len(state.Results) > 1 {
		fmt.Printf("\noverall: %s\n", state.Status)
	}
}

func formatToolsUsed(used map[string]int) string {
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s x%d", name, used[name]))
	}
	return strings.Join(parts, ", ")
}
