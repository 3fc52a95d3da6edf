// Package tools provides the read-only tool set handed to scout sessions:
// file viewing, directory listing, content search, and a restricted command
// runner. These are thin I/O wrappers; the interesting policy (turn budgets,
// tool gating) lives in the dispatch layer.
package tools

import "context"

// Tool is one capability exposed to a scout session. Parameters follows the
// JSON-schema-as-map convention used for custom agent tools.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any

	// Run executes the tool. The returned string is handed back to the
	// subagent verbatim (after budget annotation by the dispatch layer).
	Run func(ctx context.Context, args map[string]any) (string, error)
}

// ReadOnlySet returns the default scout tool set, rooted at workspace. All
// tools refuse paths that escape the workspace.
func ReadOnlySet(workspace string) []Tool {
	return []Tool{
		viewTool(workspace),
		listTool(workspace),
		searchTool(workspace),
		execTool(workspace),
	}
}
