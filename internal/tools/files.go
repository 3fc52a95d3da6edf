package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// maxViewBytes caps how much of a file one view call returns.
const maxViewBytes = 64 * 1024

// resolveInWorkspace joins path onto the workspace root and rejects escapes.
func resolveInWorkspace(workspace, path string) (string, error) {
	if path == "" {
		path = "."
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(workspace, full)
	}

	absWorkspace, err := filepath.Abs(workspace)
	if err != nil {
		return "", fmt.Errorf("resolving workspace: %w", err)
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	if absFull != absWorkspace && !strings.HasPrefix(absFull, absWorkspace+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace", path)
	}
	return absFull, nil
}

func viewTool(workspace string) Tool {
	return Tool{
		Name:        "view",
		Description: "Read a file from the workspace. Optionally limit to a line range.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Path relative to the workspace root",
				},
				"start_line": map[string]any{
					"type":        "integer",
					"description": "First line to include (1-indexed)",
				},
				"end_line": map[string]any{
					"type":        "integer",
					"description": "Last line to include (inclusive)",
				},
			},
			"required": []string{"path"},
		},
		Run: func(ctx context.Context, rawArgs map[string]any) (string, error) {
			var args struct {
				Path      string `mapstructure:"path"`
				StartLine int    `mapstructure:"start_line"`
				EndLine   int    `mapstructure:"end_line"`
			}
			if err := mapstructure.Decode(rawArgs, &args); err != nil {
				return "", fmt.Errorf("decoding view arguments: %w", err)
			}

			full, err := resolveInWorkspace(workspace, args.Path)
			if err != nil {
				return "", err
			}

			data, err := os.ReadFile(full)
			if err != nil {
				return "", err
			}

			text := string(data)
			if args.StartLine > 0 || args.EndLine > 0 {
				lines := strings.Split(text, "\n")
				start := args.StartLine
				if start < 1 {
					start = 1
				}
				end := args.EndLine
				if end < start || end > len(lines) {
					end = len(lines)
				}
				if start > len(lines) {
					return "", fmt.Errorf("start_line %d is past the end of %s (%d lines)", start, args.Path, len(lines))
				}
				text = strings.Join(lines[start-1:end], "\n")
			}

			if len(text) > maxViewBytes {
				text = text[:maxViewBytes] + "\n... (truncated)"
			}
			return text, nil
		},
	}
}

func listTool(workspace string) Tool {
	return Tool{
		Name:        "ls",
		Description: "List the entries of a workspace directory.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Directory relative to the workspace root (defaults to the root)",
				},
			},
		},
		Run: func(ctx context.Context, rawArgs map[string]any) (string, error) {
			var args struct {
				Path string `mapstructure:"path"`
			}
			if err := mapstructure.Decode(rawArgs, &args); err != nil {
				return "", fmt.Errorf("decoding ls arguments: %w", err)
			}

			full, err := resolveInWorkspace(workspace, args.Path)
			if err != nil {
				return "", err
			}

			entries, err := os.ReadDir(full)
			if err != nil {
				return "", err
			}

			names := make([]string, 0, len(entries))
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				names = append(names, name)
			}
			sort.Strings(names)

			if len(names) == 0 {
				return "(empty directory)", nil
			}
			return strings.Join(names, "\n"), nil
		},
	}
}
