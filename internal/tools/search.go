package tools

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const (
	maxSearchMatches  = 200
	maxSearchLineLen  = 400
	maxSearchFileSize = 2 * 1024 * 1024
)

// skippedDirs are never descended into during a search.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

func searchTool(workspace string) Tool {
	return Tool{
		Name:        "search",
		Description: "Search workspace files for a regular expression. Returns path:line matches.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{
					"type":        "string",
					"description": "Go regular expression to search for",
				},
				"path": map[string]any{
					"type":        "string",
					"description": "Directory to search, relative to the workspace root",
				},
			},
			"required": []string{"pattern"},
		},
		Run: func(ctx context.Context, rawArgs map[string]any) (string, error) {
			var args struct {
				Pattern string `mapstructure:"pattern"`
				Path    string `mapstructure:"path"`
			}
			if err := mapstructure.Decode(rawArgs, &args); err != nil {
				return "", fmt.Errorf("decoding search arguments: %w", err)
			}

			re, err := regexp.Compile(args.Pattern)
			if err != nil {
				return "", fmt.Errorf("invalid pattern: %w", err)
			}

			root, err := resolveInWorkspace(workspace, args.Path)
			if err != nil {
				return "", err
			}

			var matches []string
			err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil // unreadable entries are skipped, not fatal
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				if d.IsDir() {
					if skippedDirs[d.Name()] {
						return filepath.SkipDir
					}
					return nil
				}
				if info, err := d.Info(); err != nil || info.Size() > maxSearchFileSize {
					return nil
				}

				found, err := searchFile(path, re, func(line int, text string) {
					rel, relErr := filepath.Rel(root, path)
					if relErr != nil {
						rel = path
					}
					matches = append(matches, fmt.Sprintf("%s:%d: %s", rel, line, text))
				})
				if err != nil || !found {
					return nil
				}
				if len(matches) >= maxSearchMatches {
					return filepath.SkipAll
				}
				return nil
			})
			if err != nil {
				return "", err
			}

			if len(matches) == 0 {
				return "(no matches)", nil
			}
			out := strings.Join(matches, "\n")
			if len(matches) >= maxSearchMatches {
				out += "\n... (match limit reached)"
			}
			return out, nil
		},
	}
}

func searchFile(path string, re *regexp.Regexp, report func(line int, text string)) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close() //nolint:errcheck

	found := false
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if !re.MatchString(line) {
			continue
		}
		found = true
		if len(line) > maxSearchLineLen {
			line = line[:maxSearchLineLen] + "..."
		}
		report(lineNum, line)
	}
	return found, scanner.Err()
}
