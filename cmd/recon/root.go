package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"recon/internal/registry"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recon",
		Short: "Recon - dispatch read-only AI scouts against a repository",
		Long: `Recon dispatches short-lived, read-only AI subagent runs ("scouts") on
behalf of a coding workflow: locating files, analyzing code, or researching
repository background. Each run gets a turn budget, a usage-aware model pick,
and an isolated session.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.PersistentFlags().StringVar(&modelsPath, "models", "", "Path to a models YAML file (defaults to built-in models)")

	// Add subcommands
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newUsageCommand())
	cmd.AddCommand(newModelsCommand())

	return cmd
}

var modelsPath string

// loadRegistry resolves the model registry: an explicit --models file wins,
// then a models.yaml next to the working directory, then the built-in set.
func loadRegistry() (registry.Registry, error) {
	if modelsPath != "" {
		return registry.LoadFile(modelsPath)
	}
	if _, err := os.Stat("models.yaml"); err == nil {
		return registry.LoadFile("models.yaml")
	}
	return defaultRegistry(), nil
}

// defaultRegistry covers the common case of a logged-in session with the
// major providers reachable.
func defaultRegistry() *registry.Static {
	models := []registry.Model{
		{ID: "claude-haiku-4-5", Provider: registry.ProviderAnthropic, Class: registry.ClassFast, AuthSource: "oauth"},
		{ID: "claude-sonnet-4-5", Provider: registry.ProviderAnthropic, Class: registry.ClassCapable, AuthSource: "oauth"},
		{ID: "gpt-5-mini", Provider: registry.ProviderOpenAI, Class: registry.ClassFast, AuthSource: "oauth"},
		{ID: "gpt-5", Provider: registry.ProviderOpenAI, Class: registry.ClassCapable, AuthSource: "oauth"},
		{ID: "gemini-2.5-flash", Provider: registry.ProviderGoogle, Class: registry.ClassFast, AuthSource: "oauth"},
		{ID: "gemini-2.5-pro", Provider: registry.ProviderGoogle, Class: registry.ClassCapable, AuthSource: "oauth"},
	}
	return registry.NewStatic(models, "claude-sonnet-4-5")
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
