package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recon/internal/selection"
	"recon/internal/usage"
)

func newModelsCommand() *cobra.Command {
	var showSelection bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the model registry and preview tier selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			current := reg.Current()
			for _, m := range reg.Models() {
				marker := " "
				if current != nil && current.ID == m.ID {
					marker = "*"
				}
				fmt.Printf("%s %-24s %-10s %-8s %s\n", marker, m.ID, m.Provider, m.Class, m.AuthMode())
			}

			if !showSelection {
				return nil
			}

			engine := selection.NewEngine(reg, usage.NewCache(usage.DefaultReporter()))
			for _, tier := range []selection.Tier{selection.TierFast, selection.TierCapable} {
				result := engine.Select(cmd.Context(), tier)
				if result == nil {
					fmt.Printf("\n%s: no model available\n", tier)
					continue
				}
				fmt.Printf("\n%s: %s (%s reasoning)\n  %s\n", tier, result.Model.ID, result.Reasoning, result.Reason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSelection, "selection", false, "Preview which model each tier would select right now")
	return cmd
}
