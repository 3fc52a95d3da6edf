package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"recon/internal/usage"
)

func newUsageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show per-provider utilization as seen by model selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := usage.NewCache(usage.DefaultReporter())

			snap := cache.Get(cmd.Context())
			if snap == nil {
				fmt.Println("no usage data available")
				return nil
			}

			providers := make([]string, 0, len(snap.Providers))
			for name := range snap.Providers {
				providers = append(providers, name)
			}
			sort.Strings(providers)

			for _, name := range providers {
				util, ok := snap.Utilization(name)
				if !ok {
					fmt.Printf("%-12s no data\n", name)
					continue
				}
				fmt.Printf("%-12s %5.1f%%\n", name, util)

				for _, p := range snap.Providers[name] {
					line := fmt.Sprintf("  %-10s %5.1f%%", p.Kind, p.Utilization)
					if p.ResetsAt != "" {
						line += "  resets " + p.ResetsAt
					}
					fmt.Println(line)
				}
			}

			errNames := make([]string, 0, len(snap.Errors))
			for name := range snap.Errors {
				errNames = append(errNames, name)
			}
			sort.Strings(errNames)
			for _, name := range errNames {
				fmt.Printf("%-12s error: %s\n", name, snap.Errors[name])
			}

			return nil
		},
	}
}
