package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/picwrite/internal/llm"
	"github.com/abhisek/picwrite/internal/pipeline"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the supported vision models",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-48s  %-30s  %s\n", "Model", "Name", "USD per 1M tokens (in/out)")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for i, m := range pipeline.KnownModels {
			price := "unknown"
			if c := llm.LookupCost(m.ID); c != nil {
				price = fmt.Sprintf("$%.3f / $%.3f", c.InputPerMTok, c.OutputPerMTok)
			}
			id := m.ID
			if i == 0 {
				id += " *"
			}
			fmt.Fprintf(out, "%-48s  %-30s  %s\n", id, m.Label, price)
		}
		fmt.Fprintln(out, "\n* default")
	},
}
