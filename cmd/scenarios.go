package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/warehouse-sim/core/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Inspect the scenario table",
}

var scenariosLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List scenario names and descriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tbl, err := scenario.LoadOrDefault(cfg.Scenarios.File)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, sc := range tbl.Scenarios {
			fmt.Fprintf(tw, "%s\t%s\n", sc.Name, sc.Description)
		}
		return tw.Flush()
	},
}

func init() {
	scenariosCmd.AddCommand(scenariosLsCmd)
	rootCmd.AddCommand(scenariosCmd)
}
