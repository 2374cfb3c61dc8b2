package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/warehouse-sim/app"
	"github.com/kilianp07/warehouse-sim/config"
	coremon "github.com/kilianp07/warehouse-sim/core/monitoring"
	"github.com/kilianp07/warehouse-sim/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "whsim",
	Short:        "Warehouse fleet dispatch simulator",
	Long:         "Runs the configured scenario batch, records metrics, stores the assignment log and writes reports.",
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	defer coremon.Recover()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	rep, err := svc.Run(ctx)
	printReport(cmd.OutOrStdout(), rep)
	return err
}
