package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/warehouse-sim/api/assignments"
	"github.com/kilianp07/warehouse-sim/core/dispatch/logging"
	"github.com/kilianp07/warehouse-sim/infra/logger"
)

var logQuery logging.Query

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Read the stored assignment log",
}

var logsQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print stored assignment records as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := logging.Open(cfg.Logging)
		if err != nil {
			return err
		}
		defer store.Close()
		recs, err := store.Query(cmd.Context(), logQuery)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, r := range recs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	},
}

var serveAddr string

var logsServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assignment log over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := logging.Open(cfg.Logging)
		if err != nil {
			return err
		}
		defer store.Close()
		addr := cfg.API.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		log := logger.New("api")
		srv := &http.Server{Addr: addr, Handler: assignments.NewMux(store, cfg.API.Token), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Errorf("api server shutdown: %v", err)
			}
			cancel()
		}()
		log.Infof("serving %s on %s", assignments.Path, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	f := logsQueryCmd.Flags()
	f.StringVar(&logQuery.RunID, "run-id", "", "filter by run id")
	f.StringVar(&logQuery.Agent, "agent", "", "filter by agent name")
	f.StringVar(&logQuery.Scenario, "scenario", "", "filter by scenario name")
	f.IntVar(&logQuery.Limit, "limit", 0, "maximum number of records (0 for all)")
	logsServeCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")

	logsCmd.AddCommand(logsQueryCmd, logsServeCmd)
	rootCmd.AddCommand(logsCmd)
}
