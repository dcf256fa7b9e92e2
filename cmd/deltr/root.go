package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rushteam/deltr/config"
	"github.com/rushteam/deltr/metrics"
	"github.com/rushteam/deltr/pkg/logger"
	"github.com/rushteam/deltr/store"
)

var (
	cfgFile     string
	logLevel    string
	logFormat   string
	metricsAddr string

	appCfg  *config.Config
	appMet  *metrics.Metrics
	stopMet func(context.Context) error

	rootCmd = &cobra.Command{
		Use:   "deltr",
		Short: "deltr: fairness-aware learning to rank",
		Long: `deltr trains a linear ranking model whose loss penalizes the difference in
exposure between a protected group and everyone else, and ranks new candidates
with the trained weights.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if stopMet == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return stopMet(ctx)
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(newTrainCmd(), newRankCmd(), newSynthCmd(), newMTableCmd())
}

func initApp(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = metricsAddr
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())

	reg := prometheus.NewRegistry()
	appMet = metrics.New(reg)
	if cfg.Metrics.Enabled {
		stopMet = metrics.StartServer(cfg.Metrics.Addr, reg)
	}
	appCfg = cfg
	return nil
}

func openModelStore() (*store.ModelStore, func() error, error) {
	s, err := store.New(appCfg.Store.Backend, appCfg.Store.Addr, appCfg.Store.DB, appCfg.Store.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", appCfg.Store.Backend, err)
	}
	return store.NewModelStore(s, appCfg.Store.KeyPrefix), s.Close, nil
}

func createOutput(path string) (*os.File, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
