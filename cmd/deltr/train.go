package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rushteam/deltr"
	"github.com/rushteam/deltr/dataset"
	"github.com/rushteam/deltr/pkg/logger"
	"github.com/rushteam/deltr/trainer"
)

func newTrainCmd() *cobra.Command {
	var (
		data     string
		out      string
		name     string
		header   bool
		protIdx  int
		protExpr string
		override trainer.Config
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a DELTR model from a CSV file",
		Long: `Train reads rows of query_id,item_id,judgement,f0,f1,... and writes the trained
model as JSON to --out, and to the configured store when --name is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appCfg.TrainerConfig()
			flags := cmd.Flags()
			if flags.Changed("gamma") {
				cfg.Gamma = override.Gamma
			}
			if flags.Changed("iterations") {
				cfg.Iterations = override.Iterations
			}
			if flags.Changed("learning-rate") {
				cfg.LearningRate = override.LearningRate
			}
			if flags.Changed("standardize") {
				cfg.Standardize = override.Standardize
			}
			if flags.Changed("seed") {
				cfg.Seed = override.Seed
			}
			if flags.Changed("protected-index") {
				cfg.ProtectedIndex = protIdx
			}

			loader := dataset.NewCSVLoader(
				dataset.WithHeader(header),
				dataset.WithProtectedIndex(cfg.ProtectedIndex),
				dataset.WithProtectedExpr(protExpr),
			)
			groups, err := loader.LoadFile(data)
			if err != nil {
				return fmt.Errorf("load %s: %w", data, err)
			}

			log := logger.WithComponent("trainer")
			d, err := deltr.New(cfg, trainer.WithLogger(log), trainer.WithMetrics(appMet))
			if err != nil {
				return err
			}
			if err := d.Train(cmd.Context(), groups); err != nil {
				return err
			}

			m := d.Model()
			if out != "" {
				if err := m.Save(out); err != nil {
					return fmt.Errorf("save model: %w", err)
				}
				slog.Info("model written", "path", out)
			}
			if name != "" {
				ms, closeStore, err := openModelStore()
				if err != nil {
					return err
				}
				defer closeStore()
				if err := ms.Save(cmd.Context(), name, m, appCfg.Store.TTL); err != nil {
					return fmt.Errorf("store model %s: %w", name, err)
				}
				slog.Info("model stored", "name", name, "backend", appCfg.Store.Backend)
			}

			steps := d.Log()
			last := steps[len(steps)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "weights=%v\nfinal %s\n", m.Omega, last.String())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&data, "data", "", "training CSV file")
	f.StringVar(&out, "out", "model.json", "write the model JSON here (empty to skip)")
	f.StringVar(&name, "name", "", "also save the model to the configured store under this name")
	f.BoolVar(&header, "header", false, "the CSV has a header row")
	f.IntVar(&protIdx, "protected-index", 0, "feature column holding the protected attribute")
	f.StringVar(&protExpr, "protected-expr", "", "CEL expression deciding protected membership, e.g. item.features[0] > 0.5")
	f.Float64Var(&override.Gamma, "gamma", 0, "fairness loss weight")
	f.IntVar(&override.Iterations, "iterations", 0, "gradient descent iterations")
	f.Float64Var(&override.LearningRate, "learning-rate", 0, "learning rate")
	f.BoolVar(&override.Standardize, "standardize", false, "standardize features before training")
	f.Uint64Var(&override.Seed, "seed", 0, "weight initialization seed")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
