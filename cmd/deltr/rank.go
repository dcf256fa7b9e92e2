package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/deltr/config"
	_ "github.com/rushteam/deltr/config/builders"
	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/dataset"
	"github.com/rushteam/deltr/model"
	"github.com/rushteam/deltr/pipeline"
	"github.com/rushteam/deltr/rank"
)

func newRankCmd() *cobra.Command {
	var (
		data     string
		modelIn  string
		name     string
		pipeFile string
		out      string
		header   bool
		protIdx  int
		protExpr string
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank candidates with a trained model",
		Long: `Rank scores every query group in --data with the model and writes the groups,
sorted by score, as CSV. With --pipeline the groups run through a configured
pipeline (rank.deltr, rerank.topn, filter.expr, rerank.fair_check ...) instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if pipeFile == "" {
				pipeFile = appCfg.Pipeline
			}

			var (
				p *pipeline.Pipeline
				m *model.DeltrModel
			)
			if pipeFile != "" {
				pc, err := pipeline.Load(pipeFile)
				if err != nil {
					return err
				}
				if err := config.ValidatePipelineConfig(pc); err != nil {
					return err
				}
				if p, err = pc.BuildPipeline(config.DefaultFactory()); err != nil {
					return err
				}
			} else {
				var err error
				if m, err = loadModel(cmd, modelIn, name); err != nil {
					return err
				}
				if !m.Trained() {
					return core.ErrNotTrained
				}
				r := rank.NewRanker(m)
				r.Metrics = appMet
				p = &pipeline.Pipeline{Nodes: []pipeline.Node{&rankNode{ranker: r}}}
			}

			groups, err := rankLoader(cmd, m, header, protIdx, protExpr).LoadFile(data)
			if err != nil {
				return fmt.Errorf("load %s: %w", data, err)
			}
			ranked := make([]*core.Group, 0, len(groups))
			for _, g := range groups {
				r, err := p.Run(ctx, g)
				if err != nil {
					return fmt.Errorf("query %d: %w", g.QueryID, err)
				}
				ranked = append(ranked, r)
			}

			w, closeOut, err := createOutput(out)
			if err != nil {
				return err
			}
			defer closeOut()
			return dataset.WriteCSV(w, ranked)
		},
	}

	f := cmd.Flags()
	f.StringVar(&data, "data", "", "candidate CSV file")
	f.StringVar(&modelIn, "model", "model.json", "model JSON file")
	f.StringVar(&name, "name", "", "load the model from the configured store instead of --model")
	f.StringVar(&pipeFile, "pipeline", "", "pipeline config file (YAML, or JSON by .json extension)")
	f.StringVar(&out, "out", "-", "output CSV file")
	f.BoolVar(&header, "header", false, "the CSV has a header row")
	f.IntVar(&protIdx, "protected-index", 0, "feature column holding the protected attribute (default: the model's, or the config's with --pipeline)")
	f.StringVar(&protExpr, "protected-expr", "", "CEL expression deciding protected membership")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func loadModel(cmd *cobra.Command, path, name string) (*model.DeltrModel, error) {
	if name == "" {
		return model.LoadDeltrModel(path)
	}
	ms, closeStore, err := openModelStore()
	if err != nil {
		return nil, err
	}
	defer closeStore()
	return ms.Load(cmd.Context(), name)
}

// rankLoader 构建候选集的 CSVLoader。保护列依次取配置文件、模型与 --protected-index，后者优先。
func rankLoader(cmd *cobra.Command, m *model.DeltrModel, header bool, protIdx int, protExpr string) *dataset.CSVLoader {
	idx := core.DefaultProtectedIndex
	if appCfg != nil {
		idx = appCfg.Trainer.ProtectedIndex
	}
	if m != nil {
		idx = m.ProtectedIndex
	}
	if cmd.Flags().Changed("protected-index") {
		idx = protIdx
	}
	return dataset.NewCSVLoader(
		dataset.WithHeader(header),
		dataset.WithProtectedIndex(idx),
		dataset.WithProtectedExpr(protExpr),
	)
}

// rankNode 把 Ranker 包装成 pipeline 节点；与 rank.DeltrNode 不同，它会记录排序指标。
type rankNode struct {
	ranker *rank.Ranker
}

func (n *rankNode) Name() string        { return "rank.deltr" }
func (n *rankNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *rankNode) Process(_ context.Context, group *core.Group) (*core.Group, error) {
	return n.ranker.Rank(group)
}
