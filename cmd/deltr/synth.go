package main

import (
	"github.com/spf13/cobra"

	"github.com/rushteam/deltr/dataset"
)

func newSynthCmd() *cobra.Command {
	s := dataset.NewSynthetic(10, 20, 3, 1)
	var out string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate a synthetic ranking dataset",
		Long: `Synth writes query groups whose feature 0 is the protected flag and whose
judgements are min-max normalized scores over the remaining features.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, closeOut, err := createOutput(out)
			if err != nil {
				return err
			}
			defer closeOut()
			return dataset.WriteCSV(w, s.Generate())
		},
	}

	f := cmd.Flags()
	f.IntVar(&s.Queries, "queries", s.Queries, "number of queries")
	f.IntVar(&s.ItemsPerQuery, "items", s.ItemsPerQuery, "items per query")
	f.IntVar(&s.Features, "features", s.Features, "features per item, including the protected flag")
	f.Float64Var(&s.ProtectedRate, "protected-rate", s.ProtectedRate, "share of protected items")
	f.Uint64Var(&s.Seed, "seed", s.Seed, "random seed")
	f.StringVar(&out, "out", "-", "output CSV file")
	return cmd
}
