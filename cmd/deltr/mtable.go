package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/deltr/fair"
)

func newMTableCmd() *cobra.Command {
	var (
		k     int
		p     float64
		alpha float64
	)

	cmd := &cobra.Command{
		Use:   "mtable",
		Short: "Print the minimum protected count for every prefix of a top-k ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := fair.MTable(k, p, alpha)
			if err != nil {
				return err
			}
			for i, m := range table {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\n", i+1, m)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&k, "k", 10, "ranking length")
	f.Float64Var(&p, "p", 0.2, "target share of protected items")
	f.Float64Var(&alpha, "alpha", 0.1, "significance level")
	return cmd
}
