package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/aiidaplugins/aiida-lammps/store"
	"github.com/spf13/cobra"
)

func jobsCmd() *cobra.Command {
	var (
		ledgerPath string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List runs recorded in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger := store.NewDB(ledgerPath)
			if err := ledger.Open(); err != nil {
				return err
			}
			defer ledger.Close()

			runs, err := ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tITER\tENERGY\tWALL(S)\tWHEN\tDIR")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%g\t%s\t%s\n",
					run.ID, run.Status, run.Iteration, run.FinalEnergy,
					run.TotalWallSeconds, run.CreatedAt.Format(time.RFC3339), run.Dir)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&ledgerPath, "ledger", "lmpdriver.db", "sqlite ledger file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum rows to list")
	return cmd
}
