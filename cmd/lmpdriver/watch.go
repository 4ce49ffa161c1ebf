package main

import (
	"fmt"

	"github.com/aiidaplugins/aiida-lammps/parse/logfile"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <lammps.out>",
		Short: "Stream thermo rows from a log file as it grows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make(chan logfile.Row, 64)
			group, ctx := errgroup.WithContext(cmd.Context())
			group.Go(func() error {
				return logfile.Follow(ctx, args[0], rows)
			})
			group.Go(func() error {
				for row := range rows {
					fmt.Fprintln(cmd.OutOrStdout(), formatRow(row))
				}
				return nil
			})
			return group.Wait()
		},
	}
	return cmd
}
