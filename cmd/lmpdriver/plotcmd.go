package main

import (
	"fmt"

	"github.com/aiidaplugins/aiida-lammps/parse/logfile"
	"github.com/aiidaplugins/aiida-lammps/plot"
	"github.com/spf13/cobra"
)

func plotCmd() *cobra.Command {
	var (
		columns []string
		output  string
		title   string
	)
	cmd := &cobra.Command{
		Use:   "plot <lammps.out>",
		Short: "Plot thermo quantities from a log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := logfile.ParseFile(args[0])
			if err != nil {
				return err
			}
			if len(columns) == 0 {
				return fmt.Errorf("pick at least one column with --columns")
			}
			if title == "" {
				title = args[0]
			}
			if len(columns) == 1 {
				err = plot.Column(report.Series, columns[0], title, output)
			} else {
				err = plot.Columns(report.Series, columns, title, output)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "thermo columns to plot, e.g. TotEng,Temp")
	cmd.Flags().StringVarP(&output, "output", "o", "thermo.png", "output image file")
	cmd.Flags().StringVarP(&title, "title", "t", "", "plot title")
	return cmd
}
