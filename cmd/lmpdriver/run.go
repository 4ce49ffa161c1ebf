package main

import (
	"fmt"

	"github.com/aiidaplugins/aiida-lammps/parse/logfile"
	"github.com/aiidaplugins/aiida-lammps/run"
	"github.com/aiidaplugins/aiida-lammps/store"
	"github.com/aiidaplugins/aiida-lammps/workflow"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var (
		dir        string
		ledgerPath string
		iterations int
		follow     bool
	)
	cmd := &cobra.Command{
		Use:   "run <jobfile>",
		Short: "Run a job, restarting it until it completes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			job, err := run.LoadJob(args[0])
			if err != nil {
				return err
			}

			cfg := workflow.Config{
				Executable:    job.Executable,
				ExtraArgs:     job.ExtraArgs,
				WorkRoot:      dir,
				Walltime:      job.Walltime,
				MaxIterations: iterations,
				Options:       job.Options,
				Logger:        logger,
			}
			if ledgerPath != "" {
				ledger := store.NewDB(ledgerPath)
				if err := ledger.Open(); err != nil {
					return err
				}
				defer ledger.Close()
				cfg.Ledger = ledger
			}
			if follow {
				cfg.OnRow = func(row logfile.Row) {
					fmt.Fprintln(cmd.OutOrStdout(), formatRow(row))
				}
			}

			outcome, err := workflow.Run(cmd.Context(), cfg, job.Params, job.Potential, job.Structure)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "finished after %d iteration(s): %s\n",
				outcome.Iterations, outcome.Final.Status)
			printSummary(cmd, outcome.Final)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "lammps-work", "working directory for the iterations")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "record runs into this sqlite database")
	cmd.Flags().IntVar(&iterations, "iterations", 5, "maximum restart iterations")
	cmd.Flags().BoolVar(&follow, "follow", false, "stream thermo rows while running")
	return cmd
}

func formatRow(row logfile.Row) string {
	out := ""
	for i, column := range row.Columns {
		if i > 0 {
			out += "  "
		}
		out += fmt.Sprintf("%s=%g", column, row.Values[i])
	}
	return out
}

func printSummary(cmd *cobra.Command, results *run.Results) {
	if results == nil || results.Report == nil {
		return
	}
	report := results.Report
	if report.TotalWallTime != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "total wall time: %s\n", report.TotalWallTime)
	}
	if energy, ok := results.FinalVariables.Get("etotal"); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "final total energy: %g\n", energy)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", warning)
	}
}
