package main

import (
	"fmt"

	"github.com/aiidaplugins/aiida-lammps/parse/logfile"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func parseCmd() *cobra.Command {
	var withSeries bool
	cmd := &cobra.Command{
		Use:   "parse <lammps.out>",
		Short: "Parse a log file and print what was recovered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := logfile.ParseFile(args[0])
			if err != nil {
				return err
			}

			summary := map[string]any{
				"units":           report.UnitsStyle,
				"complete":        report.Complete,
				"total_wall_time": report.TotalWallTime,
			}
			if len(report.StepsPerSecond) > 0 {
				summary["steps_per_second"] = report.StepsPerSecond
			}
			if report.Minimization != nil {
				summary["minimization"] = map[string]any{
					"stop_criterion":             report.Minimization.StopCriterion,
					"energy_final":               report.Minimization.EnergyFinal,
					"energy_relative_difference": report.Minimization.EnergyRelativeDifference,
					"iterations":                 report.Minimization.Iterations,
					"force_evaluations":          report.Minimization.ForceEvaluations,
				}
			}
			if len(report.Errors) > 0 {
				var messages []string
				for _, runError := range report.Errors {
					messages = append(messages, runError.Message)
				}
				summary["errors"] = messages
			}
			if len(report.Warnings) > 0 {
				summary["warnings"] = report.Warnings
			}
			if withSeries {
				summary["series"] = report.Series.Map()
			}

			raw, err := yaml.Marshal(summary)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSeries, "series", false, "include the full thermo series")
	return cmd
}
