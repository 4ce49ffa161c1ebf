package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verbose bool

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lmpdriver",
		Short:         "Drive LAMMPS calculations and inspect their outputs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.AddCommand(
		runCmd(),
		parseCmd(),
		watchCmd(),
		trajCmd(),
		plotCmd(),
		jobsCmd(),
	)
	return cmd
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
