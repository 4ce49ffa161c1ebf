package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aiidaplugins/aiida-lammps/parse/dump"
	"github.com/aiidaplugins/aiida-lammps/trajectory"
	"github.com/spf13/cobra"
)

func trajCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traj",
		Short: "Pack, inspect and export trajectory archives",
	}
	cmd.AddCommand(trajPackCmd(), trajInfoCmd(), trajExportCmd())
	return cmd
}

func trajPackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack <trajectory.dump> <archive.zip>",
		Short: "Pack a dump file into a step-addressable archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, closer, err := dump.Open(args[0])
			if err != nil {
				return err
			}
			defer closer.Close()

			archive, err := trajectory.Create(args[1], reader)
			if err != nil {
				return err
			}
			defer archive.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "packed %d step(s), %d atom(s)\n",
				archive.NumberSteps(), archive.NumberAtoms())
			return nil
		},
	}
}

func trajInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <archive.zip>",
		Short: "Describe a trajectory archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := trajectory.Open(args[0])
			if err != nil {
				return err
			}
			defer archive.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "steps:    %d\n", archive.NumberSteps())
			fmt.Fprintf(out, "atoms:    %d\n", archive.NumberAtoms())
			fmt.Fprintf(out, "elements: %s\n", strings.Join(archive.Elements(), " "))
			fmt.Fprintf(out, "fields:   %s\n", strings.Join(archive.FieldNames(), " "))
			timesteps := archive.Timesteps()
			if len(timesteps) > 0 {
				fmt.Fprintf(out, "timestep range: %d .. %d\n",
					timesteps[0], timesteps[len(timesteps)-1])
			}
			return nil
		},
	}
}

func trajExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <archive.zip>",
		Short: "Write an archive back out as a plain dump file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := trajectory.Open(args[0])
			if err != nil {
				return err
			}
			defer archive.Close()

			writer := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				writer = f
			}
			return archive.WriteAsDump(writer, nil)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
