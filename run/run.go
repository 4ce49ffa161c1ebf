// Package run stages, launches and harvests a single LAMMPS calculation.
// It writes the input script and its companion files into a working
// directory, executes the LAMMPS binary with a walltime budget, and turns
// the textual leftovers into structured results.
package run

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	lammps "github.com/aiidaplugins/aiida-lammps"
	"github.com/aiidaplugins/aiida-lammps/input"
	"github.com/aiidaplugins/aiida-lammps/parse/logfile"
	"github.com/aiidaplugins/aiida-lammps/potential"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options names the files of one calculation inside its working directory.
type Options struct {
	InputFilename       string
	OutputFilename      string
	StructureFilename   string
	PotentialFilename   string
	TrajectoryFilename  string
	RestartFilename     string
	VariablesFilename   string
	ReadRestartFilename string
}

// DefaultOptions returns the conventional file names.
func DefaultOptions() Options {
	return Options{
		InputFilename:      "input.in",
		OutputFilename:     "lammps.out",
		StructureFilename:  "structure.dat",
		PotentialFilename:  "potential.dat",
		TrajectoryFilename: "aiida_lammps.trajectory.dump",
		RestartFilename:    "lammps.restart",
		VariablesFilename:  "aiida_lammps.yaml",
	}
}

func (o Options) files() input.Files {
	return input.Files{
		Structure:   o.StructureFilename,
		Potential:   o.PotentialFilename,
		Trajectory:  o.TrajectoryFilename,
		Restart:     o.RestartFilename,
		Variables:   o.VariablesFilename,
		ReadRestart: o.ReadRestartFilename,
	}
}

// Job is one LAMMPS calculation waiting to be executed.
type Job struct {
	// Executable is the LAMMPS binary, e.g. "lmp". ExtraArgs are placed
	// before the -in flag, for switches like "-sf omp".
	Executable string
	ExtraArgs  []string
	// Dir is the working directory; it is created if missing.
	Dir string

	Params    *input.Params
	Potential *potential.Potential
	Structure *lammps.Structure
	Options   Options

	// Walltime caps the process runtime. Zero means no cap.
	Walltime time.Duration

	// OnRow, when set, receives thermo rows live while LAMMPS runs.
	OnRow func(logfile.Row)

	Logger *zap.Logger
}

func (j *Job) logger() *zap.Logger {
	if j.Logger == nil {
		return zap.NewNop()
	}
	return j.Logger
}

// Stage writes the input script, structure file and potential file into the
// working directory without launching anything, and returns the script.
func (j *Job) Stage() (string, error) {
	if j.Params == nil || j.Potential == nil || j.Structure == nil {
		return "", errors.New("run: job needs params, potential and structure")
	}
	if j.Options.InputFilename == "" {
		j.Options = DefaultOptions()
	}
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "run: creating working directory")
	}

	script, err := input.Generate(j.Params, j.Potential, j.Structure, j.Options.files())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(j.Dir, j.Options.InputFilename), []byte(script), 0o644); err != nil {
		return "", errors.Wrap(err, "run: writing input script")
	}

	structureFile, err := input.StructureFile(j.Structure, j.Potential.AtomStyle)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(j.Dir, j.Options.StructureFilename), []byte(structureFile), 0o644); err != nil {
		return "", errors.Wrap(err, "run: writing structure file")
	}

	potentialPath := filepath.Join(j.Dir, j.Options.PotentialFilename)
	if err := j.Potential.WriteFile(potentialPath); err != nil {
		return "", err
	}
	if err := j.Potential.WriteSidecar(potentialPath); err != nil {
		return "", err
	}
	return script, nil
}

// Execute stages the job, runs LAMMPS to completion and collects the
// results. The returned error covers failures of the machinery (staging,
// spawning, parsing); a LAMMPS run that finishes badly is reported through
// Results.Status instead.
func Execute(ctx context.Context, job *Job) (*Results, error) {
	log := job.logger()
	if _, err := job.Stage(); err != nil {
		return nil, err
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if job.Walltime > 0 {
		runCtx, cancel = context.WithTimeout(ctx, job.Walltime)
		defer cancel()
	}

	executable := job.Executable
	if executable == "" {
		executable = "lmp"
	}
	args := append(append([]string(nil), job.ExtraArgs...), "-in", job.Options.InputFilename)

	outputPath := filepath.Join(job.Dir, job.Options.OutputFilename)
	output, err := os.Create(outputPath)
	if err != nil {
		return nil, errors.Wrap(err, "run: creating output file")
	}

	cmd := exec.CommandContext(runCtx, executable, args...)
	cmd.Dir = job.Dir
	cmd.Stdout = output
	cmd.Stderr = output

	results := &Results{
		ID:      uuid.NewString(),
		Dir:     job.Dir,
		Options: job.Options,
	}
	log.Info("launching lammps",
		zap.String("id", results.ID),
		zap.String("executable", executable),
		zap.Strings("args", args),
		zap.String("dir", job.Dir))

	started := time.Now()
	group, groupCtx := errgroup.WithContext(ctx)
	if job.OnRow != nil {
		rows := make(chan logfile.Row, 64)
		followCtx, stopFollow := context.WithCancel(groupCtx)
		group.Go(func() error {
			for row := range rows {
				job.OnRow(row)
			}
			return nil
		})
		group.Go(func() error {
			return logfile.Follow(followCtx, outputPath, rows)
		})
		defer func() {
			stopFollow()
			if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("following output failed", zap.Error(err))
			}
		}()
	}

	runErr := cmd.Run()
	closeErr := output.Close()
	results.Elapsed = time.Since(started)
	timedOut := runCtx.Err() == context.DeadlineExceeded
	if runErr != nil && !timedOut {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, errors.Wrapf(runErr, "run: launching %s", executable)
		}
		log.Warn("lammps exited nonzero", zap.Int("code", exitErr.ExitCode()))
	}
	if closeErr != nil {
		return nil, errors.Wrap(closeErr, "run: closing output file")
	}

	if err := results.collect(job); err != nil {
		return nil, err
	}
	results.resolveStatus(timedOut)
	log.Info("lammps finished",
		zap.String("id", results.ID),
		zap.Duration("elapsed", results.Elapsed),
		zap.String("status", results.Status.String()))
	return results, nil
}
