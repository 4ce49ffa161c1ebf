// Package workflow drives a LAMMPS calculation to completion across
// restarts. A run cut short by its walltime budget or stopped on its
// iteration limits is resumed, preferably from a restart file, otherwise
// from the last dumped structure, until it finishes or the iteration budget
// runs out.
package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	lammps "github.com/aiidaplugins/aiida-lammps"
	"github.com/aiidaplugins/aiida-lammps/input"
	"github.com/aiidaplugins/aiida-lammps/parse/logfile"
	"github.com/aiidaplugins/aiida-lammps/potential"
	"github.com/aiidaplugins/aiida-lammps/run"
	"github.com/aiidaplugins/aiida-lammps/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// readRestartName is the filename a previous restart is staged under inside
// the next iteration's directory.
const readRestartName = "input.restart"

// Config shapes the restart loop.
type Config struct {
	Executable string
	ExtraArgs  []string
	// WorkRoot holds one subdirectory per iteration.
	WorkRoot string
	// Walltime budgets the first iteration; it grows by half after every
	// run that hits it.
	Walltime      time.Duration
	MaxIterations int
	Options       run.Options

	// Ledger, when set, records every iteration.
	Ledger *store.DB
	// OnRow receives live thermo rows from the running iteration.
	OnRow  func(logfile.Row)
	Logger *zap.Logger
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Outcome reports what the loop achieved.
type Outcome struct {
	// Final is the last run; its Status tells how the loop ended.
	Final *run.Results
	// Runs holds every iteration in order.
	Runs       []*run.Results
	Iterations int
}

// Run executes the restart loop. The returned error covers machinery
// failures and unrecoverable run statuses; an exhausted iteration budget is
// also an error, with the partial Outcome still returned.
func Run(ctx context.Context, cfg Config, params *input.Params, pot *potential.Potential, structure *lammps.Structure) (*Outcome, error) {
	log := cfg.logger()
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 5
	}
	options := cfg.Options
	if options.InputFilename == "" {
		options = run.DefaultOptions()
	}

	current, err := cloneParams(params)
	if err != nil {
		return nil, err
	}
	currentStructure := structure
	walltime := cfg.Walltime
	restartPath := ""

	outcome := &Outcome{}
	for iteration := 1; iteration <= maxIterations; iteration++ {
		outcome.Iterations = iteration
		dir := filepath.Join(cfg.WorkRoot, fmt.Sprintf("iter-%02d", iteration))

		iterOptions := options
		iterOptions.ReadRestartFilename = ""
		if restartPath != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return outcome, errors.Wrap(err, "workflow: creating iteration directory")
			}
			if err := copyFile(restartPath, filepath.Join(dir, readRestartName)); err != nil {
				return outcome, err
			}
			iterOptions.ReadRestartFilename = readRestartName
		}

		log.Info("starting iteration",
			zap.Int("iteration", iteration),
			zap.String("dir", dir),
			zap.Bool("from_restart", restartPath != ""),
			zap.Duration("walltime", walltime))

		results, err := run.Execute(ctx, &run.Job{
			Executable: cfg.Executable,
			ExtraArgs:  cfg.ExtraArgs,
			Dir:        dir,
			Params:     current,
			Potential:  pot,
			Structure:  currentStructure,
			Options:    iterOptions,
			Walltime:   walltime,
			OnRow:      cfg.OnRow,
			Logger:     cfg.Logger,
		})
		if err != nil {
			return outcome, err
		}
		outcome.Runs = append(outcome.Runs, results)
		outcome.Final = results
		record(ctx, cfg.Ledger, results, iteration, log)

		switch results.Status {
		case run.StatusOK:
			return outcome, nil
		case run.StatusLammpsError:
			return outcome, errors.Errorf("workflow: iteration %d failed: %s", iteration, firstError(results))
		case run.StatusMissingOutput:
			return outcome, errors.Errorf("workflow: iteration %d produced no output file", iteration)
		case run.StatusOutOfWalltime:
			walltime = walltime * 3 / 2
		}

		// Resume from the best evidence the failed run left behind: its
		// restart file, else the last dumped structure, else from scratch.
		switch {
		case results.RestartFile != "":
			restartPath = results.RestartFile
			dropVelocities(current)
		case results.FinalStructure != nil:
			restartPath = ""
			currentStructure = results.FinalStructure
			dropVelocities(current)
			if current.MD != nil {
				if step, ok := lastStep(results.Report); ok {
					current.MD.ResetTimestep = step
				}
			}
		default:
			restartPath = ""
		}
	}
	return outcome, errors.Errorf("workflow: gave up after %d iterations", maxIterations)
}

// dropVelocities removes velocity creation so a resumed run keeps the
// velocities of the restart point instead of redrawing them.
func dropVelocities(params *input.Params) {
	if params.MD != nil {
		params.MD.Velocity = nil
	}
}

func lastStep(report *logfile.Report) (int, bool) {
	if report == nil {
		return 0, false
	}
	steps := report.Series.Steps()
	if len(steps) == 0 {
		return 0, false
	}
	return int(steps[len(steps)-1]), true
}

func firstError(results *run.Results) string {
	if results.Report != nil && len(results.Report.Errors) > 0 {
		return results.Report.Errors[0].Message
	}
	return "unknown error"
}

func record(ctx context.Context, ledger *store.DB, results *run.Results, iteration int, log *zap.Logger) {
	if ledger == nil {
		return
	}
	entry := &store.Run{
		ID:        results.ID,
		Dir:       results.Dir,
		Status:    results.Status.String(),
		Iteration: iteration,
	}
	if report := results.Report; report != nil {
		if n := len(report.StepsPerSecond); n > 0 {
			entry.StepsPerSecond = report.StepsPerSecond[n-1]
		}
		entry.TotalWallSeconds = report.TotalWallSeconds
		entry.Warnings = len(report.Warnings)
		entry.Errors = len(report.Errors)
	}
	if energy, ok := results.FinalVariables.Get("etotal"); ok {
		entry.FinalEnergy = energy
	}
	if err := ledger.Record(ctx, entry); err != nil {
		log.Warn("recording run failed", zap.Error(err))
	}
}

func cloneParams(params *input.Params) (*input.Params, error) {
	raw, err := yaml.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "workflow: cloning parameters")
	}
	clone := new(input.Params)
	if err := yaml.Unmarshal(raw, clone); err != nil {
		return nil, errors.Wrap(err, "workflow: cloning parameters")
	}
	return clone, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "workflow: staging restart file")
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "workflow: staging restart file")
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrap(err, "workflow: staging restart file")
	}
	return errors.Wrap(out.Close(), "workflow: staging restart file")
}
