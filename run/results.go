package run

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	lammps "github.com/aiidaplugins/aiida-lammps"
	"github.com/aiidaplugins/aiida-lammps/parse/dump"
	"github.com/aiidaplugins/aiida-lammps/parse/final"
	"github.com/aiidaplugins/aiida-lammps/parse/logfile"
	"github.com/pkg/errors"
)

// Status classifies how a finished calculation ended.
type Status int

const (
	// StatusOK means LAMMPS ran to completion without complaints.
	StatusOK Status = iota
	// StatusOutOfWalltime means the walltime budget cut the run short.
	StatusOutOfWalltime
	// StatusLammpsError means the log carries one or more ERROR banners.
	StatusLammpsError
	// StatusNotConverged means a minimization stopped on its iteration or
	// evaluation limits instead of a tolerance.
	StatusNotConverged
	// StatusIncomplete means the run ended without the closing wall-time
	// line and without an obvious cause.
	StatusIncomplete
	// StatusMissingOutput means the log file never appeared.
	StatusMissingOutput
)

var statusNames = map[Status]string{
	StatusOK:            "ok",
	StatusOutOfWalltime: "out-of-walltime",
	StatusLammpsError:   "lammps-error",
	StatusNotConverged:  "not-converged",
	StatusIncomplete:    "incomplete",
	StatusMissingOutput: "missing-output",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Results holds everything harvested from a finished calculation.
type Results struct {
	ID      string
	Dir     string
	Options Options
	Status  Status
	Elapsed time.Duration

	Report         *logfile.Report
	FinalVariables final.Variables
	// FinalStructure is rebuilt from the last trajectory frame, nil when
	// no frame was dumped.
	FinalStructure *lammps.Structure
	// RestartFile is the restart to continue from: the final restart when
	// written, otherwise the intermediate restart with the highest step.
	RestartFile string
}

// TrajectoryPath returns the dump file of the run.
func (r *Results) TrajectoryPath() string {
	return filepath.Join(r.Dir, r.Options.TrajectoryFilename)
}

func (r *Results) collect(job *Job) error {
	outputPath := filepath.Join(r.Dir, r.Options.OutputFilename)

	if _, err := os.Stat(outputPath); err != nil {
		r.Status = StatusMissingOutput
		return nil
	}
	report, err := logfile.ParseFile(outputPath)
	if err != nil {
		return err
	}
	r.Report = report

	variables, err := final.ParseFile(filepath.Join(r.Dir, r.Options.VariablesFilename))
	if err != nil {
		return err
	}
	r.FinalVariables = variables

	if structure, err := lastDumpedStructure(r.TrajectoryPath(), job.Structure); err == nil {
		r.FinalStructure = structure
	}

	r.RestartFile = FindRestart(r.Dir, r.Options.RestartFilename)
	return nil
}

func (r *Results) resolveStatus(timedOut bool) {
	if r.Status == StatusMissingOutput {
		return
	}
	switch {
	case timedOut:
		r.Status = StatusOutOfWalltime
	case r.Report != nil && len(r.Report.Errors) > 0:
		r.Status = StatusLammpsError
	case r.Report != nil && r.Report.Minimization != nil && stoppedOnLimit(r.Report.Minimization.StopCriterion):
		r.Status = StatusNotConverged
	case r.Report != nil && !r.Report.Complete:
		r.Status = StatusIncomplete
	default:
		r.Status = StatusOK
	}
}

func stoppedOnLimit(criterion string) bool {
	lower := strings.ToLower(criterion)
	return strings.Contains(lower, "max iterations") ||
		strings.Contains(lower, "max force evaluations")
}

// lastDumpedStructure reads the trajectory and rebuilds a structure from the
// last complete frame, using the run's input structure as a template.
func lastDumpedStructure(path string, template *lammps.Structure) (*lammps.Structure, error) {
	reader, closer, err := dump.Open(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var last *dump.Frame
	for {
		frame, err := reader.Next()
		if errors.Is(err, dump.ErrNoMoreFrames) {
			break
		}
		if err != nil {
			return nil, err
		}
		last = frame
	}
	if last == nil {
		return nil, errors.New("run: trajectory holds no complete frame")
	}
	return last.Structure(dump.StructureOptions{Template: template})
}

// FindRestart locates the restart file to continue from inside dir. The
// final restart wins when present; otherwise intermediate restarts, named
// base.<step>, are ranked by step number and the newest is returned. The
// result is empty when no restart exists.
func FindRestart(dir, base string) string {
	if base == "" {
		base = DefaultOptions().RestartFilename
	}
	finalPath := filepath.Join(dir, base)
	if info, err := os.Stat(finalPath); err == nil && !info.IsDir() {
		return finalPath
	}

	matches, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	type candidate struct {
		path string
		step int
	}
	var candidates []candidate
	for _, match := range matches {
		suffix := strings.TrimPrefix(filepath.Base(match), base+".")
		step, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: match, step: step})
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].step > candidates[j].step })
	return candidates[0].path
}
