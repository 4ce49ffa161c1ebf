package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lammps "github.com/aiidaplugins/aiida-lammps"
	"github.com/aiidaplugins/aiida-lammps/input"
	"github.com/aiidaplugins/aiida-lammps/potential"
	"github.com/aiidaplugins/aiida-lammps/run"
	"github.com/aiidaplugins/aiida-lammps/store"
)

func ironStructure(t *testing.T) *lammps.Structure {
	t.Helper()
	s, err := lammps.NewStructure(
		[]float64{2.866, 0, 0, 0, 2.866, 0, 0, 0, 2.866},
		[3]bool{true, true, true},
		[]lammps.Kind{{Name: "Fe", Symbol: "Fe", Mass: 55.845}},
		[]lammps.Site{
			{KindName: "Fe", Position: [3]float64{0, 0, 0}},
			{KindName: "Fe", Position: [3]float64{1.433, 1.433, 1.433}},
		},
	)
	require.NoError(t, err)
	return s
}

func ironPotential(t *testing.T) *potential.Potential {
	t.Helper()
	pot, err := potential.New([]byte("# Fe test potential\n"), "eam/alloy", []string{"Fe"}, "", "", nil)
	require.NoError(t, err)
	return pot
}

func mdParams(t *testing.T) *input.Params {
	t.Helper()
	params := &input.Params{
		Control: input.Control{Units: "metal"},
		MD: &input.MD{
			MaxNumberSteps: 1000,
			Velocity:       []input.Velocity{{Create: &input.VelocityCreate{Temp: 300, Seed: 7919}}},
		},
	}
	require.NoError(t, params.Validate())
	return params
}

func fakeLammps(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "lmp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

const incompleteLog = `LAMMPS (2 Aug 2023 - Update 3)
units metal
   Step          Temp          TotEng
         0   300           -8.2054215
       500   290.11405     -8.2054312
`

const completeLog = `LAMMPS (2 Aug 2023 - Update 3)
units metal
   Step          Temp          TotEng
       500   290.11405     -8.2054312
      1000   299.98508     -8.2054366
Loop time of 0.0337191 on 1 procs for 500 steps with 2 atoms

Performance: 2562.348 ns/day, 0.009 hours/ns, 29656.816 timesteps/s
Total wall time: 0:00:01
`

// failOnceScript dies mid-run on its first invocation, leaving an
// intermediate restart behind, and finishes cleanly on the second.
func failOnceScript(marker string) string {
	return fmt.Sprintf(`if [ -f %q ]; then
cat <<'YML' > aiida_lammps.yaml
final_etotal: -8.20543660497098
YML
cat <<'LOG'
%sLOG
exit 0
fi
touch %q
touch lammps.restart.500
cat <<'LOG'
%sLOG
`, marker, completeLog, marker, incompleteLog)
}

func TestRunRecoversFromRestart(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "first-run-done")
	workRoot := t.TempDir()

	ledger := store.NewDB(":memory:")
	require.NoError(t, ledger.Open())
	defer ledger.Close()

	cfg := Config{
		Executable:    fakeLammps(t, failOnceScript(marker)),
		WorkRoot:      workRoot,
		MaxIterations: 3,
		Ledger:        ledger,
	}
	outcome, err := Run(context.Background(), cfg, mdParams(t), ironPotential(t), ironStructure(t))
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Iterations)
	require.Len(t, outcome.Runs, 2)
	assert.Equal(t, run.StatusIncomplete, outcome.Runs[0].Status)
	assert.Equal(t, run.StatusOK, outcome.Final.Status)
	assert.Equal(t, filepath.Join(workRoot, "iter-02"), outcome.Final.Dir)

	// the second iteration resumes from the staged restart, with redrawn
	// velocities suppressed
	script, err := os.ReadFile(filepath.Join(workRoot, "iter-02", "input.in"))
	require.NoError(t, err)
	assert.Contains(t, string(script), "read_restart input.restart")
	assert.NotContains(t, string(script), "velocity all create")

	_, err = os.Stat(filepath.Join(workRoot, "iter-02", "input.restart"))
	assert.NoError(t, err)

	runs, err := ledger.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunAbortsOnLammpsError(t *testing.T) {
	script := `cat <<'LOG'
LAMMPS (2 Aug 2023 - Update 3)
units metal
ERROR: Unrecognized pair style 'eam/alloyy' (src/force.cpp:270)
Last command: pair_style eam/alloyy
LOG
exit 1
`
	cfg := Config{
		Executable:    fakeLammps(t, script),
		WorkRoot:      t.TempDir(),
		MaxIterations: 3,
	}
	outcome, err := Run(context.Background(), cfg, mdParams(t), ironPotential(t), ironStructure(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unrecognized pair style")
	assert.Equal(t, 1, outcome.Iterations)
}

func TestRunGivesUpAfterBudget(t *testing.T) {
	// never finishes, never leaves anything to resume from
	script := `cat <<'LOG'
` + incompleteLog + `LOG
`
	cfg := Config{
		Executable:    fakeLammps(t, script),
		WorkRoot:      t.TempDir(),
		MaxIterations: 2,
	}
	outcome, err := Run(context.Background(), cfg, mdParams(t), ironPotential(t), ironStructure(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gave up")
	assert.Equal(t, 2, outcome.Iterations)
	assert.Len(t, outcome.Runs, 2)
}

func TestCloneParamsIsDeep(t *testing.T) {
	original := mdParams(t)
	clone, err := cloneParams(original)
	require.NoError(t, err)

	dropVelocities(clone)
	clone.MD.ResetTimestep = 500

	assert.Len(t, original.MD.Velocity, 1)
	assert.Zero(t, original.MD.ResetTimestep)
	assert.Nil(t, clone.MD.Velocity)
}
