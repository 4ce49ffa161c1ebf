package run

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lammps "github.com/aiidaplugins/aiida-lammps"
	"github.com/aiidaplugins/aiida-lammps/input"
	"github.com/aiidaplugins/aiida-lammps/potential"
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
		MD:      &input.MD{MaxNumberSteps: 1000},
		Restart: input.Restart{PrintFinal: true},
	}
	require.NoError(t, params.Validate())
	return params
}

// fakeLammps writes a shell script standing in for the lmp binary.
func fakeLammps(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "lmp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

const okLog = `LAMMPS (2 Aug 2023 - Update 3)
units metal
   Step          Temp          TotEng
         0   300           -8.2054215
      1000   299.98508     -8.2054366
Loop time of 0.0337191 on 1 procs for 1000 steps with 2 atoms

Performance: 2562.348 ns/day, 0.009 hours/ns, 29656.816 timesteps/s
Total wall time: 0:00:01
`

const okScript = `cat <<'YML' > aiida_lammps.yaml
final_step: 1000
final_etotal: -8.20543660497098
YML
cat <<'DUMP' > aiida_lammps.trajectory.dump
ITEM: TIMESTEP
1000
ITEM: NUMBER OF ATOMS
2
ITEM: BOX BOUNDS pp pp pp
0.0 2.866
0.0 2.866
0.0 2.866
ITEM: ATOMS id type element x y z
1 1 Fe 0.1 0.05 0.0
2 1 Fe 1.4 1.45 1.43
DUMP
touch lammps.restart
cat <<'LOG'
` + okLog + `LOG
`

func TestStage(t *testing.T) {
	job := &Job{
		Dir:       t.TempDir(),
		Params:    mdParams(t),
		Potential: ironPotential(t),
		Structure: ironStructure(t),
	}
	script, err := job.Stage()
	require.NoError(t, err)
	assert.Contains(t, script, "read_data structure.dat")
	assert.Contains(t, script, "pair_coeff * * potential.dat Fe")

	for _, name := range []string{"input.in", "structure.dat", "potential.dat", "potential.dat.yaml"} {
		_, err := os.Stat(filepath.Join(job.Dir, name))
		assert.NoError(t, err, name)
	}
}

func TestStageRejectsIncompleteJob(t *testing.T) {
	job := &Job{Dir: t.TempDir(), Params: mdParams(t)}
	_, err := job.Stage()
	require.Error(t, err)
}

func TestExecuteOK(t *testing.T) {
	job := &Job{
		Executable: fakeLammps(t, okScript),
		Dir:        t.TempDir(),
		Params:     mdParams(t),
		Potential:  ironPotential(t),
		Structure:  ironStructure(t),
	}
	results, err := Execute(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, results.Status)
	require.NotNil(t, results.Report)
	assert.True(t, results.Report.Complete)
	assert.Equal(t, "metal", results.Report.UnitsStyle)

	etotal, ok := results.FinalVariables.Get("etotal")
	require.True(t, ok)
	assert.InDelta(t, -8.2054366, etotal, 1e-6)

	require.NotNil(t, results.FinalStructure)
	assert.Equal(t, 2, results.FinalStructure.Len())

	assert.Equal(t, filepath.Join(job.Dir, "lammps.restart"), results.RestartFile)
}

func TestExecuteLammpsError(t *testing.T) {
	script := `cat <<'LOG'
LAMMPS (2 Aug 2023 - Update 3)
units metal
ERROR: Unrecognized pair style 'eam/alloyy' (src/force.cpp:270)
Last command: pair_style eam/alloyy
LOG
exit 1
`
	job := &Job{
		Executable: fakeLammps(t, script),
		Dir:        t.TempDir(),
		Params:     mdParams(t),
		Potential:  ironPotential(t),
		Structure:  ironStructure(t),
	}
	results, err := Execute(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, StatusLammpsError, results.Status)
	require.Len(t, results.Report.Errors, 1)
	assert.Contains(t, results.Report.Errors[0].Message, "Unrecognized pair style")
	assert.Equal(t, "pair_style eam/alloyy", results.Report.Errors[0].LastCommand)
}

func TestExecuteOutOfWalltime(t *testing.T) {
	script := `cat <<'LOG'
LAMMPS (2 Aug 2023 - Update 3)
units metal
   Step          Temp
         0   300
LOG
sleep 30
`
	job := &Job{
		Executable: fakeLammps(t, script),
		Dir:        t.TempDir(),
		Params:     mdParams(t),
		Potential:  ironPotential(t),
		Structure:  ironStructure(t),
		Walltime:   300 * time.Millisecond,
	}
	start := time.Now()
	results, err := Execute(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, StatusOutOfWalltime, results.Status)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestExecuteIncompleteRun(t *testing.T) {
	script := `cat <<'LOG'
LAMMPS (2 Aug 2023 - Update 3)
units metal
   Step          Temp
         0   300
LOG
`
	job := &Job{
		Executable: fakeLammps(t, script),
		Dir:        t.TempDir(),
		Params:     mdParams(t),
		Potential:  ironPotential(t),
		Structure:  ironStructure(t),
	}
	results, err := Execute(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, StatusIncomplete, results.Status)
}

func TestExecuteMissingBinary(t *testing.T) {
	job := &Job{
		Executable: filepath.Join(t.TempDir(), "no-such-lmp"),
		Dir:        t.TempDir(),
		Params:     mdParams(t),
		Potential:  ironPotential(t),
		Structure:  ironStructure(t),
	}
	_, err := Execute(context.Background(), job)
	require.Error(t, err)
}

func TestFindRestart(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", FindRestart(dir, "lammps.restart"))

	touch := func(name string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	touch("lammps.restart.100")
	touch("lammps.restart.250")
	touch("lammps.restart.junk")
	assert.Equal(t, filepath.Join(dir, "lammps.restart.250"), FindRestart(dir, "lammps.restart"))

	touch("lammps.restart")
	assert.Equal(t, filepath.Join(dir, "lammps.restart"), FindRestart(dir, "lammps.restart"))
}
