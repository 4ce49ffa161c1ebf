package input

import (
	"strings"
	"testing"

	lammps "github.com/aiidaplugins/aiida-lammps"
	"github.com/aiidaplugins/aiida-lammps/potential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStructure(t *testing.T) *lammps.Structure {
	t.Helper()
	structure, err := lammps.NewStructure(
		[]float64{2.866, 0, 0, 0, 2.866, 0, 0, 0, 2.866},
		[3]bool{true, true, true},
		[]lammps.Kind{{Name: "Fe", Symbol: "Fe", Mass: 55.845}},
		[]lammps.Site{
			{KindName: "Fe", Position: [3]float64{0, 0, 0}},
			{KindName: "Fe", Position: [3]float64{1.433, 1.433, 1.433}},
		},
	)
	require.NoError(t, err)
	return structure
}

func eamPotential(t *testing.T) *potential.Potential {
	t.Helper()
	pot, err := potential.New([]byte("fake tabulated data\n"), "eam/alloy", []string{"Fe"}, "", "", nil)
	require.NoError(t, err)
	return pot
}

func mdParams() *Params {
	return &Params{
		Control: Control{Units: "metal"},
		MD: &MD{
			Integration:    Integration{Style: "npt", Constraints: map[string][]string{"temp": {"300", "300", "100"}, "iso": {"0", "0", "1000"}}},
			Velocity:       []Velocity{{Create: &VelocityCreate{Temp: 300, Seed: 7919}, Options: []string{"dist", "gaussian"}}},
			MaxNumberSteps: 5000,
		},
		Thermo: Thermo{PrintingRate: 100, Keywords: []string{"temp", "press", "step"}},
		Dump:   Dump{Rate: 50},
	}
}

func TestGenerateMDScript(t *testing.T) {
	script, err := Generate(mdParams(), eamPotential(t), testStructure(t), DefaultFiles())
	require.NoError(t, err)

	assert.Contains(t, script, "clear\nunits metal\nnewton on\ntimestep 0.001\n")
	assert.Contains(t, script, "pair_style eam/alloy\n")
	assert.Contains(t, script, "pair_coeff * * potential.dat Fe\n")
	assert.Contains(t, script, "read_data structure.dat\n")
	assert.Contains(t, script, "fix npt_all_aiida all npt temp 300 300 100 iso 0 0 1000\n")
	assert.Contains(t, script, "velocity all create 300 7919 dist gaussian\n")
	assert.Contains(t, script, "run 5000\n")
	// step is forced to the front, etotal is always present
	assert.Contains(t, script, "thermo_style custom step temp press etotal\n")
	assert.Contains(t, script, "thermo 100\n")
	assert.Contains(t, script, "dump aiida all custom 50 aiida_lammps.trajectory.dump id type element x y z\n")
	assert.Contains(t, script, "dump_modify aiida element Fe\n")
	assert.Contains(t, script, "variable final_etotal equal etotal\n")
	assert.Contains(t, script, `print "final_etotal: ${final_etotal}" append aiida_lammps.yaml`)

	// blocks arrive in execution order
	control := strings.Index(script, "units metal")
	structure := strings.Index(script, "read_data")
	pair := strings.Index(script, "pair_style")
	run := strings.Index(script, "run 5000")
	assert.Less(t, control, structure)
	assert.Less(t, structure, pair)
	assert.Less(t, pair, run)
}

func TestGenerateHeaderFormat(t *testing.T) {
	got := header("Start of the Control information")
	require.Len(t, got, 83) // 80 content + '#' + '#' + newline
	assert.True(t, strings.HasPrefix(got, "#-"))
	assert.True(t, strings.HasSuffix(got, "-#\n"))
	assert.Contains(t, got, "Start of the Control information")
}

func TestGenerateMinimizeScript(t *testing.T) {
	params := &Params{
		Control:  Control{Units: "metal"},
		Minimize: &Minimize{Style: "cg", EnergyTolerance: 1e-8, ForceTolerance: 1e-8, MaxIterations: 2000, MaxEvaluations: 4000},
		Restart:  Restart{PrintFinal: true, PrintIntermediate: true},
	}
	script, err := Generate(params, eamPotential(t), testStructure(t), DefaultFiles())
	require.NoError(t, err)

	assert.Contains(t, script, "min_style cg\n")
	assert.Contains(t, script, "minimize 1e-08 1e-08 2000 4000\n")
	// intermediate interval defaults to a tenth of the iteration budget
	assert.Contains(t, script, "restart 200 lammps.restart\n")
	assert.Contains(t, script, "write_restart lammps.restart\n")
	// the final write_restart comes after the minimize command
	assert.Less(t, strings.Index(script, "minimize 1e-08"), strings.Index(script, "write_restart"))
}

func TestGenerateFromRestart(t *testing.T) {
	files := DefaultFiles()
	files.ReadRestart = "input.restart"
	script, err := Generate(mdParams(), eamPotential(t), testStructure(t), files)
	require.NoError(t, err)

	assert.Contains(t, script, "read_restart input.restart\n")
	assert.NotContains(t, script, "read_data")
	assert.NotContains(t, script, "box tilt")
}

func TestGenerateInlinePairCoefficients(t *testing.T) {
	pot, err := potential.New([]byte("# comment line\n1.0 1.0 2.5\n"), "lj/cut", []string{"Ar"}, "", "", nil)
	require.NoError(t, err)
	require.False(t, pot.ReadFromFile())

	params := mdParams()
	params.Potential.StyleOptions = []string{"2.5"}
	script, err := Generate(params, pot, testStructure(t), DefaultFiles())
	require.NoError(t, err)

	assert.Contains(t, script, "pair_style lj/cut 2.5\n")
	assert.Contains(t, script, "pair_coeff * * 1.0 1.0 2.5\n")
	assert.NotContains(t, script, "pair_coeff * * potential.dat")
}

func TestGenerateChargeDump(t *testing.T) {
	pot, err := potential.New([]byte("reax parameters\n"), "reaxff", []string{"C", "H"}, "", "", nil)
	require.NoError(t, err)
	require.Equal(t, "charge", pot.AtomStyle)

	script, err := Generate(mdParams(), pot, testStructure(t), DefaultFiles())
	require.NoError(t, err)
	assert.Contains(t, script, "id type element x y z q\n")
	assert.Contains(t, script, "atom_style charge\n")
}

func TestGenerateComputes(t *testing.T) {
	params := mdParams()
	params.Structure.Groups = []Group{{Name: "mobile", Args: []string{"type", "1"}}}
	params.Computes = []Directive{
		{Name: "ke", Group: "mobile"},
		{Name: "msd"},
		{Name: "stress/atom", Args: []string{"NULL"}},
	}
	script, err := Generate(params, eamPotential(t), testStructure(t), DefaultFiles())
	require.NoError(t, err)

	assert.Contains(t, script, "group mobile type 1\n")
	assert.Contains(t, script, "compute ke_mobile_aiida mobile ke \n")
	assert.Contains(t, script, "compute stress_atom_all_aiida all stress/atom NULL\n")
	// global computes land in the thermo line, per-atom ones in the dump
	assert.Contains(t, script, "c_ke_mobile_aiida c_msd_all_aiida[1] c_msd_all_aiida[2] c_msd_all_aiida[3] c_msd_all_aiida[4]\n")
	assert.Contains(t, script, "c_stress_atom_all_aiida[1]")
	// sanitized names are legal variable identifiers
	assert.Contains(t, script, "variable final_c_ke_mobile_aiida equal c_ke_mobile_aiida\n")
	assert.Contains(t, script, "variable final_c_msd_all_aiida__1__ equal c_msd_all_aiida[1]\n")
}

func TestGenerateRejectsUnknownGroup(t *testing.T) {
	params := mdParams()
	params.Fixes = []Directive{{Name: "momentum", Group: "ghosts", Args: []string{"100", "linear", "1", "1", "1"}}}
	_, err := Generate(params, eamPotential(t), testStructure(t), DefaultFiles())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghosts")
}
