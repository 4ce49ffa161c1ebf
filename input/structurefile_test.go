package input

import (
	"fmt"
	"strings"
	"testing"

	lammps "github.com/aiidaplugins/aiida-lammps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructureFileAtomic(t *testing.T) {
	structure := testStructure(t)
	content, err := StructureFile(structure, "atomic")
	require.NoError(t, err)

	assert.Contains(t, content, "2 atoms\n")
	assert.Contains(t, content, "1 atom types\n")
	assert.Contains(t, content, fmt.Sprintf("0.0 %20.10f xlo xhi\n", 2.866))
	assert.Contains(t, content, fmt.Sprintf("Masses\n\n1 %20.10f\n", 55.845))
	assert.Contains(t, content, fmt.Sprintf("1 1 %20.10f %20.10f %20.10f\n", 0.0, 0.0, 0.0))
	assert.Contains(t, content, fmt.Sprintf("2 1 %20.10f %20.10f %20.10f\n", 1.433, 1.433, 1.433))
	// orthogonal cells carry no tilt line
	assert.NotContains(t, content, "xy xz yz")
}

func TestStructureFileCharge(t *testing.T) {
	structure, err := lammps.NewStructure(
		[]float64{4, 0, 0, 0, 4, 0, 0, 0, 4},
		[3]bool{true, true, true},
		[]lammps.Kind{
			{Name: "O", Symbol: "O", Mass: 15.999, Charge: -0.8},
			{Name: "H", Symbol: "H", Mass: 1.008, Charge: 0.4},
		},
		[]lammps.Site{
			{KindName: "O", Position: [3]float64{0, 0, 0}},
			{KindName: "H", Position: [3]float64{0.9, 0, 0}},
			{KindName: "H", Position: [3]float64{-0.3, 0.9, 0}},
		},
	)
	require.NoError(t, err)

	content, err := StructureFile(structure, "charge")
	require.NoError(t, err)
	assert.Contains(t, content, "2 atom types\n")
	assert.Contains(t, content, "1 1 -0.8")
	assert.Contains(t, content, "2 2 0.4")
	assert.Contains(t, content, "3 2 0.4")
}

func TestStructureFileTriclinic(t *testing.T) {
	// an oriented triclinic cell passes through unchanged
	structure, err := lammps.NewStructure(
		[]float64{4, 0, 0, 1, 3, 0, 0.5, 0.25, 2},
		[3]bool{true, true, true},
		[]lammps.Kind{{Name: "Si", Symbol: "Si", Mass: 28.085}},
		[]lammps.Site{{KindName: "Si", Position: [3]float64{0.2, 0.1, 0.1}}},
	)
	require.NoError(t, err)

	content, err := StructureFile(structure, "atomic")
	require.NoError(t, err)
	assert.Contains(t, content, fmt.Sprintf("%20.10f %20.10f %20.10f xy xz yz\n", 1.0, 0.5, 0.25))
}

func TestStructureFileReorientsCell(t *testing.T) {
	// the same lattice rotated out of the LAMMPS orientation: the writer must
	// rebuild it from lengths and angles without distorting the crystal
	structure, err := lammps.NewStructure(
		[]float64{0, 4, 0, 0, 1, 3, 2, 0.5, 0.25},
		[3]bool{true, true, true},
		[]lammps.Kind{{Name: "Si", Symbol: "Si", Mass: 28.085}},
		[]lammps.Site{{KindName: "Si", Position: [3]float64{0.5, 2, 0.8}}},
	)
	require.NoError(t, err)

	content, err := StructureFile(structure, "atomic")
	require.NoError(t, err)
	// the first lattice vector keeps its length and lands on the x axis
	assert.Contains(t, content, fmt.Sprintf("0.0 %20.10f xlo xhi\n", 4.0))
	// the original structure is left untouched
	assert.Equal(t, 0.0, structure.Cell().At(0, 0))
}

func TestStructureFileRejectsBadStyle(t *testing.T) {
	_, err := StructureFile(testStructure(t), "full")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "atom_style") || strings.Contains(err.Error(), "full"))
}
