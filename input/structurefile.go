package input

import (
	"fmt"
	"math"
	"strings"

	lammps "github.com/aiidaplugins/aiida-lammps"
	"gonum.org/v1/gonum/mat"
)

// StructureFile renders a structure as a LAMMPS data file. atomStyle must be
// "atomic" or "charge"; with "charge" each site carries its kind's charge.
//
// LAMMPS requires the cell in a restricted orientation: the first lattice
// vector along x, the second in the xy plane, positive diagonal. Cells that
// do not conform are rebuilt from their lengths and angles and the atom
// positions are carried over through fractional coordinates, which preserves
// the crystal while reorienting the box.
func StructureFile(structure *lammps.Structure, atomStyle string) (string, error) {
	if atomStyle != "atomic" && atomStyle != "charge" {
		return "", Error{message: fmt.Sprintf("atom_style %q is not atomic or charge", atomStyle), critical: true}
	}
	if structure.Len() == 0 {
		return "", Error{message: "structure has no sites", critical: true}
	}

	cell := structure.Cell()
	positions := make([][3]float64, structure.Len())
	for i, site := range structure.Sites {
		positions[i] = site.Position
	}

	if !conforming(cell) {
		oriented, err := orientedCell(structure)
		if err != nil {
			return "", err
		}
		reoriented := structure.Copy()
		reoriented.SetCell(oriented)
		for i, site := range structure.Sites {
			frac, err := structure.Fractional(site.Position)
			if err != nil {
				return "", Error{message: "singular cell matrix", critical: true}
			}
			positions[i] = reoriented.Cartesian(frac)
		}
		cell = oriented
	}

	lx, ly, lz := cell.At(0, 0), cell.At(1, 1), cell.At(2, 2)
	if lx < 1e-9 || ly < 1e-9 || lz < 1e-9 {
		return "", Error{message: fmt.Sprintf("degenerate cell with box lengths %g %g %g", lx, ly, lz), critical: true}
	}
	xy, xz, yz := cell.At(1, 0), cell.At(2, 0), cell.At(2, 1)

	kindIDs := structure.KindIDs()

	var b strings.Builder
	b.WriteString("# generated structure file\n\n")
	fmt.Fprintf(&b, "%d atoms\n", structure.Len())
	fmt.Fprintf(&b, "%d atom types\n\n", len(kindIDs))
	fmt.Fprintf(&b, "0.0 %20.10f xlo xhi\n", lx)
	fmt.Fprintf(&b, "0.0 %20.10f ylo yhi\n", ly)
	fmt.Fprintf(&b, "0.0 %20.10f zlo zhi\n", lz)
	if notZero(xy) || notZero(xz) || notZero(yz) {
		fmt.Fprintf(&b, "%20.10f %20.10f %20.10f xy xz yz\n", xy, xz, yz)
	}
	b.WriteString("\nMasses\n\n")
	for _, kind := range kindsInIDOrder(structure, kindIDs) {
		fmt.Fprintf(&b, "%d %20.10f\n", kindIDs[kind.Name], kind.Mass)
	}
	b.WriteString("\nAtoms\n\n")
	for i, site := range structure.Sites {
		pos := positions[i]
		switch atomStyle {
		case "atomic":
			fmt.Fprintf(&b, "%d %d %20.10f %20.10f %20.10f\n",
				i+1, kindIDs[site.KindName], pos[0], pos[1], pos[2])
		case "charge":
			fmt.Fprintf(&b, "%d %d %g %20.10f %20.10f %20.10f\n",
				i+1, kindIDs[site.KindName], structure.Kind(site.KindName).Charge, pos[0], pos[1], pos[2])
		}
	}
	return b.String(), nil
}

// conforming reports whether the cell already follows the LAMMPS box rules.
func conforming(cell *mat.Dense) bool {
	return !notZero(cell.At(0, 1)) && !notZero(cell.At(0, 2)) && !notZero(cell.At(1, 2)) &&
		cell.At(0, 0) > 0 && cell.At(1, 1) > 0 && cell.At(2, 2) > 0
}

// orientedCell builds the LAMMPS-oriented equivalent of the structure's cell
// from its lengths and angles.
func orientedCell(structure *lammps.Structure) (*mat.Dense, error) {
	l := structure.CellLengths()
	angles := structure.CellAngles()
	alpha, beta, gamma := angles[0], angles[1], angles[2]

	sinGamma := math.Sin(gamma)
	if math.Abs(sinGamma) < 1e-12 {
		return nil, Error{message: "degenerate cell: collinear lattice vectors", critical: true}
	}
	ax := l[0]
	bx := l[1] * math.Cos(gamma)
	by := l[1] * sinGamma
	cx := l[2] * math.Cos(beta)
	cy := l[2] * (math.Cos(alpha) - math.Cos(beta)*math.Cos(gamma)) / sinGamma
	czSquared := l[2]*l[2] - cx*cx - cy*cy
	if czSquared <= 0 {
		return nil, Error{message: "degenerate cell: inconsistent angles", critical: true}
	}
	return mat.NewDense(3, 3, []float64{
		ax, 0, 0,
		bx, by, 0,
		cx, cy, math.Sqrt(czSquared),
	}), nil
}

func kindsInIDOrder(structure *lammps.Structure, ids map[string]int) []lammps.Kind {
	ordered := make([]lammps.Kind, len(ids))
	for name, id := range ids {
		ordered[id-1] = *structure.Kind(name)
	}
	return ordered
}

func notZero(value float64) bool {
	return math.Abs(value) > 1e-8
}
