// Package lammps provides the shared domain types for driving the external
// LAMMPS molecular-dynamics executable: simulation structures, unit-style
// tables and the error conventions used by the input-generation and
// output-parsing subpackages.
//
// The package performs no simulation work itself. LAMMPS is treated as an
// opaque binary which is staged for, launched and scraped by the run
// subpackage.
package lammps

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Kind is a distinct atom type of a structure. Several sites can share one
// kind. Mass is in the units of the chosen LAMMPS unit style.
type Kind struct {
	Name   string  `yaml:"name"`
	Symbol string  `yaml:"symbol"`
	Mass   float64 `yaml:"mass"`
	Charge float64 `yaml:"charge,omitempty"`
}

// Site is one atom position. KindName refers to a Kind of the same structure.
type Site struct {
	KindName string     `yaml:"kind"`
	Position [3]float64 `yaml:"position"`
}

// Structure is a simulation box: a 3x3 cell whose rows are the lattice
// vectors, periodic-boundary flags per direction, and the atoms it contains.
type Structure struct {
	cell  *mat.Dense
	PBC   [3]bool
	Kinds []Kind
	Sites []Site
}

// NewStructure builds a structure from the given row-major 3x3 cell.
// It returns an error if any site refers to an undefined kind.
func NewStructure(cell []float64, pbc [3]bool, kinds []Kind, sites []Site) (*Structure, error) {
	if len(cell) != 9 {
		return nil, Error{message: "cell must contain 9 values", deco: []string{"NewStructure"}}
	}
	s := &Structure{
		cell:  mat.NewDense(3, 3, cell),
		PBC:   pbc,
		Kinds: kinds,
		Sites: sites,
	}
	for _, site := range sites {
		if s.Kind(site.KindName) == nil {
			return nil, Error{message: fmt.Sprintf("site refers to undefined kind %q", site.KindName), deco: []string{"NewStructure"}}
		}
	}
	return s, nil
}

// Cell returns the cell matrix. The rows are the lattice vectors.
func (S *Structure) Cell() *mat.Dense {
	return S.cell
}

// SetCell replaces the cell of the structure.
func (S *Structure) SetCell(cell *mat.Dense) {
	S.cell = mat.DenseCopyOf(cell)
}

// Kind returns the kind with the given name, or nil if not defined.
func (S *Structure) Kind(name string) *Kind {
	for i := range S.Kinds {
		if S.Kinds[i].Name == name {
			return &S.Kinds[i]
		}
	}
	return nil
}

// KindIDs returns a map from kind name to the 1-based numeric type id used
// in LAMMPS data files, assigned in order of first appearance among the sites.
func (S *Structure) KindIDs() map[string]int {
	ids := make(map[string]int)
	for _, site := range S.Sites {
		if _, ok := ids[site.KindName]; !ok {
			ids[site.KindName] = len(ids) + 1
		}
	}
	return ids
}

// Symbols returns the element symbol for every kind, in kind order.
func (S *Structure) Symbols() []string {
	symbols := make([]string, len(S.Kinds))
	for i, kind := range S.Kinds {
		symbols[i] = kind.Symbol
	}
	return symbols
}

// SiteSymbols returns the element symbol of every site, in site order.
func (S *Structure) SiteSymbols() []string {
	symbols := make([]string, len(S.Sites))
	for i, site := range S.Sites {
		symbols[i] = S.Kind(site.KindName).Symbol
	}
	return symbols
}

// Len returns the number of sites.
func (S *Structure) Len() int {
	return len(S.Sites)
}

// Volume returns the cell volume, always positive.
func (S *Structure) Volume() float64 {
	return math.Abs(mat.Det(S.cell))
}

// Dimensionality counts the periodic directions, so a bulk crystal is 3,
// a slab 2 and a molecule 0.
func (S *Structure) Dimensionality() int {
	dim := 0
	for _, periodic := range S.PBC {
		if periodic {
			dim++
		}
	}
	return dim
}

// CellLengths returns the lengths of the three lattice vectors.
func (S *Structure) CellLengths() [3]float64 {
	var l [3]float64
	for i := 0; i < 3; i++ {
		v := S.cell.RawRowView(i)
		l[i] = math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	}
	return l
}

// CellAngles returns the cell angles alpha, beta and gamma in radians,
// following the crystallographic convention (alpha between b and c).
func (S *Structure) CellAngles() [3]float64 {
	l := S.CellLengths()
	dot := func(i, j int) float64 {
		a, b := S.cell.RawRowView(i), S.cell.RawRowView(j)
		return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
	}
	return [3]float64{
		math.Acos(dot(1, 2) / (l[1] * l[2])),
		math.Acos(dot(0, 2) / (l[0] * l[2])),
		math.Acos(dot(0, 1) / (l[0] * l[1])),
	}
}

// Fractional converts a cartesian position to fractional coordinates by
// solving x = f*cell for f.
func (S *Structure) Fractional(cart [3]float64) ([3]float64, error) {
	var frac [3]float64
	var f mat.VecDense
	b := mat.NewVecDense(3, []float64{cart[0], cart[1], cart[2]})
	if err := f.SolveVec(S.cell.T(), b); err != nil {
		return frac, Error{message: "singular cell matrix", deco: []string{"Fractional"}}
	}
	for i := 0; i < 3; i++ {
		frac[i] = f.AtVec(i)
	}
	return frac, nil
}

// Cartesian converts fractional coordinates back to a cartesian position.
func (S *Structure) Cartesian(frac [3]float64) [3]float64 {
	var cart [3]float64
	for i := 0; i < 3; i++ {
		cart[i] = frac[0]*S.cell.At(0, i) + frac[1]*S.cell.At(1, i) + frac[2]*S.cell.At(2, i)
	}
	return cart
}

// Copy returns a deep copy of the structure.
func (S *Structure) Copy() *Structure {
	n := &Structure{
		cell: mat.DenseCopyOf(S.cell),
		PBC:  S.PBC,
	}
	n.Kinds = append([]Kind(nil), S.Kinds...)
	n.Sites = append([]Site(nil), S.Sites...)
	return n
}
