package dump

import (
	"fmt"

	lammps "github.com/aiidaplugins/aiida-lammps"
)

// StructureOptions control how a frame is turned into a structure.
type StructureOptions struct {
	// SymbolField is the per-atom field holding element symbols.
	// Defaults to "element".
	SymbolField string
	// PositionFields are the three per-atom position fields.
	// Default to x, y, z.
	PositionFields []string
	// Template, when given, supplies the kinds; the frame symbols must match
	// it site by site. The cell and positions still come from the frame.
	Template *lammps.Structure
}

// Structure builds a structure from the atomic positions of a frame.
// Boundary conditions come from the frame's pp/ff flag pairs; shrink-wrapped
// boundaries cannot be represented and are rejected.
func (F *Frame) Structure(opts StructureOptions) (*lammps.Structure, error) {
	if opts.SymbolField == "" {
		opts.SymbolField = "element"
	}
	symbols, ok := F.Columns[opts.SymbolField]
	if !ok {
		return nil, Error{message: fmt.Sprintf("no field %q in frame", opts.SymbolField), deco: []string{"Structure"}}
	}
	pos, err := F.Positions(opts.PositionFields...)
	if err != nil {
		return nil, errDecorate(err, "Structure")
	}

	if opts.Template != nil {
		tmplSymbols := opts.Template.SiteSymbols()
		if len(tmplSymbols) != len(symbols) {
			return nil, Error{message: "template structure has a different number of sites", deco: []string{"Structure"}}
		}
		for i := range symbols {
			if symbols[i] != tmplSymbols[i] {
				return nil, Error{message: fmt.Sprintf("template symbol mismatch at site %d: %s != %s", i, tmplSymbols[i], symbols[i]), deco: []string{"Structure"}}
			}
		}
		out := opts.Template.Copy()
		out.SetCell(F.Cell)
		for i := range out.Sites {
			out.Sites[i].Position = [3]float64{pos.At(i, 0), pos.At(i, 1), pos.At(i, 2)}
		}
		return out, nil
	}

	var pbc [3]bool
	for i, flag := range F.PBC {
		switch flag {
		case "pp":
			pbc[i] = true
		case "ff":
			pbc[i] = false
		default:
			return nil, Error{message: fmt.Sprintf("cannot build a structure from boundary %q", flag), deco: []string{"Structure"}}
		}
	}

	var kinds []lammps.Kind
	seen := make(map[string]bool)
	sites := make([]lammps.Site, len(symbols))
	for i, symbol := range symbols {
		if !seen[symbol] {
			seen[symbol] = true
			kinds = append(kinds, lammps.Kind{Name: symbol, Symbol: symbol})
		}
		sites[i] = lammps.Site{
			KindName: symbol,
			Position: [3]float64{pos.At(i, 0), pos.At(i, 1), pos.At(i, 2)},
		}
	}
	cell := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		cell = append(cell, F.Cell.RawRowView(i)...)
	}
	out, err := lammps.NewStructure(cell, pbc, kinds, sites)
	if err != nil {
		return nil, errDecorate(err, "Structure")
	}
	return out, nil
}
