// Package input builds LAMMPS input scripts and data files from structured
// parameters. The script is assembled from blocks (control, structure,
// potential, fixes, computes, thermo, dump, restart, run), each delimited by
// a banner header so the resulting file can be audited by eye.
package input

import "gopkg.in/yaml.v3"

// Params collects everything that shapes one LAMMPS run. Exactly one of MD
// or Minimize must be set.
type Params struct {
	Control   Control          `yaml:"control,omitempty"`
	Structure StructureOptions `yaml:"structure,omitempty"`
	Potential PairSettings     `yaml:"potential,omitempty"`
	MD        *MD              `yaml:"md,omitempty"`
	Minimize  *Minimize        `yaml:"minimize,omitempty"`
	Fixes     []Directive      `yaml:"fix,omitempty"`
	Computes  []Directive      `yaml:"compute,omitempty"`
	Thermo    Thermo           `yaml:"thermo,omitempty"`
	Dump      Dump             `yaml:"dump,omitempty"`
	Restart   Restart          `yaml:"restart,omitempty"`
}

// ParamsFromYAML decodes and validates a parameter file.
func ParamsFromYAML(raw []byte) (*Params, error) {
	p := new(Params)
	if err := yaml.Unmarshal(raw, p); err != nil {
		return nil, Error{message: "decoding parameters: " + err.Error(), critical: true}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// MaxSteps returns the step ceiling of the run mode, used to size the
// intermediate restart interval.
func (P *Params) MaxSteps() int {
	switch {
	case P.MD != nil:
		return P.MD.maxSteps()
	case P.Minimize != nil:
		return P.Minimize.maxIterations()
	}
	return 0
}

// Control holds the global simulation settings.
type Control struct {
	Units      string   `yaml:"units,omitempty"`
	Newton     string   `yaml:"newton,omitempty"`
	Processors []string `yaml:"processors,omitempty"`
	Timestep   float64  `yaml:"timestep,omitempty"`
}

// StructureOptions shape the structure block of the script. Zero values
// defer to the structure itself (dimensionality, periodic boundaries).
type StructureOptions struct {
	BoxTilt   string   `yaml:"box_tilt,omitempty"`
	Dimension int      `yaml:"dimension,omitempty"`
	Boundary  []string `yaml:"boundary,omitempty"`
	Groups    []Group  `yaml:"groups,omitempty"`
}

// Group declares an atom group usable by fixes and computes.
type Group struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
}

// PairSettings carry the script-side potential options; the potential file
// itself is handled by the potential package.
type PairSettings struct {
	StyleOptions   []string `yaml:"potential_style_options,omitempty"`
	Neighbor       []string `yaml:"neighbor,omitempty"`
	NeighborModify []string `yaml:"neighbor_modify,omitempty"`
}

// MD holds the molecular dynamics run settings.
type MD struct {
	Integration    Integration `yaml:"integration"`
	Velocity       []Velocity  `yaml:"velocity,omitempty"`
	ResetTimestep  int         `yaml:"reset_timestep,omitempty"`
	RunStyle       string      `yaml:"run_style,omitempty"`
	RespaOptions   []string    `yaml:"respa_options,omitempty"`
	MaxNumberSteps int         `yaml:"max_number_steps,omitempty"`
}

func (m *MD) maxSteps() int {
	if m.MaxNumberSteps <= 0 {
		return 100
	}
	return m.MaxNumberSteps
}

// Integration selects the time integrator applied to all atoms. Constraints
// maps option names (temp, iso, tchain, ...) to their values; only the
// options valid for the chosen style are emitted.
type Integration struct {
	Style       string              `yaml:"style,omitempty"`
	Constraints map[string][]string `yaml:"constraints,omitempty"`
}

func (i Integration) style() string {
	if i.Style == "" {
		return "nve"
	}
	return i.Style
}

// Velocity describes one velocity command. Set at most one of the action
// fields; Options carries the trailing global keywords (dist, mom, units...).
type Velocity struct {
	Group   string          `yaml:"group,omitempty"`
	Create  *VelocityCreate `yaml:"create,omitempty"`
	Set     *VelocitySet    `yaml:"set,omitempty"`
	Scale   *float64        `yaml:"scale,omitempty"`
	Ramp    *VelocityRamp   `yaml:"ramp,omitempty"`
	Zero    string          `yaml:"zero,omitempty"`
	Options []string        `yaml:"options,omitempty"`
}

// VelocityCreate seeds velocities from a Maxwell-Boltzmann distribution.
// A zero Seed picks one at random.
type VelocityCreate struct {
	Temp float64 `yaml:"temp"`
	Seed int     `yaml:"seed,omitempty"`
}

// VelocitySet sets explicit velocity components; empty components stay
// untouched (NULL).
type VelocitySet struct {
	VX string `yaml:"vx,omitempty"`
	VY string `yaml:"vy,omitempty"`
	VZ string `yaml:"vz,omitempty"`
}

// VelocityRamp applies a velocity gradient along one dimension.
type VelocityRamp struct {
	VDim string  `yaml:"vdim"`
	VLo  float64 `yaml:"vlo"`
	VHi  float64 `yaml:"vhi"`
	Dim  string  `yaml:"dim"`
	CLo  float64 `yaml:"clo"`
	CHi  float64 `yaml:"chi"`
}

// Minimize holds the energy minimization settings.
type Minimize struct {
	Style           string  `yaml:"style,omitempty"`
	EnergyTolerance float64 `yaml:"energy_tolerance,omitempty"`
	ForceTolerance  float64 `yaml:"force_tolerance,omitempty"`
	MaxIterations   int     `yaml:"max_iterations,omitempty"`
	MaxEvaluations  int     `yaml:"max_evaluations,omitempty"`
}

func (m *Minimize) maxIterations() int {
	if m.MaxIterations <= 0 {
		return 1000
	}
	return m.MaxIterations
}

// Directive is one fix or compute application: a LAMMPS style name, the
// group it acts on (empty means all) and its trailing arguments.
type Directive struct {
	Name  string   `yaml:"name"`
	Group string   `yaml:"group,omitempty"`
	Args  []string `yaml:"args,omitempty"`
}

func (d Directive) group() string {
	if d.Group == "" {
		return "all"
	}
	return d.Group
}

// Thermo controls what the thermo table prints and how often. Keywords is
// ordered; "step" is forced to the front and "etotal" is always present.
type Thermo struct {
	PrintingRate int      `yaml:"printing_rate,omitempty"`
	Keywords     []string `yaml:"keywords,omitempty"`
}

// Dump controls trajectory dumping.
type Dump struct {
	Rate int `yaml:"dump_rate,omitempty"`
}

// Restart controls restart file emission.
type Restart struct {
	PrintFinal        bool `yaml:"print_final,omitempty"`
	PrintIntermediate bool `yaml:"print_intermediate,omitempty"`
	NumSteps          int  `yaml:"num_steps,omitempty"`
}

// Files names the run artifacts referenced from inside the input script.
type Files struct {
	Structure   string
	Potential   string
	Trajectory  string
	Restart     string
	Variables   string
	ReadRestart string
}

// DefaultFiles returns the conventional artifact names.
func DefaultFiles() Files {
	return Files{
		Structure:  "structure.dat",
		Potential:  "potential.dat",
		Trajectory: "aiida_lammps.trajectory.dump",
		Restart:    "lammps.restart",
		Variables:  "aiida_lammps.yaml",
	}
}
