package input

import (
	"fmt"

	lammps "github.com/aiidaplugins/aiida-lammps"
)

var boundaryFlags = map[string]bool{"p": true, "f": true, "s": true, "m": true, "fs": true, "fm": true}

// Validate checks the parameters for contradictions before any file is
// written. Script generation repeats the group checks because those need the
// structure.
func (P *Params) Validate() error {
	if P.MD == nil && P.Minimize == nil {
		return Error{message: "either md or minimize parameters are required", critical: true}
	}
	if P.MD != nil && P.Minimize != nil {
		return Error{message: "md and minimize are mutually exclusive", critical: true}
	}
	if units := P.Control.Units; units != "" {
		if _, ok := lammps.DefaultTimestep[units]; !ok {
			return Error{message: fmt.Sprintf("unknown unit style %q", units), critical: true}
		}
	}
	if newton := P.Control.Newton; newton != "" && newton != "on" && newton != "off" {
		return Error{message: fmt.Sprintf("newton must be on or off, got %q", newton), critical: true}
	}
	if tilt := P.Structure.BoxTilt; tilt != "" && tilt != "small" && tilt != "large" {
		return Error{message: fmt.Sprintf("box_tilt must be small or large, got %q", tilt), critical: true}
	}
	if boundary := P.Structure.Boundary; len(boundary) > 0 {
		if len(boundary) != 3 {
			return Error{message: "boundary needs one flag per direction", critical: true}
		}
		for _, flag := range boundary {
			if !boundaryFlags[flag] {
				return Error{message: fmt.Sprintf("unknown boundary flag %q", flag), critical: true}
			}
		}
	}
	if dim := P.Structure.Dimension; dim != 0 && (dim < 2 || dim > 3) {
		return Error{message: fmt.Sprintf("dimension must be 2 or 3, got %d", dim), critical: true}
	}
	seen := map[string]bool{}
	for _, group := range P.Structure.Groups {
		if group.Name == "" || group.Name == "all" {
			return Error{message: "group names must be non-empty and not shadow the builtin all", critical: true}
		}
		if seen[group.Name] {
			return Error{message: fmt.Sprintf("duplicate group %q", group.Name), critical: true}
		}
		seen[group.Name] = true
		if len(group.Args) == 0 {
			return Error{message: fmt.Sprintf("group %q has no selection arguments", group.Name), critical: true}
		}
	}
	for _, compute := range P.Computes {
		if _, ok := Computes[compute.Name]; !ok {
			return Error{message: fmt.Sprintf("unsupported compute %q", compute.Name), critical: true}
		}
	}
	for _, fix := range P.Fixes {
		if fix.Name == "" {
			return Error{message: "fix entries need a style name", critical: true}
		}
	}
	if md := P.MD; md != nil {
		if md.RunStyle == "respa" && len(md.RespaOptions) == 0 {
			return Error{message: "run_style respa requires respa_options", critical: true}
		}
		for _, velocity := range md.Velocity {
			if err := velocity.validate(); err != nil {
				return err
			}
		}
	}
	if mi := P.Minimize; mi != nil {
		if mi.EnergyTolerance < 0 || mi.ForceTolerance < 0 {
			return Error{message: "minimization tolerances must not be negative", critical: true}
		}
	}
	if P.Restart.NumSteps < 0 {
		return Error{message: "restart num_steps must not be negative", critical: true}
	}
	return nil
}

func (v Velocity) validate() error {
	actions := 0
	if v.Create != nil {
		actions++
	}
	if v.Set != nil {
		actions++
	}
	if v.Scale != nil {
		actions++
	}
	if v.Ramp != nil {
		actions++
	}
	if v.Zero != "" {
		if v.Zero != "linear" && v.Zero != "angular" {
			return Error{message: fmt.Sprintf("velocity zero must be linear or angular, got %q", v.Zero), critical: true}
		}
		actions++
	}
	if actions != 1 {
		return Error{message: "each velocity entry needs exactly one of create, set, scale, ramp or zero", critical: true}
	}
	return nil
}
