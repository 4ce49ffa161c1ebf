package input

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	lammps "github.com/aiidaplugins/aiida-lammps"
	"github.com/aiidaplugins/aiida-lammps/potential"
)

// Generate renders the complete input script. All blocks required by the
// parameters are written in a fixed order; the restart file, when present in
// files.ReadRestart, replaces the structure block with a read_restart
// command so that velocities and timestep carry over from the previous run.
func Generate(params *Params, pot *potential.Potential, structure *lammps.Structure, files Files) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	controlBlock := writeControlBlock(params.Control)
	thermoBlock, fixedThermo := writeThermoBlock(params.Thermo, params.Computes)

	var runBlock string
	switch {
	case params.Minimize != nil:
		runBlock = writeMinimizeBlock(params.Minimize)
	case params.MD != nil:
		runBlock = writeMDBlock(params.MD)
	}

	structureBlock, groups, err := writeStructureBlock(params.Structure, structure, pot.AtomStyle, files.Structure)
	if err != nil {
		return "", err
	}
	var readRestartBlock string
	if files.ReadRestart != "" {
		readRestartBlock = writeReadRestartBlock(files.ReadRestart)
		structureBlock = ""
	}

	fixBlock, err := writeFixBlock(params.Fixes, groups)
	if err != nil {
		return "", err
	}
	computeBlock, err := writeComputeBlock(params.Computes, groups)
	if err != nil {
		return "", err
	}
	potentialBlock := writePotentialBlock(pot, params.Potential, structure.Symbols(), files.Potential)
	dumpBlock := writeDumpBlock(params.Dump, params.Computes, files.Trajectory, pot.AtomStyle, structure.Symbols())
	intermediateRestart, finalRestart := writeRestartBlocks(params.Restart, files.Restart, params.MaxSteps())
	finalBlock := writeFinalVariablesBlock(fixedThermo, files.Variables)

	return controlBlock +
		readRestartBlock +
		structureBlock +
		potentialBlock +
		fixBlock +
		computeBlock +
		thermoBlock +
		dumpBlock +
		intermediateRestart +
		runBlock +
		finalBlock +
		finalRestart, nil
}

// header centers value in a line of dashes so the script is readable.
func header(value string) string {
	pad := 80 - len(value)
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	return "#" + strings.Repeat("-", left) + value + strings.Repeat("-", pad-left) + "#\n"
}

func writeControlBlock(control Control) string {
	units := control.Units
	if units == "" {
		units = "si"
	}
	timestep := control.Timestep
	if timestep == 0 {
		timestep = lammps.DefaultTimestep[units]
	}
	var b strings.Builder
	b.WriteString(header("Start of the Control information"))
	b.WriteString("clear\n")
	fmt.Fprintf(&b, "units %s\n", units)
	if control.Newton != "" {
		fmt.Fprintf(&b, "newton %s\n", control.Newton)
	} else {
		b.WriteString("newton on\n")
	}
	if len(control.Processors) > 0 {
		fmt.Fprintf(&b, "processors %s\n", strings.Join(control.Processors, " "))
	}
	fmt.Fprintf(&b, "timestep %s\n", formatFloat(timestep))
	b.WriteString(header("End of the Control information"))
	return b.String()
}

func writePotentialBlock(pot *potential.Potential, settings PairSettings, symbols []string, potentialFile string) string {
	var b strings.Builder
	b.WriteString(header("Start of Potential information"))
	b.WriteString("pair_style " + pot.PairStyle)
	if len(settings.StyleOptions) > 0 {
		b.WriteString(" " + strings.Join(settings.StyleOptions, " "))
	}
	b.WriteString("\n")
	if pot.ReadFromFile() {
		fmt.Fprintf(&b, "pair_coeff * * %s %s\n", potentialFile, strings.Join(symbols, " "))
	} else {
		fmt.Fprintf(&b, "pair_coeff * * %s\n", strings.Join(pot.CoefficientLines(), " "))
	}
	if len(settings.Neighbor) > 0 {
		fmt.Fprintf(&b, "neighbor %s\n", strings.Join(settings.Neighbor, " "))
	}
	if len(settings.NeighborModify) > 0 {
		fmt.Fprintf(&b, "neigh_modify %s\n", strings.Join(settings.NeighborModify, " "))
	}
	b.WriteString(header("End of Potential information"))
	return b.String()
}

func writeStructureBlock(opts StructureOptions, structure *lammps.Structure, atomStyle, structureFile string) (string, []string, error) {
	kindIDs := structure.KindIDs()

	var b strings.Builder
	b.WriteString(header("Start of the Structure information"))
	tilt := opts.BoxTilt
	if tilt == "" {
		tilt = "small"
	}
	fmt.Fprintf(&b, "box tilt %s\n", tilt)
	if opts.Dimension != 0 {
		fmt.Fprintf(&b, "dimension %d\n", opts.Dimension)
	} else {
		fmt.Fprintf(&b, "dimension %d\n", structure.Dimensionality())
	}
	if len(opts.Boundary) > 0 {
		fmt.Fprintf(&b, "boundary %s\n", strings.Join(opts.Boundary, " "))
	} else {
		flags := make([]string, 3)
		for i, periodic := range structure.PBC {
			if periodic {
				flags[i] = "p"
			} else {
				flags[i] = "f"
			}
		}
		fmt.Fprintf(&b, "boundary %s\n", strings.Join(flags, " "))
	}
	fmt.Fprintf(&b, "atom_style %s\n", atomStyle)
	fmt.Fprintf(&b, "read_data %s\n", structureFile)

	groups := make([]string, 0, len(opts.Groups))
	for _, group := range opts.Groups {
		// Group selections by atom type must only name defined type ids.
		for i, arg := range group.Args {
			if arg != "type" {
				continue
			}
			for _, token := range group.Args[i+1:] {
				id, err := strconv.Atoi(token)
				if err != nil {
					continue
				}
				if id < 1 || id > len(kindIDs) {
					return "", nil, Error{
						message:  fmt.Sprintf("group %q selects undefined atom type %d", group.Name, id),
						critical: true,
					}
				}
			}
		}
		fmt.Fprintf(&b, "group %s %s\n", group.Name, strings.Join(group.Args, " "))
		groups = append(groups, group.Name)
	}
	b.WriteString(header("End of the Structure information"))
	return b.String(), groups, nil
}

func writeMinimizeBlock(minimize *Minimize) string {
	style := minimize.Style
	if style == "" {
		style = "cg"
	}
	etol, ftol := minimize.EnergyTolerance, minimize.ForceTolerance
	if etol == 0 {
		etol = 1e-4
	}
	if ftol == 0 {
		ftol = 1e-4
	}
	maxEval := minimize.MaxEvaluations
	if maxEval <= 0 {
		maxEval = 1000
	}
	var b strings.Builder
	b.WriteString(header("Start of the Minimization information"))
	fmt.Fprintf(&b, "min_style %s\n", style)
	fmt.Fprintf(&b, "minimize %s %s %d %d\n",
		formatFloat(etol), formatFloat(ftol), minimize.maxIterations(), maxEval)
	b.WriteString(header("End of the Minimization information"))
	return b.String()
}

func writeMDBlock(md *MD) string {
	style := md.Integration.style()
	var b strings.Builder
	b.WriteString(header("Start of the MD information"))
	fmt.Fprintf(&b, "fix %s all %s%s\n", idTag(style, "all"), style, integrationOptions(style, md.Integration.Constraints))
	for _, velocity := range md.Velocity {
		b.WriteString(velocityString(velocity))
	}
	fmt.Fprintf(&b, "reset_timestep %d\n", md.ResetTimestep)
	runStyle := md.RunStyle
	if runStyle == "" {
		runStyle = "verlet"
	}
	if runStyle == "respa" {
		fmt.Fprintf(&b, "run_style respa %s\n", strings.Join(md.RespaOptions, " "))
	} else {
		fmt.Fprintf(&b, "run_style %s\n", runStyle)
	}
	fmt.Fprintf(&b, "run %d\n", md.maxSteps())
	b.WriteString(header("End of the MD information"))
	return b.String()
}

func velocityString(v Velocity) string {
	group := v.Group
	if group == "" {
		group = "all"
	}
	trailing := ""
	if len(v.Options) > 0 {
		trailing = " " + strings.Join(v.Options, " ")
	}
	var b strings.Builder
	switch {
	case v.Create != nil:
		seed := v.Create.Seed
		if seed == 0 {
			seed = rand.Intn(10000)
		}
		fmt.Fprintf(&b, "velocity %s create %s %d%s\n", group, formatFloat(v.Create.Temp), seed, trailing)
	case v.Set != nil:
		fmt.Fprintf(&b, "velocity %s set %s %s %s%s\n",
			group, orNull(v.Set.VX), orNull(v.Set.VY), orNull(v.Set.VZ), trailing)
	case v.Scale != nil:
		fmt.Fprintf(&b, "velocity %s scale %s%s\n", group, formatFloat(*v.Scale), trailing)
	case v.Ramp != nil:
		fmt.Fprintf(&b, "velocity %s ramp %s %s %s %s %s %s%s\n",
			group, v.Ramp.VDim, formatFloat(v.Ramp.VLo), formatFloat(v.Ramp.VHi),
			v.Ramp.Dim, formatFloat(v.Ramp.CLo), formatFloat(v.Ramp.CHi), trailing)
	case v.Zero != "":
		fmt.Fprintf(&b, "velocity %s zero %s%s\n", group, v.Zero, trailing)
	}
	return b.String()
}

func orNull(value string) string {
	if value == "" {
		return "NULL"
	}
	return value
}

// Integrator families and the constraint options each accepts. Options the
// chosen style does not understand are silently skipped.
var (
	temperatureDependent = []string{
		"nvt", "nvt/asphere", "nvt/body", "nvt/eff", "nvt/manifold/rattle",
		"nvt/sllod", "nvt/sllod/eff", "nvt/sphere", "nvt/uef",
		"nphug", "npt", "npt/asphere", "npt/body", "npt/cauchy", "npt/eff",
		"npt/sphere", "npt/uef",
	}
	pressureDependent = []string{
		"nph", "nph/asphere", "nph/body", "nph/eff", "nph/sphere",
		"nphug", "npt", "npt/asphere", "npt/body", "npt/cauchy", "npt/eff",
		"npt/sphere", "npt/uef",
	}
	uefDependent = []string{"npt/uef", "nvt/uef"}

	temperatureOptions = []string{"temp", "tchain", "tloop", "drag"}
	pressureOptions    = []string{
		"ani", "iso", "tri", "x", "y", "z", "xy", "xz", "yz",
		"couple", "pchain", "mtk", "ploop", "nreset", "drag", "dilate",
		"scaleyz", "scalexz", "scalexy", "flip", "fixedpoint", "update",
	}
	uefOptions = []string{"ext", "erotate"}
)

func integrationOptions(style string, constraints map[string][]string) string {
	var b strings.Builder
	emit := func(options []string) {
		for _, option := range options {
			if values, ok := constraints[option]; ok && len(values) > 0 {
				fmt.Fprintf(&b, " %s %s", option, strings.Join(values, " "))
			}
		}
	}
	if contains(temperatureDependent, style) {
		emit(temperatureOptions)
	}
	if contains(pressureDependent, style) {
		emit(pressureOptions)
	}
	if contains(uefDependent, style) {
		emit(uefOptions)
	}
	if style == "nve/limit" {
		if values, ok := constraints["xmax"]; ok && len(values) > 0 {
			b.WriteString(" " + values[0])
		} else {
			b.WriteString(" 0.1")
		}
	}
	// nve/dotc/langevin takes its thermostat positionally: Tstart Tstop seed.
	if style == "nve/dotc/langevin" {
		if values, ok := constraints["temp"]; ok && len(values) > 0 {
			b.WriteString(" " + strings.Join(values, " "))
		}
		if values, ok := constraints["angmom"]; ok && len(values) > 0 {
			b.WriteString(" angmom " + strings.Join(values, " "))
		}
	}
	return b.String()
}

func contains(list []string, value string) bool {
	for _, entry := range list {
		if entry == value {
			return true
		}
	}
	return false
}

func writeFixBlock(fixes []Directive, groups []string) (string, error) {
	if len(fixes) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString(header("Start of the Fix information"))
	for _, fix := range fixes {
		group := fix.group()
		if group != "all" && !contains(groups, group) {
			return "", Error{
				message:  fmt.Sprintf("fix %s applied to undefined group %q", fix.Name, group),
				critical: true,
			}
		}
		fmt.Fprintf(&b, "fix %s %s %s %s\n", idTag(fix.Name, group), group, fix.Name, strings.Join(fix.Args, " "))
	}
	b.WriteString(header("End of the Fix information"))
	return b.String(), nil
}

func writeComputeBlock(computes []Directive, groups []string) (string, error) {
	if len(computes) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString(header("Start of the Compute information"))
	for _, compute := range computes {
		group := compute.group()
		if group != "all" && !contains(groups, group) {
			return "", Error{
				message:  fmt.Sprintf("compute %s applied to undefined group %q", compute.Name, group),
				critical: true,
			}
		}
		fmt.Fprintf(&b, "compute %s %s %s %s\n", idTag(compute.Name, group), group, compute.Name, strings.Join(compute.Args, " "))
	}
	b.WriteString(header("End of the Compute information"))
	return b.String(), nil
}

func writeThermoBlock(thermo Thermo, computes []Directive) (string, []string) {
	var computesList []string
	for _, compute := range computes {
		info, ok := Computes[compute.Name]
		if !ok || info.Locality != LocalityGlobal || !info.Printable {
			continue
		}
		computesList = append(computesList, printingString(compute.Name, compute.group(), "compute"))
	}

	keywords := thermo.Keywords
	if len(keywords) == 0 {
		keywords = []string{"step", "temp", "epair", "emol", "etotal", "press"}
	} else {
		keywords = append([]string(nil), keywords...)
		if !contains(keywords, "etotal") {
			keywords = append(keywords, "etotal")
		}
		if !contains(keywords, "step") {
			keywords = append([]string{"step"}, keywords...)
		}
	}
	// step always leads so parsed rows can be keyed by it.
	for i, keyword := range keywords {
		if keyword == "step" && i != 0 {
			keywords = append(keywords[:i], keywords[i+1:]...)
			keywords = append([]string{"step"}, keywords...)
			break
		}
	}

	rate := thermo.PrintingRate
	if rate <= 0 {
		rate = 1000
	}
	var b strings.Builder
	b.WriteString(header("Start of the Thermo information"))
	line := "thermo_style custom " + strings.Join(keywords, " ")
	if len(computesList) > 0 {
		line += " " + strings.Join(computesList, " ")
	}
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "thermo %d\n", rate)
	b.WriteString(header("End of the Thermo information"))

	printed := append([]string(nil), keywords...)
	for _, compute := range computesList {
		printed = append(printed, strings.Fields(compute)...)
	}
	return b.String(), printed
}

func writeDumpBlock(dump Dump, computes []Directive, trajectoryFile, atomStyle string, symbols []string) string {
	var computesList []string
	for _, compute := range computes {
		info, ok := Computes[compute.Name]
		if !ok || info.Locality != LocalityLocal || !info.Printable {
			continue
		}
		computesList = append(computesList, printingString(compute.Name, compute.group(), "compute"))
	}
	rate := dump.Rate
	if rate <= 0 {
		rate = 10
	}
	var b strings.Builder
	b.WriteString(header("Start of the Dump information"))
	line := fmt.Sprintf("dump aiida all custom %d %s id type element x y z", rate, trajectoryFile)
	if atomStyle == "charge" {
		line += " q"
	}
	if len(computesList) > 0 {
		line += " " + strings.Join(computesList, " ")
	}
	b.WriteString(line + "\n")
	b.WriteString("dump_modify aiida sort id\n")
	fmt.Fprintf(&b, "dump_modify aiida element %s\n", strings.Join(symbols, " "))
	b.WriteString("dump_modify aiida format int ' %d '\n")
	b.WriteString("dump_modify aiida format float ' %16.10e '\n")
	b.WriteString(header("End of the Dump information"))
	return b.String()
}

func writeRestartBlocks(restart Restart, restartFile string, maxSteps int) (intermediate, final string) {
	if restart.PrintIntermediate {
		numSteps := restart.NumSteps
		if numSteps <= 0 {
			numSteps = maxSteps / 10
			if numSteps <= 0 {
				numSteps = 1
			}
		}
		intermediate = header("Start of the intermediate write restart information") +
			fmt.Sprintf("restart %d %s\n", numSteps, restartFile) +
			header("End of the intermediate write restart information")
	}
	if restart.PrintFinal {
		final = header("Start of the write restart information") +
			fmt.Sprintf("write_restart %s\n", restartFile) +
			header("End of the write restart information")
	}
	return intermediate, final
}

func writeReadRestartBlock(restartFile string) string {
	return header("Start of the read restart information") +
		fmt.Sprintf("read_restart %s\n", restartFile) +
		header("End of the read restart information")
}

var variableSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// writeFinalVariablesBlock stores every thermo quantity into a variable and
// prints them all to a yaml file after the run, so that final values survive
// even when the thermo table is sparse.
func writeFinalVariablesBlock(fixedThermo []string, variablesFile string) string {
	var b strings.Builder
	names := make([]string, 0, len(fixedThermo))
	b.WriteString(header("Start of the Final Variables information"))
	for _, quantity := range fixedThermo {
		name := variableSanitizer.ReplaceAllString(quantity, "__")
		names = append(names, name)
		fmt.Fprintf(&b, "variable final_%s equal %s\n", name, quantity)
	}
	b.WriteString(header("End of the Final Variables information"))

	b.WriteString(header("Start of the Printing Final Variables information"))
	fmt.Fprintf(&b, "print \"#Final results\" file %s\n", variablesFile)
	for _, name := range names {
		fmt.Fprintf(&b, "print \"final_%s: ${final_%s}\" append %s\n", name, name, variablesFile)
	}
	b.WriteString(header("End of the Printing Final Variables information"))
	return b.String()
}

// printingString expands a compute or fix reference into the thermo or dump
// tokens that print it, following its registered shape.
func printingString(name, group, calculationType string) string {
	prefactor := "c"
	if calculationType == "fix" {
		prefactor = "f"
	}
	info := Computes[name]
	tag := fmt.Sprintf("%s_%s", prefactor, idTag(name, group))

	var tokens []string
	switch info.Type {
	case TypeVector:
		if info.Size > 0 {
			for index := 1; index <= info.Size; index++ {
				tokens = append(tokens, fmt.Sprintf("%s[%d]", tag, index))
			}
		} else {
			tokens = append(tokens, tag+"[*]")
		}
	case TypeMixed:
		tokens = append(tokens, tag)
		if info.Size > 0 {
			for index := 1; index <= info.Size; index++ {
				tokens = append(tokens, fmt.Sprintf("%s[%d]", tag, index))
			}
		} else {
			tokens = append(tokens, tag+"[*]")
		}
	case TypeScalar, TypeArray:
		tokens = append(tokens, tag)
	}
	return strings.Join(tokens, " ")
}

// idTag names a fix or compute after its style and group so that output
// columns can be traced back to the directives that produced them.
func idTag(name, group string) string {
	return fmt.Sprintf("%s_%s_aiida", strings.ReplaceAll(name, "/", "_"), group)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
