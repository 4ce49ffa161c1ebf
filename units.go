package lammps

// Unit tables for the LAMMPS unit styles. LAMMPS reports bare numbers; the
// unit of each quantity is fixed by the "units" command of the input script,
// so anything that interprets parsed output needs these tables.

// UnitStyles lists every unit style LAMMPS accepts.
var UnitStyles = []string{"real", "metal", "si", "cgs", "electron", "micro", "nano", "lj"}

// DefaultTimestep gives the timestep LAMMPS assumes for each unit style when
// the input script does not set one, in the time unit of that style.
var DefaultTimestep = map[string]float64{
	"si":       1.0e-8,
	"lj":       5.0e-3,
	"real":     1.0,
	"metal":    1.0e-3,
	"cgs":      1.0e-8,
	"electron": 1.0e-3,
	"micro":    2.0,
	"nano":     4.5e-4,
}

var unitNames = map[string]map[string]string{
	"real": {
		"mass":              "grams/mole",
		"distance":          "Angstroms",
		"time":              "femtoseconds",
		"energy":            "Kcal/mole",
		"velocity":          "Angstroms/femtosecond",
		"force":             "Kcal/mole-Angstrom",
		"torque":            "Kcal/mole",
		"temperature":       "Kelvin",
		"pressure":          "atmospheres",
		"dynamic_viscosity": "Poise",
		"charge":            "e",
		"dipole":            "charge*Angstroms",
		"electric_field":    "volts/Angstrom",
		"density":           "gram/cm^dim",
	},
	"metal": {
		"mass":              "grams/mole",
		"distance":          "Angstroms",
		"time":              "picoseconds",
		"energy":            "eV",
		"velocity":          "Angstroms/picosecond",
		"force":             "eV/Angstrom",
		"torque":            "eV",
		"temperature":       "Kelvin",
		"pressure":          "bars",
		"dynamic_viscosity": "Poise",
		"charge":            "e",
		"dipole":            "charge*Angstroms",
		"electric_field":    "volts/Angstrom",
		"density":           "gram/cm^dim",
	},
	"si": {
		"mass":              "kilograms",
		"distance":          "meters",
		"time":              "seconds",
		"energy":            "Joules",
		"velocity":          "meters/second",
		"force":             "Newtons",
		"torque":            "Newton-meters",
		"temperature":       "Kelvin",
		"pressure":          "Pascals",
		"dynamic_viscosity": "Pascal*second",
		"charge":            "Coulombs",
		"dipole":            "Coulombs*meters",
		"electric_field":    "volts/meter",
		"density":           "kilograms/meter^dim",
	},
	"cgs": {
		"mass":              "grams",
		"distance":          "centimeters",
		"time":              "seconds",
		"energy":            "ergs",
		"velocity":          "centimeters/second",
		"force":             "dynes",
		"torque":            "dyne-centimeters",
		"temperature":       "Kelvin",
		"pressure":          "dyne/cm^2",
		"dynamic_viscosity": "Poise",
		"charge":            "statcoulombs",
		"dipole":            "statcoul-cm",
		"electric_field":    "statvolt/cm",
		"density":           "grams/cm^dim",
	},
	"electron": {
		"mass":           "amu",
		"distance":       "Bohr",
		"time":           "femtoseconds",
		"energy":         "Hartrees",
		"velocity":       "Bohr/atu",
		"force":          "Hartrees/Bohr",
		"temperature":    "Kelvin",
		"pressure":       "Pascals",
		"charge":         "e",
		"dipole":         "Debye",
		"electric_field": "volts/cm",
	},
	"micro": {
		"mass":              "picograms",
		"distance":          "micrometers",
		"time":              "microseconds",
		"energy":            "picogram-micrometer^2/microsecond^2",
		"velocity":          "micrometers/microsecond",
		"force":             "picogram-micrometer/microsecond^2",
		"torque":            "picogram-micrometer^2/microsecond^2",
		"temperature":       "Kelvin",
		"pressure":          "picogram/(micrometer-microsecond^2)",
		"dynamic_viscosity": "picogram/(micrometer-microsecond)",
		"charge":            "picocoulombs",
		"dipole":            "picocoulomb-micrometer",
		"electric_field":    "volt/micrometer",
		"density":           "picograms/micrometer^dim",
	},
	"nano": {
		"mass":              "attograms",
		"distance":          "nanometers",
		"time":              "nanoseconds",
		"energy":            "attogram-nanometer^2/nanosecond^2",
		"velocity":          "nanometers/nanosecond",
		"force":             "attogram-nanometer/nanosecond^2",
		"torque":            "attogram-nanometer^2/nanosecond^2",
		"temperature":       "Kelvin",
		"pressure":          "attogram/(nanometer-nanosecond^2)",
		"dynamic_viscosity": "attogram/(nanometer-nanosecond)",
		"charge":            "e",
		"dipole":            "charge-nanometer",
		"electric_field":    "volt/nanometer",
		"density":           "attograms/nanometer^dim",
	},
	"lj": {},
}

// UnitFor returns the unit name of a quantity (mass, distance, time, energy,
// velocity, force, temperature, pressure...) under the given unit style.
// The lj style is dimensionless, so every lookup under it fails.
func UnitFor(style, quantity string) (string, error) {
	table, ok := unitNames[style]
	if !ok {
		return "", Error{message: "unknown unit style " + style, deco: []string{"UnitFor"}}
	}
	unit, ok := table[quantity]
	if !ok {
		return "", Error{message: "no unit for quantity " + quantity + " under style " + style, deco: []string{"UnitFor"}}
	}
	return unit, nil
}

// UnitsFor maps every requested quantity to its unit name under the given
// style, with the given key suffix. Unknown quantities are skipped.
func UnitsFor(style string, quantities []string, suffix string) map[string]string {
	out := make(map[string]string)
	for _, q := range quantities {
		if unit, err := UnitFor(style, q); err == nil {
			out[q+suffix] = unit
		}
	}
	return out
}

var secondsPer = map[string]float64{
	"seconds":      1,
	"milliseconds": 1e-3,
	"microseconds": 1e-6,
	"nanoseconds":  1e-9,
	"picoseconds":  1e-12,
	"femtoseconds": 1e-15,
}

// ConvertTime converts a time value expressed in the time unit of the given
// unit style to the requested output unit (e.g. "picoseconds").
func ConvertTime(value float64, style, outUnit string) (float64, error) {
	inUnit, err := UnitFor(style, "time")
	if err != nil {
		return 0, err
	}
	out, ok := secondsPer[outUnit]
	if !ok {
		return 0, Error{message: "unknown time unit " + outUnit, deco: []string{"ConvertTime"}}
	}
	return value * secondsPer[inUnit] / out, nil
}
