package run

import (
	"os"
	"path/filepath"
	"time"

	lammps "github.com/aiidaplugins/aiida-lammps"
	"github.com/aiidaplugins/aiida-lammps/input"
	"github.com/aiidaplugins/aiida-lammps/potential"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// jobFile is the on-disk description of a job: which binary to run, what to
// simulate and with which potential. Relative paths resolve against the
// file's own directory.
type jobFile struct {
	Executable string   `yaml:"executable,omitempty"`
	ExtraArgs  []string `yaml:"extra_args,omitempty"`
	Walltime   string   `yaml:"walltime,omitempty"`
	Structure  struct {
		Cell  [][]float64   `yaml:"cell"`
		PBC   []bool        `yaml:"pbc"`
		Kinds []lammps.Kind `yaml:"kinds"`
		Sites []lammps.Site `yaml:"sites"`
	} `yaml:"structure"`
	Potential struct {
		File      string   `yaml:"file"`
		PairStyle string   `yaml:"pair_style,omitempty"`
		Species   []string `yaml:"species,omitempty"`
	} `yaml:"potential"`
	Parameters *input.Params `yaml:"parameters"`
}

// LoadJob reads a job description from a yaml file. The returned job has no
// working directory yet.
func LoadJob(path string) (*Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "run: reading job file")
	}
	var spec jobFile
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, errors.Wrapf(err, "run: decoding job file %s", path)
	}
	if spec.Parameters == nil {
		return nil, errors.Errorf("run: job file %s has no parameters", path)
	}
	if err := spec.Parameters.Validate(); err != nil {
		return nil, errors.Wrapf(err, "run: job file %s", path)
	}

	structure, err := buildStructure(&spec)
	if err != nil {
		return nil, errors.Wrapf(err, "run: job file %s", path)
	}

	potentialPath := spec.Potential.File
	if potentialPath == "" {
		return nil, errors.Errorf("run: job file %s names no potential file", path)
	}
	if !filepath.IsAbs(potentialPath) {
		potentialPath = filepath.Join(filepath.Dir(path), potentialPath)
	}
	pot, err := potential.FromFile(potentialPath, spec.Potential.PairStyle, spec.Potential.Species)
	if err != nil {
		return nil, err
	}

	job := &Job{
		Executable: spec.Executable,
		ExtraArgs:  spec.ExtraArgs,
		Params:     spec.Parameters,
		Potential:  pot,
		Structure:  structure,
		Options:    DefaultOptions(),
	}
	if spec.Walltime != "" {
		walltime, err := time.ParseDuration(spec.Walltime)
		if err != nil {
			return nil, errors.Wrapf(err, "run: job file %s walltime", path)
		}
		job.Walltime = walltime
	}
	return job, nil
}

func buildStructure(spec *jobFile) (*lammps.Structure, error) {
	if len(spec.Structure.Cell) != 3 {
		return nil, errors.New("structure cell needs three lattice vectors")
	}
	cell := make([]float64, 0, 9)
	for _, vector := range spec.Structure.Cell {
		if len(vector) != 3 {
			return nil, errors.New("structure cell vectors need three components")
		}
		cell = append(cell, vector...)
	}
	var pbc [3]bool
	if len(spec.Structure.PBC) > 0 {
		if len(spec.Structure.PBC) != 3 {
			return nil, errors.New("structure pbc needs one flag per direction")
		}
		copy(pbc[:], spec.Structure.PBC)
	} else {
		pbc = [3]bool{true, true, true}
	}
	return lammps.NewStructure(cell, pbc, spec.Structure.Kinds, spec.Structure.Sites)
}
