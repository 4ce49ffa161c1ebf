// Package potential handles interatomic potential files. The file content is
// opaque — it is handed to LAMMPS unmodified — but each potential carries the
// metadata needed to use it correctly (pair_style, species, atom_style,
// units) plus optional KIM-style provenance tags, and an md5 fingerprint so
// identical potentials can be recognized across jobs.
package potential

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StyleInfo describes how a pair_style consumes its coefficients.
type StyleInfo struct {
	// ReadFromFile is true for styles whose coefficients live in a staged
	// file (pair_coeff * * <file> <elements>); false for styles whose
	// coefficients are written inline in the input script.
	ReadFromFile bool
	// AtomStyle is the atom_style the potential family expects.
	AtomStyle string
	// Units is the unit style the published parameters assume.
	Units string
}

// pairStyles registers the supported pair styles. The table decides whether
// the potential content is staged as a file or inlined as pair_coeff
// arguments, and supplies the default atom and unit styles.
var pairStyles = map[string]StyleInfo{
	"eam":             {ReadFromFile: true, AtomStyle: "atomic", Units: "metal"},
	"eam/alloy":       {ReadFromFile: true, AtomStyle: "atomic", Units: "metal"},
	"eam/fs":          {ReadFromFile: true, AtomStyle: "atomic", Units: "metal"},
	"meam":            {ReadFromFile: true, AtomStyle: "atomic", Units: "metal"},
	"tersoff":         {ReadFromFile: true, AtomStyle: "atomic", Units: "metal"},
	"tersoff/zbl":     {ReadFromFile: true, AtomStyle: "atomic", Units: "metal"},
	"sw":              {ReadFromFile: true, AtomStyle: "atomic", Units: "metal"},
	"adp":             {ReadFromFile: true, AtomStyle: "atomic", Units: "metal"},
	"comb":            {ReadFromFile: true, AtomStyle: "charge", Units: "metal"},
	"comb3":           {ReadFromFile: true, AtomStyle: "charge", Units: "metal"},
	"reaxff":          {ReadFromFile: true, AtomStyle: "charge", Units: "real"},
	"bop":             {ReadFromFile: true, AtomStyle: "atomic", Units: "metal"},
	"snap":            {ReadFromFile: true, AtomStyle: "atomic", Units: "metal"},
	"vashishta":       {ReadFromFile: true, AtomStyle: "atomic", Units: "metal"},
	"lj/cut":          {ReadFromFile: false, AtomStyle: "atomic", Units: "lj"},
	"lj/cut/coul/cut": {ReadFromFile: false, AtomStyle: "charge", Units: "real"},
	"morse":           {ReadFromFile: false, AtomStyle: "atomic", Units: "metal"},
	"buck":            {ReadFromFile: false, AtomStyle: "atomic", Units: "metal"},
	"yukawa":          {ReadFromFile: false, AtomStyle: "atomic", Units: "lj"},
}

// Styles returns the information registered for a pair style.
func Styles(pairStyle string) (StyleInfo, bool) {
	info, ok := pairStyles[pairStyle]
	return info, ok
}

// Potential is one interatomic potential: opaque content plus the metadata
// required to wire it into an input script.
type Potential struct {
	content   []byte
	md5sum    string
	PairStyle string
	Species   []string
	AtomStyle string
	Units     string
	Tags      Tags
}

// New builds a potential from raw content. atomStyle and units default to
// the registry values of the pair style when empty.
func New(content []byte, pairStyle string, species []string, atomStyle, units string, tags *Tags) (*Potential, error) {
	info, ok := pairStyles[pairStyle]
	if !ok {
		return nil, fmt.Errorf("potential: unsupported pair_style %q", pairStyle)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("potential: empty content")
	}
	if atomStyle == "" {
		atomStyle = info.AtomStyle
	}
	if units == "" {
		units = info.Units
	}
	p := &Potential{
		content:   append([]byte(nil), content...),
		PairStyle: pairStyle,
		Species:   append([]string(nil), species...),
		AtomStyle: atomStyle,
		Units:     units,
	}
	sum := md5.Sum(p.content)
	p.md5sum = hex.EncodeToString(sum[:])
	if tags != nil {
		if err := tags.validate(); err != nil {
			return nil, err
		}
		p.Tags = *tags
	}
	return p, nil
}

// FromFile reads the potential content from disk. If a metadata sidecar
// (path + ".yaml") exists it supplies pair style, species and tags, and the
// explicit arguments may be left empty.
func FromFile(path, pairStyle string, species []string) (*Potential, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("potential: %w", err)
	}
	sidecar := sidecarData{PairStyle: pairStyle, Species: species}
	raw, err := os.ReadFile(path + ".yaml")
	if err == nil {
		if err := yaml.Unmarshal(raw, &sidecar); err != nil {
			return nil, fmt.Errorf("potential: sidecar %s: %w", path+".yaml", err)
		}
		if pairStyle != "" {
			sidecar.PairStyle = pairStyle
		}
		if len(species) > 0 {
			sidecar.Species = species
		}
	}
	return New(content, sidecar.PairStyle, sidecar.Species, sidecar.AtomStyle, sidecar.Units, &sidecar.Tags)
}

// Content returns the raw potential file content.
func (P *Potential) Content() []byte {
	return append([]byte(nil), P.content...)
}

// MD5 returns the hex md5 fingerprint of the content.
func (P *Potential) MD5() string { return P.md5sum }

// ReadFromFile reports whether the pair style reads its coefficients from a
// staged file.
func (P *Potential) ReadFromFile() bool {
	return pairStyles[P.PairStyle].ReadFromFile
}

// CoefficientLines returns the non-comment, non-blank content lines, used to
// inline the coefficients for styles that take them in the input script.
func (P *Potential) CoefficientLines() []string {
	var out []string
	for _, line := range strings.Split(string(P.content), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// WriteFile stages the potential content, unmodified, at path.
func (P *Potential) WriteFile(path string) error {
	if err := os.WriteFile(path, P.content, 0o644); err != nil {
		return fmt.Errorf("potential: %w", err)
	}
	return nil
}

// WriteSidecar stores the metadata sidecar next to a staged potential file.
func (P *Potential) WriteSidecar(path string) error {
	raw, err := yaml.Marshal(sidecarData{
		PairStyle: P.PairStyle,
		Species:   P.Species,
		AtomStyle: P.AtomStyle,
		Units:     P.Units,
		MD5:       P.md5sum,
		Tags:      P.Tags,
	})
	if err != nil {
		return fmt.Errorf("potential: %w", err)
	}
	if err := os.WriteFile(path+".yaml", raw, 0o644); err != nil {
		return fmt.Errorf("potential: %w", err)
	}
	return nil
}

type sidecarData struct {
	PairStyle string   `yaml:"pair_style"`
	Species   []string `yaml:"species"`
	AtomStyle string   `yaml:"atom_style,omitempty"`
	Units     string   `yaml:"units,omitempty"`
	MD5       string   `yaml:"md5,omitempty"`
	Tags      Tags     `yaml:"tags,omitempty"`
}
