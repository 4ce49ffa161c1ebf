// Package trajectory stores a parsed LAMMPS dump as a compressed archive
// with one entry per step. Dumps compress extremely well and most analyses
// touch a handful of steps, so the archive keeps storage small while
// still giving random access to any snapshot.
package trajectory

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	"gopkg.in/yaml.v3"

	lammps "github.com/aiidaplugins/aiida-lammps"
	"github.com/aiidaplugins/aiida-lammps/parse/dump"
)

const (
	stepPrefix   = "step-"
	timestepFile = "timesteps.txt"
	metadataFile = "metadata.yaml"
)

type metadata struct {
	NumberSteps int      `yaml:"number_steps"`
	NumberAtoms int      `yaml:"number_atoms"`
	FieldNames  []string `yaml:"field_names"`
	Elements    []string `yaml:"elements"`
}

// Store is a readable trajectory archive.
type Store struct {
	path      string
	archive   *zip.ReadCloser
	entries   map[string]*zip.File
	timesteps []int
	meta      metadata
}

// Create consumes every frame of the reader and writes the archive to path.
// All frames must share one atom count and one field set; an empty
// trajectory is an error. The written store is returned opened for reading.
func Create(path string, r *dump.Reader) (*Store, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trajectory create: %w", err)
	}
	zw := zip.NewWriter(f)

	var timesteps []int
	var fieldNames []string
	natoms := -1
	elements := make(map[string]bool)

	for stepID := 0; ; stepID++ {
		frame, err := r.Next()
		if err == dump.ErrNoMoreFrames {
			break
		}
		if err != nil {
			f.Close()
			os.Remove(path)
			return nil, err
		}
		if natoms == -1 {
			natoms = frame.NAtoms
		} else if frame.NAtoms != natoms {
			f.Close()
			os.Remove(path)
			return nil, fmt.Errorf("trajectory create: step %d contains a different number of atoms: %d", stepID, frame.NAtoms)
		}
		if fieldNames == nil {
			fieldNames = append(fieldNames, frame.Fields...)
		} else if !equalFields(fieldNames, frame.Fields) {
			f.Close()
			os.Remove(path)
			return nil, fmt.Errorf("trajectory create: step %d contains different field names: %v", stepID, frame.Fields)
		}
		for _, el := range frame.Columns["element"] {
			elements[el] = true
		}
		timesteps = append(timesteps, frame.Timestep)

		w, err := zw.Create(stepPrefix + strconv.Itoa(stepID))
		if err != nil {
			f.Close()
			os.Remove(path)
			return nil, fmt.Errorf("trajectory create: %w", err)
		}
		if _, err := io.WriteString(w, strings.Join(frame.Lines, "\n")); err != nil {
			f.Close()
			os.Remove(path)
			return nil, fmt.Errorf("trajectory create: %w", err)
		}
	}
	if len(timesteps) == 0 {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("trajectory create: the dump does not contain any complete step")
	}

	tsTokens := make([]string, len(timesteps))
	for i, ts := range timesteps {
		tsTokens[i] = strconv.Itoa(ts)
	}
	w, err := zw.Create(timestepFile)
	if err == nil {
		_, err = io.WriteString(w, strings.Join(tsTokens, " "))
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("trajectory create: %w", err)
	}

	sortedFields := append([]string(nil), fieldNames...)
	sort.Strings(sortedFields)
	meta := metadata{
		NumberSteps: len(timesteps),
		NumberAtoms: natoms,
		FieldNames:  sortedFields,
		Elements:    sortedKeys(elements),
	}
	raw, err := yaml.Marshal(meta)
	if err == nil {
		var mw io.Writer
		if mw, err = zw.Create(metadataFile); err == nil {
			_, err = mw.Write(raw)
		}
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("trajectory create: %w", err)
	}

	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("trajectory create: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("trajectory create: %w", err)
	}
	return Open(path)
}

// Open opens an existing trajectory archive.
func Open(path string) (*Store, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("trajectory open: %w", err)
	}
	s := &Store{path: path, archive: archive, entries: make(map[string]*zip.File)}
	for _, entry := range archive.File {
		s.entries[entry.Name] = entry
	}

	raw, err := s.readEntry(metadataFile)
	if err != nil {
		archive.Close()
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &s.meta); err != nil {
		archive.Close()
		return nil, fmt.Errorf("trajectory open: %w", err)
	}
	raw, err = s.readEntry(timestepFile)
	if err != nil {
		archive.Close()
		return nil, err
	}
	for _, tok := range strings.Fields(string(raw)) {
		ts, err := strconv.Atoi(tok)
		if err != nil {
			archive.Close()
			return nil, fmt.Errorf("trajectory open: bad timestep entry %q", tok)
		}
		s.timesteps = append(s.timesteps, ts)
	}
	return s, nil
}

// Close releases the underlying archive.
func (S *Store) Close() error {
	return S.archive.Close()
}

// Path returns the on-disk location of the archive.
func (S *Store) Path() string { return S.path }

// NumberSteps returns the number of stored steps.
func (S *Store) NumberSteps() int { return S.meta.NumberSteps }

// NumberAtoms returns the per-step atom count.
func (S *Store) NumberAtoms() int { return S.meta.NumberAtoms }

// FieldNames returns the sorted per-atom field names.
func (S *Store) FieldNames() []string {
	return append([]string(nil), S.meta.FieldNames...)
}

// Elements returns the sorted element symbols seen in the trajectory.
func (S *Store) Elements() []string {
	return append([]string(nil), S.meta.Elements...)
}

// Timesteps returns the simulation timesteps of the stored steps.
func (S *Store) Timesteps() []int {
	return append([]int(nil), S.timesteps...)
}

// StepString returns the raw dump text of one step. Negative indices count
// from the end, so -1 is the last step.
func (S *Store) StepString(idx int) (string, error) {
	i, err := S.normalize(idx)
	if err != nil {
		return "", err
	}
	raw, err := S.readEntry(stepPrefix + strconv.Itoa(i))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// StepFrame returns one step parsed as a dump frame.
func (S *Store) StepFrame(idx int) (*dump.Frame, error) {
	content, err := S.StepString(idx)
	if err != nil {
		return nil, err
	}
	frame, err := dump.NewReader(strings.NewReader(content)).Next()
	if err != nil {
		return nil, fmt.Errorf("trajectory step %d: %w", idx, err)
	}
	return frame, nil
}

// StepStructure returns the structure of the simulation at one step.
func (S *Store) StepStructure(idx int, opts dump.StructureOptions) (*lammps.Structure, error) {
	frame, err := S.StepFrame(idx)
	if err != nil {
		return nil, err
	}
	return frame.Structure(opts)
}

// EachFrame calls fn for every stored step in order. stride > 1 skips
// steps. Iteration stops at the first error, which is returned.
func (S *Store) EachFrame(stride int, fn func(idx int, frame *dump.Frame) error) error {
	if stride < 1 {
		stride = 1
	}
	for i := 0; i < S.meta.NumberSteps; i += stride {
		frame, err := S.StepFrame(i)
		if err != nil {
			return err
		}
		if err := fn(i, frame); err != nil {
			return err
		}
	}
	return nil
}

// WriteAsDump writes the selected steps (all when steps is nil) back out as
// a concatenated LAMMPS dump.
func (S *Store) WriteAsDump(w io.Writer, steps []int) error {
	if steps == nil {
		steps = make([]int, S.meta.NumberSteps)
		for i := range steps {
			steps[i] = i
		}
	}
	for _, idx := range steps {
		content, err := S.StepString(idx)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, content); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (S *Store) normalize(idx int) (int, error) {
	n := S.meta.NumberSteps
	i := idx
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("trajectory: step index %d out of range (%d steps)", idx, n)
	}
	return i, nil
}

func (S *Store) readEntry(name string) ([]byte, error) {
	entry, ok := S.entries[name]
	if !ok {
		return nil, fmt.Errorf("trajectory: archive entry %q missing", name)
	}
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("trajectory: %w", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("trajectory: %w", err)
	}
	return raw, nil
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
