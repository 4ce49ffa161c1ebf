package final

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	contents := []byte(`#Final results
final_step: 1000
final_etotal: -8.20543660497098
final_press: 13133.423
`)
	variables, err := Parse(contents)
	if err != nil {
		t.Fatal(err)
	}
	if len(variables) != 3 {
		t.Fatalf("got %d variables, want 3", len(variables))
	}
	if step, ok := variables.Get("step"); !ok || step != 1000 {
		t.Errorf("step: got %g, %v", step, ok)
	}
	if energy, ok := variables.Get("etotal"); !ok || energy != -8.20543660497098 {
		t.Errorf("etotal: got %g, %v", energy, ok)
	}
	if _, ok := variables.Get("volume"); ok {
		t.Error("missing variable must report false")
	}
}

func TestParseFileMissing(t *testing.T) {
	variables, err := ParseFile(filepath.Join(t.TempDir(), "never-written.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if variables != nil {
		t.Errorf("missing file: got %v", variables)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aiida_lammps.yaml")
	err := os.WriteFile(path, []byte("final_etotal: -1.5\n"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	variables, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if energy, ok := variables.Get("etotal"); !ok || energy != -1.5 {
		t.Errorf("etotal: got %g, %v", energy, ok)
	}
}
