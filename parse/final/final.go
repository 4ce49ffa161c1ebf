// Package final reads the file of final variable values that the generated
// input script appends with print commands after the run, one
// "final_<name>: <value>" line per thermo keyword. The file is
// YAML-parsable by construction.
package final

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Variables are the final values keyed by their printed names, e.g.
// final_etotal or final_press.
type Variables map[string]float64

// Get returns the variable under "final_" + name.
func (V Variables) Get(name string) (float64, bool) {
	v, ok := V["final_"+name]
	return v, ok
}

// Parse decodes the final-variables file contents.
func Parse(contents []byte) (Variables, error) {
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(contents, &raw); err != nil {
		return nil, fmt.Errorf("final variables: %w", err)
	}
	vars := make(Variables, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case float64:
			vars[key] = v
		case int:
			vars[key] = float64(v)
		default:
			return nil, fmt.Errorf("final variables: %s is not numeric: %v", key, value)
		}
	}
	return vars, nil
}

// ParseFile decodes a final-variables file on disk. A missing file yields
// nil variables and no error, matching a run that died before the epilogue.
func ParseFile(name string) (Variables, error) {
	contents, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("final variables: %w", err)
	}
	return Parse(contents)
}
