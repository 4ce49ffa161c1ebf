package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiresRunMode(t *testing.T) {
	err := (&Params{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "md or minimize")

	err = (&Params{MD: &MD{}, Minimize: &Minimize{}}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestValidateControl(t *testing.T) {
	params := &Params{Control: Control{Units: "imperial"}, MD: &MD{}}
	require.Error(t, params.Validate())

	params = &Params{Control: Control{Newton: "maybe"}, MD: &MD{}}
	require.Error(t, params.Validate())

	params = &Params{Control: Control{Units: "metal", Newton: "off"}, MD: &MD{}}
	require.NoError(t, params.Validate())
}

func TestValidateStructureOptions(t *testing.T) {
	base := func() *Params { return &Params{MD: &MD{}} }

	params := base()
	params.Structure.BoxTilt = "huge"
	require.Error(t, params.Validate())

	params = base()
	params.Structure.Boundary = []string{"p", "p"}
	require.Error(t, params.Validate())

	params = base()
	params.Structure.Boundary = []string{"p", "p", "x"}
	require.Error(t, params.Validate())

	params = base()
	params.Structure.Groups = []Group{{Name: "all", Args: []string{"type", "1"}}}
	require.Error(t, params.Validate())

	params = base()
	params.Structure.Groups = []Group{
		{Name: "a", Args: []string{"type", "1"}},
		{Name: "a", Args: []string{"type", "2"}},
	}
	err := params.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestValidateComputesAndVelocities(t *testing.T) {
	params := &Params{MD: &MD{}, Computes: []Directive{{Name: "made/up"}}}
	require.Error(t, params.Validate())

	params = &Params{MD: &MD{Velocity: []Velocity{{}}}}
	require.Error(t, params.Validate())

	scale := 1.2
	params = &Params{MD: &MD{Velocity: []Velocity{{Create: &VelocityCreate{Temp: 300}, Scale: &scale}}}}
	require.Error(t, params.Validate())

	params = &Params{MD: &MD{Velocity: []Velocity{{Zero: "sideways"}}}}
	require.Error(t, params.Validate())
}

func TestValidateRespa(t *testing.T) {
	params := &Params{MD: &MD{RunStyle: "respa"}}
	require.Error(t, params.Validate())

	params = &Params{MD: &MD{RunStyle: "respa", RespaOptions: []string{"2", "inner", "1", "4.0", "5.5"}}}
	require.NoError(t, params.Validate())
}

func TestParamsFromYAML(t *testing.T) {
	raw := []byte(`
control:
  units: metal
  timestep: 0.002
md:
  integration:
    style: nvt
    constraints:
      temp: ["300", "300", "100"]
  max_number_steps: 2000
thermo:
  printing_rate: 50
  keywords: [temp, etotal]
dump:
  dump_rate: 100
restart:
  print_final: true
`)
	params, err := ParamsFromYAML(raw)
	require.NoError(t, err)
	assert.Equal(t, "metal", params.Control.Units)
	assert.Equal(t, 0.002, params.Control.Timestep)
	require.NotNil(t, params.MD)
	assert.Equal(t, "nvt", params.MD.Integration.Style)
	assert.Equal(t, 2000, params.MD.MaxNumberSteps)
	assert.True(t, params.Restart.PrintFinal)

	_, err = ParamsFromYAML([]byte("control: [not, a, mapping]"))
	require.Error(t, err)
}
