package potential

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eamContent = `# Fe potential, Mendelev et al.
Fe
27 5.3 2.2
0.0 0.1 0.2
`

func TestNewDefaultsFromRegistry(t *testing.T) {
	pot, err := New([]byte(eamContent), "eam/alloy", []string{"Fe"}, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "atomic", pot.AtomStyle)
	assert.Equal(t, "metal", pot.Units)
	assert.True(t, pot.ReadFromFile())
	assert.Len(t, pot.MD5(), 32)

	again, err := New([]byte(eamContent), "eam/alloy", []string{"Fe"}, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, pot.MD5(), again.MD5())

	other, err := New([]byte(eamContent+"\n"), "eam/alloy", []string{"Fe"}, "", "", nil)
	require.NoError(t, err)
	assert.NotEqual(t, pot.MD5(), other.MD5())
}

func TestNewOverridesAndRejections(t *testing.T) {
	pot, err := New([]byte("x"), "reaxff", []string{"C", "H"}, "full", "metal", nil)
	require.NoError(t, err)
	assert.Equal(t, "full", pot.AtomStyle)
	assert.Equal(t, "metal", pot.Units)

	_, err = New([]byte("x"), "eam/made-up", nil, "", "", nil)
	require.Error(t, err)

	_, err = New(nil, "eam", nil, "", "", nil)
	require.Error(t, err)

	_, err = New([]byte("x"), "eam", nil, "", "", &Tags{DataMethod: "guesswork"})
	require.Error(t, err)

	_, err = New([]byte("x"), "eam", nil, "", "", &Tags{DataMethod: "computation", PublicationYear: 2018})
	require.NoError(t, err)
}

func TestCoefficientLines(t *testing.T) {
	pot, err := New([]byte("# comment\n1 1 1.0 1.0 2.5\n\n1 2 0.5 1.2 2.5\n"), "lj/cut", nil, "", "", nil)
	require.NoError(t, err)
	assert.False(t, pot.ReadFromFile())
	assert.Equal(t, []string{"1 1 1.0 1.0 2.5", "1 2 0.5 1.2 2.5"}, pot.CoefficientLines())
}

func TestStageAndSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	staged := filepath.Join(dir, "potential.dat")

	pot, err := New([]byte(eamContent), "eam/fs", []string{"Fe"}, "", "",
		&Tags{Title: "Fe EAM", Developer: []string{"M. Mendelev"}, PublicationYear: 2003})
	require.NoError(t, err)
	require.NoError(t, pot.WriteFile(staged))
	require.NoError(t, pot.WriteSidecar(staged))

	raw, err := os.ReadFile(staged)
	require.NoError(t, err)
	assert.Equal(t, eamContent, string(raw))

	loaded, err := FromFile(staged, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "eam/fs", loaded.PairStyle)
	assert.Equal(t, []string{"Fe"}, loaded.Species)
	assert.Equal(t, pot.MD5(), loaded.MD5())
	assert.Equal(t, "Fe EAM", loaded.Tags.Title)
	assert.Equal(t, 2003, loaded.Tags.PublicationYear)
}

func TestFromFileWithoutSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sw.dat")
	require.NoError(t, os.WriteFile(path, []byte("Si Si Si 2.1683\n"), 0o644))

	pot, err := FromFile(path, "sw", []string{"Si"})
	require.NoError(t, err)
	assert.Equal(t, "sw", pot.PairStyle)
	assert.Equal(t, "atomic", pot.AtomStyle)

	_, err = FromFile(path, "", nil)
	require.Error(t, err)

	_, err = FromFile(filepath.Join(dir, "missing.dat"), "sw", nil)
	require.Error(t, err)
}
