package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleYAML = `
name: triangle
nodes: 3
links:
  - {from: 0, to: 1, length_km: 100}
  - {from: 1, to: 2, length_km: 200}
  - {from: 0, to: 2, length_km: 400}
`

func TestParse(t *testing.T) {
	topo, err := Parse([]byte(triangleYAML))
	require.NoError(t, err)

	assert.Equal(t, "triangle", topo.Name)
	assert.Equal(t, 3, topo.NumNodes)
	assert.Len(t, topo.Links, 3)
	assert.Equal(t, 700.0, topo.TotalLengthKM())
	assert.Equal(t, 2, topo.Degree(0))

	// links are undirected
	i, ok := topo.LinkIndex(1, 0)
	require.True(t, ok)
	assert.Equal(t, 0, i)
	i, ok = topo.LinkIndex(2, 0)
	require.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = topo.LinkIndex(0, 0)
	assert.False(t, ok)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"too few nodes", "name: x\nnodes: 1\nlinks:\n  - {from: 0, to: 0, length_km: 1}"},
		{"no links", "name: x\nnodes: 2\nlinks: []"},
		{"endpoint out of range", "name: x\nnodes: 2\nlinks:\n  - {from: 0, to: 5, length_km: 1}"},
		{"self loop", "name: x\nnodes: 2\nlinks:\n  - {from: 1, to: 1, length_km: 1}"},
		{"non-positive length", "name: x\nnodes: 2\nlinks:\n  - {from: 0, to: 1, length_km: 0}"},
		{"duplicate link", "name: x\nnodes: 2\nlinks:\n  - {from: 0, to: 1, length_km: 1}\n  - {from: 1, to: 0, length_km: 2}"},
		{"disconnected", "name: x\nnodes: 4\nlinks:\n  - {from: 0, to: 1, length_km: 1}\n  - {from: 2, to: 3, length_km: 1}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestEmbeddedTopologies(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "nsfnet")
	assert.Contains(t, names, "cost239")
	assert.Contains(t, names, "simple6")

	for _, name := range names {
		topo, err := Load(name)
		require.NoError(t, err, name)
		assert.GreaterOrEqual(t, topo.NumNodes, 2)
	}

	nsfnet, err := Load("nsfnet")
	require.NoError(t, err)
	assert.Equal(t, 14, nsfnet.NumNodes)
	assert.Len(t, nsfnet.Links, 21)

	_, err = Load("no-such-topology")
	assert.Error(t, err)
}
