package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniformMatrix(t *testing.T) {
	m := UniformMatrix(3)
	for s := range m {
		for d := range m[s] {
			if s == d {
				assert.Equal(t, 0.0, m[s][d])
			} else {
				assert.Equal(t, 1.0, m[s][d])
			}
		}
	}
}

func TestNormalise(t *testing.T) {
	m := Normalise(UniformMatrix(3))
	total := 0.0
	for s := range m {
		for d := range m[s] {
			total += m[s][d]
		}
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	// 6 off-diagonal entries share the weight equally
	assert.InDelta(t, 1.0/6.0, m[0][1], 1e-9)

	zero := [][]float64{{0, 0}, {0, 0}}
	assert.Equal(t, zero, Normalise(zero))
}
