package spectrum

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupyRelease(t *testing.T) {
	table := NewTable(3, 20)
	links := []int{0, 2}

	require.NoError(t, table.Occupy(links, 5, 4))
	assert.False(t, table.IsFree(0, 5))
	assert.False(t, table.IsFree(2, 8))
	assert.True(t, table.IsFree(1, 5))
	assert.InDelta(t, float64(8)/float64(60), table.Utilisation(), 1e-9)

	require.NoError(t, table.Release(links, 5, 4))
	assert.True(t, table.IsFree(0, 5))
	assert.Equal(t, 0.0, table.Utilisation())
}

func TestOccupyConflictLeavesTableUnchanged(t *testing.T) {
	table := NewTable(2, 10)
	require.NoError(t, table.Occupy([]int{1}, 4, 2))

	// overlaps on link 1, must not partially occupy link 0
	err := table.Occupy([]int{0, 1}, 3, 3)
	require.ErrorIs(t, err, ErrSlotOccupied)
	assert.True(t, table.IsFree(0, 3))
	assert.True(t, table.IsFree(0, 4))
	assert.Equal(t, 0.0, table.LinkUtilisation(0))
}

func TestReleaseFreeSlotFails(t *testing.T) {
	table := NewTable(1, 10)
	err := table.Release([]int{0}, 0, 1)
	require.ErrorIs(t, err, ErrSlotFree)
}

func TestRangeValidation(t *testing.T) {
	table := NewTable(1, 10)
	assert.ErrorIs(t, table.Occupy([]int{0}, 8, 3), ErrOutOfRange)
	assert.ErrorIs(t, table.Occupy([]int{0}, -1, 2), ErrOutOfRange)
	assert.ErrorIs(t, table.Occupy([]int{1}, 0, 2), ErrOutOfRange)
	assert.ErrorIs(t, table.Occupy(nil, 0, 2), ErrNoLinks)
}

func TestFreeBlocksAggregatesLinks(t *testing.T) {
	table := NewTable(2, 12)
	require.NoError(t, table.Occupy([]int{0}, 2, 2))
	require.NoError(t, table.Occupy([]int{1}, 7, 3))

	// a path over both links sees both occupations
	blocks := table.FreeBlocks([]int{0, 1})
	require.Equal(t, []Block{
		{Start: 0, Size: 2},
		{Start: 4, Size: 3},
		{Start: 10, Size: 2},
	}, blocks)
}

func TestFindBlockFits(t *testing.T) {
	table := NewTable(1, 12)
	require.NoError(t, table.Occupy([]int{0}, 2, 2))
	require.NoError(t, table.Occupy([]int{0}, 7, 1))
	// free blocks: [0,2) [4,7) [8,12)

	start, ok := table.FindBlock([]int{0}, 2, FirstFit)
	require.True(t, ok)
	assert.Equal(t, 0, start)

	start, ok = table.FindBlock([]int{0}, 3, FirstFit)
	require.True(t, ok)
	assert.Equal(t, 4, start)

	start, ok = table.FindBlock([]int{0}, 3, BestFit)
	require.True(t, ok)
	assert.Equal(t, 4, start)

	start, ok = table.FindBlock([]int{0}, 3, LastFit)
	require.True(t, ok)
	assert.Equal(t, 9, start)

	_, ok = table.FindBlock([]int{0}, 5, FirstFit)
	assert.False(t, ok)
}

func TestFragmentationIndex(t *testing.T) {
	table := NewTable(1, 10)
	assert.Equal(t, 0.0, table.FragmentationIndex())

	// split the free spectrum into 4 + 4
	require.NoError(t, table.Occupy([]int{0}, 4, 2))
	assert.InDelta(t, 0.5, table.FragmentationIndex(), 1e-9)
}

func TestCloneIsIndependent(t *testing.T) {
	table := NewTable(1, 10)
	require.NoError(t, table.Occupy([]int{0}, 0, 2))
	clone := table.Clone()
	key := clone.Key()

	require.NoError(t, table.Occupy([]int{0}, 5, 2))
	assert.True(t, clone.IsFree(0, 5))
	assert.Equal(t, key, clone.Key())
	assert.NotEqual(t, table.Key(), clone.Key())
}

func TestOccupyReleaseRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("occupy then release restores a free table", prop.ForAll(
		func(start, width int) bool {
			table := NewTable(4, 64)
			links := []int{0, 1, 3}
			if err := table.Occupy(links, start, width); err != nil {
				return false
			}
			if err := table.Release(links, start, width); err != nil {
				return false
			}
			return table.Utilisation() == 0 && len(table.FreeBlocks(links)) == 1
		},
		gen.IntRange(0, 32),
		gen.IntRange(1, 32),
	))

	properties.Property("free blocks never overlap occupations", prop.ForAll(
		func(start, width int) bool {
			table := NewTable(1, 64)
			if err := table.Occupy([]int{0}, start, width); err != nil {
				return false
			}
			for _, b := range table.FreeBlocks([]int{0}) {
				if b.Start < start+width && start < b.Start+b.Size {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 32),
		gen.IntRange(1, 32),
	))

	properties.TestingRun(t)
}
