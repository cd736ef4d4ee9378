package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optnet-sim/rmsa-rl/env"
	"github.com/optnet-sim/rmsa-rl/types"
)

func allocActions(options ...env.AllocOption) []types.Action {
	actions := make([]types.Action, len(options))
	for i := range options {
		actions[i] = &env.AllocateAction{Option: options[i]}
	}
	return actions
}

func TestKSPFirstFitPrefersShortestPath(t *testing.T) {
	actions := allocActions(
		env.AllocOption{PathIndex: 1, Start: 0, Width: 2, BlockSize: 10},
		env.AllocOption{PathIndex: 0, Start: 8, Width: 2, BlockSize: 4},
		env.AllocOption{PathIndex: 0, Start: 2, Width: 2, BlockSize: 2},
	)

	policy := NewKSPFirstFit()
	action, ok := policy.NextAction(0, nil, actions)
	require.True(t, ok)
	opt := action.(*env.AllocateAction).Option
	// lowest start on the shortest path, even though path 1 has slot 0
	assert.Equal(t, 0, opt.PathIndex)
	assert.Equal(t, 2, opt.Start)
}

func TestFirstFitKSPPrefersLowestSlot(t *testing.T) {
	actions := allocActions(
		env.AllocOption{PathIndex: 1, Start: 0, Width: 2, BlockSize: 10},
		env.AllocOption{PathIndex: 0, Start: 2, Width: 2, BlockSize: 2},
	)

	policy := NewFirstFitKSP()
	action, ok := policy.NextAction(0, nil, actions)
	require.True(t, ok)
	opt := action.(*env.AllocateAction).Option
	assert.Equal(t, 1, opt.PathIndex)
	assert.Equal(t, 0, opt.Start)
}

func TestKSPBestFitPrefersSnuggestBlock(t *testing.T) {
	actions := allocActions(
		env.AllocOption{PathIndex: 0, Start: 0, Width: 2, BlockSize: 10},
		env.AllocOption{PathIndex: 0, Start: 20, Width: 2, BlockSize: 3},
		env.AllocOption{PathIndex: 1, Start: 5, Width: 2, BlockSize: 2},
	)

	policy := NewKSPBestFit()
	action, ok := policy.NextAction(0, nil, actions)
	require.True(t, ok)
	opt := action.(*env.AllocateAction).Option
	// snuggest block on the shortest path wins over the exact fit on path 1
	assert.Equal(t, 0, opt.PathIndex)
	assert.Equal(t, 20, opt.Start)
}

func TestHeuristicsFallBackToBlock(t *testing.T) {
	actions := []types.Action{&env.BlockAction{}}

	for _, policy := range []types.Policy{NewKSPFirstFit(), NewFirstFitKSP(), NewKSPBestFit()} {
		action, ok := policy.NextAction(0, nil, actions)
		require.True(t, ok)
		_, isBlock := action.(*env.BlockAction)
		assert.True(t, isBlock)
	}

	_, ok := NewKSPFirstFit().NextAction(0, nil, nil)
	assert.False(t, ok)
}

func TestVoneGreedyOrdering(t *testing.T) {
	actions := []types.Action{
		&env.EmbedAction{Option: env.VoneOption{Node: 3, PathIndex: 0, Start: 0}, Stage: 1},
		&env.EmbedAction{Option: env.VoneOption{Node: 1, PathIndex: 1, Start: 4}, Stage: 1},
		&env.EmbedAction{Option: env.VoneOption{Node: 1, PathIndex: 0, Start: 8}, Stage: 1},
	}

	policy := NewVoneGreedy()
	action, ok := policy.NextAction(0, nil, actions)
	require.True(t, ok)
	opt := action.(*env.EmbedAction).Option
	assert.Equal(t, 1, opt.Node)
	assert.Equal(t, 0, opt.PathIndex)
	assert.Equal(t, 8, opt.Start)
}

func TestVoneGreedyFallsBackToReject(t *testing.T) {
	actions := []types.Action{&env.RejectAction{}}
	action, ok := NewVoneGreedy().NextAction(0, nil, actions)
	require.True(t, ok)
	_, isReject := action.(*env.RejectAction)
	assert.True(t, isReject)
}
