package env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optnet-sim/rmsa-rl/topology"
	"github.com/optnet-sim/rmsa-rl/traffic"
	"github.com/optnet-sim/rmsa-rl/types"
)

const squareYAML = `
name: square
nodes: 4
links:
  - {from: 0, to: 1, length_km: 300}
  - {from: 1, to: 2, length_km: 300}
  - {from: 2, to: 3, length_km: 300}
  - {from: 3, to: 0, length_km: 300}
`

func squareTopology(t *testing.T) *topology.Topology {
	t.Helper()
	topo, err := topology.Parse([]byte(squareYAML))
	require.NoError(t, err)
	return topo
}

func episodeContext(seed int64) *types.EpisodeContext {
	return types.NewEpisodeContext(context.Background(), 0, seed, "test", 0)
}

func TestRSAEpisode(t *testing.T) {
	e, err := NewRSAEnv(Params{
		Topology:           squareTopology(t),
		K:                  2,
		NumSlots:           32,
		LoadErlang:         10,
		MeanHoldingTime:    5,
		RequestsPerEpisode: 20,
	})
	require.NoError(t, err)

	state, err := e.Reset(episodeContext(1))
	require.NoError(t, err)
	ns, ok := state.(*NetworkState)
	require.True(t, ok)
	require.NotEmpty(t, ns.Options)
	assert.Equal(t, 0, ns.Requests)

	accepted := 0
	step := 0
	for {
		actions := state.Actions()
		if len(actions) == 0 {
			break
		}
		sCtx := types.NewStepContext(episodeContext(1), step)
		state, err = e.Step(actions[0], sCtx)
		require.NoError(t, err)
		if _, isAlloc := actions[0].(*AllocateAction); isAlloc {
			accepted += 1
			assert.Greater(t, sCtx.Reward, 0.0)
		} else {
			assert.Less(t, sCtx.Reward, 0.0)
		}
		step += 1
	}

	final := state.(*NetworkState)
	assert.Equal(t, 20, final.Requests)
	assert.Equal(t, accepted, final.Accepted)
	assert.Equal(t, 20-accepted, final.Blocked)
	assert.Nil(t, state.Actions())

	_, err = e.Step(&BlockAction{}, types.NewStepContext(episodeContext(1), step))
	assert.ErrorIs(t, err, ErrEpisodeOver)
}

func TestRSASnapshotIsImmutable(t *testing.T) {
	e, err := NewRSAEnv(Params{
		Topology:           squareTopology(t),
		NumSlots:           32,
		RequestsPerEpisode: 10,
	})
	require.NoError(t, err)

	state, err := e.Reset(episodeContext(2))
	require.NoError(t, err)
	first := state.(*NetworkState)
	key := first.Table.Key()
	hash := first.Hash()

	_, err = e.Step(state.Actions()[0], types.NewStepContext(episodeContext(2), 0))
	require.NoError(t, err)

	// the earlier snapshot must not observe the allocation
	assert.Equal(t, key, first.Table.Key())
	assert.Equal(t, hash, first.Hash())
}

func TestRSABlockActionCounts(t *testing.T) {
	e, err := NewRSAEnv(Params{
		Topology:           squareTopology(t),
		NumSlots:           32,
		RequestsPerEpisode: 10,
	})
	require.NoError(t, err)

	state, err := e.Reset(episodeContext(3))
	require.NoError(t, err)

	sCtx := types.NewStepContext(episodeContext(3), 0)
	state, err = e.Step(&BlockAction{}, sCtx)
	require.NoError(t, err)
	ns := state.(*NetworkState)
	assert.Equal(t, 1, ns.Blocked)
	assert.Equal(t, 0, ns.Accepted)
	assert.Equal(t, -1.0, sCtx.Reward)
	assert.InDelta(t, 1.0, ns.ServiceBlockingProb(), 1e-9)
}

func TestRSAEndFirstBlocking(t *testing.T) {
	e, err := NewRSAEnv(Params{
		Topology:           squareTopology(t),
		NumSlots:           32,
		RequestsPerEpisode: 100,
		EndFirstBlocking:   true,
	})
	require.NoError(t, err)

	state, err := e.Reset(episodeContext(4))
	require.NoError(t, err)

	state, err = e.Step(&BlockAction{}, types.NewStepContext(episodeContext(4), 0))
	require.NoError(t, err)
	assert.Nil(t, state.Actions())
}

func TestRSADeterministicPerSeed(t *testing.T) {
	params := Params{
		Topology:           squareTopology(t),
		NumSlots:           32,
		RequestsPerEpisode: 10,
	}
	a, err := NewRSAEnv(params)
	require.NoError(t, err)
	b, err := NewRSAEnv(params)
	require.NoError(t, err)

	sa, err := a.Reset(episodeContext(99))
	require.NoError(t, err)
	sb, err := b.Reset(episodeContext(99))
	require.NoError(t, err)
	assert.Equal(t, sa.Hash(), sb.Hash())

	for i := 0; i < 5; i++ {
		sa, err = a.Step(sa.Actions()[0], types.NewStepContext(episodeContext(99), i))
		require.NoError(t, err)
		sb, err = b.Step(sb.Actions()[0], types.NewStepContext(episodeContext(99), i))
		require.NoError(t, err)
		assert.Equal(t, sa.Hash(), sb.Hash())
	}
}

func TestRMSAUsesReach(t *testing.T) {
	// 300km direct hop: 16QAM (500km reach); two hops 600km: 8QAM
	e, err := NewRMSAEnv(Params{
		Topology:           squareTopology(t),
		K:                  2,
		NumSlots:           32,
		RequestsPerEpisode: 10,
	})
	require.NoError(t, err)

	state, err := e.Reset(episodeContext(5))
	require.NoError(t, err)
	ns := state.(*NetworkState)
	for _, opt := range ns.Options {
		switch opt.Path.Hops {
		case 1:
			assert.Equal(t, "16QAM", opt.Format.Name)
		case 2:
			assert.Equal(t, "8QAM", opt.Format.Name)
		}
		assert.Equal(t, RequiredSlots(ns.Request.BitRateGbps, opt.Format.BitsPerSymbol, 12.5), opt.Width)
	}
}

func TestDeepRMSAWarmupLoadsNetwork(t *testing.T) {
	e, err := NewDeepRMSAEnv(Params{
		Topology:           squareTopology(t),
		NumSlots:           64,
		LoadErlang:         200,
		MeanHoldingTime:    50,
		RequestsPerEpisode: 10,
		WarmupRequests:     50,
	})
	require.NoError(t, err)

	state, err := e.Reset(episodeContext(6))
	require.NoError(t, err)
	ns := state.(*NetworkState)
	assert.Greater(t, ns.Table.Utilisation(), 0.0)
	// warmup requests do not count towards the episode
	assert.Equal(t, 0, ns.Requests)
}

func TestRSAIncrementalLoadingMonotone(t *testing.T) {
	e, err := NewRSAEnv(Params{
		Topology:           squareTopology(t),
		K:                  2,
		NumSlots:           32,
		LoadErlang:         10,
		MeanHoldingTime:    5,
		RequestsPerEpisode: 30,
		IncrementalLoading: true,
	})
	require.NoError(t, err)

	state, err := e.Reset(episodeContext(7))
	require.NoError(t, err)

	// without departures the grid only ever fills up
	prev := 0.0
	step := 0
	for {
		actions := state.Actions()
		if len(actions) == 0 {
			break
		}
		state, err = e.Step(actions[0], types.NewStepContext(episodeContext(7), step))
		require.NoError(t, err)
		ns := state.(*NetworkState)
		assert.GreaterOrEqual(t, ns.Utilisation, prev)
		prev = ns.Utilisation
		step += 1
	}
	assert.Greater(t, prev, 0.0)
}

func TestRSAUtilisationDrainsAfterDepartures(t *testing.T) {
	// holding times far below the mean interarrival, so every service
	// departs before the next request arrives
	e, err := NewRSAEnv(Params{
		Topology:           squareTopology(t),
		K:                  2,
		NumSlots:           32,
		LoadErlang:         0.0001,
		MeanHoldingTime:    0.001,
		RequestsPerEpisode: 10,
	})
	require.NoError(t, err)

	state, err := e.Reset(episodeContext(8))
	require.NoError(t, err)

	accepted := 0
	step := 0
	for {
		actions := state.Actions()
		if len(actions) == 0 {
			break
		}
		sCtx := types.NewStepContext(episodeContext(8), step)
		state, err = e.Step(actions[0], sCtx)
		require.NoError(t, err)
		ns := state.(*NetworkState)
		if _, isAlloc := actions[0].(*AllocateAction); isAlloc {
			accepted += 1
			// the allocation was live when the request was admitted
			assert.Greater(t, ns.Utilisation, 0.0)
		}
		if !ns.Terminal() {
			// by the next arrival every earlier lightpath has departed
			assert.Equal(t, 0.0, ns.Table.Utilisation())
		}
		step += 1
	}
	assert.Greater(t, accepted, 0)
}

func TestStateHashQuantizes(t *testing.T) {
	req := traffic.Request{Source: 0, Dest: 2}
	s1 := &NetworkState{
		Request:  req,
		Features: []PathFeature{{Width: 2, FirstFit: 0, FreeSlots: 30, Blocks: 1}},
		quant:    8,
	}
	s2 := &NetworkState{
		Request:  req,
		Features: []PathFeature{{Width: 2, FirstFit: 7, FreeSlots: 25, Blocks: 1}},
		quant:    8,
	}
	s3 := &NetworkState{
		Request:  req,
		Features: []PathFeature{{Width: 2, FirstFit: 8, FreeSlots: 25, Blocks: 1}},
		quant:    8,
	}
	assert.Equal(t, s1.Hash(), s2.Hash())
	assert.NotEqual(t, s2.Hash(), s3.Hash())

	// fragmentation shows through the mean free block size: 30 slots in one
	// block vs 30 slots in four
	s4 := &NetworkState{
		Request:  req,
		Features: []PathFeature{{Width: 2, FirstFit: 0, FreeSlots: 30, Blocks: 4}},
		quant:    8,
	}
	assert.NotEqual(t, s1.Hash(), s4.Hash())
}
