package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optnet-sim/rmsa-rl/types"
)

type testAction string

func (a testAction) Hash() string { return string(a) }

type testState struct {
	key     string
	actions []types.Action
}

func (s *testState) Hash() string { return s.key }

func (s *testState) Actions() []types.Action { return s.actions }

func makeState(key string, actions ...string) *testState {
	s := &testState{key: key}
	for _, a := range actions {
		s.actions = append(s.actions, testAction(a))
	}
	return s
}

func stepContext(reward float64) *types.StepContext {
	sCtx := types.NewStepContext(nil, 0)
	sCtx.Reward = reward
	return sCtx
}

func TestEpsilonGreedyLearnsFromReward(t *testing.T) {
	// epsilon 0 makes selection fully greedy
	p := NewEpsilonGreedyPolicyWithSeed(0.5, 0.9, 0, 1)

	s := makeState("s", "good", "bad")
	next := makeState("t")

	p.Update(stepContext(1), s, testAction("good"), next)
	p.Update(stepContext(-1), s, testAction("bad"), next)

	assert.Equal(t, 0.5, p.QTable().Get("s", "good", 0))
	assert.Equal(t, -0.5, p.QTable().Get("s", "bad", 0))

	action, ok := p.NextAction(0, s, s.actions)
	require.True(t, ok)
	assert.Equal(t, "good", action.Hash())

	// repeated positive updates converge towards the reward
	for i := 0; i < 50; i++ {
		p.Update(stepContext(1), s, testAction("good"), next)
	}
	assert.InDelta(t, 1.0, p.QTable().Get("s", "good", 0), 0.01)
}

func TestEpsilonGreedyBootstrapsFromNextState(t *testing.T) {
	p := NewEpsilonGreedyPolicyWithSeed(1, 0.5, 0, 1)

	next := makeState("next", "a")
	p.QTable().Set("next", "a", 10)

	s := makeState("s", "a")
	p.Update(stepContext(0), s, testAction("a"), next)
	// alpha 1: value = reward + discount * max(next) = 0 + 0.5*10
	assert.Equal(t, 5.0, p.QTable().Get("s", "a", 0))

	// a terminal next state contributes nothing
	terminal := makeState("terminal")
	p.QTable().Set("terminal", "x", 100)
	s2 := makeState("s2", "a")
	p.Update(stepContext(2), s2, testAction("a"), terminal)
	assert.Equal(t, 2.0, p.QTable().Get("s2", "a", 0))
}

func TestEpsilonGreedyReset(t *testing.T) {
	p := NewEpsilonGreedyPolicyWithSeed(0.5, 0.9, 0, 1)
	p.Update(stepContext(1), makeState("s", "a"), testAction("a"), makeState("t"))
	require.True(t, p.QTable().HasState("s"))
	p.Reset()
	assert.False(t, p.QTable().HasState("s"))
}

func TestSoftMaxFavoursHigherValues(t *testing.T) {
	p := NewSoftMaxPolicyWithSeed(0.5, 0.9, 0.1, 1)
	s := makeState("s", "good", "bad")
	p.QTable().Set("s", "good", 5)
	p.QTable().Set("s", "bad", -5)

	good := 0
	for i := 0; i < 100; i++ {
		action, ok := p.NextAction(0, s, s.actions)
		require.True(t, ok)
		if action.Hash() == "good" {
			good += 1
		}
	}
	// temperature 0.1 over a 10 point gap is essentially deterministic
	assert.Greater(t, good, 95)
}

func TestBonusGreedyRewardsNovelty(t *testing.T) {
	p := NewBonusGreedyPolicyWithSeed(1, 0.9, 0, 1)

	s := makeState("s", "tried", "fresh")
	next := makeState("t", "x")

	// run several episodes always taking the same action
	for episode := 0; episode < 5; episode++ {
		trace := types.NewTrace()
		trace.Append(s, testAction("tried"), 0, next)
		p.UpdateEpisode(episode, trace)
	}

	// the visit bonus decays for the tried action, so the untried one
	// keeps the optimistic default and wins
	action, ok := p.NextAction(0, s, s.actions)
	require.True(t, ok)
	assert.Equal(t, "fresh", action.Hash())
}
