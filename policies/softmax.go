package policies

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/optnet-sim/rmsa-rl/types"
)

// SoftMaxPolicy samples actions from a Boltzmann distribution over the
// learned values; updates are shared with EpsilonGreedyPolicy
type SoftMaxPolicy struct {
	*EpsilonGreedyPolicy
	temperature float64
	src         rand.Source
}

var _ types.Policy = &SoftMaxPolicy{}

func NewSoftMaxPolicy(alpha, discount, temperature float64) *SoftMaxPolicy {
	return NewSoftMaxPolicyWithSeed(alpha, discount, temperature, uint64(time.Now().UnixNano()))
}

func NewSoftMaxPolicyWithSeed(alpha, discount, temperature float64, seed uint64) *SoftMaxPolicy {
	return &SoftMaxPolicy{
		EpsilonGreedyPolicy: NewEpsilonGreedyPolicyWithSeed(alpha, discount, 0, seed),
		temperature:         temperature,
		src:                 rand.NewSource(seed + 1),
	}
}

func (s *SoftMaxPolicy) NextAction(step int, state types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	stateHash := state.Hash()

	vals := make([]float64, len(actions))
	maxVal := math.Inf(-1)
	for i, action := range actions {
		vals[i] = s.qTable.Get(stateHash, action.Hash(), 0) / s.temperature
		if vals[i] > maxVal {
			maxVal = vals[i]
		}
	}
	// shift by the max before exponentiating to avoid overflow
	sum := 0.0
	weights := make([]float64, len(actions))
	for i, val := range vals {
		exp := math.Exp(val - maxVal)
		weights[i] = exp
		sum += exp
	}
	for i := range weights {
		weights[i] /= sum
	}
	i, ok := sampleuv.NewWeighted(weights, s.src).Take()
	if !ok {
		return nil, false
	}
	return actions[i], true
}
