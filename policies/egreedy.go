package policies

import (
	"time"

	"golang.org/x/exp/rand"

	"github.com/optnet-sim/rmsa-rl/types"
)

// EpsilonGreedyPolicy is one-step Q-learning on the environment reward with
// epsilon-greedy exploration
type EpsilonGreedyPolicy struct {
	qTable   *QTable
	alpha    float64
	discount float64
	epsilon  float64
	rand     *rand.Rand
}

var _ types.Policy = &EpsilonGreedyPolicy{}

func NewEpsilonGreedyPolicy(alpha, discount, epsilon float64) *EpsilonGreedyPolicy {
	return NewEpsilonGreedyPolicyWithSeed(alpha, discount, epsilon, uint64(time.Now().UnixNano()))
}

func NewEpsilonGreedyPolicyWithSeed(alpha, discount, epsilon float64, seed uint64) *EpsilonGreedyPolicy {
	return &EpsilonGreedyPolicy{
		qTable:   NewQTable(),
		alpha:    alpha,
		discount: discount,
		epsilon:  epsilon,
		rand:     rand.New(rand.NewSource(seed)),
	}
}

// QTable exposes the learned values for inspection
func (e *EpsilonGreedyPolicy) QTable() *QTable {
	return e.qTable
}

func (e *EpsilonGreedyPolicy) NextAction(step int, state types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	if e.rand.Float64() < e.epsilon {
		return actions[e.rand.Intn(len(actions))], true
	}

	actionsMap := make(map[string]types.Action)
	availableActions := make([]string, len(actions))
	for i, a := range actions {
		aHash := a.Hash()
		actionsMap[aHash] = a
		availableActions[i] = aHash
	}
	maxAction, _ := e.qTable.MaxAmong(state.Hash(), availableActions, 0)
	if maxAction == "" {
		return nil, false
	}
	return actionsMap[maxAction], true
}

func (e *EpsilonGreedyPolicy) Update(sCtx *types.StepContext, state types.State, action types.Action, nextState types.State) {
	stateHash := state.Hash()
	actionHash := action.Hash()

	nextStateVal := 0.0
	// terminal next states do not bootstrap
	if len(nextState.Actions()) > 0 {
		_, nextStateVal = e.qTable.Max(nextState.Hash(), 0)
	}
	curVal := e.qTable.Get(stateHash, actionHash, 0)
	newVal := (1-e.alpha)*curVal + e.alpha*(sCtx.Reward+e.discount*nextStateVal)
	e.qTable.Set(stateHash, actionHash, newVal)
}

func (e *EpsilonGreedyPolicy) UpdateEpisode(_ int, _ *types.Trace) {
}

func (e *EpsilonGreedyPolicy) Record(path string) {
	e.qTable.Record(path)
}

func (e *EpsilonGreedyPolicy) Reset() {
	e.qTable = NewQTable()
}
