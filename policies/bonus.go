package policies

import (
	"time"

	"golang.org/x/exp/rand"

	"github.com/optnet-sim/rmsa-rl/types"
)

// BonusGreedyPolicy explores by valuing novelty: the reward for a pair is
// the environment reward plus 1/visits, pushing the agent towards rarely
// tried assignments. Updates run backwards over the whole trace at episode
// end.
type BonusGreedyPolicy struct {
	qTable   *QTable
	visits   *QTable
	alpha    float64
	discount float64
	epsilon  float64
	rand     *rand.Rand
}

var _ types.Policy = &BonusGreedyPolicy{}

func NewBonusGreedyPolicy(alpha, discount, epsilon float64) *BonusGreedyPolicy {
	return NewBonusGreedyPolicyWithSeed(alpha, discount, epsilon, uint64(time.Now().UnixNano()))
}

func NewBonusGreedyPolicyWithSeed(alpha, discount, epsilon float64, seed uint64) *BonusGreedyPolicy {
	return &BonusGreedyPolicy{
		qTable:   NewQTable(),
		visits:   NewQTable(),
		alpha:    alpha,
		discount: discount,
		epsilon:  epsilon,
		rand:     rand.New(rand.NewSource(seed)),
	}
}

func (b *BonusGreedyPolicy) NextAction(step int, state types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	if b.rand.Float64() < b.epsilon {
		return actions[b.rand.Intn(len(actions))], true
	}

	actionsMap := make(map[string]types.Action)
	availableActions := make([]string, len(actions))
	for i, a := range actions {
		aHash := a.Hash()
		actionsMap[aHash] = a
		availableActions[i] = aHash
	}
	maxAction, _ := b.qTable.MaxAmong(state.Hash(), availableActions, 1)
	if maxAction == "" {
		return nil, false
	}
	return actionsMap[maxAction], true
}

func (b *BonusGreedyPolicy) Update(_ *types.StepContext, _ types.State, _ types.Action, _ types.State) {
}

func (b *BonusGreedyPolicy) UpdateEpisode(episode int, trace *types.Trace) {
	lastIndex := trace.Len() - 1
	for i := lastIndex; i > -1; i-- {
		state, action, reward, nextState, ok := trace.Get(i)
		if !ok {
			continue
		}
		b.update(state, action, reward, nextState, i == lastIndex)
	}
}

func (b *BonusGreedyPolicy) update(state types.State, action types.Action, reward float64, nextState types.State, last bool) {
	stateHash := state.Hash()
	actionHash := action.Hash()

	t := b.visits.Get(stateHash, actionHash, 0) + 1
	b.visits.Set(stateHash, actionHash, t)

	nextStateVal := 0.0
	if !last {
		_, nextStateVal = b.qTable.Max(nextState.Hash(), 1)
	}
	curVal := b.qTable.Get(stateHash, actionHash, 1)
	newVal := (1-b.alpha)*curVal + b.alpha*(reward+1/t+b.discount*nextStateVal)
	b.qTable.Set(stateHash, actionHash, newVal)
}

func (b *BonusGreedyPolicy) Record(path string) {
	b.qTable.Record(path)
}

func (b *BonusGreedyPolicy) Reset() {
	b.qTable = NewQTable()
	b.visits = NewQTable()
}
