package types

import "encoding/json"

// Trace of an episode as tuples (state, action, reward, nextState)
type Trace struct {
	states     []State
	actions    []Action
	rewards    []float64
	nextStates []State
}

func NewTrace() *Trace {
	return &Trace{
		states:     make([]State, 0),
		actions:    make([]Action, 0),
		rewards:    make([]float64, 0),
		nextStates: make([]State, 0),
	}
}

func (t *Trace) Append(state State, action Action, reward float64, nextState State) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.rewards = append(t.rewards, reward)
	t.nextStates = append(t.nextStates, nextState)
}

func (t *Trace) Len() int {
	return len(t.states)
}

func (t *Trace) Get(i int) (State, Action, float64, State, bool) {
	if i < 0 || i >= len(t.states) {
		return nil, nil, 0, nil, false
	}
	return t.states[i], t.actions[i], t.rewards[i], t.nextStates[i], true
}

func (t *Trace) Last() (State, Action, float64, State, bool) {
	return t.Get(len(t.states) - 1)
}

// TotalReward is the undiscounted return of the episode
func (t *Trace) TotalReward() float64 {
	total := 0.0
	for _, r := range t.rewards {
		total += r
	}
	return total
}

// TraceStep is the serialized form of one transition, keyed by hashes so
// that recorded traces can be inspected offline without the concrete types.
type TraceStep struct {
	Step      int      `json:"step"`
	State     string   `json:"state"`
	Actions   []string `json:"actions"`
	Action    string   `json:"action"`
	Reward    float64  `json:"reward"`
	NextState string   `json:"next_state"`
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	steps := make([]TraceStep, len(t.states))
	for i := range t.states {
		available := t.states[i].Actions()
		actionHashes := make([]string, len(available))
		for j, a := range available {
			actionHashes[j] = a.Hash()
		}
		steps[i] = TraceStep{
			Step:      i,
			State:     t.states[i].Hash(),
			Actions:   actionHashes,
			Action:    t.actions[i].Hash(),
			Reward:    t.rewards[i],
			NextState: t.nextStates[i].Hash(),
		}
	}
	return json.Marshal(steps)
}
