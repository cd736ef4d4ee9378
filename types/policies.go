package types

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// Policy selects actions and (optionally) learns from transitions.
// Deterministic heuristics implement the interface with no-op updates.
type Policy interface {
	// NextAction picks one of the feasible actions.
	// Returns false if the policy cannot decide.
	NextAction(step int, state State, actions []Action) (Action, bool)
	// Update with a single transition. The reward is on the StepContext.
	Update(sCtx *StepContext, state State, action Action, nextState State)
	// UpdateEpisode with the full trace at episode end
	UpdateEpisode(episode int, trace *Trace)
	// Record the learned state to the given path (no-op for heuristics)
	Record(path string)
	Reset()
}

type RandomPolicy struct {
	rand *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewRandomPolicy() *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
}

// NewRandomPolicyWithSeed is used by tests and reproducible runs
func NewRandomPolicyWithSeed(seed uint64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) NextAction(step int, state State, actions []Action) (Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	return actions[r.rand.Intn(len(actions))], true
}

func (r *RandomPolicy) Update(_ *StepContext, _ State, _ Action, _ State) {}

func (r *RandomPolicy) UpdateEpisode(_ int, _ *Trace) {}

func (r *RandomPolicy) Record(_ string) {}

func (r *RandomPolicy) Reset() {}

// SyncPolicy makes a policy safe to share between parallel environment
// replicas. Selection and updates serialize on a single mutex, which is the
// contention point of a vectorized run.
type SyncPolicy struct {
	mu    sync.Mutex
	inner Policy
}

var _ Policy = &SyncPolicy{}

func NewSyncPolicy(inner Policy) *SyncPolicy {
	return &SyncPolicy{inner: inner}
}

func (s *SyncPolicy) NextAction(step int, state State, actions []Action) (Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.NextAction(step, state, actions)
}

func (s *SyncPolicy) Update(sCtx *StepContext, state State, action Action, nextState State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Update(sCtx, state, action, nextState)
}

func (s *SyncPolicy) UpdateEpisode(episode int, trace *Trace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.UpdateEpisode(episode, trace)
}

func (s *SyncPolicy) Record(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Record(path)
}

func (s *SyncPolicy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Reset()
}
