package types

// Environment is a gym-style simulation that policies interact with.
// Implementations are single threaded: one environment instance serves one
// episode loop at a time. Parallel runs use one replica per worker.
type Environment interface {
	// Reset called at the start of each episode
	Reset(*EpisodeContext) (State, error)
	// Step applies the action and advances the simulation.
	// The reward for the transition is written to the StepContext.
	Step(Action, *StepContext) (State, error)
}

// State of the system that policies observe
type State interface {
	// Indexed by the Hash
	// Should be deterministic
	Hash() string
	// Feasible actions from this state
	// An empty slice marks a terminal state
	Actions() []Action
}

// An Action that a policy can take
type Action interface {
	// Index of the action
	// Should be deterministic
	Hash() string
}

// EnvironmentFactory builds a fresh environment replica. The index
// distinguishes replicas of a vectorized run so each derives its own RNG
// stream.
type EnvironmentFactory func(replica int) Environment
