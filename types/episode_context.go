package types

import (
	"context"
	"time"
)

// EpisodeContext carries the per-episode execution state: the timeout
// context, the RNG seed the environment should reset with and the outcome
// flags filled in by the agent.
type EpisodeContext struct {
	Context context.Context
	cancel  context.CancelFunc

	Episode        int
	Seed           int64
	ExperimentName string

	Trace       *Trace
	Timesteps   int
	RunDuration time.Duration

	Err        error
	TimedOut   bool
	Terminal   bool // episode reached a state with no feasible actions
	HorizonEnd bool // episode ran the full horizon
}

func NewEpisodeContext(parent context.Context, episode int, seed int64, experiment string, timeout time.Duration) *EpisodeContext {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	return &EpisodeContext{
		Context:        ctx,
		cancel:         cancel,
		Episode:        episode,
		Seed:           seed,
		ExperimentName: experiment,
		Trace:          NewTrace(),
	}
}

func (e *EpisodeContext) Cancel() {
	e.cancel()
}

func (e *EpisodeContext) SetError(err error) {
	e.Err = err
}

func (e *EpisodeContext) SetTimedOut() {
	e.TimedOut = true
}

// StepContext is handed to Environment.Step. The environment writes the
// reward of the transition here so that policies and the trace can read it.
type StepContext struct {
	EpisodeContext *EpisodeContext
	Step           int
	Reward         float64
}

func NewStepContext(eCtx *EpisodeContext, step int) *StepContext {
	return &StepContext{
		EpisodeContext: eCtx,
		Step:           step,
	}
}
