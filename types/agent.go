package types

// Agent runs the episode loop of a policy against an environment
type Agent struct {
	config      *AgentConfig
	policy      Policy
	environment Environment
}

type AgentConfig struct {
	Horizon     int
	Policy      Policy
	Environment Environment
}

func NewAgent(config *AgentConfig) *Agent {
	return &Agent{
		config:      config,
		policy:      config.Policy,
		environment: config.Environment,
	}
}

// RunEpisode runs a single episode up to the horizon, recording the trace
// and outcome on the episode context
func (a *Agent) RunEpisode(eCtx *EpisodeContext) {
	state, err := a.environment.Reset(eCtx)
	if err != nil {
		eCtx.SetError(err)
		return
	}

	for i := 0; i < a.config.Horizon; i++ {
		select {
		case <-eCtx.Context.Done():
			return
		default:
		}

		actions := state.Actions()
		if len(actions) == 0 {
			eCtx.Terminal = true
			break
		}
		action, ok := a.policy.NextAction(i, state, actions)
		if !ok {
			eCtx.Terminal = true
			break
		}

		sCtx := NewStepContext(eCtx, i)
		nextState, err := a.environment.Step(action, sCtx)
		if err != nil {
			eCtx.SetError(err)
			return
		}

		a.policy.Update(sCtx, state, action, nextState)
		eCtx.Trace.Append(state, action, sCtx.Reward, nextState)
		eCtx.Timesteps += 1
		state = nextState
	}

	if !eCtx.Terminal {
		eCtx.HorizonEnd = true
	}
	a.policy.UpdateEpisode(eCtx.Episode, eCtx.Trace)
}
