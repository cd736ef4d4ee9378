package heuristics

import (
	"github.com/optnet-sim/rmsa-rl/env"
	"github.com/optnet-sim/rmsa-rl/types"
)

// voneGreedy embeds each virtual node on the lowest-index physical node
// that works, taking the shortest path and lowest start slot to its
// predecessor. The node-ranking counterpart of kSP-FF for embedding.
type voneGreedy struct{}

var _ types.Policy = &voneGreedy{}

// NewVoneGreedy returns the greedy chain-embedding baseline
func NewVoneGreedy() types.Policy {
	return &voneGreedy{}
}

func (p *voneGreedy) NextAction(_ int, _ types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	var best *env.EmbedAction
	for _, a := range actions {
		embed, ok := a.(*env.EmbedAction)
		if !ok {
			continue
		}
		if best == nil || less(embed.Option, best.Option) {
			best = embed
		}
	}
	if best == nil {
		return actions[0], true
	}
	return best, true
}

func less(a, b env.VoneOption) bool {
	if a.Node != b.Node {
		return a.Node < b.Node
	}
	if a.PathIndex != b.PathIndex {
		return a.PathIndex < b.PathIndex
	}
	return a.Start < b.Start
}

func (p *voneGreedy) Update(_ *types.StepContext, _ types.State, _ types.Action, _ types.State) {
}

func (p *voneGreedy) UpdateEpisode(_ int, _ *types.Trace) {
}

func (p *voneGreedy) Record(_ string) {
}

func (p *voneGreedy) Reset() {
}
