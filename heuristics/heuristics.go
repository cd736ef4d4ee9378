// Package heuristics provides the classic non-learning allocation rules
// used as baselines: k-shortest-path first-fit and its variants. They
// implement the Policy interface so experiments can compare them directly
// against learned policies.
package heuristics

import (
	"github.com/optnet-sim/rmsa-rl/env"
	"github.com/optnet-sim/rmsa-rl/types"
)

// pickOption scans the actions of a network state and returns the allocate
// action whose option minimises the given cost, or the block/reject action
// when nothing is feasible.
func pickOption(actions []types.Action, cost func(env.AllocOption) (int, int)) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	var best types.Action
	bestPrimary, bestSecondary := 0, 0
	for _, a := range actions {
		alloc, ok := a.(*env.AllocateAction)
		if !ok {
			// block action, only taken if it is the sole choice
			continue
		}
		primary, secondary := cost(alloc.Option)
		if best == nil || primary < bestPrimary ||
			(primary == bestPrimary && secondary < bestSecondary) {
			best = a
			bestPrimary, bestSecondary = primary, secondary
		}
	}
	if best == nil {
		return actions[0], true
	}
	return best, true
}

type heuristic struct {
	name string
	cost func(env.AllocOption) (int, int)
}

var _ types.Policy = &heuristic{}

func (h *heuristic) NextAction(_ int, _ types.State, actions []types.Action) (types.Action, bool) {
	return pickOption(actions, h.cost)
}

func (h *heuristic) Update(_ *types.StepContext, _ types.State, _ types.Action, _ types.State) {
}

func (h *heuristic) UpdateEpisode(_ int, _ *types.Trace) {
}

func (h *heuristic) Record(_ string) {
}

func (h *heuristic) Reset() {
}

// NewKSPFirstFit orders candidate paths shortest-first and takes the lowest
// feasible start slot on the first path that has one (kSP-FF)
func NewKSPFirstFit() types.Policy {
	return &heuristic{
		name: "ksp_ff",
		cost: func(o env.AllocOption) (int, int) {
			return o.PathIndex, o.Start
		},
	}
}

// NewFirstFitKSP inverts the order: the lowest start slot across all
// candidate paths wins, ties broken by the shorter path (FF-kSP)
func NewFirstFitKSP() types.Policy {
	return &heuristic{
		name: "ff_ksp",
		cost: func(o env.AllocOption) (int, int) {
			return o.Start, o.PathIndex
		},
	}
}

// NewKSPBestFit prefers the snuggest free block on the shortest feasible
// path, reducing fragmentation at the cost of packing density
func NewKSPBestFit() types.Policy {
	return &heuristic{
		name: "ksp_bf",
		cost: func(o env.AllocOption) (int, int) {
			return o.PathIndex, o.BlockSize - o.Width
		},
	}
}
