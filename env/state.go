package env

import (
	"fmt"
	"strings"

	"github.com/optnet-sim/rmsa-rl/spectrum"
	"github.com/optnet-sim/rmsa-rl/topology"
	"github.com/optnet-sim/rmsa-rl/traffic"
	"github.com/optnet-sim/rmsa-rl/types"
)

// AllocOption is one feasible assignment of the current request: a candidate
// path, the chosen format, and the first-fit start of a free block that fits
type AllocOption struct {
	PathIndex int
	Path      topology.Path
	Format    Modulation
	Width     int
	Start     int
	BlockSize int
}

// AllocateAction commits an AllocOption
type AllocateAction struct {
	Option AllocOption
}

var _ types.Action = &AllocateAction{}

func (a *AllocateAction) Hash() string {
	return fmt.Sprintf("alloc-p%d-s%d-w%d", a.Option.PathIndex, a.Option.Start, a.Option.Width)
}

// BlockAction is the only action when no assignment is feasible
type BlockAction struct{}

var _ types.Action = &BlockAction{}

func (a *BlockAction) Hash() string {
	return "block"
}

// PathFeature summarises the spectrum seen by one candidate path for the
// current request (the observation the DeepRMSA agent is given)
type PathFeature struct {
	// Width is the FSU count the request needs on this path (0 if the
	// path length exceeds every format's reach)
	Width int
	// FirstFit is the lowest feasible start slot, -1 if none
	FirstFit int
	// FreeSlots over the path's aggregated occupancy
	FreeSlots int
	// Blocks is the number of maximal free blocks
	Blocks int
}

// NetworkState is an immutable snapshot handed to policies: the pending
// request, its feasible assignments, per-path features and a copy of the
// spectrum grid
type NetworkState struct {
	Request  traffic.Request
	Options  []AllocOption
	Features []PathFeature
	Table    *spectrum.Table

	EpisodeStats

	quant    int
	terminal bool
}

var (
	_ types.State   = &NetworkState{}
	_ StatsProvider = &NetworkState{}
)

func (s *NetworkState) Stats() EpisodeStats {
	return s.EpisodeStats
}

func (s *NetworkState) Terminal() bool {
	return s.terminal
}

func (s *NetworkState) Actions() []types.Action {
	if s.terminal {
		return nil
	}
	if len(s.Options) == 0 {
		return []types.Action{&BlockAction{}}
	}
	actions := make([]types.Action, len(s.Options))
	for i := range s.Options {
		actions[i] = &AllocateAction{Option: s.Options[i]}
	}
	return actions
}

func quantize(v, q int) int {
	if v < 0 {
		return -1
	}
	return v / q
}

// Hash abstracts the snapshot to the request pair and quantized per-path
// features, keeping the tabular state space tractable
func (s *NetworkState) Hash() string {
	if s.terminal {
		return "terminal"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d-%d", s.Request.Source, s.Request.Dest)
	for _, f := range s.Features {
		meanBlock := 0
		if f.Blocks > 0 {
			meanBlock = f.FreeSlots / f.Blocks
		}
		fmt.Fprintf(&b, "|%d:%d:%d:%d", f.Width,
			quantize(f.FirstFit, s.quant), quantize(f.FreeSlots, s.quant), quantize(meanBlock, s.quant))
	}
	return b.String()
}
