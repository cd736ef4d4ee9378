package env

import (
	"fmt"

	"github.com/optnet-sim/rmsa-rl/topology"
	"github.com/optnet-sim/rmsa-rl/traffic"
)

// RewardType selects what the accept/block reward is proportional to
type RewardType int

const (
	// ServiceReward gives +1 for an accepted request, -1 for a blocked one
	ServiceReward RewardType = iota
	// BitrateReward scales the reward with the request bit-rate
	BitrateReward
)

// Params configures an allocation environment
type Params struct {
	Topology *topology.Topology

	// K shortest candidate paths per node pair
	K int
	// NumSlots is the FSU count per link
	NumSlots int
	// SlotWidthGHz is the width of one FSU
	SlotWidthGHz float64

	LoadErlang      float64
	MeanHoldingTime float64
	BitRatesGbps    []float64

	// RequestsPerEpisode caps the episode length
	RequestsPerEpisode int
	// WarmupRequests are allocated first-fit before the episode starts
	// counting, to begin from a loaded network
	WarmupRequests int

	// IncrementalLoading disables departures
	IncrementalLoading bool
	// EndFirstBlocking terminates the episode at the first blocked request
	EndFirstBlocking bool

	RewardType RewardType
	Formats    []Modulation

	// StateQuantization coarsens observation hashes for tabular policies
	// (bucket size for slot indices and free-slot counts)
	StateQuantization int

	// VONE settings
	NodeCapacity    int
	VirtualNodesMin int
	VirtualNodesMax int
	VirtualDemands  []int
}

func (p *Params) withDefaults() (Params, error) {
	out := *p
	if out.Topology == nil {
		return out, fmt.Errorf("env: topology is required")
	}
	if out.K <= 0 {
		out.K = 5
	}
	if out.NumSlots <= 0 {
		out.NumSlots = 100
	}
	if out.SlotWidthGHz <= 0 {
		out.SlotWidthGHz = 12.5
	}
	if out.LoadErlang <= 0 {
		out.LoadErlang = 100
	}
	if out.MeanHoldingTime <= 0 {
		out.MeanHoldingTime = 10
	}
	if len(out.BitRatesGbps) == 0 {
		out.BitRatesGbps = traffic.DefaultBitRates()
	}
	if out.RequestsPerEpisode <= 0 {
		out.RequestsPerEpisode = 1000
	}
	if out.StateQuantization <= 0 {
		out.StateQuantization = 8
	}
	if len(out.Formats) == 0 {
		out.Formats = DefaultModulations()
	}
	if out.NodeCapacity <= 0 {
		out.NodeCapacity = 20
	}
	if out.VirtualNodesMin <= 0 {
		out.VirtualNodesMin = 2
	}
	if out.VirtualNodesMax < out.VirtualNodesMin {
		out.VirtualNodesMax = 4
	}
	if len(out.VirtualDemands) == 0 {
		out.VirtualDemands = []int{1, 2, 3}
	}
	return out, nil
}

func (p Params) reward(bitrate float64, accepted bool) float64 {
	sign := 1.0
	if !accepted {
		sign = -1.0
	}
	switch p.RewardType {
	case BitrateReward:
		return sign * bitrate / 100.0
	default:
		return sign
	}
}
