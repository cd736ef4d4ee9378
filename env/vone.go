package env

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"

	"github.com/optnet-sim/rmsa-rl/spectrum"
	"github.com/optnet-sim/rmsa-rl/topology"
	"github.com/optnet-sim/rmsa-rl/traffic"
	"github.com/optnet-sim/rmsa-rl/types"
)

// VoneRequest asks for a chain of virtual nodes with compute demands,
// connected by virtual links with bit-rates, to be embedded onto the
// physical network
type VoneRequest struct {
	ID          uint64
	Demands     []int
	BitRates    []float64
	ArrivalTime float64
	HoldingTime float64
}

func (r VoneRequest) DepartureTime() float64 {
	return r.ArrivalTime + r.HoldingTime
}

// VoneOption is one feasible next embedding move: a physical node for the
// next virtual node and, beyond the first stage, a path and slot block to
// its predecessor
type VoneOption struct {
	Node      int
	PathIndex int
	Path      topology.Path
	Format    Modulation
	Width     int
	Start     int
}

// EmbedAction commits a VoneOption
type EmbedAction struct {
	Option VoneOption
	Stage  int
}

var _ types.Action = &EmbedAction{}

func (a *EmbedAction) Hash() string {
	if a.Stage == 0 {
		return fmt.Sprintf("place-n%d", a.Option.Node)
	}
	return fmt.Sprintf("embed-n%d-p%d-s%d", a.Option.Node, a.Option.PathIndex, a.Option.Start)
}

// RejectAction abandons the whole request, rolling back partial placements
type RejectAction struct{}

var _ types.Action = &RejectAction{}

func (a *RejectAction) Hash() string {
	return "reject"
}

// VoneState is the embedding progress snapshot handed to policies
type VoneState struct {
	Request  VoneRequest
	Stage    int
	Placed   []int
	NodeFree []int
	Options  []VoneOption
	Table    *spectrum.Table

	EpisodeStats

	quant    int
	terminal bool
}

var (
	_ types.State   = &VoneState{}
	_ StatsProvider = &VoneState{}
)

func (s *VoneState) Stats() EpisodeStats {
	return s.EpisodeStats
}

func (s *VoneState) Actions() []types.Action {
	if s.terminal {
		return nil
	}
	if len(s.Options) == 0 {
		return []types.Action{&RejectAction{}}
	}
	actions := make([]types.Action, len(s.Options))
	for i := range s.Options {
		actions[i] = &EmbedAction{Option: s.Options[i], Stage: s.Stage}
	}
	return actions
}

func (s *VoneState) Hash() string {
	if s.terminal {
		return "terminal"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "v%d/%d", s.Stage, len(s.Request.Demands))
	for _, d := range s.Request.Demands[s.Stage:] {
		fmt.Fprintf(&b, "-%d", d)
	}
	minFree := -1
	for _, f := range s.NodeFree {
		if minFree < 0 || f < minFree {
			minFree = f
		}
	}
	fmt.Fprintf(&b, "|f%d|o%d", quantize(minFree, 2), quantize(len(s.Options), s.quant))
	return b.String()
}

// VoneEnv embeds virtual chain requests node by node. A request is accepted
// only when the whole chain is placed; any infeasible stage rejects it and
// rolls back what was held.
type VoneEnv struct {
	params Params
	paths  *topology.PathTable

	table      *spectrum.Table
	gen        *traffic.Generator
	rng        *rand.Rand
	departures *departureHeap
	nodeFree   []int

	stats    EpisodeStats
	current  VoneRequest
	stage    int
	placed   []int
	segments []segment
	held     []placement
	options  []VoneOption
	terminal bool
}

var _ types.Environment = &VoneEnv{}

func NewVoneEnv(params Params) (*VoneEnv, error) {
	if len(params.Formats) == 0 {
		params.Formats = DefaultModulations()
	}
	p, err := params.withDefaults()
	if err != nil {
		return nil, err
	}
	paths, err := topology.NewPathTable(p.Topology, p.K)
	if err != nil {
		return nil, fmt.Errorf("vone: %w", err)
	}
	return &VoneEnv{
		params: p,
		paths:  paths,
	}, nil
}

func (e *VoneEnv) Reset(eCtx *types.EpisodeContext) (types.State, error) {
	gen, err := traffic.NewGenerator(traffic.Config{
		NumNodes:        e.params.Topology.NumNodes,
		LoadErlang:      e.params.LoadErlang,
		MeanHoldingTime: e.params.MeanHoldingTime,
		BitRatesGbps:    e.params.BitRatesGbps,
		Incremental:     e.params.IncrementalLoading,
	}, uint64(eCtx.Seed))
	if err != nil {
		return nil, err
	}
	e.gen = gen
	e.rng = rand.New(rand.NewSource(uint64(eCtx.Seed) ^ 0x9e3779b97f4a7c15))
	e.table = spectrum.NewTable(len(e.params.Topology.Links), e.params.NumSlots)
	e.departures = newDepartureHeap()
	e.nodeFree = make([]int, e.params.Topology.NumNodes)
	for i := range e.nodeFree {
		e.nodeFree[i] = e.params.NodeCapacity
	}
	e.stats = EpisodeStats{}
	e.terminal = false

	e.nextRequest()
	return e.snapshot(), nil
}

func (e *VoneEnv) Step(action types.Action, sCtx *types.StepContext) (types.State, error) {
	if e.terminal {
		return nil, ErrEpisodeOver
	}

	switch a := action.(type) {
	case *EmbedAction:
		if err := e.embed(a.Option); err != nil {
			return nil, fmt.Errorf("step %d: %w", sCtx.Step, err)
		}
		if e.stage == len(e.current.Demands) {
			// chain complete
			e.accept(sCtx)
		} else {
			e.computeOptions()
		}
	case *RejectAction:
		e.rollback()
		e.reject(sCtx)
	default:
		return nil, fmt.Errorf("step %d: unknown action type %T", sCtx.Step, action)
	}

	return e.snapshot(), nil
}

func (e *VoneEnv) totalBitRate() float64 {
	total := 0.0
	for _, b := range e.current.BitRates {
		total += b
	}
	return total
}

func (e *VoneEnv) embed(opt VoneOption) error {
	demand := e.current.Demands[e.stage]
	if e.nodeFree[opt.Node] < demand {
		return fmt.Errorf("node %d has %d free units, need %d", opt.Node, e.nodeFree[opt.Node], demand)
	}
	if e.stage > 0 {
		if err := e.table.Occupy(opt.Path.Links, opt.Start, opt.Width); err != nil {
			return err
		}
		e.segments = append(e.segments, segment{links: opt.Path.Links, start: opt.Start, width: opt.Width})
	}
	e.nodeFree[opt.Node] -= demand
	e.held = append(e.held, placement{node: opt.Node, demand: demand})
	e.placed = append(e.placed, opt.Node)
	e.stage += 1
	return nil
}

func (e *VoneEnv) rollback() {
	for _, s := range e.segments {
		if err := e.table.Release(s.links, s.start, s.width); err != nil {
			panic(fmt.Sprintf("vone rollback: %v", err))
		}
	}
	for _, p := range e.held {
		e.nodeFree[p.node] += p.demand
	}
}

func (e *VoneEnv) accept(sCtx *types.StepContext) {
	bitrate := e.totalBitRate()
	e.stats.Accepted += 1
	e.stats.AcceptedGbps += bitrate
	sCtx.Reward = e.params.reward(bitrate, true)
	if !e.params.IncrementalLoading {
		segments := make([]segment, len(e.segments))
		copy(segments, e.segments)
		placements := make([]placement, len(e.held))
		copy(placements, e.held)
		e.departures.push(&departure{
			time:       e.current.DepartureTime(),
			segments:   segments,
			placements: placements,
		})
	}
	e.finishRequest()
}

func (e *VoneEnv) reject(sCtx *types.StepContext) {
	bitrate := e.totalBitRate()
	e.stats.Blocked += 1
	sCtx.Reward = e.params.reward(bitrate, false)
	if e.params.EndFirstBlocking {
		e.terminal = true
	}
	e.finishRequest()
}

func (e *VoneEnv) finishRequest() {
	e.stats.Requests += 1
	e.stats.OfferedGbps += e.totalBitRate()
	e.stats.Utilisation = e.table.Utilisation()
	e.stats.Fragmentation = e.table.FragmentationIndex()
	e.stats.Clock = e.current.ArrivalTime

	if e.stats.Requests >= e.params.RequestsPerEpisode {
		e.terminal = true
	}
	if !e.terminal {
		e.nextRequest()
	}
}

func (e *VoneEnv) nextRequest() {
	base := e.gen.Next()
	for {
		d, ok := e.departures.popDue(base.ArrivalTime)
		if !ok {
			break
		}
		for _, s := range d.segments {
			if err := e.table.Release(s.links, s.start, s.width); err != nil {
				panic(fmt.Sprintf("vone departure: %v", err))
			}
		}
		for _, p := range d.placements {
			e.nodeFree[p.node] += p.demand
		}
	}

	n := e.params.VirtualNodesMin
	if e.params.VirtualNodesMax > e.params.VirtualNodesMin {
		n += e.rng.Intn(e.params.VirtualNodesMax - e.params.VirtualNodesMin + 1)
	}
	demands := make([]int, n)
	for i := range demands {
		demands[i] = e.params.VirtualDemands[e.rng.Intn(len(e.params.VirtualDemands))]
	}
	bitrates := make([]float64, n-1)
	for i := range bitrates {
		bitrates[i] = e.params.BitRatesGbps[e.rng.Intn(len(e.params.BitRatesGbps))]
	}
	e.current = VoneRequest{
		ID:          base.ID,
		Demands:     demands,
		BitRates:    bitrates,
		ArrivalTime: base.ArrivalTime,
		HoldingTime: base.HoldingTime,
	}
	e.stage = 0
	e.placed = e.placed[:0]
	e.segments = e.segments[:0]
	e.held = e.held[:0]
	e.computeOptions()
}

func (e *VoneEnv) isPlaced(node int) bool {
	for _, p := range e.placed {
		if p == node {
			return true
		}
	}
	return false
}

func (e *VoneEnv) computeOptions() {
	e.options = e.options[:0]
	demand := e.current.Demands[e.stage]

	for node := 0; node < e.params.Topology.NumNodes; node++ {
		if e.isPlaced(node) || e.nodeFree[node] < demand {
			continue
		}
		if e.stage == 0 {
			e.options = append(e.options, VoneOption{Node: node})
			continue
		}
		prev := e.placed[e.stage-1]
		bitrate := e.current.BitRates[e.stage-1]
		for i, p := range e.paths.Paths(prev, node) {
			format, ok := BestFormat(e.params.Formats, p.LengthKM)
			if !ok {
				continue
			}
			width := RequiredSlots(bitrate, format.BitsPerSymbol, e.params.SlotWidthGHz)
			start, found := e.table.FindBlock(p.Links, width, spectrum.FirstFit)
			if !found {
				continue
			}
			e.options = append(e.options, VoneOption{
				Node:      node,
				PathIndex: i,
				Path:      p,
				Format:    format,
				Width:     width,
				Start:     start,
			})
		}
	}
}

func (e *VoneEnv) snapshot() *VoneState {
	options := make([]VoneOption, len(e.options))
	copy(options, e.options)
	placed := make([]int, len(e.placed))
	copy(placed, e.placed)
	nodeFree := make([]int, len(e.nodeFree))
	copy(nodeFree, e.nodeFree)
	return &VoneState{
		Request:      e.current,
		Stage:        e.stage,
		Placed:       placed,
		NodeFree:     nodeFree,
		Options:      options,
		Table:        e.table.Clone(),
		EpisodeStats: e.stats,
		quant:        e.params.StateQuantization,
		terminal:     e.terminal,
	}
}
