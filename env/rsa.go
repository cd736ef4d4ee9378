package env

import (
	"errors"
	"fmt"

	"github.com/optnet-sim/rmsa-rl/spectrum"
	"github.com/optnet-sim/rmsa-rl/topology"
	"github.com/optnet-sim/rmsa-rl/traffic"
	"github.com/optnet-sim/rmsa-rl/types"
)

var ErrEpisodeOver = errors.New("episode is over")

// Env simulates dynamic lightpath requests over a shared spectrum grid.
// Depending on the modulation table it behaves as plain RSA (fixed
// efficiency) or RMSA (reach-dependent format selection).
type Env struct {
	params Params
	paths  *topology.PathTable

	table      *spectrum.Table
	gen        *traffic.Generator
	departures *departureHeap

	stats    EpisodeStats
	current  traffic.Request
	options  []AllocOption
	features []PathFeature
	terminal bool
}

var _ types.Environment = &Env{}

// NewRSAEnv builds a routing and spectrum assignment environment with a
// single fixed-efficiency format
func NewRSAEnv(params Params) (*Env, error) {
	params.Formats = FixedModulation()
	return newEnv(params)
}

// NewRMSAEnv builds a routing, modulation and spectrum assignment
// environment: the format is chosen per path by transparent reach
func NewRMSAEnv(params Params) (*Env, error) {
	if len(params.Formats) == 0 {
		params.Formats = DefaultModulations()
	}
	return newEnv(params)
}

// NewDeepRMSAEnv is RMSA with a warm-up phase so episodes start from a
// loaded network, matching the DeepRMSA training setup
func NewDeepRMSAEnv(params Params) (*Env, error) {
	if params.WarmupRequests <= 0 {
		params.WarmupRequests = 100
	}
	return NewRMSAEnv(params)
}

func newEnv(params Params) (*Env, error) {
	p, err := params.withDefaults()
	if err != nil {
		return nil, err
	}
	paths, err := topology.NewPathTable(p.Topology, p.K)
	if err != nil {
		return nil, fmt.Errorf("env: %w", err)
	}
	return &Env{
		params: p,
		paths:  paths,
	}, nil
}

// PathTable exposes the precomputed candidate paths (shared with bounds
// estimation and tests)
func (e *Env) PathTable() *topology.PathTable {
	return e.paths
}

func (e *Env) Reset(eCtx *types.EpisodeContext) (types.State, error) {
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
	e.table = spectrum.NewTable(len(e.params.Topology.Links), e.params.NumSlots)
	e.departures = newDepartureHeap()
	e.stats = EpisodeStats{}
	e.terminal = false

	// fill the network first-fit before the episode starts counting
	for i := 0; i < e.params.WarmupRequests; i++ {
		e.advance()
		if len(e.options) == 0 {
			continue
		}
		opt := e.options[0]
		if err := e.allocate(opt); err != nil {
			return nil, fmt.Errorf("warmup: %w", err)
		}
	}

	e.advance()
	return e.snapshot(), nil
}

func (e *Env) Step(action types.Action, sCtx *types.StepContext) (types.State, error) {
	if e.terminal {
		return nil, ErrEpisodeOver
	}

	switch a := action.(type) {
	case *AllocateAction:
		if err := e.allocate(a.Option); err != nil {
			return nil, fmt.Errorf("step %d: %w", sCtx.Step, err)
		}
		e.stats.Accepted += 1
		e.stats.AcceptedGbps += e.current.BitRateGbps
		sCtx.Reward = e.params.reward(e.current.BitRateGbps, true)
	case *BlockAction:
		e.stats.Blocked += 1
		sCtx.Reward = e.params.reward(e.current.BitRateGbps, false)
		if e.params.EndFirstBlocking {
			e.terminal = true
		}
	default:
		return nil, fmt.Errorf("step %d: unknown action type %T", sCtx.Step, action)
	}

	e.stats.Requests += 1
	e.stats.OfferedGbps += e.current.BitRateGbps
	e.stats.Utilisation = e.table.Utilisation()
	e.stats.Fragmentation = e.table.FragmentationIndex()
	e.stats.Clock = e.current.ArrivalTime

	if e.stats.Requests >= e.params.RequestsPerEpisode {
		e.terminal = true
	}
	if !e.terminal {
		e.advance()
	}
	return e.snapshot(), nil
}

func (e *Env) allocate(opt AllocOption) error {
	if err := e.table.Occupy(opt.Path.Links, opt.Start, opt.Width); err != nil {
		return err
	}
	if !e.params.IncrementalLoading {
		e.departures.push(&departure{
			time:  e.current.DepartureTime(),
			links: opt.Path.Links,
			start: opt.Start,
			width: opt.Width,
		})
	}
	return nil
}

// advance draws the next request and releases every service departing
// before it arrives
func (e *Env) advance() {
	e.current = e.gen.Next()
	for {
		d, ok := e.departures.popDue(e.current.ArrivalTime)
		if !ok {
			break
		}
		// release errors indicate a bookkeeping bug, surface loudly
		if err := e.table.Release(d.links, d.start, d.width); err != nil {
			panic(fmt.Sprintf("departure release: %v", err))
		}
	}
	e.computeOptions()
}

// computeOptions enumerates the feasible assignments of the current
// request: for each candidate path, the first-fit start of every free block
// that fits
func (e *Env) computeOptions() {
	paths := e.paths.Paths(e.current.Source, e.current.Dest)
	e.options = e.options[:0]
	e.features = make([]PathFeature, 0, len(paths))

	for i, p := range paths {
		feature := PathFeature{FirstFit: -1}
		format, ok := BestFormat(e.params.Formats, p.LengthKM)
		if !ok {
			e.features = append(e.features, feature)
			continue
		}
		width := RequiredSlots(e.current.BitRateGbps, format.BitsPerSymbol, e.params.SlotWidthGHz)
		feature.Width = width

		blocks := e.table.FreeBlocks(p.Links)
		feature.Blocks = len(blocks)
		for _, b := range blocks {
			feature.FreeSlots += b.Size
			if b.Size >= width {
				if feature.FirstFit < 0 {
					feature.FirstFit = b.Start
				}
				e.options = append(e.options, AllocOption{
					PathIndex: i,
					Path:      p,
					Format:    format,
					Width:     width,
					Start:     b.Start,
					BlockSize: b.Size,
				})
			}
		}
		e.features = append(e.features, feature)
	}
}

func (e *Env) snapshot() *NetworkState {
	options := make([]AllocOption, len(e.options))
	copy(options, e.options)
	features := make([]PathFeature, len(e.features))
	copy(features, e.features)
	return &NetworkState{
		Request:      e.current,
		Options:      options,
		Features:     features,
		Table:        e.table.Clone(),
		EpisodeStats: e.stats,
		quant:        e.params.StateQuantization,
		terminal:     e.terminal,
	}
}
