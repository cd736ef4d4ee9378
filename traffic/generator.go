package traffic

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Request is one connection demand offered to the network
type Request struct {
	ID          uint64
	Source      int
	Dest        int
	BitRateGbps float64
	ArrivalTime float64
	HoldingTime float64
}

func (r Request) DepartureTime() float64 {
	return r.ArrivalTime + r.HoldingTime
}

// Config of the dynamic traffic process. Arrivals are Poisson with rate
// load/holding so that the offered load in Erlang matches LoadErlang.
type Config struct {
	NumNodes        int
	LoadErlang      float64
	MeanHoldingTime float64
	// BitRatesGbps is the discrete set of requestable bit-rates.
	// Weights are uniform unless BitRateWeights is set.
	BitRatesGbps   []float64
	BitRateWeights []float64
	// Matrix optionally weights source/destination pair selection.
	// Uniform over ordered pairs when nil.
	Matrix [][]float64
	// Incremental requests never depart (network fill-up studies)
	Incremental bool
}

func DefaultBitRates() []float64 {
	return []float64{25, 50, 100, 200, 400}
}

// Generator produces a deterministic request sequence for a given seed
type Generator struct {
	cfg Config
	rng *rand.Rand

	interarrival distuv.Exponential
	holding      distuv.Exponential

	pairWeights []float64
	clock       float64
	nextID      uint64
}

func NewGenerator(cfg Config, seed uint64) (*Generator, error) {
	if cfg.NumNodes < 2 {
		return nil, fmt.Errorf("traffic: need at least 2 nodes, got %d", cfg.NumNodes)
	}
	if cfg.LoadErlang <= 0 {
		return nil, fmt.Errorf("traffic: load must be positive, got %f", cfg.LoadErlang)
	}
	if cfg.MeanHoldingTime <= 0 {
		return nil, fmt.Errorf("traffic: mean holding time must be positive, got %f", cfg.MeanHoldingTime)
	}
	if len(cfg.BitRatesGbps) == 0 {
		cfg.BitRatesGbps = DefaultBitRates()
	}
	if cfg.BitRateWeights != nil && len(cfg.BitRateWeights) != len(cfg.BitRatesGbps) {
		return nil, fmt.Errorf("traffic: %d bit-rate weights for %d bit-rates",
			len(cfg.BitRateWeights), len(cfg.BitRatesGbps))
	}

	var pairWeights []float64
	if cfg.Matrix != nil {
		if len(cfg.Matrix) != cfg.NumNodes {
			return nil, fmt.Errorf("traffic: matrix has %d rows for %d nodes", len(cfg.Matrix), cfg.NumNodes)
		}
		pairWeights = make([]float64, cfg.NumNodes*cfg.NumNodes)
		for s := range cfg.Matrix {
			if len(cfg.Matrix[s]) != cfg.NumNodes {
				return nil, fmt.Errorf("traffic: matrix row %d has %d columns for %d nodes", s, len(cfg.Matrix[s]), cfg.NumNodes)
			}
			for d, w := range cfg.Matrix[s] {
				if s == d {
					continue
				}
				if w < 0 {
					return nil, fmt.Errorf("traffic: negative matrix weight at (%d,%d)", s, d)
				}
				pairWeights[s*cfg.NumNodes+d] = w
			}
		}
	}

	src := rand.NewSource(seed)
	rng := rand.New(src)
	return &Generator{
		cfg: cfg,
		rng: rng,
		interarrival: distuv.Exponential{
			Rate: cfg.LoadErlang / cfg.MeanHoldingTime,
			Src:  rng,
		},
		holding: distuv.Exponential{
			Rate: 1 / cfg.MeanHoldingTime,
			Src:  rng,
		},
		pairWeights: pairWeights,
	}, nil
}

// Next returns the next request of the arrival process
func (g *Generator) Next() Request {
	g.clock += g.interarrival.Rand()
	g.nextID += 1

	source, dest := g.samplePair()
	holding := g.holding.Rand()
	if g.cfg.Incremental {
		holding = math.Inf(1)
	}
	return Request{
		ID:          g.nextID,
		Source:      source,
		Dest:        dest,
		BitRateGbps: g.sampleBitRate(),
		ArrivalTime: g.clock,
		HoldingTime: holding,
	}
}

// Clock is the arrival time of the last generated request
func (g *Generator) Clock() float64 {
	return g.clock
}

func (g *Generator) samplePair() (int, int) {
	n := g.cfg.NumNodes
	if g.pairWeights == nil {
		source := g.rng.Intn(n)
		dest := g.rng.Intn(n - 1)
		if dest >= source {
			dest += 1
		}
		return source, dest
	}
	i, ok := sampleuv.NewWeighted(g.pairWeights, g.rng).Take()
	if !ok {
		// all-zero matrix, fall back to uniform
		source := g.rng.Intn(n)
		dest := g.rng.Intn(n - 1)
		if dest >= source {
			dest += 1
		}
		return source, dest
	}
	return i / n, i % n
}

func (g *Generator) sampleBitRate() float64 {
	rates := g.cfg.BitRatesGbps
	if g.cfg.BitRateWeights == nil {
		return rates[g.rng.Intn(len(rates))]
	}
	i, ok := sampleuv.NewWeighted(g.cfg.BitRateWeights, g.rng).Take()
	if !ok {
		return rates[g.rng.Intn(len(rates))]
	}
	return rates[i]
}
