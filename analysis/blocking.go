// Package analysis turns episode traces into blocking-probability and
// coverage datasets and renders the cross-experiment comparisons.
package analysis

import (
	"fmt"
	"sync"

	"github.com/optnet-sim/rmsa-rl/env"
	"github.com/optnet-sim/rmsa-rl/types"
)

// EpisodeResult is the per-episode record collected by BlockingAnalyzer
type EpisodeResult struct {
	Episode         int
	Requests        int
	ServiceBlocking float64
	BitrateBlocking float64
	TotalReward     float64
	Utilisation     float64
	Fragmentation   float64
	AcceptedGbps    float64
	OfferedGbps     float64
}

// BlockingAnalyzer reads the episode counters off the final state of each
// trace. Safe for concurrent Analyze calls from vectorized runs.
type BlockingAnalyzer struct {
	lock    *sync.Mutex
	results map[int]EpisodeResult
}

var _ types.Analyzer = &BlockingAnalyzer{}

func NewBlockingAnalyzer() *BlockingAnalyzer {
	return &BlockingAnalyzer{
		lock:    new(sync.Mutex),
		results: make(map[int]EpisodeResult),
	}
}

func (b *BlockingAnalyzer) Analyze(run, episode int, experiment string, trace *types.Trace) {
	_, _, _, final, ok := trace.Last()
	if !ok {
		return
	}
	provider, ok := final.(env.StatsProvider)
	if !ok {
		return
	}
	stats := provider.Stats()
	result := EpisodeResult{
		Episode:         episode,
		Requests:        stats.Requests,
		ServiceBlocking: stats.ServiceBlockingProb(),
		BitrateBlocking: stats.BitrateBlockingProb(),
		TotalReward:     trace.TotalReward(),
		Utilisation:     stats.Utilisation,
		Fragmentation:   stats.Fragmentation,
		AcceptedGbps:    stats.AcceptedGbps,
		OfferedGbps:     stats.OfferedGbps,
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	b.results[episode] = result
}

// DataSet returns the results ordered by episode; episodes that produced no
// trace are filled with a zero record to keep indices aligned
func (b *BlockingAnalyzer) DataSet() types.DataSet {
	b.lock.Lock()
	defer b.lock.Unlock()

	maxEpisode := -1
	for e := range b.results {
		if e > maxEpisode {
			maxEpisode = e
		}
	}
	ordered := make([]EpisodeResult, maxEpisode+1)
	for e, r := range b.results {
		ordered[e] = r
	}
	return ordered
}

func (b *BlockingAnalyzer) Reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.results = make(map[int]EpisodeResult)
}

// Summary averages the service blocking probability over the last window
// episodes of a dataset
func Summary(results []EpisodeResult, window int) (float64, error) {
	if len(results) == 0 {
		return 0, fmt.Errorf("empty dataset")
	}
	if window <= 0 || window > len(results) {
		window = len(results)
	}
	total := 0.0
	for _, r := range results[len(results)-window:] {
		total += r.ServiceBlocking
	}
	return total / float64(window), nil
}
