package analysis

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/optnet-sim/rmsa-rl/types"
)

// CoverageAnalyzer counts unique hashed states seen across episodes. Safe
// for concurrent Analyze calls; the per-episode curve is assembled in
// episode order when DataSet is read.
type CoverageAnalyzer struct {
	lock         *sync.Mutex
	uniqueStates map[string]bool
	perEpisode   map[int]int
}

var _ types.Analyzer = &CoverageAnalyzer{}

func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{
		lock:         new(sync.Mutex),
		uniqueStates: make(map[string]bool),
		perEpisode:   make(map[int]int),
	}
}

func (c *CoverageAnalyzer) Analyze(run, episode int, experiment string, trace *types.Trace) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for j := 0; j < trace.Len(); j++ {
		s, _, _, _, ok := trace.Get(j)
		if !ok {
			continue
		}
		c.uniqueStates[s.Hash()] = true
	}
	c.perEpisode[episode] = len(c.uniqueStates)
}

func (c *CoverageAnalyzer) DataSet() types.DataSet {
	c.lock.Lock()
	defer c.lock.Unlock()

	maxEpisode := -1
	for e := range c.perEpisode {
		if e > maxEpisode {
			maxEpisode = e
		}
	}
	curve := make([]int, maxEpisode+1)
	last := 0
	for e := 0; e <= maxEpisode; e++ {
		if v, ok := c.perEpisode[e]; ok {
			last = v
		}
		curve[e] = last
	}
	return curve
}

func (c *CoverageAnalyzer) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.uniqueStates = make(map[string]bool)
	c.perEpisode = make(map[int]int)
}

// CoveragePlotter renders the unique-state curves of every experiment
func CoveragePlotter(plotPath string) types.Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run, episodes int, names []string, datasets []types.DataSet) {
		p := plot.New()
		p.Title.Text = "State coverage"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "States covered"
		for i := 0; i < len(names); i++ {
			curve, ok := datasets[i].([]int)
			if !ok || len(curve) == 0 {
				continue
			}
			points := make(plotter.XYs, len(curve))
			for j, v := range curve {
				points[j] = plotter.XY{X: float64(j), Y: float64(v)}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
			fmt.Printf("Number of unique states: %d for benchmark: %s\n", curve[len(curve)-1], names[i])
		}
		p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_coverage.png"))
	}
}
