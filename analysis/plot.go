package analysis

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/optnet-sim/rmsa-rl/types"
)

// movingAverage smooths a series with a trailing window
func movingAverage(values []float64, window int) []float64 {
	if window <= 1 {
		return values
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
			out[i] = sum / float64(window)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}

// BlockingPlotter renders the moving-average service blocking probability
// of every experiment on one canvas
func BlockingPlotter(plotPath string, window int) types.Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run, episodes int, names []string, datasets []types.DataSet) {
		p := plot.New()
		p.Title.Text = "Service blocking probability"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "Blocking probability"
		for i := 0; i < len(names); i++ {
			results, ok := datasets[i].([]EpisodeResult)
			if !ok || len(results) == 0 {
				continue
			}
			series := make([]float64, len(results))
			for j, r := range results {
				series[j] = r.ServiceBlocking
			}
			series = movingAverage(series, window)
			points := make(plotter.XYs, len(series))
			for j, v := range series {
				points[j] = plotter.XY{X: float64(j), Y: v}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
			last := results[len(results)-1]
			fmt.Printf("Final blocking: service=%.4f bitrate=%.4f for benchmark: %s\n",
				last.ServiceBlocking, last.BitrateBlocking, names[i])
		}
		p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_blocking.png"))
	}
}

// RewardPlotter renders the moving-average episode reward of every
// experiment on one canvas
func RewardPlotter(plotPath string, window int) types.Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run, episodes int, names []string, datasets []types.DataSet) {
		p := plot.New()
		p.Title.Text = "Episode reward"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "Total reward"
		for i := 0; i < len(names); i++ {
			results, ok := datasets[i].([]EpisodeResult)
			if !ok || len(results) == 0 {
				continue
			}
			series := make([]float64, len(results))
			for j, r := range results {
				series[j] = r.TotalReward
			}
			series = movingAverage(series, window)
			points := make(plotter.XYs, len(series))
			for j, v := range series {
				points[j] = plotter.XY{X: float64(j), Y: v}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
		}
		p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_reward.png"))
	}
}
