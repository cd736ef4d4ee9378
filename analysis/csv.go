package analysis

import (
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/optnet-sim/rmsa-rl/types"
)

// CSVComparator exports the per-episode records of every experiment to one
// CSV file per run, for offline analysis
func CSVComparator(savePath string) types.Comparator {
	if _, err := os.Stat(savePath); err != nil {
		os.MkdirAll(savePath, os.ModePerm)
	}
	return func(run, episodes int, names []string, datasets []types.DataSet) {
		file := path.Join(savePath, strconv.Itoa(run)+"_episodes.csv")
		f, err := os.Create(file)
		if err != nil {
			fmt.Printf("failed to create %s: %v\n", file, err)
			return
		}
		defer f.Close()

		w := csv.NewWriter(f)
		defer w.Flush()

		w.Write([]string{
			"experiment", "episode", "requests",
			"service_blocking", "bitrate_blocking",
			"total_reward", "utilisation", "fragmentation",
			"accepted_gbps", "offered_gbps",
		})
		for i, name := range names {
			results, ok := datasets[i].([]EpisodeResult)
			if !ok {
				continue
			}
			for _, r := range results {
				w.Write([]string{
					name,
					strconv.Itoa(r.Episode),
					strconv.Itoa(r.Requests),
					strconv.FormatFloat(r.ServiceBlocking, 'f', 6, 64),
					strconv.FormatFloat(r.BitrateBlocking, 'f', 6, 64),
					strconv.FormatFloat(r.TotalReward, 'f', 4, 64),
					strconv.FormatFloat(r.Utilisation, 'f', 6, 64),
					strconv.FormatFloat(r.Fragmentation, 'f', 6, 64),
					strconv.FormatFloat(r.AcceptedGbps, 'f', 2, 64),
					strconv.FormatFloat(r.OfferedGbps, 'f', 2, 64),
				})
			}
		}
	}
}
