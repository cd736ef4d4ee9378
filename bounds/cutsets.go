// Package bounds estimates network capacity upper bounds from cut-set
// congestion: every partition of the nodes must carry its cross traffic
// over the links it cuts, so the heaviest cut limits the admissible load.
package bounds

import (
	"fmt"
	"math"
	"sort"

	"github.com/optnet-sim/rmsa-rl/env"
	"github.com/optnet-sim/rmsa-rl/topology"
	"github.com/optnet-sim/rmsa-rl/traffic"
)

// exhaustive enumeration scans 2^(n-1) partitions
const maxExhaustiveNodes = 20

// CutSet is one node bipartition with its congestion level: the traffic
// crossing the cut divided by the number of cut links
type CutSet struct {
	Congestion float64
	Partition  []int
	Links      []int
}

// WeightedTrafficMatrix weights each node pair by the inverse spectral
// efficiency of its shortest path, so distant pairs that need more slots
// per bit count for more
func WeightedTrafficMatrix(paths *topology.PathTable, formats []env.Modulation) ([][]float64, error) {
	n := paths.Topo.NumNodes
	matrix := make([][]float64, n)
	for s := range matrix {
		matrix[s] = make([]float64, n)
		for d := 0; d < n; d++ {
			if s == d {
				continue
			}
			candidates := paths.Paths(s, d)
			if len(candidates) == 0 {
				return nil, fmt.Errorf("no path between %d and %d", s, d)
			}
			format, ok := env.BestFormat(formats, candidates[0].LengthKM)
			if !ok {
				// beyond every format's reach, assume the least efficient
				format = formats[0]
				for _, f := range formats {
					if f.BitsPerSymbol < format.BitsPerSymbol {
						format = f
					}
				}
			}
			matrix[s][d] = 1 / format.BitsPerSymbol
		}
	}
	return traffic.Normalise(matrix), nil
}

// HeaviestCuts enumerates every node bipartition where both sides stay
// connected and returns the topK most congested cuts, heaviest first.
// Fixing node 0 on one side halves the enumeration since complements
// describe the same cut.
func HeaviestCuts(topo *topology.Topology, demand [][]float64, topK int) ([]CutSet, error) {
	n := topo.NumNodes
	if n > maxExhaustiveNodes {
		return nil, fmt.Errorf("topology has %d nodes, exhaustive enumeration is capped at %d", n, maxExhaustiveNodes)
	}
	if topK <= 0 {
		topK = 10
	}

	var cuts []CutSet
	for mask := uint32(1); mask < uint32(1)<<(n-1); mask++ {
		// node 0 is always on the complement side
		partition := make([]bool, n)
		for i := 1; i < n; i++ {
			if mask&(1<<(i-1)) != 0 {
				partition[i] = true
			}
		}

		cutLinks := cutLinks(topo, partition)
		if len(cutLinks) == 0 {
			continue
		}
		if !bothSidesConnected(topo, partition, cutLinks) {
			continue
		}

		congestion := crossTraffic(demand, partition) / float64(len(cutLinks))
		nodes := make([]int, 0, n)
		for i, in := range partition {
			if in {
				nodes = append(nodes, i)
			}
		}
		cuts = append(cuts, CutSet{
			Congestion: congestion,
			Partition:  nodes,
			Links:      cutLinks,
		})
	}

	sort.Slice(cuts, func(i, j int) bool {
		return cuts[i].Congestion > cuts[j].Congestion
	})
	if len(cuts) > topK {
		cuts = cuts[:topK]
	}
	return cuts, nil
}

func cutLinks(topo *topology.Topology, partition []bool) []int {
	var links []int
	for i, l := range topo.Links {
		if partition[l.From] != partition[l.To] {
			links = append(links, i)
		}
	}
	return links
}

// bothSidesConnected checks that removing the cut leaves each partition
// internally connected, discarding degenerate cuts
func bothSidesConnected(topo *topology.Topology, partition []bool, cut []int) bool {
	cutSet := make(map[int]bool, len(cut))
	for _, l := range cut {
		cutSet[l] = true
	}
	return sideConnected(topo, partition, cutSet, true) &&
		sideConnected(topo, partition, cutSet, false)
}

func sideConnected(topo *topology.Topology, partition []bool, cut map[int]bool, side bool) bool {
	start := -1
	count := 0
	for i := 0; i < topo.NumNodes; i++ {
		if partition[i] == side {
			count++
			if start < 0 {
				start = i
			}
		}
	}
	if count <= 1 {
		return true
	}

	visited := make([]bool, topo.NumNodes)
	visited[start] = true
	queue := []int{start}
	reached := 1
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, li := range topo.AdjacentLinks(u) {
			if cut[li] {
				continue
			}
			l := topo.Links[li]
			v := l.From
			if v == u {
				v = l.To
			}
			if partition[v] != side || visited[v] {
				continue
			}
			visited[v] = true
			reached++
			queue = append(queue, v)
		}
	}
	return reached == count
}

func crossTraffic(demand [][]float64, partition []bool) float64 {
	total := 0.0
	for s, row := range demand {
		for d, v := range row {
			if partition[s] != partition[d] {
				total += v
			}
		}
	}
	return total
}

// CapacityBound converts the heaviest cut congestion into the maximum
// uniform load the network can admit: with numSlots per link, the cut's
// links saturate once the offered normalised traffic exceeds slots/congestion
func CapacityBound(cuts []CutSet, numSlots int) (float64, error) {
	if len(cuts) == 0 {
		return 0, fmt.Errorf("no cut sets")
	}
	heaviest := cuts[0].Congestion
	if heaviest == 0 {
		return math.Inf(1), nil
	}
	return float64(numSlots) / heaviest, nil
}
