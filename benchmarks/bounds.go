package benchmarks

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/optnet-sim/rmsa-rl/bounds"
	"github.com/optnet-sim/rmsa-rl/env"
	"github.com/optnet-sim/rmsa-rl/topology"
	"github.com/optnet-sim/rmsa-rl/traffic"
)

// Bounds prints the heaviest cut-sets of the topology and the capacity
// bound they imply. With uniform set, every node pair counts equally
// instead of being weighted by the spectral efficiency of its shortest path.
func Bounds(topK int, uniform bool) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}

	var matrix [][]float64
	if uniform {
		matrix = traffic.Normalise(traffic.UniformMatrix(topo.NumNodes))
	} else {
		paths, err := topology.NewPathTable(topo, kPaths)
		if err != nil {
			return err
		}
		matrix, err = bounds.WeightedTrafficMatrix(paths, env.DefaultModulations())
		if err != nil {
			return err
		}
	}
	cuts, err := bounds.HeaviestCuts(topo, matrix, topK)
	if err != nil {
		return err
	}

	fmt.Printf("Topology: %s (%d nodes, %d links)\n", topo.Name, topo.NumNodes, len(topo.Links))
	fmt.Println("Heaviest cut-sets:")
	for _, cut := range cuts {
		links := make([]string, len(cut.Links))
		for i, li := range cut.Links {
			l := topo.Links[li]
			links[i] = fmt.Sprintf("%d-%d", l.From, l.To)
		}
		fmt.Printf("congestion=%.6f partition=%v cut=[%s]\n",
			cut.Congestion, cut.Partition, strings.Join(links, " "))
	}

	bound, err := bounds.CapacityBound(cuts, numSlots)
	if err != nil {
		return err
	}
	fmt.Printf("Capacity bound with %d slots per link: %.2f normalised traffic units\n", numSlots, bound)
	return nil
}

func BoundsCommand() *cobra.Command {
	var topK int
	var uniform bool

	cmd := &cobra.Command{
		Use:  "bounds",
		Long: "Estimate capacity upper bounds from cut-set congestion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Bounds(topK, uniform)
		},
	}
	cmd.PersistentFlags().IntVar(&topK, "top", 10, "Number of heaviest cut-sets to report")
	cmd.PersistentFlags().BoolVar(&uniform, "uniform", false, "Weigh every node pair equally instead of by spectral efficiency")
	return cmd
}
