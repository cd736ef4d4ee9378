package benchmarks

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optnet-sim/rmsa-rl/env"
	"github.com/optnet-sim/rmsa-rl/heuristics"
	"github.com/optnet-sim/rmsa-rl/policies"
	"github.com/optnet-sim/rmsa-rl/types"
)

// chainHorizon stretches the horizon to cover one decision per virtual node
// of every request, so episodes end on the request budget rather than the
// step budget
func chainHorizon(horizon, requests, vMax int) int {
	if need := requests * vMax; horizon < need {
		return need
	}
	return horizon
}

// Vone compares embedding policies on virtual optical network chains. A
// request takes one decision per virtual node, so the horizon must cover
// requests x chain length.
func Vone(ctx context.Context, nodeCapacity, vMin, vMax int) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}
	horizon = chainHorizon(horizon, requests, vMax)
	params := envParams(topo)
	params.NodeCapacity = nodeCapacity
	params.VirtualNodesMin = vMin
	params.VirtualNodesMax = vMax

	factory := func(replica int) types.Environment {
		e, err := env.NewVoneEnv(params)
		if err != nil {
			panic(fmt.Sprintf("vone env: %v", err))
		}
		return e
	}
	if _, err := env.NewVoneEnv(params); err != nil {
		return err
	}

	c := newComparison()
	stop := startMonitor(c)
	defer stop()

	addExperiment(c, "Random", types.NewRandomPolicy(), factory)
	addExperiment(c, "Greedy", heuristics.NewVoneGreedy(), factory)
	addExperiment(c, "EGreedy", policies.NewEpsilonGreedyPolicy(0.1, 0.99, 0.05), factory)
	addExperiment(c, "Bonus", policies.NewBonusGreedyPolicy(0.1, 0.99, 0.02), factory)

	c.Run(ctx)
	return nil
}

func VoneCommand() *cobra.Command {
	var nodeCapacity int
	var vMin int
	var vMax int

	cmd := &cobra.Command{
		Use:  "vone",
		Long: "Compare policies on virtual optical network embedding",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Vone(context.Background(), nodeCapacity, vMin, vMax)
		},
	}
	cmd.PersistentFlags().IntVar(&nodeCapacity, "node-capacity", 20, "Compute units per physical node")
	cmd.PersistentFlags().IntVar(&vMin, "vnodes-min", 2, "Minimum virtual nodes per request")
	cmd.PersistentFlags().IntVar(&vMax, "vnodes-max", 4, "Maximum virtual nodes per request")
	return cmd
}
