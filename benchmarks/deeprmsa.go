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

// DeepRMSA runs the RMSA comparison with warm-started episodes: the grid is
// filled first-fit before the episode begins so policies learn on a loaded
// network rather than an empty one
func DeepRMSA(ctx context.Context, warmup int) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}
	params := envParams(topo)
	params.WarmupRequests = warmup

	factory := func(replica int) types.Environment {
		e, err := env.NewDeepRMSAEnv(params)
		if err != nil {
			panic(fmt.Sprintf("deeprmsa env: %v", err))
		}
		return e
	}
	if _, err := env.NewDeepRMSAEnv(params); err != nil {
		return err
	}

	c := newComparison()
	stop := startMonitor(c)
	defer stop()

	addExperiment(c, "KSP-FF", heuristics.NewKSPFirstFit(), factory)
	addExperiment(c, "EGreedy", policies.NewEpsilonGreedyPolicy(0.1, 0.99, 0.05), factory)
	addExperiment(c, "SoftMax", policies.NewSoftMaxPolicy(0.1, 0.99, 1), factory)
	addExperiment(c, "Bonus", policies.NewBonusGreedyPolicy(0.1, 0.99, 0.02), factory)

	c.Run(ctx)
	return nil
}

func DeepRMSACommand() *cobra.Command {
	var warmup int

	cmd := &cobra.Command{
		Use:  "deeprmsa",
		Long: "RMSA with warm-started episodes on a loaded network",
		RunE: func(cmd *cobra.Command, args []string) error {
			return DeepRMSA(context.Background(), warmup)
		},
	}
	cmd.PersistentFlags().IntVar(&warmup, "warmup", 100, "Requests allocated first-fit before each episode")
	return cmd
}
