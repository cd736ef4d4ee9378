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

// RMSA adds reach-dependent modulation selection: longer candidate paths
// need more slots for the same bit-rate
func RMSA(ctx context.Context, bitrateReward bool) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}
	params := envParams(topo)
	if bitrateReward {
		params.RewardType = env.BitrateReward
	}

	factory := func(replica int) types.Environment {
		e, err := env.NewRMSAEnv(params)
		if err != nil {
			panic(fmt.Sprintf("rmsa env: %v", err))
		}
		return e
	}
	if _, err := env.NewRMSAEnv(params); err != nil {
		return err
	}

	c := newComparison()
	stop := startMonitor(c)
	defer stop()

	addExperiment(c, "Random", types.NewRandomPolicy(), factory)
	addExperiment(c, "KSP-FF", heuristics.NewKSPFirstFit(), factory)
	addExperiment(c, "KSP-BF", heuristics.NewKSPBestFit(), factory)
	addExperiment(c, "EGreedy", policies.NewEpsilonGreedyPolicy(0.1, 0.99, 0.05), factory)
	addExperiment(c, "SoftMax", policies.NewSoftMaxPolicy(0.1, 0.99, 1), factory)
	addExperiment(c, "Bonus", policies.NewBonusGreedyPolicy(0.1, 0.99, 0.02), factory)

	c.Run(ctx)
	return nil
}

func RMSACommand() *cobra.Command {
	var bitrateReward bool

	cmd := &cobra.Command{
		Use:  "rmsa",
		Long: "Compare allocation policies on routing, modulation and spectrum assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RMSA(context.Background(), bitrateReward)
		},
	}
	cmd.PersistentFlags().BoolVar(&bitrateReward, "bitrate-reward", false, "Scale rewards with the request bit-rate")
	return cmd
}
