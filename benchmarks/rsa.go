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

// RSA compares the heuristics and learned policies on plain routing and
// spectrum assignment with a single fixed format
func RSA(ctx context.Context) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}
	params := envParams(topo)

	factory := func(replica int) types.Environment {
		e, err := env.NewRSAEnv(params)
		if err != nil {
			panic(fmt.Sprintf("rsa env: %v", err))
		}
		return e
	}
	// construct once eagerly so a bad configuration fails before the run
	if _, err := env.NewRSAEnv(params); err != nil {
		return err
	}

	c := newComparison()
	stop := startMonitor(c)
	defer stop()

	addExperiment(c, "Random", types.NewRandomPolicy(), factory)
	addExperiment(c, "KSP-FF", heuristics.NewKSPFirstFit(), factory)
	addExperiment(c, "FF-KSP", heuristics.NewFirstFitKSP(), factory)
	addExperiment(c, "KSP-BF", heuristics.NewKSPBestFit(), factory)
	addExperiment(c, "EGreedy", policies.NewEpsilonGreedyPolicy(0.1, 0.99, 0.05), factory)
	addExperiment(c, "SoftMax", policies.NewSoftMaxPolicy(0.1, 0.99, 1), factory)

	c.Run(ctx)
	return nil
}

func RSACommand() *cobra.Command {
	return &cobra.Command{
		Use:  "rsa",
		Long: "Compare allocation policies on routing and spectrum assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RSA(context.Background())
		},
	}
}
