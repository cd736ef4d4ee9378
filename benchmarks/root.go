// Package benchmarks wires the environments, policies and analyses into
// runnable comparison commands.
package benchmarks

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/optnet-sim/rmsa-rl/analysis"
	"github.com/optnet-sim/rmsa-rl/env"
	"github.com/optnet-sim/rmsa-rl/explorer"
	"github.com/optnet-sim/rmsa-rl/monitor"
	"github.com/optnet-sim/rmsa-rl/topology"
	"github.com/optnet-sim/rmsa-rl/types"
)

var (
	episodes int
	horizon  int
	saveFile string
	runs     int
	seed     int64

	topologyName string
	topologyFile string
	kPaths       int
	numSlots     int
	loadErlang   float64
	holdingTime  float64
	requests     int
	replicas     int

	recordTraces bool
	recordPolicy bool
	monitorAddr  string
	plotWindow   int
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use: "rmsa-rl",
	}
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 1000, "Number of episodes to run")
	rootCommand.PersistentFlags().IntVar(&horizon, "horizon", 1000, "Horizon of each episode")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().IntVar(&runs, "runs", 1, "Number of experiment runs")
	rootCommand.PersistentFlags().Int64Var(&seed, "seed", 0, "Base random seed (0 picks one from the clock)")
	rootCommand.PersistentFlags().StringVarP(&topologyName, "topology", "t", "nsfnet", "Name of a built-in topology")
	rootCommand.PersistentFlags().StringVar(&topologyFile, "topology-file", "", "Load the topology from a YAML file instead")
	rootCommand.PersistentFlags().IntVarP(&kPaths, "k", "k", 5, "Number of candidate shortest paths per node pair")
	rootCommand.PersistentFlags().IntVar(&numSlots, "slots", 100, "Number of frequency slots per link")
	rootCommand.PersistentFlags().Float64VarP(&loadErlang, "load", "l", 100, "Offered traffic load in Erlangs")
	rootCommand.PersistentFlags().Float64Var(&holdingTime, "holding", 10, "Mean service holding time")
	rootCommand.PersistentFlags().IntVar(&requests, "requests", 1000, "Requests per episode")
	rootCommand.PersistentFlags().IntVar(&replicas, "replicas", 1, "Environment replicas per experiment (parallel episodes)")
	rootCommand.PersistentFlags().BoolVar(&recordTraces, "record-traces", false, "Record the episode traces")
	rootCommand.PersistentFlags().BoolVar(&recordPolicy, "record-policy", false, "Record the learned q-tables")
	rootCommand.PersistentFlags().StringVar(&monitorAddr, "monitor", "", "Serve live progress on this address (e.g. :8080)")
	rootCommand.PersistentFlags().IntVar(&plotWindow, "plot-window", 50, "Moving average window for the comparison plots")
	// adding the subcommands here
	rootCommand.AddCommand(RSACommand())
	rootCommand.AddCommand(RMSACommand())
	rootCommand.AddCommand(DeepRMSACommand())
	rootCommand.AddCommand(VoneCommand())
	rootCommand.AddCommand(BoundsCommand())
	rootCommand.AddCommand(explorer.ExploreCommand())
	return rootCommand
}

func loadTopology() (*topology.Topology, error) {
	if topologyFile != "" {
		return topology.LoadFile(topologyFile)
	}
	return topology.Load(topologyName)
}

func envParams(topo *topology.Topology) env.Params {
	return env.Params{
		Topology:           topo,
		K:                  kPaths,
		NumSlots:           numSlots,
		LoadErlang:         loadErlang,
		MeanHoldingTime:    holdingTime,
		RequestsPerEpisode: requests,
	}
}

func newComparison() *types.Comparison {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	c := types.NewComparison(&types.ComparisonConfig{
		Runs:       runs,
		Episodes:   episodes,
		Horizon:    horizon,
		RecordPath: saveFile,
		Timeout:    0 * time.Second,
		Seed:       seed,
		// record flags
		RecordTraces: recordTraces,
		RecordPolicy: recordPolicy,
		Logger:       logger,
	})
	c.AddAnalysis("Blocking", analysis.NewBlockingAnalyzer(), analysis.BlockingPlotter(saveFile+"/plots", plotWindow))
	c.AddAnalysis("Reward", analysis.NewBlockingAnalyzer(), analysis.RewardPlotter(saveFile+"/plots", plotWindow))
	c.AddAnalysis("Coverage", analysis.NewCoverageAnalyzer(), analysis.CoveragePlotter(saveFile+"/plots"))
	c.AddAnalysis("CSV", analysis.NewBlockingAnalyzer(), analysis.CSVComparator(saveFile))
	return c
}

// startMonitor attaches the HTTP monitor to the comparison when an address
// is given. The returned stop function is a no-op otherwise.
func startMonitor(c *types.Comparison) func() {
	if monitorAddr == "" {
		return func() {}
	}
	srv := monitor.NewServer(monitorAddr)
	c.AddAnalysis("Monitor", srv, types.NoopComparator())
	srv.Start()
	fmt.Printf("Serving progress on %s\n", monitorAddr)
	return srv.Stop
}

// addExperiment wraps the policy/factory pair in a vectorized experiment
// when more than one replica is requested
func addExperiment(c *types.Comparison, name string, policy types.Policy, factory types.EnvironmentFactory) {
	if replicas > 1 {
		c.AddExperiment(types.NewVectorExperiment(name, policy, factory, replicas))
		return
	}
	c.AddExperiment(types.NewExperiment(name, policy, factory(0)))
}
