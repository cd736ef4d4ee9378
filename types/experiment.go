package types

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/optnet-sim/rmsa-rl/util"
)

type experimentRunConfig struct {
	CurrentRun int
	Episodes   int
	Horizon    int
	Analyzers  []Analyzer
	Timeout    time.Duration
	Context    context.Context
	Seed       int64

	// thresholds to abort the experiment
	ConsecutiveTimeoutsAbort int
	ConsecutiveErrorsAbort   int

	// record flags
	RecordTraces bool
	RecordPolicy bool

	ReportSavePath    string
	LongestExpNameLen int

	Logger *zap.Logger
}

// Experiment encapsulates a named policy/environment pair. Experiments
// built with NewVectorExperiment run several environment replicas in
// parallel against a shared policy.
type Experiment struct {
	Name        string
	policy      Policy
	environment Environment
	envFactory  EnvironmentFactory
	replicas    int
}

func NewExperiment(name string, policy Policy, environment Environment) *Experiment {
	return &Experiment{
		Name:        name,
		policy:      policy,
		environment: environment,
	}
}

func (e *Experiment) recordTrace(rConfig *experimentRunConfig, trace *Trace) {
	tracesFile := path.Join(rConfig.ReportSavePath, "traces", e.Name+"_"+strconv.Itoa(rConfig.CurrentRun)+".jsonl")
	bs, err := json.Marshal(trace)
	if err != nil {
		rConfig.Logger.Warn("failed to marshal trace", zap.String("experiment", e.Name), zap.Error(err))
		return
	}
	util.AppendToFile(tracesFile, string(bs))
}

// Run the experiment for the specified number of episodes, feeding every
// trace to the configured analyzers
func (e *Experiment) Run(rConfig *experimentRunConfig) {
	select {
	case <-rConfig.Context.Done():
		return
	default:
	}

	if e.replicas > 1 {
		e.runVectorized(rConfig)
		return
	}

	agent := NewAgent(&AgentConfig{
		Horizon:     rConfig.Horizon,
		Policy:      e.policy,
		Environment: e.environment,
	})

	totalTimeout := 0
	totalWithError := 0
	totalTerminal := 0
	totalHorizon := 0
	consecutiveTimeouts := 0
	consecutiveErrors := 0
	totalTimesteps := 0

	EPPadding := len(strconv.Itoa(rConfig.Episodes))
	NamePadding := rConfig.LongestExpNameLen

	for episode := 0; episode < rConfig.Episodes; episode++ {
		select {
		case <-rConfig.Context.Done():
			return
		default:
		}

		seed := rConfig.Seed + int64(rConfig.CurrentRun)*1_000_000 + int64(episode)
		eCtx := NewEpisodeContext(rConfig.Context, episode, seed, e.Name, rConfig.Timeout)
		e.runEpisode(eCtx, agent)

		totalTimesteps += eCtx.Timesteps
		if eCtx.TimedOut {
			totalTimeout += 1
			consecutiveTimeouts += 1
		} else {
			consecutiveTimeouts = 0
		}
		if eCtx.Err != nil {
			totalWithError += 1
			consecutiveErrors += 1
			rConfig.Logger.Warn("episode error",
				zap.String("experiment", e.Name),
				zap.Int("episode", episode),
				zap.Error(eCtx.Err))
		} else {
			consecutiveErrors = 0
		}
		if eCtx.Terminal {
			totalTerminal += 1
		}
		if eCtx.HorizonEnd {
			totalHorizon += 1
		}

		if rConfig.RecordTraces {
			e.recordTrace(rConfig, eCtx.Trace)
		}
		for _, a := range rConfig.Analyzers {
			a.Analyze(rConfig.CurrentRun, episode, e.Name, eCtx.Trace)
		}

		if consecutiveTimeouts >= rConfig.ConsecutiveTimeoutsAbort {
			fmt.Printf("\nAborting experiment %s : %d consecutive timeouts\n", e.Name, consecutiveTimeouts)
			break
		}
		if consecutiveErrors >= rConfig.ConsecutiveErrorsAbort {
			fmt.Printf("\nAborting experiment %s : %d consecutive errors\n", e.Name, consecutiveErrors)
			break
		}

		fmt.Printf("\rExp:%*s, Eps:%*d/%d, TSteps:%9d || Horizon:%*d, Terminal:%*d, TOut:%*d, Err:%*d",
			NamePadding, e.Name, EPPadding, episode+1, rConfig.Episodes, totalTimesteps,
			EPPadding, totalHorizon, EPPadding, totalTerminal, EPPadding, totalTimeout, EPPadding, totalWithError)
	}

	if rConfig.RecordPolicy {
		e.policy.Record(path.Join(rConfig.ReportSavePath, "policies", e.Name+"_"+strconv.Itoa(rConfig.CurrentRun)+".json"))
	}

	fmt.Println("")
}

// runEpisode runs the agent in a separate goroutine so an episode that
// overruns its timeout can be abandoned
func (e *Experiment) runEpisode(eCtx *EpisodeContext, agent *Agent) {
	defer func() {
		if r := recover(); r != nil {
			eCtx.SetError(fmt.Errorf("episode panic: %v", r))
		}
	}()

	done := make(chan struct{})
	go func() {
		start := time.Now()
		agent.RunEpisode(eCtx)
		eCtx.RunDuration = time.Since(start)
		close(done)
	}()

	select {
	case <-eCtx.Context.Done():
		if deadline, ok := eCtx.Context.Deadline(); ok && time.Now().After(deadline) {
			eCtx.SetTimedOut()
		}
	case <-done:
	}
	eCtx.Cancel()
}

// Reset cleans the policy state between runs
func (e *Experiment) Reset() {
	e.policy.Reset()
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs     int
	Episodes int
	Horizon  int

	RecordPath string
	Timeout    time.Duration
	Seed       int64

	ConsecutiveTimeoutsAbort int
	ConsecutiveErrorsAbort   int

	RecordTraces bool
	RecordPolicy bool

	Logger *zap.Logger
}

// Comparison contains the different experiments to compare.
// The traces obtained from the experiments are analyzed and the resulting
// datasets handed to the comparators.
type Comparison struct {
	Experiments []*Experiment
	RunID       string
	analyzers   map[string]Analyzer
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
	logger      *zap.Logger
}

func NewComparison(config *ComparisonConfig) *Comparison {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}

	os.MkdirAll(config.RecordPath, 0777)
	foldersToCreate := []string{"plots"}
	if config.RecordTraces {
		foldersToCreate = append(foldersToCreate, "traces")
	}
	if config.RecordPolicy {
		foldersToCreate = append(foldersToCreate, "policies")
	}
	for _, s := range foldersToCreate {
		fldPath := path.Join(config.RecordPath, s)
		if _, err := os.Stat(fldPath); err != nil {
			os.MkdirAll(fldPath, 0777)
		}
	}

	return &Comparison{
		Experiments: make([]*Experiment, 0),
		RunID:       uuid.NewString(),
		analyzers:   make(map[string]Analyzer),
		comparators: make(map[string]Comparator),
		cConfig:     config,
		logger:      config.Logger,
	}
}

// AddAnalysis adds an analyzer and comparator pair to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer Analyzer, comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// record the configuration of the comparison
func (c *Comparison) recordConfig() {
	cfg := c.cConfig
	f, err := os.Create(path.Join(cfg.RecordPath, "comparison_config.json"))
	if err != nil {
		c.logger.Warn("failed to record comparison config", zap.Error(err))
		return
	}
	defer f.Close()

	out := make(map[string]interface{})
	out["run_id"] = c.RunID
	out["runs"] = cfg.Runs
	out["episodes"] = cfg.Episodes
	out["horizon"] = cfg.Horizon
	out["seed"] = cfg.Seed
	out["record_traces"] = cfg.RecordTraces
	out["record_policy"] = cfg.RecordPolicy
	if cfg.Timeout != 0 {
		out["timeout"] = cfg.Timeout.String()
	}
	experiments := make([]string, 0)
	for _, e := range c.Experiments {
		experiments = append(experiments, e.Name)
	}
	out["experiments"] = experiments
	analyzers := make([]string, 0)
	for name := range c.analyzers {
		analyzers = append(analyzers, name)
	}
	out["analyzers"] = analyzers

	bs, err := json.Marshal(out)
	if err != nil {
		c.logger.Warn("failed to marshal comparison config", zap.Error(err))
		return
	}
	f.Write(bs)
}

// Run the comparison
func (c *Comparison) Run(ctx context.Context) {
	c.recordConfig()

	longestNameLen := 0
	for _, e := range c.Experiments {
		if len(e.Name) > longestNameLen {
			longestNameLen = len(e.Name)
		}
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		fmt.Printf("Run %d\n", run+1)
		c.logger.Info("starting run", zap.Int("run", run), zap.String("run_id", c.RunID))

		datasets := make(map[string][]DataSet)
		for name := range c.analyzers {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}
		names := make([]string, len(c.Experiments))

		for i, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return
			default:
			}
			c.logger.Info("running experiment", zap.String("experiment", e.Name), zap.Int("run", run))
			e.Run(c.prepareRunConfig(ctx, run, longestNameLen))
			for name, a := range c.analyzers {
				datasets[name][i] = a.DataSet()
				a.Reset()
			}
			names[i] = e.Name
			e.Reset()
		}
		for name, comp := range c.comparators {
			comp(run, c.cConfig.Episodes, names, datasets[name])
		}
	}
}

func (c *Comparison) prepareRunConfig(ctx context.Context, run int, longestExpNameLen int) *experimentRunConfig {
	rCfg := &experimentRunConfig{
		CurrentRun:        run,
		Episodes:          c.cConfig.Episodes,
		Horizon:           c.cConfig.Horizon,
		Analyzers:         make([]Analyzer, 0),
		Timeout:           c.cConfig.Timeout,
		Context:           ctx,
		Seed:              c.cConfig.Seed,
		RecordTraces:      c.cConfig.RecordTraces,
		RecordPolicy:      c.cConfig.RecordPolicy,
		ReportSavePath:    c.cConfig.RecordPath,
		LongestExpNameLen: longestExpNameLen,
		Logger:            c.logger,

		ConsecutiveTimeoutsAbort: c.cConfig.ConsecutiveTimeoutsAbort,
		ConsecutiveErrorsAbort:   c.cConfig.ConsecutiveErrorsAbort,
	}
	if rCfg.ConsecutiveErrorsAbort == 0 {
		rCfg.ConsecutiveErrorsAbort = 10
	}
	if rCfg.ConsecutiveTimeoutsAbort == 0 {
		rCfg.ConsecutiveTimeoutsAbort = 10
	}
	for _, a := range c.analyzers {
		rCfg.Analyzers = append(rCfg.Analyzers, a)
	}
	return rCfg
}
