package types

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gosuri/uilive"
	"go.uber.org/zap"
)

// NewVectorExperiment builds an experiment that steps `replicas` environment
// instances in parallel, all learning through a single shared policy. This
// is the batched-execution mode: episodes are drawn from a common counter
// and handed to whichever replica is free.
func NewVectorExperiment(name string, policy Policy, factory EnvironmentFactory, replicas int) *Experiment {
	if replicas < 1 {
		replicas = 1
	}
	return &Experiment{
		Name:        name,
		policy:      NewSyncPolicy(policy),
		environment: factory(0),
		envFactory:  factory,
		replicas:    replicas,
	}
}

func (e *Experiment) runVectorized(rConfig *experimentRunConfig) {
	outputs := make([]*ParallelOutput, e.replicas)
	for i := range outputs {
		outputs[i] = NewParallelOutput()
	}
	printer := NewTerminalPrinter(rConfig.Context, &outputs, 1)
	printer.Start()
	defer printer.Stop()

	rConfig.Logger.Info("starting vectorized run",
		zap.String("experiment", e.Name),
		zap.Int("replicas", e.replicas),
		zap.Int("episodes", rConfig.Episodes))

	var nextEpisode int64
	var mu sync.Mutex // guards analyzers, trace recording and counters
	totalTimesteps := 0
	totalWithError := 0
	var wg sync.WaitGroup

	for w := 0; w < e.replicas; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			environment := e.envFactory(worker)
			agent := NewAgent(&AgentConfig{
				Horizon:     rConfig.Horizon,
				Policy:      e.policy,
				Environment: environment,
			})
			out := outputs[worker]
			out.SetRunning()
			completed := 0

			for {
				episode := int(atomic.AddInt64(&nextEpisode, 1)) - 1
				if episode >= rConfig.Episodes {
					break
				}
				select {
				case <-rConfig.Context.Done():
					return
				default:
				}

				seed := rConfig.Seed + int64(rConfig.CurrentRun)*1_000_000 + int64(episode)
				eCtx := NewEpisodeContext(rConfig.Context, episode, seed, e.Name, rConfig.Timeout)
				start := time.Now()
				agent.RunEpisode(eCtx)
				eCtx.RunDuration = time.Since(start)
				eCtx.Cancel()
				completed += 1

				mu.Lock()
				totalTimesteps += eCtx.Timesteps
				if eCtx.Err != nil {
					totalWithError += 1
					rConfig.Logger.Warn("episode error",
						zap.String("experiment", e.Name),
						zap.Int("replica", worker),
						zap.Int("episode", episode),
						zap.Error(eCtx.Err))
				}
				if rConfig.RecordTraces {
					e.recordTrace(rConfig, eCtx.Trace)
				}
				for _, a := range rConfig.Analyzers {
					a.Analyze(rConfig.CurrentRun, episode, e.Name, eCtx.Trace)
				}
				mu.Unlock()

				out.TrySet(fmt.Sprintf("%s rep %2d : eps %5d, last %4d steps in %8s, reward %7.2f",
					e.Name, worker, completed, eCtx.Timesteps, eCtx.RunDuration.Round(time.Millisecond), eCtx.Trace.TotalReward()))
			}
		}(w)
	}
	wg.Wait()

	if rConfig.RecordPolicy {
		e.policy.Record(path.Join(rConfig.ReportSavePath, "policies", e.Name+"_"+strconv.Itoa(rConfig.CurrentRun)+".json"))
	}
	fmt.Printf("\n%s: %d episodes, %d timesteps, %d errors\n", e.Name, rConfig.Episodes, totalTimesteps, totalWithError)
}

// TERMINAL PRINTER

// TerminalPrinter periodically renders one status line per replica
type TerminalPrinter struct {
	parallelOutputs *[]*ParallelOutput
	ctx             context.Context
	printerCtx      context.Context
	printerCancel   context.CancelFunc
	frequency       int

	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(ctx context.Context, parallelOutputs *[]*ParallelOutput, frequency int) *TerminalPrinter {
	printerCtx, cancel := context.WithCancel(ctx)
	size := len(*parallelOutputs)
	writers := make([]io.Writer, size)
	writer := uilive.New()
	for i := 0; i < size-1; i++ {
		writers[i] = writer.Newline()
	}

	return &TerminalPrinter{
		parallelOutputs: parallelOutputs,
		ctx:             ctx,
		printerCtx:      printerCtx,
		printerCancel:   cancel,
		frequency:       frequency,

		writer:  writer,
		writers: writers,
	}
}

func (p *TerminalPrinter) Start() {
	go func() {
		for {
			select {
			case <-p.printerCtx.Done():
				p.writer.Stop()
				return
			case <-p.ctx.Done():
				p.writer.Stop()
				return
			case <-time.After(time.Duration(p.frequency) * time.Second):
				p.print()
			}
		}
	}()
}

func (p *TerminalPrinter) Stop() {
	p.printerCancel()
}

func (p *TerminalPrinter) print() {
	for i, output := range *p.parallelOutputs {
		if !output.IsRunning() {
			continue
		}
		s := output.Get()
		if i == 0 {
			fmt.Fprint(p.writer, s+"\n")
		} else {
			fmt.Fprint(p.writers[i-1], s+"\n")
		}
	}
	p.writer.Flush()
}

// PARALLEL OUTPUT

// ParallelOutput holds the latest printable status of one replica
type ParallelOutput struct {
	mu        sync.Mutex
	printable string
	running   bool
}

func NewParallelOutput() *ParallelOutput {
	return &ParallelOutput{}
}

// Set the output string (blocking)
func (p *ParallelOutput) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

// TrySet the output string (non-blocking)
func (p *ParallelOutput) TrySet(s string) bool {
	if p.mu.TryLock() {
		defer p.mu.Unlock()
		p.printable = s
		return true
	}
	return false
}

// Get the output string (blocking)
func (p *ParallelOutput) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}

// SetRunning marks the replica as active so the printer picks it up
func (p *ParallelOutput) SetRunning() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = true
}

func (p *ParallelOutput) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
