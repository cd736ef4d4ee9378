// Package explorer inspects recorded q-tables and traces interactively,
// to understand what a trained policy learned about the network.
package explorer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/optnet-sim/rmsa-rl/policies"
	"github.com/optnet-sim/rmsa-rl/types"
)

type Explorer struct {
	PolicyFile string
	TracesFile string

	QTable *policies.QTable
	Traces [][]types.TraceStep

	// states seen across all traces with their visit counts
	StateVisits map[string]int
}

// NewExplorer loads a recorded q-table and a trace file (.json or .jsonl)
func NewExplorer(policyFile string, tracesFile string) (*Explorer, error) {
	e := &Explorer{
		PolicyFile:  policyFile,
		TracesFile:  tracesFile,
		Traces:      make([][]types.TraceStep, 0),
		StateVisits: make(map[string]int),
	}

	qTable, err := policies.ReadQTable(policyFile)
	if err != nil {
		return nil, err
	}
	e.QTable = qTable

	e.Traces, err = readTraces(tracesFile)
	if err != nil {
		return nil, err
	}

	for _, t := range e.Traces {
		for _, step := range t {
			e.StateVisits[step.State] += 1
		}
	}
	return e, nil
}

func readTraces(path string) ([][]types.TraceStep, error) {
	traces := make([][]types.TraceStep, 0)
	file, err := os.Open(path)
	if err != nil {
		return traces, fmt.Errorf("error reading file: %s", err)
	}
	defer file.Close()

	if strings.HasSuffix(path, ".jsonl") {
		scanner := bufio.NewScanner(file)
		maxTraceSize := 5 * 1024 * 1024
		scanner.Buffer(make([]byte, maxTraceSize), maxTraceSize)
		for scanner.Scan() {
			bs := scanner.Bytes()
			if len(bs) >= maxTraceSize {
				return traces, errors.New("error trace too big")
			}
			var t []types.TraceStep
			if err := json.Unmarshal(bs, &t); err != nil {
				return traces, fmt.Errorf("error reading file contents: %s", err)
			}
			traces = append(traces, t)
		}
		if scanner.Err() != nil {
			return traces, fmt.Errorf("failed to read traces: %s", scanner.Err())
		}
		return traces, nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return traces, fmt.Errorf("error reading file: %s", err)
	}
	var t []types.TraceStep
	if err := json.Unmarshal(data, &t); err != nil {
		return traces, fmt.Errorf("error parsing file: %s", err)
	}
	traces = append(traces, t)
	return traces, nil
}

// Example invocation - ./rmsa-rl explore [policy_output(.json)] [trace_output(.jsonl)]
func ExploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:  "explore [policy_output] [trace_output]",
		Long: "Explore the choices of a q-table and the recorded traces",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := NewExplorer(args[0], args[1])
			if err != nil {
				return err
			}

			exp.Interact()
			return nil
		},
	}
}
