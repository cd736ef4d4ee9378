package types

// Generic Dataset that contains information after processing the traces
type DataSet interface{}

// Analyzer compresses the information in the traces to a DataSet.
// Analyzers used in vectorized runs must be safe for concurrent Analyze
// calls.
type Analyzer interface {
	// Run, episode, experiment name, trace
	Analyze(run int, episode int, experiment string, trace *Trace)
	// Resulting dataset
	DataSet() DataSet
	// Reset the analyzer between experiments
	Reset()
}

// Comparator differentiates between datasets of different experiments
// Arguments: run, total episodes, experiment names, datasets
type Comparator func(int, int, []string, []DataSet)

func NoopComparator() Comparator {
	return func(_, _ int, _ []string, _ []DataSet) {}
}
