// Package policies implements the tabular learning policies trained over
// hashed environment states.
package policies

import (
	"encoding/json"
	"math"
	"os"

	"github.com/optnet-sim/rmsa-rl/util"
)

// QTable maps hashed state-action pairs to values
type QTable struct {
	table map[string]map[string]float64
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[string]map[string]float64),
	}
}

func (q *QTable) Get(state, action string, def float64) float64 {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	if _, ok := q.table[state][action]; !ok {
		q.table[state][action] = def
	}
	return q.table[state][action]
}

func (q *QTable) Set(state, action string, val float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	q.table[state][action] = val
}

// GetAll returns the recorded values of every action tried in a state
func (q *QTable) GetAll(state string) (map[string]float64, bool) {
	vals, ok := q.table[state]
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(vals))
	for a, v := range vals {
		out[a] = v
	}
	return out, true
}

func (q *QTable) HasState(state string) bool {
	_, ok := q.table[state]
	return ok
}

func (q *QTable) NumStates() int {
	return len(q.table)
}

func (q *QTable) Max(state string, def float64) (string, float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
		return "", def
	}
	maxAction := ""
	maxVal := math.Inf(-1)
	for a, val := range q.table[state] {
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	if maxAction == "" {
		return "", def
	}
	return maxAction, maxVal
}

// MaxAmong restricts the argmax to the given actions, seeding unseen pairs
// with the default value
func (q *QTable) MaxAmong(state string, actions []string, def float64) (string, float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	maxAction := ""
	maxVal := math.Inf(-1)
	for _, a := range actions {
		if _, ok := q.table[state][a]; !ok {
			q.table[state][a] = def
		}
		val := q.table[state][a]
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	return maxAction, maxVal
}

// Record dumps the table as JSON so the explorer can inspect it later
func (q *QTable) Record(path string) error {
	bs, err := json.MarshalIndent(q.table, "", "\t")
	if err != nil {
		return err
	}
	return util.WriteToFile(path, string(bs))
}

// ReadQTable loads a table recorded by Record
func ReadQTable(path string) (*QTable, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	table := make(map[string]map[string]float64)
	if err := json.Unmarshal(bs, &table); err != nil {
		return nil, err
	}
	return &QTable{table: table}, nil
}
