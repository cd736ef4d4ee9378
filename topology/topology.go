package topology

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Link is an undirected fibre pair between two nodes. Spectrum state is
// tracked per link index, in the order links appear in the topology.
type Link struct {
	From     int     `yaml:"from"`
	To       int     `yaml:"to"`
	LengthKM float64 `yaml:"length_km"`
}

// Topology is a physical optical network: nodes 0..NumNodes-1 and
// undirected weighted links
type Topology struct {
	Name     string `yaml:"name"`
	NumNodes int    `yaml:"nodes"`
	Links    []Link `yaml:"links"`

	linkIndex map[[2]int]int
	adjacent  [][]int
}

// Parse reads a YAML topology definition and validates it
func Parse(data []byte) (*Topology, error) {
	t := &Topology{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse topology: %w", err)
	}
	if err := t.init(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadFile reads a topology from a YAML file on disk
func LoadFile(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology file: %w", err)
	}
	return Parse(data)
}

func normalize(a, b int) [2]int {
	if a > b {
		return [2]int{b, a}
	}
	return [2]int{a, b}
}

func (t *Topology) init() error {
	if t.NumNodes < 2 {
		return fmt.Errorf("topology %q: need at least 2 nodes, got %d", t.Name, t.NumNodes)
	}
	if len(t.Links) == 0 {
		return fmt.Errorf("topology %q: no links", t.Name)
	}

	t.linkIndex = make(map[[2]int]int, len(t.Links))
	t.adjacent = make([][]int, t.NumNodes)
	for i, l := range t.Links {
		if l.From < 0 || l.From >= t.NumNodes || l.To < 0 || l.To >= t.NumNodes {
			return fmt.Errorf("topology %q: link %d endpoints (%d,%d) out of range", t.Name, i, l.From, l.To)
		}
		if l.From == l.To {
			return fmt.Errorf("topology %q: link %d is a self loop on node %d", t.Name, i, l.From)
		}
		if l.LengthKM <= 0 {
			return fmt.Errorf("topology %q: link %d has non-positive length %f", t.Name, i, l.LengthKM)
		}
		key := normalize(l.From, l.To)
		if _, ok := t.linkIndex[key]; ok {
			return fmt.Errorf("topology %q: duplicate link (%d,%d)", t.Name, l.From, l.To)
		}
		t.linkIndex[key] = i
		t.adjacent[l.From] = append(t.adjacent[l.From], i)
		t.adjacent[l.To] = append(t.adjacent[l.To], i)
	}

	if !t.connected() {
		return fmt.Errorf("topology %q: graph is not connected", t.Name)
	}
	return nil
}

func (t *Topology) connected() bool {
	visited := make([]bool, t.NumNodes)
	queue := []int{0}
	visited[0] = true
	seen := 1
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, li := range t.adjacent[n] {
			l := t.Links[li]
			other := l.From
			if other == n {
				other = l.To
			}
			if !visited[other] {
				visited[other] = true
				seen += 1
				queue = append(queue, other)
			}
		}
	}
	return seen == t.NumNodes
}

// LinkIndex returns the index of the link between a and b
func (t *Topology) LinkIndex(a, b int) (int, bool) {
	i, ok := t.linkIndex[normalize(a, b)]
	return i, ok
}

// AdjacentLinks lists the link indices incident to the node
func (t *Topology) AdjacentLinks(node int) []int {
	if node < 0 || node >= t.NumNodes {
		return nil
	}
	return t.adjacent[node]
}

func (t *Topology) Degree(node int) int {
	return len(t.AdjacentLinks(node))
}

// TotalLengthKM is the sum of all link lengths
func (t *Topology) TotalLengthKM() float64 {
	total := 0.0
	for _, l := range t.Links {
		total += l.LengthKM
	}
	return total
}
