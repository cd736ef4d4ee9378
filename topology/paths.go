package topology

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Path is a loop-free route through the topology
type Path struct {
	Nodes    []int
	Links    []int
	Hops     int
	LengthKM float64
}

func (p Path) String() string {
	return fmt.Sprintf("%v (%.0fkm)", p.Nodes, p.LengthKM)
}

// PathTable holds the k shortest paths (by length) between every ordered
// node pair, precomputed once per topology with Yen's algorithm.
type PathTable struct {
	Topo *Topology
	K    int

	paths map[[2]int][]Path
}

// NewPathTable computes the k shortest loop-free paths for all ordered node
// pairs of the topology
func NewPathTable(t *Topology, k int) (*PathTable, error) {
	if k < 1 {
		return nil, fmt.Errorf("path table: k must be positive, got %d", k)
	}
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for n := 0; n < t.NumNodes; n++ {
		g.AddNode(simple.Node(n))
	}
	for _, l := range t.Links {
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(l.From), simple.Node(l.To), l.LengthKM))
	}

	pt := &PathTable{
		Topo:  t,
		K:     k,
		paths: make(map[[2]int][]Path),
	}
	for src := 0; src < t.NumNodes; src++ {
		for dst := 0; dst < t.NumNodes; dst++ {
			if src == dst {
				continue
			}
			routes := path.YenKShortestPaths(g, k, math.Inf(1), simple.Node(src), simple.Node(dst))
			converted := make([]Path, 0, len(routes))
			for _, route := range routes {
				p, err := t.pathFromNodes(route)
				if err != nil {
					return nil, err
				}
				converted = append(converted, p)
			}
			if len(converted) == 0 {
				return nil, fmt.Errorf("path table: no path between %d and %d", src, dst)
			}
			pt.paths[[2]int{src, dst}] = converted
		}
	}
	return pt, nil
}

func (t *Topology) pathFromNodes(route []graph.Node) (Path, error) {
	nodes := make([]int, len(route))
	for i, n := range route {
		nodes[i] = int(n.ID())
	}
	links := make([]int, 0, len(nodes)-1)
	length := 0.0
	for i := 0; i < len(nodes)-1; i++ {
		li, ok := t.LinkIndex(nodes[i], nodes[i+1])
		if !ok {
			return Path{}, fmt.Errorf("no link between %d and %d", nodes[i], nodes[i+1])
		}
		links = append(links, li)
		length += t.Links[li].LengthKM
	}
	return Path{
		Nodes:    nodes,
		Links:    links,
		Hops:     len(links),
		LengthKM: length,
	}, nil
}

// Paths returns the precomputed paths from src to dst, shortest first
func (pt *PathTable) Paths(src, dst int) []Path {
	return pt.paths[[2]int{src, dst}]
}
