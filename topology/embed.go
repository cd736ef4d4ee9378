package topology

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed topologies/*.yaml
var topologyFS embed.FS

// Load returns one of the embedded standard topologies by name
// (e.g. "nsfnet", "cost239", "simple6")
func Load(name string) (*Topology, error) {
	data, err := topologyFS.ReadFile("topologies/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown topology %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return Parse(data)
}

// Names lists the embedded topology names
func Names() []string {
	entries, err := topologyFS.ReadDir("topologies")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}
