// ABOUTME: Directed workload dependency graph keyed by VM name
// ABOUTME: Edges are owned by their source node; no back-pointers

package models

// Edge is a directed dependency between two VMs
type Edge struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Port  int    `json:"port" yaml:"port"`
	Label string `json:"label" yaml:"label"`
}

// DependencyGraph is an adjacency list over VM names
type DependencyGraph struct {
	Nodes []string          `json:"nodes" yaml:"nodes"`
	Edges map[string][]Edge `json:"edges" yaml:"edges"`
}

// EdgeCount returns the total number of edges in the graph
func (g DependencyGraph) EdgeCount() int {
	n := 0
	for _, edges := range g.Edges {
		n += len(edges)
	}
	return n
}

// Outgoing returns the edges leaving a node
func (g DependencyGraph) Outgoing(node string) []Edge {
	return g.Edges[node]
}
