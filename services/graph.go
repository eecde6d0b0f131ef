// ABOUTME: Builds the directed VM dependency graph from observed workload endpoints
// ABOUTME: External endpoints and self-connections are dropped; the graph is rebuilt per call

package services

import (
	"fmt"
	"sort"

	"github.com/markalston/migration-planner/models"
)

type edgeKey struct {
	from, to string
	port     int
}

// BuildDependencyGraph derives VM-to-VM edges: A→B exists when a workload on A
// has an endpoint resolving to B's address and a workload on B listens on that
// port. Endpoint addresses resolve through NIC IPs or the VM name.
func BuildDependencyGraph(snap *models.Snapshot) models.DependencyGraph {
	byAddress := make(map[string]string)
	for _, vm := range snap.VMs {
		byAddress[vm.Name] = vm.Name
		for _, ip := range vm.IPAddresses() {
			if _, taken := byAddress[ip]; !taken {
				byAddress[ip] = vm.Name
			}
		}
	}

	listeners := make(map[string]models.WorkloadRecord)
	for _, w := range snap.Workloads {
		k := fmt.Sprintf("%s:%d", w.VMName, w.Port)
		if _, taken := listeners[k]; !taken {
			listeners[k] = w
		}
	}

	nodes := snap.SortedVMNames()
	edges := make(map[string][]models.Edge)
	seen := make(map[edgeKey]bool)
	for _, w := range snap.Workloads {
		for _, ep := range w.Endpoints {
			to, ok := byAddress[ep.Address]
			if !ok || to == w.VMName {
				continue
			}
			peer, ok := listeners[fmt.Sprintf("%s:%d", to, ep.Port)]
			if !ok {
				continue
			}
			k := edgeKey{from: w.VMName, to: to, port: ep.Port}
			if seen[k] {
				continue
			}
			seen[k] = true
			edges[w.VMName] = append(edges[w.VMName], models.Edge{
				From:  w.VMName,
				To:    to,
				Port:  ep.Port,
				Label: fmt.Sprintf("%s:%d", peer.Engine, ep.Port),
			})
		}
	}

	for from := range edges {
		list := edges[from]
		sort.Slice(list, func(i, j int) bool {
			if list[i].To != list[j].To {
				return list[i].To < list[j].To
			}
			return list[i].Port < list[j].Port
		})
	}
	return models.DependencyGraph{Nodes: nodes, Edges: edges}
}
