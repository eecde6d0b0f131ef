// ABOUTME: Data models for guest workloads discovered inside VMs
// ABOUTME: A workload is keyed by its VM, engine, and listening port

package models

import "fmt"

// WorkloadCategory groups workload engines by kind
type WorkloadCategory string

const (
	CategoryDatabase     WorkloadCategory = "database"
	CategoryWeb          WorkloadCategory = "web"
	CategoryContainer    WorkloadCategory = "container"
	CategoryOrchestrator WorkloadCategory = "orchestrator"
)

// Endpoint is a remote peer observed talking to a workload
type Endpoint struct {
	Address string `json:"address" yaml:"address"` // IP address or VM name
	Port    int    `json:"port" yaml:"port"`
}

// ResourceUsage is a point-in-time usage sample for a workload
type ResourceUsage struct {
	CPUPercent  float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryMB    int     `json:"memory_mb" yaml:"memory_mb"`
	Connections int     `json:"connections" yaml:"connections"`
	Instances   int     `json:"instances,omitempty" yaml:"instances,omitempty"` // containers or nodes
}

// WorkloadRecord is one workload running on a discovered VM
type WorkloadRecord struct {
	VMName    string           `json:"vm_name" yaml:"vm_name"`
	Category  WorkloadCategory `json:"category" yaml:"category"`
	Engine    string           `json:"engine" yaml:"engine"`
	Port      int              `json:"port" yaml:"port"`
	Version   string           `json:"version,omitempty" yaml:"version,omitempty"`
	Usage     ResourceUsage    `json:"usage" yaml:"usage"`
	Endpoints []Endpoint       `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
}

// Key returns the composite identity "<vm>/<engine>:<port>"
func (w WorkloadRecord) Key() string {
	return WorkloadKey(w.VMName, w.Engine, w.Port)
}

// WorkloadKey builds a workload key from its parts
func WorkloadKey(vm, engine string, port int) string {
	return fmt.Sprintf("%s/%s:%d", vm, engine, port)
}
