// ABOUTME: Data models for discovered VMs and inventory snapshots
// ABOUTME: Snapshots are immutable and replaced wholesale on each discovery run

package models

import (
	"sort"
	"time"
)

// PowerState is the normalized VM power state
type PowerState string

const (
	PowerOn        PowerState = "on"
	PowerOff       PowerState = "off"
	PowerSuspended PowerState = "suspended"
	PowerUnknown   PowerState = "unknown"
)

// Disk is a single virtual disk attached to a VM
type Disk struct {
	Label  string  `json:"label" yaml:"label"`
	SizeGB float64 `json:"size_gb" yaml:"size_gb"`
}

// NetworkAdapter is a virtual NIC with the addresses observed on it
type NetworkAdapter struct {
	Network     string   `json:"network" yaml:"network"`
	MAC         string   `json:"mac,omitempty" yaml:"mac,omitempty"`
	IPAddresses []string `json:"ip_addresses,omitempty" yaml:"ip_addresses,omitempty"`
}

// VmProfile is the normalized resource profile of one discovered VM
type VmProfile struct {
	Name        string           `json:"name" yaml:"name"`
	PowerState  PowerState       `json:"power_state" yaml:"power_state"`
	OSFamily    string           `json:"os_family" yaml:"os_family"`
	OSVersion   string           `json:"os_version,omitempty" yaml:"os_version,omitempty"`
	VCPU        int              `json:"vcpu" yaml:"vcpu"`
	MemoryMB    int              `json:"memory_mb" yaml:"memory_mb"`
	Disks       []Disk           `json:"disks,omitempty" yaml:"disks,omitempty"`
	Host        string           `json:"host,omitempty" yaml:"host,omitempty"`
	Cluster     string           `json:"cluster,omitempty" yaml:"cluster,omitempty"`
	Folder      string           `json:"folder,omitempty" yaml:"folder,omitempty"`
	NICs        []NetworkAdapter `json:"nics,omitempty" yaml:"nics,omitempty"`
	ToolsStatus string           `json:"tools_status,omitempty" yaml:"tools_status,omitempty"`
	Perf        *PerfStats       `json:"perf,omitempty" yaml:"perf,omitempty"`
}

// TotalDiskGB sums the size of every attached volume
func (v VmProfile) TotalDiskGB() float64 {
	var total float64
	for _, d := range v.Disks {
		total += d.SizeGB
	}
	return total
}

// MemoryGB returns configured memory in GB
func (v VmProfile) MemoryGB() float64 {
	return float64(v.MemoryMB) / 1024
}

// IPAddresses returns every address reported across all NICs
func (v VmProfile) IPAddresses() []string {
	var ips []string
	for _, nic := range v.NICs {
		ips = append(ips, nic.IPAddresses...)
	}
	return ips
}

// Snapshot is one discovery run's worth of inventory
type Snapshot struct {
	ID        string           `json:"id" yaml:"id"`
	TakenAt   time.Time        `json:"taken_at" yaml:"taken_at"`
	VMs       []VmProfile      `json:"vms" yaml:"vms"`
	Workloads []WorkloadRecord `json:"workloads" yaml:"workloads"`
}

// VM looks up a VM by name
func (s *Snapshot) VM(name string) (VmProfile, bool) {
	for _, vm := range s.VMs {
		if vm.Name == name {
			return vm, true
		}
	}
	return VmProfile{}, false
}

// Workload looks up a workload by its composite key
func (s *Snapshot) Workload(key string) (WorkloadRecord, bool) {
	for _, w := range s.Workloads {
		if w.Key() == key {
			return w, true
		}
	}
	return WorkloadRecord{}, false
}

// Prune drops workloads whose owning VM is not part of the snapshot and
// returns how many were removed.
func (s *Snapshot) Prune() int {
	names := make(map[string]bool, len(s.VMs))
	for _, vm := range s.VMs {
		names[vm.Name] = true
	}

	kept := s.Workloads[:0]
	dropped := 0
	for _, w := range s.Workloads {
		if names[w.VMName] {
			kept = append(kept, w)
		} else {
			dropped++
		}
	}
	s.Workloads = kept
	return dropped
}

// SortedVMNames returns VM names in lexical order
func (s *Snapshot) SortedVMNames() []string {
	names := make([]string, 0, len(s.VMs))
	for _, vm := range s.VMs {
		names = append(names, vm.Name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy so the engine never shares slices with its caller
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{ID: s.ID, TakenAt: s.TakenAt}
	out.VMs = make([]VmProfile, len(s.VMs))
	for i, vm := range s.VMs {
		vm.Disks = append([]Disk(nil), vm.Disks...)
		nics := make([]NetworkAdapter, len(vm.NICs))
		for j, nic := range vm.NICs {
			nic.IPAddresses = append([]string(nil), nic.IPAddresses...)
			nics[j] = nic
		}
		vm.NICs = nics
		if vm.Perf != nil {
			perf := *vm.Perf
			vm.Perf = &perf
		}
		out.VMs[i] = vm
	}
	out.Workloads = make([]WorkloadRecord, len(s.Workloads))
	for i, w := range s.Workloads {
		w.Endpoints = append([]Endpoint(nil), w.Endpoints...)
		out.Workloads[i] = w
	}
	return out
}
