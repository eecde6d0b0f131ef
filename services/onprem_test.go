// ABOUTME: Tests for the on-premises run-rate estimate
// ABOUTME: Checks per-resource rates and OS licence detection

package services

import (
	"testing"

	"github.com/markalston/migration-planner/models"
)

func TestOnPremCostModel_VMMonthly(t *testing.T) {
	m := NewOnPremCostModel(testCatalog(t).OnPremRates())

	tests := []struct {
		name string
		vm   models.VmProfile
		want float64
	}{
		{
			// 2×14 + 8×3.5 + 1TB×40 + linux 8 + 27 per-VM
			name: "linux",
			vm: models.VmProfile{
				Name: "web01", OSFamily: "linux", OSVersion: "Ubuntu 22.04", VCPU: 2, MemoryMB: 8192,
				Disks: []models.Disk{{SizeGB: 1024}},
			},
			want: 131,
		},
		{
			name: "windows",
			vm: models.VmProfile{
				Name: "db01", OSFamily: "windows", OSVersion: "Windows Server 2019", VCPU: 4, MemoryMB: 16384,
				Disks: []models.Disk{{SizeGB: 512}},
			},
			want: 174,
		},
		{
			name: "unknown os has no licence",
			vm:   models.VmProfile{Name: "appliance", OSFamily: "other", VCPU: 1, MemoryMB: 1024},
			want: 44.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.VMMonthly(tt.vm); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestOnPremCostModel_WorkloadMonthly(t *testing.T) {
	m := NewOnPremCostModel(models.OnPremRates{})

	if got := m.WorkloadMonthly(nil); got != 0 {
		t.Errorf("Expected 0 for an unmatched workload, got %v", got)
	}
	if got := m.WorkloadMonthly(&models.Playbook{ID: "mssql", OnPremMonthly: 300.004}); got != 300 {
		t.Errorf("Expected 300, got %v", got)
	}
}
