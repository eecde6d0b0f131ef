// ABOUTME: On-premises run-rate estimate per VM and per workload
// ABOUTME: Provides the pre-migration side of simulation line items

package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/markalston/migration-planner/models"
)

var linuxTerms = []string{"linux", "rhel", "red hat", "centos", "ubuntu", "debian", "suse", "oracle linux", "rocky", "alma"}

// OnPremCostModel estimates the current monthly cost of running an entity on-prem
type OnPremCostModel struct {
	rates models.OnPremRates
}

// NewOnPremCostModel creates an on-prem model from catalog rates
func NewOnPremCostModel(rates models.OnPremRates) *OnPremCostModel {
	return &OnPremCostModel{rates: rates}
}

// VMMonthly estimates one VM's monthly on-prem cost
func (m *OnPremCostModel) VMMonthly(vm models.VmProfile) float64 {
	r := m.rates
	total := decimal.NewFromFloat(r.PerVCPU).Mul(decimal.NewFromInt(int64(vm.VCPU))).
		Add(decimal.NewFromFloat(r.PerGBRAM).Mul(decimal.NewFromFloat(vm.MemoryGB()))).
		Add(decimal.NewFromFloat(r.StoragePerTB).Mul(decimal.NewFromFloat(vm.TotalDiskGB() / 1024))).
		Add(decimal.NewFromFloat(m.osLicense(vm))).
		Add(decimal.NewFromFloat(r.SecurityPerVM)).
		Add(decimal.NewFromFloat(r.BackupPerVM)).
		Add(decimal.NewFromFloat(r.FacilitiesPerVM))
	return total.Round(2).InexactFloat64()
}

// WorkloadMonthly returns the licence and operations cost recorded on a playbook.
// Unmatched workloads have no known on-prem cost.
func (m *OnPremCostModel) WorkloadMonthly(p *models.Playbook) float64 {
	if p == nil {
		return 0
	}
	return RoundCents(p.OnPremMonthly)
}

func (m *OnPremCostModel) osLicense(vm models.VmProfile) float64 {
	os := strings.ToLower(vm.OSFamily + " " + vm.OSVersion)
	if strings.Contains(os, "windows") {
		return m.rates.WindowsLicense
	}
	for _, term := range linuxTerms {
		if strings.Contains(os, term) {
			return m.rates.LinuxLicense
		}
	}
	return 0
}
