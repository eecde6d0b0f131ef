// ABOUTME: Offering comparison matrix for one VM and the fleet-wide summary rollup
// ABOUTME: Both are read-only views computed from baseline recommendations

package models

// OfferingOption is one catalog offering priced for a VM in every requested
// region and pricing model. Costs include the VM's managed disks.
type OfferingOption struct {
	Offering string                        `json:"offering" yaml:"offering"`
	Family   string                        `json:"family" yaml:"family"`
	VCPU     int                           `json:"vcpu" yaml:"vcpu"`
	MemoryGB float64                       `json:"memory_gb" yaml:"memory_gb"`
	BaseCost float64                       `json:"base_cost" yaml:"base_cost"` // undiscounted list price
	Fits     bool                          `json:"fits" yaml:"fits"`
	Current  bool                          `json:"current" yaml:"current"`
	Costs    map[string]map[string]float64 `json:"costs" yaml:"costs"` // region -> pricing model -> monthly
}

// OfferingComparison is the cost matrix of every offering for one VM
type OfferingComparison struct {
	Key           string             `json:"key" yaml:"key"`
	Region        string             `json:"region" yaml:"region"`
	PricingModel  string             `json:"pricing_model" yaml:"pricing_model"`
	Current       string             `json:"current" yaml:"current"`
	CurrentCost   float64            `json:"current_cost" yaml:"current_cost"`
	Cheapest      string             `json:"cheapest,omitempty" yaml:"cheapest,omitempty"` // cheapest fitting offering in the baseline region and pricing model
	CheapestCost  float64            `json:"cheapest_cost,omitempty" yaml:"cheapest_cost,omitempty"`
	Regions       []string           `json:"regions" yaml:"regions"`
	PricingModels []string           `json:"pricing_models" yaml:"pricing_models"`
	Storage       *StorageEstimate   `json:"storage,omitempty" yaml:"storage,omitempty"`
	StorageCosts  map[string]float64 `json:"storage_costs,omitempty" yaml:"storage_costs,omitempty"` // region -> monthly
	Observed      *PerfStats         `json:"observed,omitempty" yaml:"observed,omitempty"`
	Options       []OfferingOption   `json:"options" yaml:"options"`
}

// Cost returns an option's monthly cost for a region and pricing model
func (o OfferingOption) Cost(region, pricingModel string) (float64, bool) {
	v, ok := o.Costs[region][pricingModel]
	return v, ok
}

// FleetSummary rolls baseline recommendations and inventory up for a region
// and pricing model
type FleetSummary struct {
	Region        string  `json:"region" yaml:"region"`
	PricingModel  string  `json:"pricing_model" yaml:"pricing_model"`
	VMs           int     `json:"vms" yaml:"vms"`
	Workloads     int     `json:"workloads" yaml:"workloads"`
	PoweredOn     int     `json:"powered_on" yaml:"powered_on"`
	PoweredOff    int     `json:"powered_off" yaml:"powered_off"`
	Windows       int     `json:"windows" yaml:"windows"`
	Linux         int     `json:"linux" yaml:"linux"`
	OtherOS       int     `json:"other_os" yaml:"other_os"`
	Ready         int     `json:"ready" yaml:"ready"`
	WithIssues    int     `json:"ready_with_issues" yaml:"ready_with_issues"`
	NotReady      int     `json:"not_ready" yaml:"not_ready"`
	TotalVCPU     int     `json:"total_vcpu" yaml:"total_vcpu"`
	TotalMemoryGB float64 `json:"total_memory_gb" yaml:"total_memory_gb"`
	TotalDiskTB   float64 `json:"total_disk_tb" yaml:"total_disk_tb"`
	Hosts         int     `json:"hosts" yaml:"hosts"`

	MonthlyCost   float64 `json:"monthly_cost" yaml:"monthly_cost"`
	AnnualCost    float64 `json:"annual_cost" yaml:"annual_cost"`
	OnPremMonthly float64 `json:"onprem_monthly" yaml:"onprem_monthly"`

	Targets      map[string]int     `json:"targets" yaml:"targets"`
	Families     map[string]int     `json:"families" yaml:"families"`
	CostByFamily map[string]float64 `json:"cost_by_family" yaml:"cost_by_family"`
	Folders      map[string]int     `json:"folders" yaml:"folders"`
}
