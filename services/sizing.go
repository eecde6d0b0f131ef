// ABOUTME: Sizing recommender mapping a VM profile to the best-fit catalog offering
// ABOUTME: Scores readiness and confidence from over-provisioning distance

package services

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/markalston/migration-planner/catalog"
	"github.com/markalston/migration-planner/models"
)

// Guest operating systems with no supported target image
var unsupportedOSTerms = []string{"solaris", "freebsd", "aix", "hp-ux"}

const (
	largeDiskGB        = 4096
	manyDisksThreshold = 32
	maxDataDisks       = 64
)

// Right-sizing thresholds on observed p95 utilisation, in percent
const (
	downsizeCPUPercent = 40
	downsizeMemPercent = 40
	upsizeCPUPercent   = 80
	upsizeMemPercent   = 85
	downsizeHeadroom   = 1.5
	upsizeHeadroom     = 1.3
)

// SizingWeights weights excess vCPU against excess RAM in the fit distance
type SizingWeights struct {
	CPU float64
	RAM float64
}

// DefaultSizingWeights weights both dimensions equally
func DefaultSizingWeights() SizingWeights {
	return SizingWeights{CPU: 0.5, RAM: 0.5}
}

func (w SizingWeights) normalized() SizingWeights {
	if w.CPU < 0 || w.RAM < 0 || w.CPU+w.RAM <= 0 {
		return DefaultSizingWeights()
	}
	sum := w.CPU + w.RAM
	return SizingWeights{CPU: w.CPU / sum, RAM: w.RAM / sum}
}

// SizingRecommender selects infrastructure offerings for VMs
type SizingRecommender struct {
	catalog *catalog.Catalog
	cost    *CostModel
	weights SizingWeights
}

// NewSizingRecommender creates a recommender. Weights are normalized to sum to 1.
func NewSizingRecommender(c *catalog.Catalog, cost *CostModel, weights SizingWeights) *SizingRecommender {
	return &SizingRecommender{
		catalog: c,
		cost:    cost,
		weights: weights.normalized(),
	}
}

// Fits reports whether an offering satisfies every hard constraint of a VM
func Fits(o models.Offering, vm models.VmProfile) bool {
	if o.VCPU < vm.VCPU {
		return false
	}
	if o.MemoryMB() < float64(vm.MemoryMB) {
		return false
	}
	if o.MaxDiskGB < vm.TotalDiskGB() {
		return false
	}
	if o.MaxDataDisks > 0 && o.MaxDataDisks < len(vm.Disks) {
		return false
	}
	return true
}

// Distance is the weighted relative mismatch between an offering and a VM, in [0,1].
// A perfect fit scores 0.
func (s *SizingRecommender) Distance(o models.Offering, vm models.VmProfile) float64 {
	d := s.weights.CPU*relativeGap(float64(o.VCPU), float64(vm.VCPU)) +
		s.weights.RAM*relativeGap(o.MemoryMB(), float64(vm.MemoryMB))
	return clamp01(d)
}

func relativeGap(offered, required float64) float64 {
	hi := math.Max(offered, required)
	if hi <= 0 {
		return 0
	}
	return math.Abs(offered-required) / hi
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Recommend sizes one VM for a region and pricing model. It only fails for an
// unknown region or pricing model; catalog misses become not-ready results.
func (s *SizingRecommender) Recommend(vm models.VmProfile, region, pricingModel string) (models.Recommendation, error) {
	rec := models.Recommendation{
		Key:          vm.Name,
		Kind:         models.KindVM,
		Region:       region,
		PricingModel: pricingModel,
		Approach:     models.ApproachRehost,
	}

	issues, supported := assessVM(vm)

	offerings := s.catalog.Offerings()
	best := -1
	var bestDistance, bestCost float64
	for i, o := range offerings {
		if !Fits(o, vm) {
			continue
		}
		cost, err := s.cost.OfferingCost(o, region, pricingModel)
		if err != nil {
			return models.Recommendation{}, err
		}
		d := s.Distance(o, vm)
		// Strict comparisons keep the earliest declaration on a full tie
		if best < 0 || d < bestDistance || (d == bestDistance && cost < bestCost) {
			best, bestDistance, bestCost = i, d, cost
		}
	}

	fit := best >= 0
	if !fit {
		best = largestOffering(offerings)
		miss := &CatalogMissError{Key: vm.Name, Reason: "no offering satisfies the VM's requirements"}
		for _, msg := range unmetConstraints(offerings, vm) {
			issues = append(issues, models.Issue{Severity: models.SeverityHigh, Message: msg})
		}
		cost, err := s.cost.OfferingCost(offerings[best], region, pricingModel)
		if err != nil {
			return models.Recommendation{}, err
		}
		bestDistance, bestCost = s.Distance(offerings[best], vm), cost
		slog.Debug("Sizing fell back to largest offering", "vm", vm.Name, "reason", miss.Error())
	}

	selected := offerings[best]
	rec.Target = selected.ID
	rec.TargetName = fmt.Sprintf("%s (%d vCPU, %g GB)", selected.ID, selected.VCPU, selected.MemoryGB)
	rec.Confidence = clamp01(1 - bestDistance)
	rec.Issues = issues
	rec.Readiness = readiness(fit && supported, issues)
	rec.Complexity = complexityFor(rec.Readiness)
	if err := s.price(&rec, vm, bestCost); err != nil {
		return models.Recommendation{}, err
	}
	return rec, nil
}

// price adds the VM's managed disks to the compute cost and attaches observed
// usage. Observed usage never changes the selected offering.
func (s *SizingRecommender) price(rec *models.Recommendation, vm models.VmProfile, compute float64) error {
	rec.ComputeMonthly = compute
	rec.MonthlyCost = compute

	observed := vm.Perf != nil && vm.Perf.Samples > 0
	var iops float64
	if observed {
		iops = vm.Perf.IOPS.P95
	}
	if tier, ok := s.catalog.DiskTierFor(iops, observed); ok && len(vm.Disks) > 0 {
		storage, err := s.cost.StorageCost(tier, vm.Disks, rec.Region)
		if err != nil {
			return err
		}
		rec.Storage = &storage
		rec.MonthlyCost = RoundCents(compute + storage.Monthly)
	}

	if observed {
		perf := *vm.Perf
		rec.Observed = &perf
		rec.Notes = rightSizingNotes(vm, perf)
	}
	return nil
}

// rightSizingNotes suggests a smaller or larger shape from p95 utilisation,
// keeping headroom above the observed peak
func rightSizingNotes(vm models.VmProfile, perf models.PerfStats) []string {
	var notes []string

	if vm.VCPU > 0 {
		cpu := perf.CPU.P95
		switch {
		case cpu < downsizeCPUPercent:
			want := max(1, int(math.Ceil(float64(vm.VCPU)*cpu/100*downsizeHeadroom)))
			if want < vm.VCPU {
				notes = append(notes, fmt.Sprintf("CPU p95 %.0f%%: %d vCPU could be reduced to %d", cpu, vm.VCPU, want))
			}
		case cpu > upsizeCPUPercent:
			want := int(math.Ceil(float64(vm.VCPU) * cpu / 100 * upsizeHeadroom))
			if want > vm.VCPU {
				notes = append(notes, fmt.Sprintf("CPU p95 %.0f%%: consider %d vCPU instead of %d", cpu, want, vm.VCPU))
			}
		}
	}

	if gb := vm.MemoryGB(); gb > 0 {
		mem := perf.Memory.P95
		switch {
		case mem < downsizeMemPercent:
			want := math.Max(1, math.Ceil(gb*mem/100*downsizeHeadroom))
			if want < gb {
				notes = append(notes, fmt.Sprintf("Memory p95 %.0f%%: %g GB could be reduced to %g GB", mem, gb, want))
			}
		case mem > upsizeMemPercent:
			want := math.Ceil(gb * mem / 100 * upsizeHeadroom)
			if want > gb {
				notes = append(notes, fmt.Sprintf("Memory p95 %.0f%%: consider %g GB instead of %g GB", mem, want, gb))
			}
		}
	}
	return notes
}

// assessVM collects readiness issues independent of the selected offering.
// The second result is false when the guest OS cannot run on the target.
func assessVM(vm models.VmProfile) ([]models.Issue, bool) {
	var issues []models.Issue
	supported := true

	switch vm.PowerState {
	case models.PowerOff:
		issues = append(issues, models.Issue{Severity: models.SeverityLow, Message: "VM is powered off."})
	case models.PowerSuspended:
		issues = append(issues, models.Issue{Severity: models.SeverityLow, Message: "VM is suspended."})
	}

	if strings.Contains(strings.ToLower(vm.ToolsStatus), "notrunning") {
		issues = append(issues, models.Issue{
			Severity: models.SeverityLow,
			Message:  "VMware Tools not running; guest OS details may be incomplete",
		})
	}

	guest := strings.ToLower(vm.OSFamily + " " + vm.OSVersion)
	for _, term := range unsupportedOSTerms {
		if strings.Contains(guest, term) {
			issues = append(issues, models.Issue{
				Severity: models.SeverityHigh,
				Message:  fmt.Sprintf("OS %q is not supported on the target platform", strings.TrimSpace(vm.OSFamily+" "+vm.OSVersion)),
			})
			supported = false
			break
		}
	}

	switch n := len(vm.Disks); {
	case n > maxDataDisks:
		issues = append(issues, models.Issue{
			Severity: models.SeverityHigh,
			Message:  fmt.Sprintf("VM has %d disks, more than the %d data disks any offering supports", n, maxDataDisks),
		})
	case n > manyDisksThreshold:
		issues = append(issues, models.Issue{
			Severity: models.SeverityMedium,
			Message:  fmt.Sprintf("VM has %d disks and needs an offering with 64 data disk support", n),
		})
	}

	for _, d := range vm.Disks {
		if d.SizeGB > largeDiskGB {
			issues = append(issues, models.Issue{
				Severity: models.SeverityMedium,
				Message:  fmt.Sprintf("Disk %q is %.0f GB, above the %d GB managed disk limit", d.Label, d.SizeGB, largeDiskGB),
			})
		}
	}
	return issues, supported
}

// unmetConstraints explains why no offering fits
func unmetConstraints(offerings []models.Offering, vm models.VmProfile) []string {
	var maxCPU, maxDisks int
	var maxMemMB, maxDisk float64
	for _, o := range offerings {
		maxCPU = max(maxCPU, o.VCPU)
		maxMemMB = math.Max(maxMemMB, o.MemoryMB())
		maxDisk = math.Max(maxDisk, o.MaxDiskGB)
		maxDisks = max(maxDisks, o.MaxDataDisks)
	}

	var msgs []string
	if vm.VCPU > maxCPU {
		msgs = append(msgs, fmt.Sprintf("requires %d vCPU > max catalog tier (%d)", vm.VCPU, maxCPU))
	}
	if float64(vm.MemoryMB) > maxMemMB {
		msgs = append(msgs, fmt.Sprintf("requires %.0f GB RAM > max catalog tier (%.0f GB)", vm.MemoryGB(), maxMemMB/1024))
	}
	if vm.TotalDiskGB() > maxDisk {
		msgs = append(msgs, fmt.Sprintf("requires disk %.0f GB > max catalog tier (%.0f GB)", vm.TotalDiskGB(), maxDisk))
	}
	if maxDisks > 0 && len(vm.Disks) > maxDisks {
		msgs = append(msgs, fmt.Sprintf("requires %d data disks > max catalog tier (%d)", len(vm.Disks), maxDisks))
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "no single offering satisfies vCPU, RAM and disk together")
	}
	return msgs
}

// largestOffering picks the biggest tier by vCPU, then RAM, then disk.
// Earlier declarations win ties.
func largestOffering(offerings []models.Offering) int {
	best := 0
	for i, o := range offerings[1:] {
		b := offerings[best]
		switch {
		case o.VCPU != b.VCPU:
			if o.VCPU > b.VCPU {
				best = i + 1
			}
		case o.MemoryGB != b.MemoryGB:
			if o.MemoryGB > b.MemoryGB {
				best = i + 1
			}
		case o.MaxDiskGB > b.MaxDiskGB:
			best = i + 1
		}
	}
	return best
}

// readiness derives the readiness category. Low-severity issues are informational.
func readiness(eligible bool, issues []models.Issue) models.Readiness {
	if !eligible {
		return models.ReadinessNotReady
	}
	for _, issue := range issues {
		if issue.Severity.Rank() >= models.SeverityMedium.Rank() {
			return models.ReadinessWithIssues
		}
	}
	return models.ReadinessReady
}

func complexityFor(r models.Readiness) models.Complexity {
	switch r {
	case models.ReadinessReady:
		return models.ComplexityLow
	case models.ReadinessWithIssues:
		return models.ComplexityMedium
	default:
		return models.ComplexityHigh
	}
}

// RecommendWithTarget prices a VM on an explicit offering, used when an
// override replaces the selected tier. An offering that does not fit makes the
// VM not-ready.
func (s *SizingRecommender) RecommendWithTarget(vm models.VmProfile, offeringID, region, pricingModel string) (models.Recommendation, error) {
	o, ok := s.catalog.Offering(offeringID)
	if !ok {
		return models.Recommendation{}, &UnresolvedReferenceError{Key: vm.Name, Ref: offeringID, Err: ErrUnknownTarget}
	}
	cost, err := s.cost.OfferingCost(o, region, pricingModel)
	if err != nil {
		return models.Recommendation{}, err
	}

	issues, supported := assessVM(vm)
	fit := Fits(o, vm)
	if !fit {
		issues = append(issues, models.Issue{
			Severity: models.SeverityHigh,
			Message:  fmt.Sprintf("%s (%d vCPU, %g GB) is smaller than the VM requires", o.ID, o.VCPU, o.MemoryGB),
		})
	}

	rec := models.Recommendation{
		Key:          vm.Name,
		Kind:         models.KindVM,
		Target:       o.ID,
		TargetName:   fmt.Sprintf("%s (%d vCPU, %g GB)", o.ID, o.VCPU, o.MemoryGB),
		Region:       region,
		PricingModel: pricingModel,
		Confidence:   clamp01(1 - s.Distance(o, vm)),
		Issues:       issues,
		Readiness:    readiness(fit && supported, issues),
		Approach:     models.ApproachRehost,
	}
	rec.Complexity = complexityFor(rec.Readiness)
	if err := s.price(&rec, vm, cost); err != nil {
		return models.Recommendation{}, err
	}
	return rec, nil
}
