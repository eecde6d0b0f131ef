// ABOUTME: Workload mapper matching discovered workloads to platform-service playbooks
// ABOUTME: Precedence is version-range match, then engine default, then assessment fallback

package services

import (
	"fmt"
	"regexp"

	"github.com/blang/semver/v4"

	"github.com/markalston/migration-planner/catalog"
	"github.com/markalston/migration-planner/models"
)

// AssessmentNeeded is the target id of the generic fallback recommendation
const AssessmentNeeded = "assessment-needed"

const (
	versionMatchConfidence = 1.0
	defaultMatchConfidence = 0.8
	overrideConfidence     = 0.5
	unknownVersionPenalty  = 0.15
	highContainerCount     = 20
)

// versionPrefix extracts the dotted numeric head of strings like "8.0.32-log" or "1.8.0_292"
var versionPrefix = regexp.MustCompile(`^v?(\d+(\.\d+){0,2})`)

// MatchKind records which precedence rule selected a playbook
type MatchKind string

const (
	MatchVersion  MatchKind = "version"
	MatchDefault  MatchKind = "default"
	MatchFallback MatchKind = "fallback"
	MatchOverride MatchKind = "override" // playbook chosen by the user for another engine
)

// ParseVersion parses a discovered version string leniently
func ParseVersion(v string) (semver.Version, bool) {
	m := versionPrefix.FindStringSubmatch(v)
	if m == nil {
		return semver.Version{}, false
	}
	parsed, err := semver.ParseTolerant(m[1])
	if err != nil {
		return semver.Version{}, false
	}
	return parsed, true
}

// WorkloadMapper selects platform-service playbooks for workloads
type WorkloadMapper struct {
	catalog *catalog.Catalog
	cost    *CostModel
}

// NewWorkloadMapper creates a mapper over a catalog
func NewWorkloadMapper(c *catalog.Catalog, cost *CostModel) *WorkloadMapper {
	return &WorkloadMapper{catalog: c, cost: cost}
}

// Match applies the rule table in fixed precedence: the first playbook whose
// version range contains the workload version, then the engine's default entry.
func (m *WorkloadMapper) Match(w models.WorkloadRecord) (models.Playbook, MatchKind) {
	candidates := m.catalog.PlaybooksFor(w.Engine)

	if version, ok := ParseVersion(w.Version); ok {
		for _, p := range candidates {
			r, ranged := m.catalog.VersionRange(p.ID)
			if ranged && r(version) {
				return p, MatchVersion
			}
		}
	}

	for _, p := range candidates {
		if p.Versions == "" {
			return p, MatchDefault
		}
	}
	return models.Playbook{}, MatchFallback
}

// Recommend maps one workload. hostVCPU is the vCPU count of the VM the
// workload runs on, or 0 when unknown. It only fails for an unknown region or
// pricing model.
func (m *WorkloadMapper) Recommend(w models.WorkloadRecord, hostVCPU int, region, pricingModel string) (models.Recommendation, error) {
	rec := models.Recommendation{
		Key:          w.Key(),
		Kind:         models.KindWorkload,
		Region:       region,
		PricingModel: pricingModel,
	}

	p, kind := m.Match(w)
	if kind == MatchFallback {
		// Price zero through the model so bad scenario parameters still surface
		if _, err := m.cost.Cost(0, region, pricingModel); err != nil {
			return models.Recommendation{}, err
		}
		miss := &CatalogMissError{Key: rec.Key, Reason: fmt.Sprintf("no playbook for engine %q", w.Engine)}
		rec.Target = AssessmentNeeded
		rec.TargetName = "Assessment needed"
		rec.Approach = models.ApproachRehost
		rec.Complexity = models.ComplexityHigh
		rec.Confidence = 0
		rec.Readiness = models.ReadinessNotReady
		rec.Issues = []models.Issue{{Severity: models.SeverityMedium, Message: miss.Error()}}
		return rec, nil
	}

	return m.build(rec, w, p, kind, hostVCPU)
}

// RecommendWithTarget prices a workload against an explicit playbook, used when
// an override replaces the matched playbook.
func (m *WorkloadMapper) RecommendWithTarget(w models.WorkloadRecord, hostVCPU int, playbookID, region, pricingModel string) (models.Recommendation, error) {
	p, ok := m.catalog.Playbook(playbookID)
	if !ok {
		return models.Recommendation{}, &UnresolvedReferenceError{Key: w.Key(), Ref: playbookID, Err: ErrUnknownTarget}
	}

	kind := MatchOverride
	if p.Engine == w.Engine {
		kind = MatchDefault
		if r, ranged := m.catalog.VersionRange(p.ID); ranged {
			if v, ok := ParseVersion(w.Version); ok && r(v) {
				kind = MatchVersion
			}
		}
	}

	rec := models.Recommendation{
		Key:          w.Key(),
		Kind:         models.KindWorkload,
		Region:       region,
		PricingModel: pricingModel,
	}
	return m.build(rec, w, p, kind, hostVCPU)
}

func (m *WorkloadMapper) build(rec models.Recommendation, w models.WorkloadRecord, p models.Playbook, kind MatchKind, hostVCPU int) (models.Recommendation, error) {
	cost, err := m.cost.ServiceCost(p, UsageHint{Usage: w.Usage, HostVCPU: hostVCPU}, rec.Region, rec.PricingModel)
	if err != nil {
		return models.Recommendation{}, err
	}

	var issues []models.Issue
	confidence := defaultMatchConfidence
	switch kind {
	case MatchVersion:
		confidence = versionMatchConfidence
	case MatchOverride:
		confidence = overrideConfidence
		issues = append(issues, models.Issue{
			Severity: models.SeverityMedium,
			Message:  fmt.Sprintf("Playbook %s targets %s, workload runs %s", p.ID, p.Engine, w.Engine),
		})
	}

	if _, ok := ParseVersion(w.Version); !ok {
		issues = append(issues, models.Issue{Severity: models.SeverityLow, Message: "Version not detected; verify compatibility manually"})
		confidence -= unknownVersionPenalty
	}
	if w.Engine == "oracle" {
		issues = append(issues, models.Issue{Severity: models.SeverityMedium, Message: "Oracle licensing requires special consideration on the target platform"})
	}
	if w.Category == models.CategoryContainer && w.Usage.Instances > highContainerCount {
		issues = append(issues, models.Issue{
			Severity: models.SeverityLow,
			Message:  fmt.Sprintf("High container count (%d); a dedicated node pool is recommended", w.Usage.Instances),
		})
	}

	rec.Target = p.ID
	rec.TargetName = p.Service
	rec.MonthlyCost = cost
	rec.Approach = p.Approach
	rec.Complexity = p.Complexity
	rec.Steps = append([]string(nil), p.Steps...)
	rec.Alternatives = append([]string(nil), p.Alternatives...)
	rec.Confidence = clamp01(confidence)
	rec.Issues = issues
	rec.Readiness = readiness(true, issues)
	return rec, nil
}
