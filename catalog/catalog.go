// ABOUTME: Immutable catalog of offerings, playbooks, regions, and pricing models
// ABOUTME: Loaded from YAML via koanf and validated once per process lifetime

package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sort"

	"github.com/blang/semver/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/markalston/migration-planner/models"
)

//go:embed default.yaml
var defaultCatalog []byte

// document mirrors the on-disk catalog layout
type document struct {
	Regions       []models.Region                `koanf:"regions"`
	PricingModels []models.PricingModel          `koanf:"pricing_models"`
	Offerings     []models.Offering              `koanf:"offerings"`
	Playbooks     []models.Playbook              `koanf:"playbooks"`
	DiskTiers     []models.DiskTier              `koanf:"disk_tiers"`
	OnPrem        models.OnPremRates             `koanf:"onprem"`
	BusinessCase  models.BusinessCaseAssumptions `koanf:"business_case"`
}

// Catalog is read-only reference data. All accessors return copies.
type Catalog struct {
	regions       []models.Region
	pricingModels []models.PricingModel
	offerings     []models.Offering
	playbooks     []models.Playbook
	diskTiers     []models.DiskTier
	onPrem        models.OnPremRates
	businessCase  models.BusinessCaseAssumptions

	regionIdx   map[string]int
	pricingIdx  map[string]int
	offeringIdx map[string]int
	playbookIdx map[string]int
	ranges      map[string]semver.Range
}

// Default returns the catalog embedded in the binary
func Default() (*Catalog, error) {
	return load(rawbytes.Provider(defaultCatalog), "embedded")
}

// Load reads a catalog from a YAML file
func Load(path string) (*Catalog, error) {
	return load(file.Provider(path), path)
}

// LoadOrDefault loads path when set, otherwise the embedded catalog
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

func load(provider koanf.Provider, source string) (*Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(provider, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", source, err)
	}

	var doc document
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", source, err)
	}

	c, err := New(doc.Regions, doc.PricingModels, doc.Offerings, doc.Playbooks)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", source, err)
	}
	if c, err = c.WithDiskTiers(doc.DiskTiers); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", source, err)
	}
	c.onPrem = doc.OnPrem
	c.businessCase = doc.BusinessCase

	slog.Debug("Catalog loaded",
		"source", source,
		"regions", len(c.regions),
		"pricing_models", len(c.pricingModels),
		"offerings", len(c.offerings),
		"playbooks", len(c.playbooks),
		"disk_tiers", len(c.diskTiers),
	)
	return c, nil
}

// New builds a validated catalog from in-memory tables. Declaration order is
// preserved and used as the final tie-breaker by the recommenders.
func New(regions []models.Region, pricing []models.PricingModel, offerings []models.Offering, playbooks []models.Playbook) (*Catalog, error) {
	c := &Catalog{
		regions:       append([]models.Region(nil), regions...),
		pricingModels: append([]models.PricingModel(nil), pricing...),
		offerings:     append([]models.Offering(nil), offerings...),
		playbooks:     append([]models.Playbook(nil), playbooks...),
		regionIdx:     make(map[string]int, len(regions)),
		pricingIdx:    make(map[string]int, len(pricing)),
		offeringIdx:   make(map[string]int, len(offerings)),
		playbookIdx:   make(map[string]int, len(playbooks)),
		ranges:        make(map[string]semver.Range),
	}

	if err := c.index(); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// WithOnPremRates returns a copy of the catalog using the given on-prem rates
func (c *Catalog) WithOnPremRates(rates models.OnPremRates) *Catalog {
	cp := *c
	cp.onPrem = rates
	return &cp
}

// WithBusinessCase returns a copy of the catalog using the given assumptions
func (c *Catalog) WithBusinessCase(a models.BusinessCaseAssumptions) *Catalog {
	cp := *c
	cp.businessCase = a
	return &cp
}

// WithDiskTiers returns a copy of the catalog pricing storage with the given
// tiers. An empty list prices VMs on compute alone.
func (c *Catalog) WithDiskTiers(tiers []models.DiskTier) (*Catalog, error) {
	seen := make(map[string]bool, len(tiers))
	defaults := 0
	for i, t := range tiers {
		if t.ID == "" {
			return nil, fmt.Errorf("disk tier %d has no id", i)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate disk tier %q", t.ID)
		}
		seen[t.ID] = true
		if t.PerGBMonth < 0 || t.MaxIOPS <= 0 {
			return nil, fmt.Errorf("disk tier %q: per_gb_month must not be negative and max_iops must be positive", t.ID)
		}
		if !sort.Float64sAreSorted(t.SizesGB) {
			return nil, fmt.Errorf("disk tier %q: sizes_gb must be ascending", t.ID)
		}
		for region, m := range t.Regions {
			if _, ok := c.regionIdx[region]; !ok {
				return nil, fmt.Errorf("disk tier %q: unknown region %q in region_multipliers", t.ID, region)
			}
			if m <= 0 {
				return nil, fmt.Errorf("disk tier %q: region multiplier for %q must be positive", t.ID, region)
			}
		}
		if t.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return nil, fmt.Errorf("at most one disk tier may be the default, got %d", defaults)
	}

	cp := *c
	cp.diskTiers = make([]models.DiskTier, len(tiers))
	for i, t := range tiers {
		t.SizesGB = append([]float64(nil), t.SizesGB...)
		cp.diskTiers[i] = t
	}
	return &cp, nil
}

func (c *Catalog) index() error {
	if len(c.regions) == 0 {
		return fmt.Errorf("at least one region is required")
	}
	if len(c.pricingModels) == 0 {
		return fmt.Errorf("at least one pricing model is required")
	}
	if len(c.offerings) == 0 {
		return fmt.Errorf("at least one offering is required")
	}

	for i, r := range c.regions {
		if r.ID == "" {
			return fmt.Errorf("region %d has no id", i)
		}
		if _, dup := c.regionIdx[r.ID]; dup {
			return fmt.Errorf("duplicate region %q", r.ID)
		}
		c.regionIdx[r.ID] = i
	}
	for i, p := range c.pricingModels {
		if p.ID == "" {
			return fmt.Errorf("pricing model %d has no id", i)
		}
		if _, dup := c.pricingIdx[p.ID]; dup {
			return fmt.Errorf("duplicate pricing model %q", p.ID)
		}
		c.pricingIdx[p.ID] = i
	}
	for i, o := range c.offerings {
		if o.ID == "" {
			return fmt.Errorf("offering %d has no id", i)
		}
		if _, dup := c.offeringIdx[o.ID]; dup {
			return fmt.Errorf("duplicate offering %q", o.ID)
		}
		c.offeringIdx[o.ID] = i
	}
	for i, p := range c.playbooks {
		if p.ID == "" {
			return fmt.Errorf("playbook %d has no id", i)
		}
		if _, dup := c.playbookIdx[p.ID]; dup {
			return fmt.Errorf("duplicate playbook %q", p.ID)
		}
		if _, clash := c.offeringIdx[p.ID]; clash {
			return fmt.Errorf("playbook %q clashes with an offering id", p.ID)
		}
		c.playbookIdx[p.ID] = i
	}
	return nil
}

func (c *Catalog) validate() error {
	for _, r := range c.regions {
		if r.Multiplier <= 0 {
			return fmt.Errorf("region %q: multiplier must be positive, got %g", r.ID, r.Multiplier)
		}
	}

	for _, p := range c.pricingModels {
		switch p.Kind {
		case models.PurchasePayAsYouGo, models.PurchaseOther:
		case models.PurchaseReservation, models.PurchaseSavingsPlan:
			if p.CommitmentYears <= 0 {
				return fmt.Errorf("pricing model %q: commitment_years is required for %s", p.ID, p.Kind)
			}
		default:
			return fmt.Errorf("pricing model %q: unknown kind %q", p.ID, p.Kind)
		}
		if p.Factor <= 0 || p.Factor > 1 {
			return fmt.Errorf("pricing model %q: factor must be in (0,1], got %g", p.ID, p.Factor)
		}
	}
	if err := CheckPricingOrder(c.pricingModels, nil); err != nil {
		return err
	}

	for _, o := range c.offerings {
		if o.VCPU <= 0 || o.MemoryGB <= 0 {
			return fmt.Errorf("offering %q: vcpu and memory_gb must be positive", o.ID)
		}
		if o.HourlyPrice < 0 {
			return fmt.Errorf("offering %q: hourly_price must not be negative", o.ID)
		}
		for region, m := range o.RegionMultipliers {
			if _, ok := c.regionIdx[region]; !ok {
				return fmt.Errorf("offering %q: unknown region %q in region_multipliers", o.ID, region)
			}
			if m <= 0 {
				return fmt.Errorf("offering %q: region multiplier for %q must be positive", o.ID, region)
			}
		}
		for id, f := range o.PricingFactors {
			if _, ok := c.pricingIdx[id]; !ok {
				return fmt.Errorf("offering %q: unknown pricing model %q in pricing_factors", o.ID, id)
			}
			if f <= 0 || f > 1 {
				return fmt.Errorf("offering %q: factor for %q must be in (0,1]", o.ID, id)
			}
		}
		if len(o.PricingFactors) > 0 {
			if err := CheckPricingOrder(c.pricingModels, o.PricingFactors); err != nil {
				return fmt.Errorf("offering %q: %w", o.ID, err)
			}
		}
	}

	for _, p := range c.playbooks {
		if p.Engine == "" {
			return fmt.Errorf("playbook %q: engine is required", p.ID)
		}
		switch p.Approach {
		case models.ApproachRehost, models.ApproachReplatform, models.ApproachRefactor:
		default:
			return fmt.Errorf("playbook %q: unknown approach %q", p.ID, p.Approach)
		}
		switch p.Complexity {
		case models.ComplexityLow, models.ComplexityMedium, models.ComplexityHigh:
		default:
			return fmt.Errorf("playbook %q: unknown complexity %q", p.ID, p.Complexity)
		}
		switch p.Pricing.Kind {
		case models.PricingFlat:
		case models.PricingUsage:
			switch p.Pricing.Unit {
			case models.UnitInstances, models.UnitMemoryGB, models.UnitConnections, models.UnitVCPUEquivalent:
			default:
				return fmt.Errorf("playbook %q: unknown usage unit %q", p.ID, p.Pricing.Unit)
			}
		default:
			return fmt.Errorf("playbook %q: unknown pricing kind %q", p.ID, p.Pricing.Kind)
		}
		if p.Versions != "" {
			r, err := semver.ParseRange(p.Versions)
			if err != nil {
				return fmt.Errorf("playbook %q: invalid version range %q: %w", p.ID, p.Versions, err)
			}
			c.ranges[p.ID] = r
		}
	}
	return nil
}

// CheckPricingOrder verifies the discount ordering rules: pay-as-you-go costs at
// least as much as any reservation, longer reservations never cost more than
// shorter ones, and a savings plan never costs more than the reservation of the
// same term. Factors in overrides take precedence over each model's own factor.
func CheckPricingOrder(pricing []models.PricingModel, overrides map[string]float64) error {
	factor := func(p models.PricingModel) float64 {
		if f, ok := overrides[p.ID]; ok {
			return f
		}
		return p.Factor
	}

	var paygs, reservations, plans []models.PricingModel
	for _, p := range pricing {
		switch p.Kind {
		case models.PurchasePayAsYouGo:
			paygs = append(paygs, p)
		case models.PurchaseReservation:
			reservations = append(reservations, p)
		case models.PurchaseSavingsPlan:
			plans = append(plans, p)
		}
	}

	for _, payg := range paygs {
		for _, r := range reservations {
			if factor(r) > factor(payg) {
				return fmt.Errorf("reservation %q (%g) costs more than %q (%g)", r.ID, factor(r), payg.ID, factor(payg))
			}
		}
		for _, sp := range plans {
			if factor(sp) > factor(payg) {
				return fmt.Errorf("savings plan %q (%g) costs more than %q (%g)", sp.ID, factor(sp), payg.ID, factor(payg))
			}
		}
	}

	for _, a := range reservations {
		for _, b := range reservations {
			if a.CommitmentYears < b.CommitmentYears && factor(b) > factor(a) {
				return fmt.Errorf("reservation %q (%g) costs more than shorter %q (%g)", b.ID, factor(b), a.ID, factor(a))
			}
		}
	}

	for _, sp := range plans {
		for _, r := range reservations {
			if sp.CommitmentYears == r.CommitmentYears && factor(sp) > factor(r) {
				return fmt.Errorf("savings plan %q (%g) costs more than reservation %q (%g)", sp.ID, factor(sp), r.ID, factor(r))
			}
		}
	}
	return nil
}

// Region returns a region by id
func (c *Catalog) Region(id string) (models.Region, bool) {
	i, ok := c.regionIdx[id]
	if !ok {
		return models.Region{}, false
	}
	return c.regions[i], true
}

// PricingModel returns a pricing model by id
func (c *Catalog) PricingModel(id string) (models.PricingModel, bool) {
	i, ok := c.pricingIdx[id]
	if !ok {
		return models.PricingModel{}, false
	}
	return c.pricingModels[i], true
}

// Offering returns an offering by id
func (c *Catalog) Offering(id string) (models.Offering, bool) {
	i, ok := c.offeringIdx[id]
	if !ok {
		return models.Offering{}, false
	}
	return c.offerings[i], true
}

// Playbook returns a playbook by id
func (c *Catalog) Playbook(id string) (models.Playbook, bool) {
	i, ok := c.playbookIdx[id]
	if !ok {
		return models.Playbook{}, false
	}
	return c.playbooks[i], true
}

// Regions returns all regions in declaration order
func (c *Catalog) Regions() []models.Region {
	return append([]models.Region(nil), c.regions...)
}

// PricingModels returns all pricing models in declaration order
func (c *Catalog) PricingModels() []models.PricingModel {
	return append([]models.PricingModel(nil), c.pricingModels...)
}

// Offerings returns all offerings in declaration order
func (c *Catalog) Offerings() []models.Offering {
	return append([]models.Offering(nil), c.offerings...)
}

// Playbooks returns all playbooks in declaration order
func (c *Catalog) Playbooks() []models.Playbook {
	return append([]models.Playbook(nil), c.playbooks...)
}

// PlaybooksFor returns playbooks for an engine in declaration order
func (c *Catalog) PlaybooksFor(engine string) []models.Playbook {
	var matches []models.Playbook
	for _, p := range c.playbooks {
		if p.Engine == engine {
			matches = append(matches, p)
		}
	}
	return matches
}

// VersionRange returns the parsed version range of a playbook, if it has one
func (c *Catalog) VersionRange(playbookID string) (semver.Range, bool) {
	r, ok := c.ranges[playbookID]
	return r, ok
}

// DiskTiers returns all disk tiers in declaration order
func (c *Catalog) DiskTiers() []models.DiskTier {
	return append([]models.DiskTier(nil), c.diskTiers...)
}

// DiskTier returns a disk tier by id
func (c *Catalog) DiskTier(id string) (models.DiskTier, bool) {
	for _, t := range c.diskTiers {
		if t.ID == id {
			return t, true
		}
	}
	return models.DiskTier{}, false
}

// DiskTierFor selects the storage tier for a VM. Without observed IOPS it is
// the default tier (or the first declared); otherwise the first tier whose
// max_iops covers the observed load, falling back to the most capable tier.
// ok is false when the catalog declares no tiers.
func (c *Catalog) DiskTierFor(iops float64, observed bool) (models.DiskTier, bool) {
	if len(c.diskTiers) == 0 {
		return models.DiskTier{}, false
	}
	if !observed {
		for _, t := range c.diskTiers {
			if t.Default {
				return t, true
			}
		}
		return c.diskTiers[0], true
	}
	for _, t := range c.diskTiers {
		if t.MaxIOPS >= iops {
			return t, true
		}
	}
	return c.diskTiers[len(c.diskTiers)-1], true
}

// OnPremRates returns the on-premises cost assumptions
func (c *Catalog) OnPremRates() models.OnPremRates {
	return c.onPrem
}

// BusinessCase returns the business case assumptions
func (c *Catalog) BusinessCase() models.BusinessCaseAssumptions {
	return c.businessCase
}

// RegionIDs returns region ids sorted alphabetically
func (c *Catalog) RegionIDs() []string {
	ids := make([]string, 0, len(c.regions))
	for _, r := range c.regions {
		ids = append(ids, r.ID)
	}
	sort.Strings(ids)
	return ids
}

// PricingModelIDs returns pricing model ids in declaration order
func (c *Catalog) PricingModelIDs() []string {
	ids := make([]string, 0, len(c.pricingModels))
	for _, p := range c.pricingModels {
		ids = append(ids, p.ID)
	}
	return ids
}
