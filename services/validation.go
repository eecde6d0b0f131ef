// ABOUTME: Input validation for scenario parameters, entity keys, and overrides
// ABOUTME: Strips control characters from user input before it reaches logs or errors

package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/markalston/migration-planner/catalog"
	"github.com/markalston/migration-planner/models"
)

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1 // Remove control characters
		}
		return r
	}, s)
}

// ValidateEntityKey accepts any name vSphere could report: keys must be
// non-empty UTF-8 without control characters. Keys are only ever looked up,
// never used as paths.
func ValidateEntityKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("entity key cannot be empty")
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("entity key is not valid UTF-8: %q", key)
	}
	if strings.IndexFunc(key, unicode.IsControl) >= 0 {
		return fmt.Errorf("entity key contains control characters: %s", sanitizeForLog(key))
	}
	return nil
}

// ValidateScenario rejects scenarios with an unknown region or pricing model,
// or a non-positive wave count.
func ValidateScenario(c *catalog.Catalog, s models.Scenario) error {
	if _, ok := c.Region(s.Region); !ok {
		return &ValidationError{Field: "region", Value: s.Region, Err: ErrUnknownRegion}
	}
	if _, ok := c.PricingModel(s.PricingModel); !ok {
		return &ValidationError{Field: "pricing model", Value: s.PricingModel, Err: ErrUnknownPricingModel}
	}
	if s.Waves <= 0 {
		return &ValidationError{Field: "waves", Value: fmt.Sprintf("%d", s.Waves), Err: ErrInvalidWaves}
	}
	return nil
}

// ValidateOverride checks an override's references against the catalog. Target
// ids must name an offering for VM keys and a playbook for workload keys.
func ValidateOverride(c *catalog.Catalog, kind models.EntityKind, o models.Override) error {
	if o.Region != "" {
		if _, ok := c.Region(o.Region); !ok {
			return &UnresolvedReferenceError{Key: o.Key, Ref: o.Region, Err: ErrUnknownRegion}
		}
	}
	if o.PricingModel != "" {
		if _, ok := c.PricingModel(o.PricingModel); !ok {
			return &UnresolvedReferenceError{Key: o.Key, Ref: o.PricingModel, Err: ErrUnknownPricingModel}
		}
	}
	if o.Target != "" {
		var found bool
		switch kind {
		case models.KindVM:
			_, found = c.Offering(o.Target)
		case models.KindWorkload:
			_, found = c.Playbook(o.Target)
		}
		if !found {
			return &UnresolvedReferenceError{Key: o.Key, Ref: o.Target, Err: ErrUnknownTarget}
		}
	}
	return nil
}
