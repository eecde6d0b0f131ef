// ABOUTME: What-if override records applied at read time over baseline recommendations
// ABOUTME: One override per entity key; an upsert replaces the previous object entirely

package models

import "time"

// Override is a user-specified deviation from the baseline for one entity.
// Empty fields keep the baseline (or scenario) value.
type Override struct {
	Key          string    `json:"key" yaml:"key"`
	Target       string    `json:"target,omitempty" yaml:"target,omitempty"`
	Region       string    `json:"region,omitempty" yaml:"region,omitempty"`
	PricingModel string    `json:"pricing_model,omitempty" yaml:"pricing_model,omitempty"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// IsEmpty reports whether the override changes nothing
func (o Override) IsEmpty() bool {
	return o.Target == "" && o.Region == "" && o.PricingModel == ""
}
