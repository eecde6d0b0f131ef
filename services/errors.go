// ABOUTME: Error taxonomy for recommendation and simulation requests
// ABOUTME: Only validation errors fail a call; the rest degrade per entity

package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownRegion       = errors.New("unknown region")
	ErrUnknownPricingModel = errors.New("unknown pricing model")
	ErrInvalidWaves        = errors.New("wave count must be positive")
	ErrUnknownTarget       = errors.New("unknown target")
	ErrNotFound            = errors.New("not found")
	ErrEmptyOverride       = errors.New("override changes nothing")
	ErrNotVM               = errors.New("only VMs can be compared across offerings")
)

// ValidationError is a structurally invalid request. Nothing is computed.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, sanitizeForLog(e.Value), e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UnresolvedReferenceError is an override or filter pointing at an entity or
// catalog id that does not exist. It is recorded per entity and never aborts a run.
type UnresolvedReferenceError struct {
	Key string
	Ref string
	Err error
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s: unresolved reference %q: %v", sanitizeForLog(e.Key), sanitizeForLog(e.Ref), e.Err)
}

func (e *UnresolvedReferenceError) Unwrap() error {
	return e.Err
}

// CatalogMissError means no offering or playbook matched an entity.
type CatalogMissError struct {
	Key    string
	Reason string
}

func (e *CatalogMissError) Error() string {
	return fmt.Sprintf("%s: no catalog match: %s", sanitizeForLog(e.Key), e.Reason)
}

// InconsistentStateError describes a request that was adjusted to stay usable,
// such as more waves than entities.
type InconsistentStateError struct {
	Reason string
}

func (e *InconsistentStateError) Error() string {
	return e.Reason
}
