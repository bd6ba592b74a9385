// Package types provides type definitions for structured data used throughout the bid-generation system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Fragment represents the resolved textual output for exactly one requirement
type Fragment struct {
	RequirementID string           `json:"requirement_id"`
	OrderIndex    int              `json:"order_index"`
	PageHint      int              `json:"page_hint,omitempty"`
	Title         string           `json:"title"`
	Content       string           `json:"content"`
	Placeholder   bool             `json:"placeholder,omitempty"`
	Generated     bool             `json:"generated,omitempty"`
	Sources       []FragmentSource `json:"sources,omitempty"`
}

// FragmentSource records one knowledge-base file that supported a generated fragment
type FragmentSource struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}
