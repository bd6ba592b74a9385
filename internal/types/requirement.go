// Package types provides type definitions for structured data used throughout the bid-generation system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Classification describes how a requirement is turned into response content
type Classification string

const (
	// ClassificationGenerate means the response is produced by the generative model
	ClassificationGenerate Classification = "generate"
	// ClassificationCopyVerbatim means the requirement body is copied into the response unchanged
	ClassificationCopyVerbatim Classification = "copy_verbatim"
)

// Requirement represents one formal requirement extracted from a tender document.
// Requirements are immutable once parsed; OrderIndex fixes their position in the
// final document regardless of resolution order.
type Requirement struct {
	ID             string         `json:"id" validate:"required"`
	OrderIndex     int            `json:"order_index" validate:"gte=0"`
	PageHint       int            `json:"page_hint,omitempty"`
	Title          string         `json:"title" validate:"required"`
	BodyText       string         `json:"body_text,omitempty"`
	Classification Classification `json:"classification" validate:"required,oneof=generate copy_verbatim"`
	Keywords       []string       `json:"keywords,omitempty"`
	Weight         float64        `json:"weight,omitempty"`
}

// QueryText returns the text used to retrieve supporting material for this requirement.
func (r *Requirement) QueryText() string {
	if r.BodyText == "" {
		return r.Title
	}
	return r.Title + "\n" + r.BodyText
}
