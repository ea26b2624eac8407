// Package catalog holds the client-side view of the remote guide collection:
// the guide data model, the in-memory snapshot, and selection reconciliation.
package catalog

import "time"

// Category is a guide category as returned by the remote service.
type Category struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// GuideSummary is the list representation of a guide. The remote list
// endpoint returns summaries only; full bodies require a detail fetch.
type GuideSummary struct {
	ID               string    `json:"id"`
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	Summary          string    `json:"summary"`
	Difficulty       string    `json:"difficulty"`
	EstimatedMinutes int       `json:"estimatedMinutes"`
	Category         Category  `json:"category"`
	Tags             []string  `json:"tags,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Section is a single ordered step of a guide. The code and CTA fields are
// optional groups: either every field of the group is set or none is.
type Section struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	CodeTitle    string `json:"codeTitle,omitempty"`
	CodeLanguage string `json:"codeLanguage,omitempty"`
	CodeSnippet  string `json:"codeSnippet,omitempty"`
	CtaLabel     string `json:"ctaLabel,omitempty"`
	CtaURL       string `json:"ctaUrl,omitempty"`
}

// Resource is a supplementary link shown at the end of a guide.
type Resource struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Guide is the full detail representation.
type Guide struct {
	GuideSummary

	Introduction  string     `json:"introduction"`
	Prerequisites string     `json:"prerequisites,omitempty"`
	Sections      []Section  `json:"sections"`
	Resources     []Resource `json:"resources,omitempty"`
}
