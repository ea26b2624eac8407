// Package editor implements the submission pipeline for guide drafts:
// field-level validation, normalization, and dispatch of create/update/delete
// operations to the gateway.
package editor

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/guidebase/guidebase/internal/catalog"
)

// Draft is an in-progress edit of a guide, or a blank template for a new
// one. It is never persisted remotely until explicitly submitted. Tags are
// held as comma-separated text and split on submission.
type Draft struct {
	ID               string          `yaml:"id,omitempty"`
	Slug             string          `yaml:"slug"`
	Title            string          `yaml:"title"`
	Summary          string          `yaml:"summary"`
	Introduction     string          `yaml:"introduction"`
	Difficulty       string          `yaml:"difficulty"`
	EstimatedMinutes int             `yaml:"estimated_minutes"`
	CategorySlug     string          `yaml:"category"`
	Prerequisites    string          `yaml:"prerequisites,omitempty"`
	Tags             string          `yaml:"tags,omitempty"`
	Sections         []SectionDraft  `yaml:"sections"`
	Resources        []ResourceDraft `yaml:"resources,omitempty"`
}

// SectionDraft mirrors a guide section. The code fields form one optional
// group and the CTA fields another: a group is valid only fully empty or
// fully filled.
type SectionDraft struct {
	Title        string `yaml:"title"`
	Content      string `yaml:"content"`
	CodeTitle    string `yaml:"code_title,omitempty"`
	CodeLanguage string `yaml:"code_language,omitempty"`
	CodeSnippet  string `yaml:"code,omitempty"`
	CtaLabel     string `yaml:"cta_label,omitempty"`
	CtaURL       string `yaml:"cta_url,omitempty"`
}

// ResourceDraft is one optional resource entry; all four fields or none.
type ResourceDraft struct {
	Type        string `yaml:"type"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
}

// NewDraft returns a blank template with one empty section, matching the
// shape an editor starts from.
func NewDraft() *Draft {
	return &Draft{
		Difficulty:       "beginner",
		EstimatedMinutes: 30,
		Sections:         []SectionDraft{{}},
	}
}

// LoadDraft reads a draft from a YAML file.
func LoadDraft(path string) (*Draft, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("editor: read draft: %w", err)
	}

	var d Draft
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("editor: parse draft %s: %w", path, err)
	}
	return &d, nil
}

// DraftFromGuide converts a fetched guide into an editable draft, for the
// edit flow.
func DraftFromGuide(g *catalog.Guide) *Draft {
	d := &Draft{
		ID:               g.ID,
		Slug:             g.Slug,
		Title:            g.Title,
		Summary:          g.Summary,
		Introduction:     g.Introduction,
		Difficulty:       g.Difficulty,
		EstimatedMinutes: g.EstimatedMinutes,
		CategorySlug:     g.Category.Slug,
		Prerequisites:    g.Prerequisites,
		Tags:             strings.Join(g.Tags, ", "),
	}
	for _, s := range g.Sections {
		d.Sections = append(d.Sections, SectionDraft{
			Title:        s.Title,
			Content:      s.Content,
			CodeTitle:    s.CodeTitle,
			CodeLanguage: s.CodeLanguage,
			CodeSnippet:  s.CodeSnippet,
			CtaLabel:     s.CtaLabel,
			CtaURL:       s.CtaURL,
		})
	}
	for _, r := range g.Resources {
		d.Resources = append(d.Resources, ResourceDraft{
			Type:        r.Type,
			Title:       r.Title,
			Description: r.Description,
			URL:         r.URL,
		})
	}
	return d
}

// IsNew reports whether submitting this draft creates a new guide.
func (d *Draft) IsNew() bool {
	return d.ID == ""
}

// Reset returns the draft to the blank template. Called after a successful
// submission.
func (d *Draft) Reset() {
	*d = *NewDraft()
}
