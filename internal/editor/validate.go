package editor

import (
	"fmt"
	"strings"
)

// difficulties are the levels the service accepts.
var difficulties = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

// FieldError is one field-level validation violation.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// Validate checks a draft against the submission rules. It is pure: no side
// effects, no network. An empty result means the draft may be submitted.
//
// Optional groups (section code, section CTA, resource entries) are
// all-or-nothing: a partially filled group is a violation.
func Validate(d *Draft) []FieldError {
	var errs []FieldError

	requireNonEmpty := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, FieldError{Field: field, Message: "must not be empty"})
		}
	}

	requireNonEmpty("slug", d.Slug)
	requireNonEmpty("title", d.Title)
	requireNonEmpty("summary", d.Summary)
	requireNonEmpty("introduction", d.Introduction)
	requireNonEmpty("category", d.CategorySlug)

	if !difficulties[strings.TrimSpace(d.Difficulty)] {
		errs = append(errs, FieldError{
			Field:   "difficulty",
			Message: "must be one of beginner, intermediate, advanced",
		})
	}

	if d.EstimatedMinutes < 1 {
		errs = append(errs, FieldError{Field: "estimated_minutes", Message: "must be at least 1"})
	}

	if len(d.Sections) == 0 {
		errs = append(errs, FieldError{Field: "sections", Message: "at least one section is required"})
	}

	for i, s := range d.Sections {
		prefix := fmt.Sprintf("sections[%d]", i)
		requireNonEmpty(prefix+".title", s.Title)
		requireNonEmpty(prefix+".content", s.Content)

		errs = append(errs, checkGroup(prefix+".code", []groupField{
			{"code_title", s.CodeTitle},
			{"code_language", s.CodeLanguage},
			{"code", s.CodeSnippet},
		})...)
		errs = append(errs, checkGroup(prefix+".cta", []groupField{
			{"cta_label", s.CtaLabel},
			{"cta_url", s.CtaURL},
		})...)
	}

	for i, r := range d.Resources {
		prefix := fmt.Sprintf("resources[%d]", i)
		errs = append(errs, checkGroup(prefix, []groupField{
			{"type", r.Type},
			{"title", r.Title},
			{"description", r.Description},
			{"url", r.URL},
		})...)
	}

	return errs
}

type groupField struct {
	name  string
	value string
}

// checkGroup enforces the all-or-nothing rule for one optional field group.
func checkGroup(group string, fields []groupField) []FieldError {
	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f.value) != "" {
			filled++
		}
	}
	if filled == 0 || filled == len(fields) {
		return nil
	}

	var errs []FieldError
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, FieldError{
				Field:   group + "." + f.name,
				Message: "must be filled when any field of the group is set",
			})
		}
	}
	return errs
}
