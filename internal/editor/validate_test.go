package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() *Draft {
	return &Draft{
		Slug:             "intro-to-testing",
		Title:            "Intro to Testing",
		Summary:          "A gentle introduction.",
		Introduction:     "Testing matters because...",
		Difficulty:       "beginner",
		EstimatedMinutes: 30,
		CategorySlug:     "testing",
		Tags:             "go, testing",
		Sections: []SectionDraft{
			{Title: "First steps", Content: "Write a test."},
		},
	}
}

func fieldsOf(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateAcceptsValidDraft(t *testing.T) {
	assert.Empty(t, Validate(validDraft()))
}

func TestValidateRequiredFields(t *testing.T) {
	d := &Draft{}
	fields := fieldsOf(Validate(d))

	for _, want := range []string{"slug", "title", "summary", "introduction", "category", "difficulty", "estimated_minutes", "sections"} {
		assert.Contains(t, fields, want)
	}
}

func TestValidateWhitespaceOnlyIsEmpty(t *testing.T) {
	d := validDraft()
	d.Title = "   "

	fields := fieldsOf(Validate(d))
	assert.Equal(t, []string{"title"}, fields)
}

func TestValidateDifficulty(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"beginner", true},
		{"intermediate", true},
		{"advanced", true},
		{"  advanced  ", true},
		{"expert", false},
		{"Beginner", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			d := validDraft()
			d.Difficulty = tt.value

			fields := fieldsOf(Validate(d))
			if tt.valid {
				assert.NotContains(t, fields, "difficulty")
			} else {
				assert.Contains(t, fields, "difficulty")
			}
		})
	}
}

func TestValidateEstimatedMinutes(t *testing.T) {
	d := validDraft()
	d.EstimatedMinutes = 0
	assert.Contains(t, fieldsOf(Validate(d)), "estimated_minutes")

	d.EstimatedMinutes = -5
	assert.Contains(t, fieldsOf(Validate(d)), "estimated_minutes")

	d.EstimatedMinutes = 1
	assert.NotContains(t, fieldsOf(Validate(d)), "estimated_minutes")
}

func TestValidateSectionFields(t *testing.T) {
	d := validDraft()
	d.Sections = append(d.Sections, SectionDraft{Title: "Has title only"})

	fields := fieldsOf(Validate(d))
	assert.Contains(t, fields, "sections[1].content")
	assert.NotContains(t, fields, "sections[0].content")
}

func TestValidateCodeGroup(t *testing.T) {
	t.Run("fully empty is fine", func(t *testing.T) {
		assert.Empty(t, Validate(validDraft()))
	})

	t.Run("fully filled is fine", func(t *testing.T) {
		d := validDraft()
		d.Sections[0].CodeTitle = "example.go"
		d.Sections[0].CodeLanguage = "go"
		d.Sections[0].CodeSnippet = "package main"
		assert.Empty(t, Validate(d))
	})

	t.Run("partially filled names the missing fields", func(t *testing.T) {
		d := validDraft()
		d.Sections[0].CodeSnippet = "package main"

		errs := Validate(d)
		fields := fieldsOf(errs)
		assert.ElementsMatch(t, []string{
			"sections[0].code.code_title",
			"sections[0].code.code_language",
		}, fields)
		require.NotEmpty(t, errs)
		assert.Equal(t, "must be filled when any field of the group is set", errs[0].Message)
	})
}

func TestValidateCtaGroup(t *testing.T) {
	d := validDraft()
	d.Sections[0].CtaLabel = "Read more"

	fields := fieldsOf(Validate(d))
	assert.Equal(t, []string{"sections[0].cta.cta_url"}, fields)
}

func TestValidateResourceGroup(t *testing.T) {
	t.Run("complete resource is fine", func(t *testing.T) {
		d := validDraft()
		d.Resources = []ResourceDraft{{
			Type:        "article",
			Title:       "Further reading",
			Description: "Goes deeper.",
			URL:         "https://example.com",
		}}
		assert.Empty(t, Validate(d))
	})

	t.Run("incomplete resource is rejected", func(t *testing.T) {
		d := validDraft()
		d.Resources = []ResourceDraft{{Type: "article", URL: "https://example.com"}}

		fields := fieldsOf(Validate(d))
		assert.ElementsMatch(t, []string{
			"resources[0].title",
			"resources[0].description",
		}, fields)
	})

	t.Run("fully empty resource entry is fine", func(t *testing.T) {
		d := validDraft()
		d.Resources = []ResourceDraft{{}}
		assert.Empty(t, Validate(d))
	})
}

func TestValidateIsPure(t *testing.T) {
	d := validDraft()
	d.Title = "  padded  "

	_ = Validate(d)
	assert.Equal(t, "  padded  ", d.Title, "validation never mutates the draft")
}

func TestFieldErrorString(t *testing.T) {
	e := FieldError{Field: "slug", Message: "must not be empty"}
	assert.Equal(t, "slug: must not be empty", e.String())
}
