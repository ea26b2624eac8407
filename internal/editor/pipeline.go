package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/guidebase/guidebase/internal/catalog"
	"github.com/guidebase/guidebase/internal/gateway"
	"github.com/guidebase/guidebase/internal/session"
)

// Submitter is the slice of the gateway the pipeline dispatches to.
type Submitter interface {
	CreateGuide(ctx context.Context, req gateway.GuideRequest, token string) (*catalog.Guide, error)
	UpdateGuide(ctx context.Context, id string, req gateway.GuideRequest, token string) (*catalog.Guide, error)
	DeleteGuide(ctx context.Context, id string, token string) error
}

// DraftInvalidError carries the field-level violations that blocked a
// submission. It is resolved locally; an invalid draft never reaches the
// network.
type DraftInvalidError struct {
	Fields []FieldError
}

func (e *DraftInvalidError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("editor: draft has %d problem(s): %s", len(e.Fields), strings.Join(parts, "; "))
}

// Pipeline validates drafts and dispatches them to the gateway. A 401 from
// any operation is delegated to the session manager's expiry path.
type Pipeline struct {
	gw   Submitter
	sess *session.Manager
	sync *catalog.Synchronizer // optional; nil skips local reconciliation
}

// NewPipeline creates a submission pipeline. sync may be nil when no local
// snapshot needs reconciling (one-shot CLI calls).
func NewPipeline(gw Submitter, sess *session.Manager, sync *catalog.Synchronizer) *Pipeline {
	return &Pipeline{gw: gw, sess: sess, sync: sync}
}

// Submit validates and normalizes the draft, then dispatches a create or
// update depending on whether the draft carries an id.
//
// On success the draft is reset to the blank template and the canonical
// persisted guide (server-assigned id and timestamps) is returned. On any
// failure the draft is left untouched for correction.
func (p *Pipeline) Submit(ctx context.Context, d *Draft) (*catalog.Guide, error) {
	if fieldErrs := Validate(d); len(fieldErrs) > 0 {
		return nil, &DraftInvalidError{Fields: fieldErrs}
	}

	token, ok := p.sess.Token()
	if !ok {
		return nil, session.ErrNotSignedIn
	}

	req := Normalize(d)

	var (
		saved *catalog.Guide
		err   error
	)
	if d.IsNew() {
		saved, err = p.gw.CreateGuide(ctx, req, token)
	} else {
		saved, err = p.gw.UpdateGuide(ctx, d.ID, req, token)
	}
	if err != nil {
		p.expireOnAuthError(err)
		return nil, err
	}

	if p.sync != nil {
		p.sync.ApplySaved(saved.GuideSummary)
	}
	d.Reset()
	return saved, nil
}

// Delete removes a guide by id. Confirmation is the caller's responsibility;
// deletion is irreversible. On success the guide is removed from the local
// snapshot without a refresh round-trip.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	token, ok := p.sess.Token()
	if !ok {
		return session.ErrNotSignedIn
	}

	if err := p.gw.DeleteGuide(ctx, id, token); err != nil {
		p.expireOnAuthError(err)
		return err
	}

	if p.sync != nil {
		p.sync.ApplyDeleted(id)
	}
	return nil
}

func (p *Pipeline) expireOnAuthError(err error) {
	var authErr *gateway.AuthError
	if errors.As(err, &authErr) {
		p.sess.Expire()
	}
}

// Normalize converts a valid draft into the wire request: strings trimmed,
// the tag list split on commas with empties dropped, fully empty resource
// rows removed.
func Normalize(d *Draft) gateway.GuideRequest {
	req := gateway.GuideRequest{
		Slug:             strings.TrimSpace(d.Slug),
		Title:            strings.TrimSpace(d.Title),
		Summary:          strings.TrimSpace(d.Summary),
		Introduction:     d.Introduction,
		Difficulty:       strings.TrimSpace(d.Difficulty),
		EstimatedMinutes: d.EstimatedMinutes,
		CategorySlug:     strings.TrimSpace(d.CategorySlug),
		Prerequisites:    strings.TrimSpace(d.Prerequisites),
		Tags:             SplitTags(d.Tags),
		Sections:         make([]catalog.Section, 0, len(d.Sections)),
		Resources:        make([]catalog.Resource, 0, len(d.Resources)),
	}

	for _, s := range d.Sections {
		req.Sections = append(req.Sections, catalog.Section{
			Title:        strings.TrimSpace(s.Title),
			Content:      s.Content,
			CodeTitle:    strings.TrimSpace(s.CodeTitle),
			CodeLanguage: strings.TrimSpace(s.CodeLanguage),
			CodeSnippet:  s.CodeSnippet,
			CtaLabel:     strings.TrimSpace(s.CtaLabel),
			CtaURL:       strings.TrimSpace(s.CtaURL),
		})
	}

	for _, r := range d.Resources {
		if strings.TrimSpace(r.Type) == "" && strings.TrimSpace(r.Title) == "" &&
			strings.TrimSpace(r.Description) == "" && strings.TrimSpace(r.URL) == "" {
			continue
		}
		req.Resources = append(req.Resources, catalog.Resource{
			Type:        strings.TrimSpace(r.Type),
			Title:       strings.TrimSpace(r.Title),
			Description: strings.TrimSpace(r.Description),
			URL:         strings.TrimSpace(r.URL),
		})
	}

	return req
}

// SplitTags splits comma-separated tag text, trimming entries and dropping
// empties.
func SplitTags(text string) []string {
	var tags []string
	for _, tag := range strings.Split(text, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
