package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidebase/guidebase/internal/catalog"
	"github.com/guidebase/guidebase/internal/config"
	"github.com/guidebase/guidebase/internal/gateway"
)

// fakeGateway serves a canned catalog.
type fakeGateway struct {
	guides  []catalog.GuideSummary
	details map[string]*catalog.Guide
	listErr error
}

func (f *fakeGateway) ListGuides(ctx context.Context) ([]catalog.GuideSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]catalog.GuideSummary, len(f.guides))
	copy(out, f.guides)
	return out, nil
}

func (f *fakeGateway) GetGuide(ctx context.Context, idOrSlug string) (*catalog.Guide, error) {
	if g, ok := f.details[idOrSlug]; ok {
		return g, nil
	}
	return nil, &gateway.NotFoundError{Resource: "guide", Key: idOrSlug}
}

func (f *fakeGateway) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return nil, nil
}

func testGateway() *fakeGateway {
	updated := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	summary := catalog.GuideSummary{
		ID:               "1",
		Slug:             "intro-to-testing",
		Title:            "Intro to Testing",
		Summary:          "A gentle introduction.",
		Difficulty:       "beginner",
		EstimatedMinutes: 30,
		UpdatedAt:        updated,
	}
	return &fakeGateway{
		guides: []catalog.GuideSummary{summary},
		details: map[string]*catalog.Guide{
			"intro-to-testing": {
				GuideSummary: summary,
				Introduction: "Testing *matters*.",
				Sections: []catalog.Section{{
					Title:        "First test",
					Content:      "Write it.",
					CodeTitle:    "main_test.go",
					CodeLanguage: "go",
					CodeSnippet:  "func TestMain(t *testing.T) {}",
				}},
			},
		},
	}
}

func testServer(t *testing.T, gw Gateway, draftsDir string) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Serve.DraftsDir = draftsDir

	s := New(cfg, gw)
	t.Cleanup(s.cache.Stop)

	_, err := s.sync.Refresh(context.Background())
	if err != nil {
		s.setListErr(err)
	}
	return s
}

func TestHandleIndex(t *testing.T) {
	s := testServer(t, testGateway(), "")

	rec := httptest.NewRecorder()
	s.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Intro to Testing")
	assert.Contains(t, body, "/guides/intro-to-testing")
	assert.Contains(t, body, "Select a guide from the list.")
}

func TestHandleIndexListFailure(t *testing.T) {
	s := testServer(t, &fakeGateway{listErr: &gateway.ConnectionError{Operation: "GET", Err: errors.New("refused")}}, "")

	rec := httptest.NewRecorder()
	s.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "Could not reach the service.")
}

func newGuideRequest(slug string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/guides/"+slug, nil)
	req.SetPathValue("slug", slug)
	return req
}

func TestHandleGuide(t *testing.T) {
	s := testServer(t, testGateway(), "")

	rec := httptest.NewRecorder()
	s.handleGuide(rec, newGuideRequest("intro-to-testing"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<em>matters</em>", "introduction markdown is rendered")
	assert.Contains(t, body, "code-block__copy-button")
	assert.Contains(t, body, "language-go")
}

func TestHandleGuideNotFoundShowsPlaceholder(t *testing.T) {
	s := testServer(t, testGateway(), "")

	rec := httptest.NewRecorder()
	s.handleGuide(rec, newGuideRequest("deleted-elsewhere"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "This guide no longer exists.")
	assert.Contains(t, body, "Intro to Testing", "the list stays up alongside the placeholder")
}

func TestHandleGuideUsesCache(t *testing.T) {
	gw := testGateway()
	s := testServer(t, gw, "")

	rec := httptest.NewRecorder()
	s.handleGuide(rec, newGuideRequest("intro-to-testing"))
	require.Equal(t, http.StatusOK, rec.Code)

	// Remove the backing detail; the cached copy must still serve.
	delete(gw.details, "intro-to-testing")

	rec = httptest.NewRecorder()
	s.handleGuide(rec, newGuideRequest("intro-to-testing"))
	assert.Contains(t, rec.Body.String(), "<em>matters</em>")
}

func writeDraft(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const validDraftYAML = `slug: draft-guide
title: Draft Guide
summary: In progress.
introduction: Still writing.
difficulty: beginner
estimated_minutes: 10
category: testing
sections:
  - title: Only step
    content: Do it.
`

func newDraftRequest(name string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/drafts/"+name, nil)
	req.SetPathValue("name", name)
	return req
}

func TestHandleDraft(t *testing.T) {
	dir := t.TempDir()
	writeDraft(t, dir, "draft-guide.yaml", validDraftYAML)
	s := testServer(t, testGateway(), dir)

	rec := httptest.NewRecorder()
	s.handleDraft(rec, newDraftRequest("draft-guide.yaml"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Draft Guide")
	assert.Contains(t, body, "Still writing.")
	assert.NotContains(t, body, "not ready to submit")
}

func TestHandleDraftShowsViolations(t *testing.T) {
	dir := t.TempDir()
	writeDraft(t, dir, "incomplete.yaml", "title: Only a title\nsections:\n  - title: x\n    content: y\n")
	s := testServer(t, testGateway(), dir)

	rec := httptest.NewRecorder()
	s.handleDraft(rec, newDraftRequest("incomplete.yaml"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "not ready to submit")
	assert.Contains(t, body, "slug: must not be empty")
}

func TestHandleDraftRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	s := testServer(t, testGateway(), dir)

	for _, name := range []string{"../secrets.yaml", "a/b.yaml", ".."} {
		rec := httptest.NewRecorder()
		s.handleDraft(rec, newDraftRequest(name))
		assert.Equal(t, http.StatusNotFound, rec.Code, name)
	}
}

func TestHandleDraftWithoutDraftsDir(t *testing.T) {
	s := testServer(t, testGateway(), "")

	rec := httptest.NewRecorder()
	s.handleDraft(rec, newDraftRequest("any.yaml"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftNames(t *testing.T) {
	dir := t.TempDir()
	writeDraft(t, dir, "b.yaml", validDraftYAML)
	writeDraft(t, dir, "a.yml", validDraftYAML)
	writeDraft(t, dir, "notes.txt", "ignore me")
	s := testServer(t, testGateway(), dir)

	names := s.draftNames()
	assert.ElementsMatch(t, []string{"a.yml", "b.yaml"}, names)
}

func TestSnapshotDigest(t *testing.T) {
	now := time.Now().UTC()
	a := []catalog.GuideSummary{{ID: "1", UpdatedAt: now}}
	b := []catalog.GuideSummary{{ID: "1", UpdatedAt: now.Add(time.Second)}}
	c := []catalog.GuideSummary{{ID: "1", UpdatedAt: now}, {ID: "2", UpdatedAt: now}}

	assert.Equal(t, snapshotDigest(a), snapshotDigest(a))
	assert.NotEqual(t, snapshotDigest(a), snapshotDigest(b), "edits change the digest")
	assert.NotEqual(t, snapshotDigest(a), snapshotDigest(c), "additions change the digest")
	assert.Equal(t, "", snapshotDigest(nil))
}

func TestAssetHandlers(t *testing.T) {
	s := testServer(t, testGateway(), "")

	tests := []struct {
		name        string
		handler     http.HandlerFunc
		contentType string
		contains    string
	}{
		{"app css", s.handleAppCSS, "text/css; charset=utf-8", ".code-block"},
		{"highlight css", s.handleHighlightCSS, "text/css; charset=utf-8", ".chroma"},
		{"copy script", s.handleCopyScript, "application/javascript; charset=utf-8", "code-block__copy-button"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}
