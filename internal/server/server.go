// Package server is the local preview server: a read-only viewer over the
// synchronized catalog with enhanced rendering, live draft previews, and
// websocket-driven reload.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/guidebase/guidebase/internal/cache"
	"github.com/guidebase/guidebase/internal/catalog"
	"github.com/guidebase/guidebase/internal/config"
	"github.com/guidebase/guidebase/internal/editor"
	"github.com/guidebase/guidebase/internal/gateway"
	"github.com/guidebase/guidebase/internal/render"
)

// Gateway is the slice of the remote boundary the preview server reads from.
type Gateway interface {
	catalog.Lister
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

// Server serves the catalog viewer. All remote reads go through the
// synchronizer (list) or the TTL cache (details, categories); the server
// itself holds no durable state.
type Server struct {
	cfg   *config.Config
	gw    Gateway
	sync  *catalog.Synchronizer
	cache *cache.MemoryCache

	connections *connectionSet
	watcher     *Watcher
	httpServer  *http.Server
	done        chan struct{}

	mu         sync.RWMutex
	listErr    error  // last refresh failure, shown in the sidebar
	lastDigest string // snapshot fingerprint for change detection
}

// New creates a preview server.
func New(cfg *config.Config, gw Gateway) *Server {
	return &Server{
		cfg:         cfg,
		gw:          gw,
		sync:        catalog.NewSynchronizer(gw),
		cache:       cache.NewMemoryCache(),
		connections: newConnectionSet(),
		done:        make(chan struct{}),
	}
}

// Run starts the server and blocks until ctx is canceled or serving fails.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.sync.Refresh(ctx); err != nil {
		// Serve anyway: the viewer shows the failure and retries on the
		// next refresh tick.
		s.setListErr(err)
		log.Printf("[serve] initial refresh failed: %v", err)
	}
	s.lastDigest = snapshotDigest(s.sync.Snapshot())

	if dir := s.cfg.Serve.DraftsDir; dir != "" {
		watcher, err := NewWatcher(dir, func(path string) {
			log.Printf("[watch] draft changed: %s", path)
			s.connections.broadcastReload(path)
		}, s.cfg.Serve.Debug)
		if err != nil {
			return fmt.Errorf("serve: start drafts watcher: %w", err)
		}
		watcher.Start()
		s.watcher = watcher
		defer watcher.Stop()
	}

	go s.refreshLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /guides/{slug}", s.handleGuide)
	mux.HandleFunc("GET /drafts/{name}", s.handleDraft)
	mux.HandleFunc("GET /assets/app.css", s.handleAppCSS)
	mux.HandleFunc("GET /assets/highlight.css", s.handleHighlightCSS)
	mux.HandleFunc("GET /assets/copy.js", s.handleCopyScript)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := LoggingMiddleware(s.cfg.Serve.Debug)(
		SecurityHeadersMiddleware()(
			RateLimitMiddleware(20, 40)(
				WithCompression(mux))))

	s.httpServer = &http.Server{
		Addr:    s.cfg.Serve.Addr(),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[serve] listening on http://%s", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		close(s.done)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.cache.Stop()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		close(s.done)
		s.cache.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// refreshLoop re-synchronizes the catalog and notifies viewers on change.
func (s *Server) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Serve.GetRefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snapshot, err := s.sync.Refresh(ctx)
			if err != nil {
				s.setListErr(err)
				log.Printf("[serve] refresh failed: %v", err)
				continue
			}
			s.setListErr(nil)

			digest := snapshotDigest(snapshot)
			if digest != s.lastDigest {
				s.lastDigest = digest
				s.cache.InvalidateAll()
				s.connections.broadcastReload("catalog")
			}
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) setListErr(err error) {
	s.mu.Lock()
	s.listErr = err
	s.mu.Unlock()
}

func (s *Server) listError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listErr == nil {
		return ""
	}
	return gateway.UserFriendlyMessage(s.listErr)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, pageData{
		Title:     "Guides",
		Guides:    s.sync.Snapshot(),
		ListError: s.listError(),
		Drafts:    s.draftNames(),
	})
}

func (s *Server) handleGuide(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	data := pageData{
		Guides:    s.sync.Snapshot(),
		ListError: s.listError(),
		Drafts:    s.draftNames(),
		Active:    slug,
	}

	guide, err := s.fetchGuide(r.Context(), slug)
	if err != nil {
		var notFound *gateway.NotFoundError
		if errors.As(err, &notFound) {
			// A stale selection after deletion elsewhere: placeholder, not
			// an error banner, and the list stays up.
			data.Title = "Guides"
			data.Placeholder = "This guide no longer exists."
			s.renderPage(w, data)
			return
		}
		data.Title = "Guides"
		data.DetailError = gateway.UserFriendlyMessage(err)
		s.renderPage(w, data)
		return
	}

	body, err := render.GuideHTML(guide)
	if err != nil {
		log.Printf("[serve] render %s failed: %v", slug, err)
		http.Error(w, "failed to render guide", http.StatusInternalServerError)
		return
	}

	data.Title = guide.Title
	data.Content = body
	s.renderPage(w, data)
}

// fetchGuide reads a detail record through the TTL cache.
func (s *Server) fetchGuide(ctx context.Context, slug string) (*catalog.Guide, error) {
	key := "guide:" + slug
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*catalog.Guide), nil
	}

	guide, err := s.sync.FetchDetail(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, guide, s.cfg.Serve.GetCacheTTL())
	return guide, nil
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if s.cfg.Serve.DraftsDir == "" {
		http.NotFound(w, r)
		return
	}

	// Draft names come from the URL; keep them inside the drafts dir.
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.cfg.Serve.DraftsDir, name)
	draft, err := editor.LoadDraft(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	data := pageData{
		Title:  "Draft: " + name,
		Guides: s.sync.Snapshot(),
		Drafts: s.draftNames(),
		Active: "draft:" + name,
	}

	if fieldErrs := editor.Validate(draft); len(fieldErrs) > 0 {
		for _, fe := range fieldErrs {
			data.Violations = append(data.Violations, fe.String())
		}
	}

	body, err := render.GuideHTML(previewGuide(draft))
	if err != nil {
		log.Printf("[serve] render draft %s failed: %v", name, err)
		http.Error(w, "failed to render draft", http.StatusInternalServerError)
		return
	}
	data.Content = body

	s.renderPage(w, data)
}

// previewGuide builds a throwaway guide from a draft for rendering. The
// normalized request is the single source of the preview's content, so what
// the editor sees is what would be submitted.
func previewGuide(d *editor.Draft) *catalog.Guide {
	req := editor.Normalize(d)
	return &catalog.Guide{
		GuideSummary: catalog.GuideSummary{
			ID:               d.ID,
			Slug:             req.Slug,
			Title:            req.Title,
			Summary:          req.Summary,
			Difficulty:       req.Difficulty,
			EstimatedMinutes: req.EstimatedMinutes,
			Category:         catalog.Category{Slug: req.CategorySlug, Title: req.CategorySlug},
			Tags:             req.Tags,
		},
		Introduction:  req.Introduction,
		Prerequisites: req.Prerequisites,
		Sections:      req.Sections,
		Resources:     req.Resources,
	}
}

func (s *Server) draftNames() []string {
	if s.cfg.Serve.DraftsDir == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(s.cfg.Serve.DraftsDir, "*.yaml"))
	if err != nil {
		return nil
	}
	more, _ := filepath.Glob(filepath.Join(s.cfg.Serve.DraftsDir, "*.yml"))
	matches = append(matches, more...)

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	fmt.Fprint(w, render.BaseCSS)
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	css, err := render.HighlightCSS()
	if err != nil {
		http.Error(w, "failed to generate stylesheet", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	fmt.Fprint(w, css)
}

func (s *Server) handleCopyScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	fmt.Fprint(w, render.CopyScript)
}

// snapshotDigest fingerprints a snapshot for cheap change detection.
func snapshotDigest(guides []catalog.GuideSummary) string {
	var sb strings.Builder
	for _, g := range guides {
		sb.WriteString(g.ID)
		sb.WriteByte('@')
		sb.WriteString(g.UpdatedAt.UTC().Format(time.RFC3339Nano))
		sb.WriteByte(';')
	}
	return sb.String()
}
