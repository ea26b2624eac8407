package catalog

import (
	"context"
	"sort"
	"sync"
)

// Lister is the slice of the gateway the synchronizer needs.
type Lister interface {
	ListGuides(ctx context.Context) ([]GuideSummary, error)
	GetGuide(ctx context.Context, idOrSlug string) (*Guide, error)
}

// Synchronizer owns the in-memory snapshot of the remote guide collection.
// The remote list is authoritative: every successful refresh replaces the
// snapshot wholesale and re-sorts it by descending update time.
//
// Refreshes carry monotonic sequence numbers. When two refreshes overlap, a
// response belonging to a refresh older than the last applied one is
// discarded, so a slow request resolving after a faster newer one can never
// roll the snapshot back.
type Synchronizer struct {
	gw Lister

	mu         sync.Mutex
	guides     []GuideSummary
	selectedID string
	nextSeq    uint64
	appliedSeq uint64
}

// NewSynchronizer creates a synchronizer backed by the given gateway.
func NewSynchronizer(gw Lister) *Synchronizer {
	return &Synchronizer{gw: gw}
}

// Refresh fetches the full collection and replaces the local snapshot.
// It returns the ordered snapshot that is current after the call: the freshly
// fetched one, or the already-applied newer one if this refresh was overtaken
// by a later refresh while in flight.
func (s *Synchronizer) Refresh(ctx context.Context) ([]GuideSummary, error) {
	s.mu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.mu.Unlock()

	guides, err := s.gw.ListGuides(ctx)
	if err != nil {
		return nil, err
	}

	sortByUpdatedDesc(guides)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.appliedSeq {
		// A newer refresh already landed; drop this stale response.
		return copyGuides(s.guides), nil
	}

	s.appliedSeq = seq
	s.guides = guides
	return copyGuides(s.guides), nil
}

// ReconcileSelection re-derives the selected guide after the snapshot changed.
// If previousID still exists it stays selected (its fields come from the new
// snapshot, covering the case where the selected guide itself was edited).
// Otherwise the first guide in the new ordering is selected, or nothing when
// the collection is empty.
func (s *Synchronizer) ReconcileSelection(previousID string) (GuideSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if previousID != "" {
		for _, g := range s.guides {
			if g.ID == previousID {
				s.selectedID = previousID
				return g, true
			}
		}
	}

	if len(s.guides) == 0 {
		s.selectedID = ""
		return GuideSummary{}, false
	}

	s.selectedID = s.guides[0].ID
	return s.guides[0], true
}

// Select marks the guide with the given id as selected, if present.
func (s *Synchronizer) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.guides {
		if g.ID == id {
			s.selectedID = id
			return true
		}
	}
	return false
}

// Selected returns the currently selected guide, if any.
func (s *Synchronizer) Selected() (GuideSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedID == "" {
		return GuideSummary{}, false
	}
	for _, g := range s.guides {
		if g.ID == s.selectedID {
			return g, true
		}
	}
	return GuideSummary{}, false
}

// FetchDetail fetches the full record for a single guide, independently of
// the list snapshot. A failure here never touches list state, and a list
// failure never touches an already-fetched detail.
func (s *Synchronizer) FetchDetail(ctx context.Context, idOrSlug string) (*Guide, error) {
	return s.gw.GetGuide(ctx, idOrSlug)
}

// ApplySaved folds a freshly persisted guide into the snapshot without a
// full refresh: the server-returned record replaces any entry with the same
// id (or is inserted), the ordering is re-derived, and the guide becomes the
// selection.
func (s *Synchronizer) ApplySaved(g GuideSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]GuideSummary, 0, len(s.guides)+1)
	next = append(next, g)
	for _, existing := range s.guides {
		if existing.ID != g.ID {
			next = append(next, existing)
		}
	}
	sortByUpdatedDesc(next)

	s.guides = next
	s.selectedID = g.ID
}

// ApplyDeleted removes a guide from the snapshot without a refresh
// round-trip. Deleting the selected guide clears the selection.
func (s *Synchronizer) ApplyDeleted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.guides[:0:0]
	for _, g := range s.guides {
		if g.ID != id {
			next = append(next, g)
		}
	}
	s.guides = next

	if s.selectedID == id {
		s.selectedID = ""
	}
}

// Snapshot returns a copy of the current ordered snapshot.
func (s *Synchronizer) Snapshot() []GuideSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyGuides(s.guides)
}

// Len returns the number of guides in the snapshot.
func (s *Synchronizer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.guides)
}

func sortByUpdatedDesc(guides []GuideSummary) {
	sort.SliceStable(guides, func(i, j int) bool {
		return guides[i].UpdatedAt.After(guides[j].UpdatedAt)
	})
}

func copyGuides(guides []GuideSummary) []GuideSummary {
	out := make([]GuideSummary, len(guides))
	copy(out, guides)
	return out
}
