package usecases

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/samirrijal/tourmap/internal/core/domain"
	"github.com/samirrijal/tourmap/internal/core/ports"
)

// Frame is one settled snapshot of explorer state to reconcile against.
type Frame struct {
	Results    []domain.EnrichedPlace
	SelectedID string
	User       *domain.GeoPoint
	ShowLabels bool
}

// SyncStats reports what one synchronization pass changed.
type SyncStats struct {
	Created  int
	Restyled int
	Removed  int
	Skipped  int
	Failed   int
}

// MarkerSync keeps the rendered marker set equal to the latest query result.
// It is not safe for concurrent use; the Explorer serialises calls.
type MarkerSync struct {
	surface ports.MapSurface
	log     *slog.Logger
	handles map[string]*domain.MarkerHandle
	user    *domain.GeoPoint
	invalid map[string]struct{} // places already reported as unplaceable
}

// NewMarkerSync creates a synchronizer with no rendered markers.
func NewMarkerSync(surface ports.MapSurface, log *slog.Logger) *MarkerSync {
	if log == nil {
		log = slog.Default()
	}
	return &MarkerSync{
		surface: surface,
		log:     log,
		handles: make(map[string]*domain.MarkerHandle),
		invalid: make(map[string]struct{}),
	}
}

// StyleFor computes the visual state of a result within a frame.
func StyleFor(p domain.EnrichedPlace, f Frame) domain.MarkerStyle {
	s := domain.MarkerStyle{
		Featured:  p.Featured,
		Selected:  p.ID == f.SelectedID,
		ShowLabel: f.ShowLabels,
	}
	if p.DistanceKm != nil {
		s.Caption = fmt.Sprintf("%.1f km %s", *p.DistanceKm, p.Direction)
	}
	return s
}

// Apply reconciles the surface with f. Places only in the previous set are
// removed, places only in f are created and places in both are restyled when
// their style changed. It returns domain.ErrSurfaceNotReady, leaving all state
// untouched, when the surface cannot draw yet.
func (m *MarkerSync) Apply(f Frame) (SyncStats, error) {
	var st SyncStats
	if !m.surface.Ready() {
		return st, domain.ErrSurfaceNotReady
	}

	current := make(map[string]struct{}, len(f.Results))
	for _, p := range f.Results {
		if !p.Location.Valid() {
			st.Skipped++
			if _, seen := m.invalid[p.ID]; !seen {
				m.invalid[p.ID] = struct{}{}
				m.log.Warn("skipping marker with invalid coordinates", "place_id", p.ID,
					"lat", p.Location.Lat, "lon", p.Location.Lon)
			}
			continue
		}
		if _, dup := current[p.ID]; dup {
			continue
		}
		current[p.ID] = struct{}{}
	}

	for id := range m.handles {
		if _, keep := current[id]; keep {
			continue
		}
		// A failed remove keeps the handle so the next pass retries it.
		if err := m.surface.RemoveMarker(id); err != nil {
			st.Failed++
			m.log.Warn("remove marker failed", "place_id", id, "error", err)
			continue
		}
		delete(m.handles, id)
		st.Removed++
	}

	for _, p := range f.Results {
		if _, ok := current[p.ID]; !ok {
			continue
		}
		style := StyleFor(p, f)
		if h, exists := m.handles[p.ID]; exists {
			if h.Style == style {
				continue
			}
			if err := m.surface.RestyleMarker(p.ID, style); err != nil {
				st.Failed++
				m.log.Warn("restyle marker failed", "place_id", p.ID, "error", err)
				continue
			}
			h.Style = style
			st.Restyled++
			continue
		}
		if err := m.surface.RenderMarker(p, style); err != nil {
			st.Failed++
			m.log.Warn("render marker failed", "place_id", p.ID, "error", err)
			continue
		}
		m.handles[p.ID] = &domain.MarkerHandle{PlaceID: p.ID, Style: style}
		st.Created++
	}

	m.syncUser(f.User, &st)
	return st, nil
}

// syncUser re-creates the user marker whenever the position changes.
func (m *MarkerSync) syncUser(user *domain.GeoPoint, st *SyncStats) {
	if user != nil && !user.Valid() {
		user = nil
	}
	switch {
	case user == nil && m.user == nil:
		return
	case user != nil && m.user != nil && *user == *m.user:
		return
	}

	if m.user != nil {
		if err := m.surface.RemoveUserMarker(); err != nil {
			st.Failed++
			m.log.Warn("remove user marker failed", "error", err)
		}
		m.user = nil
	}
	if user == nil {
		return
	}
	if err := m.surface.RenderUserMarker(*user); err != nil {
		st.Failed++
		m.log.Warn("render user marker failed", "error", err)
		return
	}
	pos := *user
	m.user = &pos
}

// Reset forgets every handle without touching the surface. Used when the
// surface was re-created and its previous elements are already gone.
func (m *MarkerSync) Reset() {
	m.handles = make(map[string]*domain.MarkerHandle)
	m.user = nil
}

// PlaceIDs returns the ids of live marker handles, sorted.
func (m *MarkerSync) PlaceIDs() []string {
	ids := make([]string, 0, len(m.handles))
	for id := range m.handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Handle returns the live handle for a place, if any.
func (m *MarkerSync) Handle(placeID string) (domain.MarkerHandle, bool) {
	h, ok := m.handles[placeID]
	if !ok {
		return domain.MarkerHandle{}, false
	}
	return *h, true
}

// HasUserMarker reports whether the user-position marker is rendered.
func (m *MarkerSync) HasUserMarker() bool { return m.user != nil }
