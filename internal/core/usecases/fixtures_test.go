package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/samirrijal/tourmap/internal/core/domain"
	"github.com/samirrijal/tourmap/internal/core/ports"
	"github.com/samirrijal/tourmap/internal/core/usecases"
	"github.com/samirrijal/tourmap/internal/pkg/geospatial"
)

// --- Fixture catalog ---

var (
	panaji  = domain.GeoPoint{Lat: 15.5, Lon: 73.8}
	goa     = domain.City{Name: "Goa", Emoji: "🏖️", Center: domain.GeoPoint{Lat: 15.2993, Lon: 74.124}}
	mumbai  = domain.City{Name: "Mumbai", Emoji: "🏙️", Center: domain.GeoPoint{Lat: 19.076, Lon: 72.8777}}
	fixture = []domain.Place{
		{ID: "g2", Name: "Calangute Beach", Type: domain.TypeBeach, Category: domain.CategoryAttractions, City: "Goa",
			Location: domain.GeoPoint{Lat: 15.5438, Lon: 73.7555}, Address: "Calangute, North Goa", Rating: 4.4, Featured: true, IsOpen: true},
		{ID: "g5", Name: "Curlies Beach Shack", Type: domain.TypeBar, Category: domain.CategoryFood, City: "Goa",
			Location: domain.GeoPoint{Lat: 15.5733, Lon: 73.74}, Address: "South Anjuna Beach", Rating: 4.2, Phone: "+91 832 227 3234", IsOpen: true},
		{ID: "g6", Name: "Fort Aguada", Type: domain.TypeFort, Category: domain.CategoryAttractions, City: "Goa",
			Location: domain.GeoPoint{Lat: 15.492, Lon: 73.7737}, Address: "Candolim", Rating: 4.5},
		{ID: "g7", Name: "Taj Exotica", Type: domain.TypeLuxuryHotel, Category: domain.CategoryHotels, City: "Goa",
			Location: domain.GeoPoint{Lat: 15.2167, Lon: 73.9333}, Address: "Benaulim", Rating: 4.7, Featured: true},
		{ID: "g8", Name: "Mapusa Market", Type: domain.TypeMarket, Category: domain.CategoryShopping, City: "Goa",
			Location: domain.GeoPoint{Lat: 15.5916, Lon: 73.809}, Address: "Mapusa", Rating: 4.0},
		{ID: "g9", Name: "Lost Pin Cafe", Type: domain.TypeCafe, Category: domain.CategoryFood, City: "Goa",
			Location: domain.GeoPoint{}, Address: "Unknown"},
		{ID: "m1", Name: "Gateway of India", Type: domain.TypeMonument, Category: domain.CategoryAttractions, City: "Mumbai",
			Location: domain.GeoPoint{Lat: 18.922, Lon: 72.8347}, Address: "Apollo Bandar, Colaba", Rating: 4.6, Featured: true},
	}
)

func newTestEngine(t *testing.T) *usecases.QueryEngine {
	t.Helper()
	c, err := usecases.NewCatalog(fixture, []domain.City{mumbai, goa})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return usecases.NewQueryEngine(c, geospatial.DefaultSpeeds)
}

func ids(places []domain.EnrichedPlace) []string {
	out := make([]string, len(places))
	for i, p := range places {
		out[i] = p.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Fake MapSurface ---

type fakeSurface struct {
	mu       sync.Mutex
	notReady bool
	failIDs  map[string]bool
	failRm   map[string]bool
	failFits int              // number of upcoming FitBounds calls that fail
	onRender func(id string) // called before each RenderMarker, outside the lock

	markers map[string]domain.MarkerStyle
	user    *domain.GeoPoint
	route   *[2]domain.GeoPoint

	renders, restyles, removes int
	userRenders                int
	routeDraws, routeRemoves   int
	fits                       []domain.Bounds
	views                      []domain.GeoPoint
	ops                        []string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{markers: make(map[string]domain.MarkerStyle), failIDs: make(map[string]bool), failRm: make(map[string]bool)}
}

func (s *fakeSurface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.notReady
}

func (s *fakeSurface) setReady(ready bool) {
	s.mu.Lock()
	s.notReady = !ready
	s.mu.Unlock()
}

func (s *fakeSurface) RenderMarker(p domain.EnrichedPlace, style domain.MarkerStyle) error {
	if s.onRender != nil {
		s.onRender(p.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[p.ID] {
		return errors.New("render failed")
	}
	if _, dup := s.markers[p.ID]; dup {
		return fmt.Errorf("duplicate marker %s", p.ID)
	}
	s.markers[p.ID] = style
	s.renders++
	s.ops = append(s.ops, "marker+"+p.ID)
	return nil
}

func (s *fakeSurface) RestyleMarker(id string, style domain.MarkerStyle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markers[id]; !ok {
		return fmt.Errorf("unknown marker %s", id)
	}
	s.markers[id] = style
	s.restyles++
	s.ops = append(s.ops, "restyle:"+id)
	return nil
}

func (s *fakeSurface) RemoveMarker(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRm[id] {
		return errors.New("remove failed")
	}
	delete(s.markers, id)
	s.removes++
	s.ops = append(s.ops, "marker-"+id)
	return nil
}

func (s *fakeSurface) RenderUserMarker(at domain.GeoPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		return errors.New("user marker already rendered")
	}
	s.user = &at
	s.userRenders++
	s.ops = append(s.ops, "user+")
	return nil
}

func (s *fakeSurface) RemoveUserMarker() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.ops = append(s.ops, "user-")
	return nil
}

func (s *fakeSurface) DrawRoute(from, to domain.GeoPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.route != nil {
		return errors.New("route already drawn")
	}
	s.route = &[2]domain.GeoPoint{from, to}
	s.routeDraws++
	s.ops = append(s.ops, "route+")
	return nil
}

func (s *fakeSurface) RemoveRoute() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.route = nil
	s.routeRemoves++
	s.ops = append(s.ops, "route-")
	return nil
}

func (s *fakeSurface) FitBounds(b domain.Bounds, paddingPx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFits > 0 {
		s.failFits--
		return errors.New("fit failed")
	}
	s.fits = append(s.fits, b)
	s.ops = append(s.ops, fmt.Sprintf("fit:%d", paddingPx))
	return nil
}

func (s *fakeSurface) SetView(center domain.GeoPoint, zoom int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, center)
	s.ops = append(s.ops, fmt.Sprintf("view:%d", zoom))
	return nil
}

func (s *fakeSurface) markerIDs() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.markers))
	for id := range s.markers {
		out[id] = true
	}
	return out
}

func (s *fakeSurface) userMarkerAt(at domain.GeoPoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && *s.user == at
}

func (s *fakeSurface) hasRoute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route != nil
}

// --- Mock Locator ---

type mockLocator struct {
	locateFn func(ctx context.Context, opts domain.LocateOptions) (domain.GeoPoint, error)
}

func (m *mockLocator) Locate(ctx context.Context, opts domain.LocateOptions) (domain.GeoPoint, error) {
	if m.locateFn != nil {
		return m.locateFn(ctx, opts)
	}
	return panaji, nil
}

// --- Recording Notifier ---

type toast struct {
	kind ports.ToastKind
	msg  string
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []toast
}

func (n *recordingNotifier) Notify(kind ports.ToastKind, msg string) {
	n.mu.Lock()
	n.toasts = append(n.toasts, toast{kind, msg})
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]toast(nil), n.toasts...)
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []*domain.ExplorerEvent
}

func (m *mockPublisher) record(ev *domain.ExplorerEvent) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	return nil
}

func (m *mockPublisher) PublishPlaceSelected(_ context.Context, ev *domain.ExplorerEvent) error {
	return m.record(ev)
}

func (m *mockPublisher) PublishRouteDrawn(_ context.Context, ev *domain.ExplorerEvent) error {
	return m.record(ev)
}

func (m *mockPublisher) PublishGeolocationFailed(_ context.Context, ev *domain.ExplorerEvent) error {
	return m.record(ev)
}

func (m *mockPublisher) kinds() []domain.ExplorerEventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ExplorerEventKind, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Kind
	}
	return out
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
