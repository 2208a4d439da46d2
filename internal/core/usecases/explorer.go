package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/tourmap/internal/core/domain"
	"github.com/samirrijal/tourmap/internal/core/ports"
	"github.com/samirrijal/tourmap/internal/pkg/metrics"
)

// ExplorerConfig tunes viewport and geolocation behaviour.
type ExplorerConfig struct {
	DefaultCity    string
	LocateTimeout  time.Duration
	RoutePaddingPx int
	CityZoom       int
	PlaceZoom      int
	MapsBaseURL    string
}

// DefaultExplorerConfig mirrors the behaviour of the web map.
func DefaultExplorerConfig() ExplorerConfig {
	return ExplorerConfig{
		DefaultCity:    "Mumbai",
		LocateTimeout:  10 * time.Second,
		RoutePaddingPx: 50,
		CityZoom:       12,
		PlaceZoom:      15,
		MapsBaseURL:    DefaultMapsBaseURL,
	}
}

// locateGrace covers a device that never answers within its own timeout.
const locateGrace = 2 * time.Second

// ExplorerDeps are the collaborators of an Explorer. Notifier and Events may be nil.
type ExplorerDeps struct {
	Engine    *QueryEngine
	Surface   ports.MapSurface
	Locator   ports.Locator
	Notifier  ports.Notifier
	Events    ports.EventPublisher
	Logger    *slog.Logger
	SessionID string
}

// viewRequest recenters the map before markers are reconciled.
type viewRequest struct {
	center domain.GeoPoint
	zoom   int
}

// Explorer is the single controller of one exploration session. It owns the
// filters, user position, selection and the reconciliation pipeline, which
// always runs query, then markers, then route.
type Explorer struct {
	engine   *QueryEngine
	surface  ports.MapSurface
	locator  ports.Locator
	notifier ports.Notifier
	events   ports.EventPublisher
	links    LinkBuilder
	log      *slog.Logger
	cfg      ExplorerConfig
	session  string

	mu         sync.Mutex
	filters    domain.Filters
	user       *domain.GeoPoint
	selectedID string
	showLabels bool
	results    []domain.EnrichedPlace
	locateGen  uint64
	locating   bool
	view       *viewRequest
	reset      bool

	syncMu  sync.Mutex
	syncing bool
	rerun   bool

	drawMu  sync.Mutex // guards markers and route
	markers *MarkerSync
	route   *RouteOverlay
}

// NewExplorer creates an explorer scoped to cfg.DefaultCity. No drawing
// happens until Start or the first state change.
func NewExplorer(deps ExplorerDeps, cfg ExplorerConfig) (*Explorer, error) {
	if deps.Engine == nil || deps.Surface == nil {
		return nil, errors.New("explorer requires a query engine and a map surface")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.SessionID == "" {
		deps.SessionID = uuid.NewString()
	}
	def := DefaultExplorerConfig()
	if cfg.LocateTimeout <= 0 {
		cfg.LocateTimeout = def.LocateTimeout
	}
	if cfg.CityZoom <= 0 {
		cfg.CityZoom = def.CityZoom
	}
	if cfg.PlaceZoom <= 0 {
		cfg.PlaceZoom = def.PlaceZoom
	}
	if cfg.RoutePaddingPx < 0 {
		cfg.RoutePaddingPx = def.RoutePaddingPx
	}

	catalog := deps.Engine.Catalog()
	if cfg.DefaultCity == "" {
		if cities := catalog.Cities(); len(cities) > 0 {
			cfg.DefaultCity = cities[0].Name
		}
	}
	if _, err := catalog.City(cfg.DefaultCity); err != nil {
		return nil, fmt.Errorf("default city %q: %w", cfg.DefaultCity, err)
	}

	log := deps.Logger.With("session_id", deps.SessionID)
	e := &Explorer{
		engine:     deps.Engine,
		surface:    deps.Surface,
		locator:    deps.Locator,
		notifier:   deps.Notifier,
		events:     deps.Events,
		links:      NewLinkBuilder(cfg.MapsBaseURL),
		log:        log,
		cfg:        cfg,
		session:    deps.SessionID,
		filters:    domain.Filters{City: cfg.DefaultCity, Category: domain.CategoryAll},
		showLabels: true,
		markers:    NewMarkerSync(deps.Surface, log),
		route:      NewRouteOverlay(deps.Surface, deps.Engine.Speeds(), cfg.RoutePaddingPx),
	}
	e.recomputeLocked()
	return e, nil
}

// SessionID identifies this explorer in logs and events.
func (e *Explorer) SessionID() string { return e.session }

// Start centers the map on the current city and draws the initial markers.
func (e *Explorer) Start() {
	e.mu.Lock()
	e.requestCityViewLocked()
	e.mu.Unlock()
	e.kick()
}

// MapReady tells the explorer the surface was (re)initialised and holds no
// elements; everything is redrawn from current state.
func (e *Explorer) MapReady() {
	e.mu.Lock()
	e.reset = true
	e.requestCityViewLocked()
	e.mu.Unlock()
	e.kick()
}

// Resync requests a reconciliation pass without changing state.
func (e *Explorer) Resync() { e.kick() }

// SetCity scopes the explorer to another city and recenters the map.
func (e *Explorer) SetCity(name string) error {
	city, err := e.engine.Catalog().City(strings.TrimSpace(name))
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.filters.City = city.Name
	e.recomputeLocked()
	e.requestCityViewLocked()
	e.mu.Unlock()
	e.kick()
	return nil
}

// SetCategory changes the category filter. "all" or "" show every category.
func (e *Explorer) SetCategory(category string) error {
	c, err := domain.ParseCategory(category)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.filters.Category = c
	e.recomputeLocked()
	e.mu.Unlock()
	e.kick()
	return nil
}

// SetSearch changes the free-text filter.
func (e *Explorer) SetSearch(text string) {
	e.mu.Lock()
	e.filters.Search = text
	e.recomputeLocked()
	e.mu.Unlock()
	e.kick()
}

// SetSortByDistance toggles distance ordering of results.
func (e *Explorer) SetSortByDistance(on bool) {
	e.mu.Lock()
	e.filters.SortByDistance = on
	e.recomputeLocked()
	e.mu.Unlock()
	e.kick()
}

// SetShowLabels toggles marker labels.
func (e *Explorer) SetShowLabels(on bool) {
	e.mu.Lock()
	e.showLabels = on
	e.mu.Unlock()
	e.kick()
}

// Select marks a visible place as selected and zooms to it.
func (e *Explorer) Select(placeID string) error {
	if _, err := e.engine.Catalog().Place(placeID); err != nil {
		return err
	}

	e.mu.Lock()
	p, ok := e.resultLocked(placeID)
	if !ok {
		e.mu.Unlock()
		return domain.ErrPlaceNotVisible
	}
	e.selectedID = placeID
	e.view = &viewRequest{center: p.Location, zoom: e.cfg.PlaceZoom}
	ev := e.eventLocked(domain.EventPlaceSelected, &p)
	e.mu.Unlock()

	e.publish(ev)
	e.kick()
	return nil
}

// ClearSelection deselects the current place, removing any route.
func (e *Explorer) ClearSelection() {
	e.mu.Lock()
	e.selectedID = ""
	e.mu.Unlock()
	e.kick()
}

// ClearLocation forgets the user position.
func (e *Explorer) ClearLocation() {
	e.mu.Lock()
	e.locateGen++
	e.locating = false
	e.user = nil
	e.recomputeLocked()
	e.mu.Unlock()
	e.kick()
}

// SetUserPosition applies a known position directly, bypassing the locator.
func (e *Explorer) SetUserPosition(pos domain.GeoPoint) error {
	if !pos.Valid() {
		return &domain.GeolocationError{Code: domain.GeolocationPositionUnavailable, Detail: "invalid coordinates"}
	}
	e.mu.Lock()
	e.locateGen++
	e.locating = false
	e.user = &pos
	e.recomputeLocked()
	e.mu.Unlock()
	e.kick()
	return nil
}

// Locate starts one asynchronous position acquisition. A newer call
// supersedes older ones; their results are discarded. The returned channel
// yields the outcome once and is then closed.
func (e *Explorer) Locate(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	e.mu.Lock()
	e.locateGen++
	gen := e.locateGen
	e.locating = true
	e.mu.Unlock()

	if e.locator == nil {
		err := &domain.GeolocationError{Code: domain.GeolocationUnsupported}
		e.finishLocate(gen, domain.GeoPoint{}, err)
		done <- err
		close(done)
		return done
	}

	go func() {
		defer close(done)
		done <- e.locate(ctx, gen)
	}()
	return done
}

func (e *Explorer) locate(ctx context.Context, gen uint64) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.LocateTimeout+locateGrace)
	defer cancel()

	pos, err := e.locator.Locate(ctx, domain.LocateOptions{
		HighAccuracy: true,
		TimeoutMs:    int(e.cfg.LocateTimeout / time.Millisecond),
		MaximumAgeMs: 0,
	})
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = &domain.GeolocationError{Code: domain.GeolocationTimeout, Detail: err.Error()}
	}
	if err == nil && !pos.Valid() {
		err = &domain.GeolocationError{Code: domain.GeolocationPositionUnavailable, Detail: "invalid coordinates"}
	}
	return e.finishLocate(gen, pos, err)
}

// finishLocate applies a locator outcome unless a newer request was issued.
func (e *Explorer) finishLocate(gen uint64, pos domain.GeoPoint, err error) error {
	e.mu.Lock()
	if gen != e.locateGen {
		e.mu.Unlock()
		metrics.GeolocationResults.WithLabelValues("superseded").Inc()
		e.log.Debug("discarding superseded geolocation result", "generation", gen)
		return domain.ErrLocationSuperseded
	}
	e.locating = false

	if err != nil {
		ge := domain.AsGeolocationError(err)
		ev := e.eventLocked(domain.EventGeolocationFailed, nil)
		ev.Reason = ge.Code.String()
		e.mu.Unlock()

		metrics.GeolocationResults.WithLabelValues(ge.Code.String()).Inc()
		e.log.Warn("geolocation failed", "code", ge.Code.String(), "error", ge)
		e.notify(ports.ToastError, ge.Message())
		e.publish(ev)
		return ge
	}

	e.user = &pos
	e.recomputeLocked()
	e.mu.Unlock()

	metrics.GeolocationResults.WithLabelValues("success").Inc()
	e.log.Info("user position acquired")
	e.notify(ports.ToastSuccess, "📍 Location detected!")
	e.kick()
	return nil
}

// recomputeLocked re-runs the query and clears a selection that is no
// longer visible. Caller holds e.mu.
func (e *Explorer) recomputeLocked() {
	e.results = e.engine.Query(e.filters, e.user)
	metrics.QueryResults.Observe(float64(len(e.results)))
	if e.selectedID != "" {
		if _, ok := e.resultLocked(e.selectedID); !ok {
			e.log.Debug("selection no longer visible, clearing", "place_id", e.selectedID)
			e.selectedID = ""
		}
	}
}

func (e *Explorer) resultLocked(id string) (domain.EnrichedPlace, bool) {
	for _, p := range e.results {
		if p.ID == id {
			return p, true
		}
	}
	return domain.EnrichedPlace{}, false
}

func (e *Explorer) requestCityViewLocked() {
	if city, err := e.engine.Catalog().City(e.filters.City); err == nil {
		e.view = &viewRequest{center: city.Center, zoom: e.cfg.CityZoom}
	}
}

// pass is a frame plus the side requests consumed with it.
type pass struct {
	frame    Frame
	selected *domain.EnrichedPlace
	view     *viewRequest
	reset    bool
	city     string
}

// takePass snapshots current state for one reconciliation pass.
func (e *Explorer) takePass() pass {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := pass{
		frame: Frame{
			Results:    e.results,
			SelectedID: e.selectedID,
			ShowLabels: e.showLabels,
		},
		view:  e.view,
		reset: e.reset,
		city:  e.filters.City,
	}
	if e.user != nil {
		u := *e.user
		p.frame.User = &u
	}
	if sel, ok := e.resultLocked(e.selectedID); ok && e.selectedID != "" {
		p.selected = &sel
	}
	if e.surface.Ready() {
		e.view, e.reset = nil, false
	}
	return p
}

// kick runs the reconciliation pipeline single-flight. A call arriving while a
// pass is running only marks it for a rerun, so bursts coalesce into one
// extra pass built from the latest state.
func (e *Explorer) kick() {
	e.syncMu.Lock()
	if e.syncing {
		e.rerun = true
		e.syncMu.Unlock()
		metrics.SyncPasses.WithLabelValues("coalesced").Inc()
		return
	}
	e.syncing = true
	for {
		e.rerun = false
		e.syncMu.Unlock()

		e.apply(e.takePass())

		e.syncMu.Lock()
		if !e.rerun {
			break
		}
	}
	e.syncing = false
	e.syncMu.Unlock()
}

// apply runs one pass: viewport, markers, route. Only the kick loop calls it.
func (e *Explorer) apply(p pass) {
	e.drawMu.Lock()
	defer e.drawMu.Unlock()

	if !e.surface.Ready() {
		metrics.SyncPasses.WithLabelValues("deferred").Inc()
		e.log.Info("map surface not ready, deferring synchronization")
		return
	}
	start := time.Now()
	defer func() { metrics.SyncDuration.Observe(time.Since(start).Seconds()) }()

	if p.reset {
		e.markers.Reset()
		e.route.Reset()
	}
	if p.view != nil {
		if err := e.surface.SetView(p.view.center, p.view.zoom); err != nil {
			e.log.Warn("set view failed", "error", err)
		}
	}

	st, err := e.markers.Apply(p.frame)
	if errors.Is(err, domain.ErrSurfaceNotReady) {
		metrics.SyncPasses.WithLabelValues("deferred").Inc()
		return
	}
	metrics.SyncPasses.WithLabelValues("applied").Inc()
	metrics.MarkerOps.WithLabelValues("create").Add(float64(st.Created))
	metrics.MarkerOps.WithLabelValues("restyle").Add(float64(st.Restyled))
	metrics.MarkerOps.WithLabelValues("remove").Add(float64(st.Removed))
	metrics.MarkerOps.WithLabelValues("skip").Add(float64(st.Skipped))
	metrics.MarkerOps.WithLabelValues("fail").Add(float64(st.Failed))

	wasActive := e.route.Active()
	summary, err := e.route.Update(p.frame.User, p.selected)
	if err != nil {
		e.log.Warn("route update failed", "error", err)
	}
	if wasActive && !e.route.Active() {
		metrics.RouteUpdates.WithLabelValues("removed").Inc()
	}
	if summary == nil {
		return
	}

	metrics.RouteUpdates.WithLabelValues("drawn").Inc()
	e.notify(ports.ToastSuccess, "🧭 "+summary.Message())

	dist := summary.DistanceKm
	e.publish(&domain.ExplorerEvent{
		ID:         uuid.NewString(),
		Kind:       domain.EventRouteDrawn,
		SessionID:  e.session,
		Time:       time.Now().UTC(),
		City:       p.city,
		PlaceID:    summary.PlaceID,
		Category:   p.selected.Category,
		DistanceKm: &dist,
	})
}

func (e *Explorer) eventLocked(kind domain.ExplorerEventKind, p *domain.EnrichedPlace) *domain.ExplorerEvent {
	ev := &domain.ExplorerEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		SessionID: e.session,
		Time:      time.Now().UTC(),
		City:      e.filters.City,
	}
	if p != nil {
		ev.PlaceID = p.ID
		ev.Category = p.Category
		ev.DistanceKm = p.DistanceKm
	}
	return ev
}

func (e *Explorer) publish(ev *domain.ExplorerEvent) {
	if e.events == nil || ev == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var err error
	switch ev.Kind {
	case domain.EventPlaceSelected:
		err = e.events.PublishPlaceSelected(ctx, ev)
	case domain.EventRouteDrawn:
		err = e.events.PublishRouteDrawn(ctx, ev)
	case domain.EventGeolocationFailed:
		err = e.events.PublishGeolocationFailed(ctx, ev)
	}
	if err != nil {
		e.log.Warn("publish explorer event failed", "kind", ev.Kind, "error", err)
	}
}

func (e *Explorer) notify(kind ports.ToastKind, msg string) {
	if e.notifier != nil {
		e.notifier.Notify(kind, msg)
	}
}

// ExplorerView is the state exposed to the surrounding application.
type ExplorerView struct {
	SessionID    string                 `json:"session_id"`
	Filters      domain.Filters         `json:"filters"`
	City         domain.City            `json:"city"`
	Counts       domain.CategoryCounts  `json:"counts"`
	Results      []domain.EnrichedPlace `json:"results"`
	Empty        bool                   `json:"empty"`
	EmptyMessage string                 `json:"empty_message,omitempty"`
	Selected     *domain.EnrichedPlace  `json:"selected,omitempty"`
	Links        *Links                 `json:"links,omitempty"`
	User         *domain.GeoPoint       `json:"user,omitempty"`
	Locating     bool                   `json:"locating"`
	ShowLabels   bool                   `json:"show_labels"`
}

// View returns a snapshot of the current state.
func (e *Explorer) View() ExplorerView {
	e.mu.Lock()
	defer e.mu.Unlock()

	city, _ := e.engine.Catalog().City(e.filters.City)
	v := ExplorerView{
		SessionID:  e.session,
		Filters:    e.filters,
		City:       city,
		Counts:     e.engine.Counts(e.filters.City),
		Results:    append([]domain.EnrichedPlace(nil), e.results...),
		Empty:      len(e.results) == 0,
		Locating:   e.locating,
		ShowLabels: e.showLabels,
	}
	if v.Empty {
		v.EmptyMessage = "No places match your filters. Try another category or search term."
	}
	if e.user != nil {
		u := *e.user
		v.User = &u
	}
	if sel, ok := e.resultLocked(e.selectedID); ok && e.selectedID != "" {
		v.Selected = &sel
		links := e.links.For(sel.Place, e.user)
		v.Links = &links
	}
	return v
}

// RenderedPlaceIDs returns the ids of markers currently on the surface.
func (e *Explorer) RenderedPlaceIDs() []string {
	e.drawMu.Lock()
	defer e.drawMu.Unlock()
	return e.markers.PlaceIDs()
}

// RouteActive reports whether the route overlay is drawn.
func (e *Explorer) RouteActive() bool {
	e.drawMu.Lock()
	defer e.drawMu.Unlock()
	return e.route.Active()
}
