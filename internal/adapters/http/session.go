package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/samirrijal/tourmap/internal/core/domain"
	"github.com/samirrijal/tourmap/internal/core/ports"
	"github.com/samirrijal/tourmap/internal/core/usecases"
)

// Client to server message types.
const (
	MsgMapReady       = "map_ready"
	MsgMapLost        = "map_lost"
	MsgSetCity        = "set_city"
	MsgSetCategory    = "set_category"
	MsgSetSearch      = "set_search"
	MsgSetSort        = "set_sort"
	MsgSetLabels      = "set_labels"
	MsgSelect         = "select"
	MsgClearSelection = "clear_selection"
	MsgLocate         = "locate"
	MsgPosition       = "position"
	MsgPositionError  = "position_error"
	MsgClearLocation  = "clear_location"
	MsgView           = "view"
)

// Server to client message types.
const (
	MsgRenderMarker     = "render_marker"
	MsgRestyleMarker    = "restyle_marker"
	MsgRemoveMarker     = "remove_marker"
	MsgRenderUserMarker = "render_user_marker"
	MsgRemoveUserMarker = "remove_user_marker"
	MsgDrawRoute        = "draw_route"
	MsgRemoveRoute      = "remove_route"
	MsgFitBounds        = "fit_bounds"
	MsgSetView          = "set_view"
	MsgToast            = "toast"
	MsgState            = "state"
	MsgError            = "error"
)

// FrameWriter sends one JSON frame to the client.
type FrameWriter interface {
	WriteJSON(v interface{}) error
}

// ClientMessage is a command sent by the browser.
type ClientMessage struct {
	Type      string  `json:"type"`
	RequestID string  `json:"request_id,omitempty"`
	City      string  `json:"city,omitempty"`
	Category  string  `json:"category,omitempty"`
	Text      string  `json:"text,omitempty"`
	Enabled   bool    `json:"enabled,omitempty"`
	PlaceID   string  `json:"place_id,omitempty"`
	Lat       float64 `json:"lat,omitempty"`
	Lon       float64 `json:"lon,omitempty"`
	Code      int     `json:"code,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// ServerMessage is a drawing instruction, notification or state snapshot.
type ServerMessage struct {
	Type      string                 `json:"type"`
	PlaceID   string                 `json:"place_id,omitempty"`
	Place     *domain.EnrichedPlace  `json:"place,omitempty"`
	Icon      *domain.TypeDetails    `json:"icon,omitempty"`
	Style     *domain.MarkerStyle    `json:"style,omitempty"`
	At        *domain.GeoPoint       `json:"at,omitempty"`
	From      *domain.GeoPoint       `json:"from,omitempty"`
	To        *domain.GeoPoint       `json:"to,omitempty"`
	Bounds    *domain.Bounds         `json:"bounds,omitempty"`
	Padding   int                    `json:"padding,omitempty"`
	Center    *domain.GeoPoint       `json:"center,omitempty"`
	Zoom      int                    `json:"zoom,omitempty"`
	Kind      ports.ToastKind        `json:"kind,omitempty"`
	Message   string                 `json:"message,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Options   *domain.LocateOptions  `json:"options,omitempty"`
	View      *usecases.ExplorerView `json:"view,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

type locateReply struct {
	pos domain.GeoPoint
	err error
}

var errSessionClosed = errors.New("session closed")

// Session bridges one browser map to an Explorer. It is the explorer's map
// surface, locator and notifier; every call becomes a frame to the client.
type Session struct {
	id  string
	out FrameWriter
	log *slog.Logger

	writeMu sync.Mutex
	ready   atomic.Bool

	pendingMu sync.Mutex
	pending   map[string]chan locateReply

	ctx    context.Context
	cancel context.CancelFunc

	explorer *usecases.Explorer
}

// SessionOptions configures a new Session.
type SessionOptions struct {
	Engine   *usecases.QueryEngine
	Explorer usecases.ExplorerConfig
	Events   ports.EventPublisher
	Logger   *slog.Logger
}

// NewSession creates a session writing to out. The map is not ready until
// the client sends map_ready.
func NewSession(out FrameWriter, opts SessionOptions) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:      id,
		out:     out,
		log:     opts.Logger.With("session_id", id),
		pending: make(map[string]chan locateReply),
		ctx:     ctx,
		cancel:  cancel,
	}

	e, err := usecases.NewExplorer(usecases.ExplorerDeps{
		Engine:    opts.Engine,
		Surface:   s,
		Locator:   s,
		Notifier:  s,
		Events:    opts.Events,
		Logger:    opts.Logger,
		SessionID: id,
	}, opts.Explorer)
	if err != nil {
		cancel()
		return nil, err
	}
	s.explorer = e
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Explorer exposes the controller behind this session.
func (s *Session) Explorer() *usecases.Explorer { return s.explorer }

// Open sends the initial state. Drawing starts once the map reports ready.
func (s *Session) Open() {
	s.explorer.Start()
	s.sendState()
}

// Close fails pending locate requests and stops further drawing.
func (s *Session) Close() {
	s.ready.Store(false)
	s.cancel()
}

// Handle processes one raw client frame.
func (s *Session) Handle(raw []byte) {
	var m ClientMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		s.sendError("invalid JSON")
		return
	}

	e := s.explorer
	var err error
	switch m.Type {
	case MsgMapReady:
		s.ready.Store(true)
		e.MapReady()
	case MsgMapLost:
		s.ready.Store(false)
	case MsgSetCity:
		err = e.SetCity(m.City)
	case MsgSetCategory:
		err = e.SetCategory(m.Category)
	case MsgSetSearch:
		if len(m.Text) > 200 {
			s.sendError("search text too long (max 200 characters)")
			return
		}
		e.SetSearch(m.Text)
	case MsgSetSort:
		e.SetSortByDistance(m.Enabled)
	case MsgSetLabels:
		e.SetShowLabels(m.Enabled)
	case MsgSelect:
		err = e.Select(m.PlaceID)
	case MsgClearSelection:
		e.ClearSelection()
	case MsgClearLocation:
		e.ClearLocation()
	case MsgLocate:
		done := e.Locate(s.ctx)
		go func() {
			if err := <-done; errors.Is(err, domain.ErrLocationSuperseded) || s.ctx.Err() != nil {
				return
			}
			s.sendState()
		}()
	case MsgPosition:
		s.resolve(m.RequestID, locateReply{pos: domain.GeoPoint{Lat: m.Lat, Lon: m.Lon}})
		return
	case MsgPositionError:
		code := domain.GeolocationCode(m.Code)
		if code < domain.GeolocationUnsupported || code > domain.GeolocationTimeout {
			code = domain.GeolocationPositionUnavailable
		}
		s.resolve(m.RequestID, locateReply{err: &domain.GeolocationError{Code: code, Detail: m.Message}})
		return
	case MsgView:
	default:
		s.sendError("unknown message type: " + m.Type)
		return
	}

	if err != nil {
		s.sendError(err.Error())
	}
	s.sendState()
}

// resolve hands a client position reply to the waiting Locate call.
func (s *Session) resolve(requestID string, r locateReply) {
	s.pendingMu.Lock()
	ch, ok := s.pending[requestID]
	delete(s.pending, requestID)
	s.pendingMu.Unlock()

	if !ok {
		s.log.Debug("position reply for unknown request", "request_id", requestID)
		return
	}
	ch <- r
}

func (s *Session) send(m ServerMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.out.WriteJSON(m)
}

func (s *Session) sendState() {
	v := s.explorer.View()
	if err := s.send(ServerMessage{Type: MsgState, View: &v}); err != nil {
		s.log.Debug("state write failed", "error", err)
	}
}

func (s *Session) sendError(msg string) {
	_ = s.send(ServerMessage{Type: MsgError, Error: msg})
}

// Ready implements ports.MapSurface.
func (s *Session) Ready() bool { return s.ready.Load() }

func (s *Session) RenderMarker(p domain.EnrichedPlace, style domain.MarkerStyle) error {
	icon := p.Type.Details()
	return s.send(ServerMessage{Type: MsgRenderMarker, PlaceID: p.ID, Place: &p, Icon: &icon, Style: &style})
}

func (s *Session) RestyleMarker(placeID string, style domain.MarkerStyle) error {
	return s.send(ServerMessage{Type: MsgRestyleMarker, PlaceID: placeID, Style: &style})
}

func (s *Session) RemoveMarker(placeID string) error {
	return s.send(ServerMessage{Type: MsgRemoveMarker, PlaceID: placeID})
}

func (s *Session) RenderUserMarker(at domain.GeoPoint) error {
	return s.send(ServerMessage{Type: MsgRenderUserMarker, At: &at})
}

func (s *Session) RemoveUserMarker() error {
	return s.send(ServerMessage{Type: MsgRemoveUserMarker})
}

func (s *Session) DrawRoute(from, to domain.GeoPoint) error {
	return s.send(ServerMessage{Type: MsgDrawRoute, From: &from, To: &to})
}

func (s *Session) RemoveRoute() error {
	return s.send(ServerMessage{Type: MsgRemoveRoute})
}

func (s *Session) FitBounds(b domain.Bounds, paddingPx int) error {
	return s.send(ServerMessage{Type: MsgFitBounds, Bounds: &b, Padding: paddingPx})
}

func (s *Session) SetView(center domain.GeoPoint, zoom int) error {
	return s.send(ServerMessage{Type: MsgSetView, Center: &center, Zoom: zoom})
}

// Notify implements ports.Notifier.
func (s *Session) Notify(kind ports.ToastKind, message string) {
	if err := s.send(ServerMessage{Type: MsgToast, Kind: kind, Message: message}); err != nil {
		s.log.Debug("toast write failed", "error", err)
	}
}

// Locate implements ports.Locator by asking the browser for one position.
func (s *Session) Locate(ctx context.Context, opts domain.LocateOptions) (domain.GeoPoint, error) {
	reqID := uuid.NewString()
	ch := make(chan locateReply, 1)

	s.pendingMu.Lock()
	s.pending[reqID] = ch
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, reqID)
		s.pendingMu.Unlock()
	}()

	if err := s.send(ServerMessage{Type: MsgLocate, RequestID: reqID, Options: &opts}); err != nil {
		return domain.GeoPoint{}, &domain.GeolocationError{Code: domain.GeolocationPositionUnavailable, Detail: err.Error()}
	}

	select {
	case r := <-ch:
		return r.pos, r.err
	case <-s.ctx.Done():
		return domain.GeoPoint{}, errSessionClosed
	case <-ctx.Done():
		return domain.GeoPoint{}, ctx.Err()
	}
}
