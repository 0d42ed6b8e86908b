package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/barrierfree/internal/adapters/osrm"
	"github.com/samirrijal/barrierfree/internal/adapters/photon"
	"github.com/samirrijal/barrierfree/internal/adapters/wheelmap"
	"github.com/samirrijal/barrierfree/internal/adapters/wsmap"
	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/usecases"
	"github.com/samirrijal/barrierfree/internal/pkg/metrics"
	"github.com/samirrijal/barrierfree/internal/viewport"
)

// Browser → server message types.
const (
	msgInit        = "init"
	msgInteraction = "interaction"
	msgFocus       = "focus"
	msgMove        = "move"
	msgRoute       = "route"
	msgRouteClear  = "route.clear"
	msgResize      = "resize"
	msgRefresh     = "refresh"
	msgSearch      = "search"
)

// searchZoom is the zoom a selected search result is shown at when the
// message names none.
const searchZoom = 17

var (
	errUnknownMessage = errors.New("unknown message type")
	errInvalidMessage = errors.New("invalid message")
)

// clientMessage is every message the browser sends; which fields are set
// depends on Type.
//
//	{"type":"init","container":"map","size":{"width":800,"height":600}}
//	{"type":"interaction","kind":"moveend","center":{...},"zoom":15}
//	{"type":"focus","id":42,"position":{"lat":43.26,"lon":-2.93},"zoom":17}
//	{"type":"route","waypoints":[{...},{...}],"vehicle":"foot"}
//	{"type":"search","query":"guggenheim","lang":"en","select":true}
type clientMessage struct {
	Type         string                 `json:"type"`
	Container    string                 `json:"container,omitempty"`
	Center       *domain.GeoPoint       `json:"center,omitempty"`
	Zoom         *int                   `json:"zoom,omitempty"`
	Size         *wsmap.Size            `json:"size,omitempty"`
	Kind         domain.InteractionKind `json:"kind,omitempty"`
	Bounds       *domain.Bounds         `json:"bounds,omitempty"`
	Programmatic bool                   `json:"programmatic,omitempty"`
	ID           domain.MarkerID        `json:"id,omitempty"`
	Position     *domain.GeoPoint       `json:"position,omitempty"`
	Waypoints    []domain.GeoPoint      `json:"waypoints,omitempty"`
	Vehicle      domain.Vehicle         `json:"vehicle,omitempty"`
	Query        string                 `json:"query,omitempty"`
	Lang         string                 `json:"lang,omitempty"`
	Limit        int                    `json:"limit,omitempty"`
	Select       bool                   `json:"select,omitempty"`
}

// wsSender serializes writes to one websocket connection.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSender) Send(msg wsmap.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSender) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// mapConn is the server side of one browser map.
type mapConn struct {
	deps     *Dependencies
	sender   wsmap.Sender
	renderer *wsmap.Renderer
	session  *usecases.MapSession
	logger   *slog.Logger

	registered bool
}

func newMapConn(ctx context.Context, deps *Dependencies, sender wsmap.Sender) *mapConn {
	id := uuid.NewString()
	logger := deps.logger().With("session_id", id)
	renderer := wsmap.NewRenderer(sender, logger)

	surface := viewport.NewSurface(renderer, deps.Router,
		viewport.WithDebounce(deps.Map.Debounce()),
		viewport.WithLogger(logger),
		viewport.WithContext(ctx),
	)
	return &mapConn{
		deps:     deps,
		sender:   sender,
		renderer: renderer,
		session:  usecases.NewMapSession(id, surface, deps.Nodes, deps.Publisher, logger),
		logger:   logger,
	}
}

// handle applies one browser message to the session.
func (m *mapConn) handle(ctx context.Context, msg clientMessage) error {
	switch msg.Type {
	case msgInit:
		if msg.Size != nil {
			m.renderer.SetSize(*msg.Size)
		}
		container := msg.Container
		if container == "" {
			container = "map"
		}
		err := m.session.Open(ctx, container, m.defaults(msg))
		if m.session.Surface().Coordinator() != nil && !m.registered && m.deps.Sessions != nil {
			if addErr := m.deps.Sessions.Add(m.session); addErr != nil {
				return addErr
			}
			m.registered = true
		}
		return err

	case msgInteraction:
		return m.renderer.HandleInteraction(wsmap.Interaction{
			Kind:         msg.Kind,
			Center:       msg.Center,
			Zoom:         msg.Zoom,
			Bounds:       msg.Bounds,
			Size:         msg.Size,
			Programmatic: msg.Programmatic,
		})

	case msgFocus:
		if msg.Position == nil {
			return fmt.Errorf("%w: %s needs a position", errInvalidMessage, msgFocus)
		}
		return m.session.Focus(ctx, msg.ID, *msg.Position, zoomOrKeep(msg.Zoom))

	case msgMove:
		if msg.Center == nil {
			return fmt.Errorf("%w: %s needs a center", errInvalidMessage, msgMove)
		}
		return m.session.Move(*msg.Center, zoomOrKeep(msg.Zoom))

	case msgRoute:
		_, err := m.session.Route(ctx, msg.Waypoints, msg.Vehicle)
		return err

	case msgRouteClear:
		return m.session.ClearRoute()

	case msgResize:
		if msg.Size != nil {
			m.renderer.SetSize(*msg.Size)
		}
		return m.session.Resize()

	case msgRefresh:
		return m.session.Refresh(ctx)

	case msgSearch:
		return m.search(ctx, msg)
	}
	return fmt.Errorf("%w: %q", errUnknownMessage, msg.Type)
}

// search sends the places matching msg.Query to the browser. With select
// set, the map then jumps to the best match, opening its marker popup when
// the place is a Wheelmap node.
func (m *mapConn) search(ctx context.Context, msg clientMessage) error {
	if m.deps.Search == nil {
		return usecases.ErrSearchDisabled
	}
	q := domain.PlaceQuery{Text: msg.Query, Limit: msg.Limit, Lang: msg.Lang, Near: msg.Center}
	places, err := m.deps.Search.Search(ctx, q)
	if err != nil {
		return err
	}
	payload := wsmap.SearchResultsPayload{Query: msg.Query, Places: places}
	if err := m.sender.Send(wsmap.Message{Type: wsmap.MsgSearchResults, Payload: payload}); err != nil {
		return err
	}

	if !msg.Select || len(places) == 0 {
		return nil
	}
	best := places[0]
	zoom := searchZoom
	if msg.Zoom != nil {
		zoom = *msg.Zoom
	}
	if best.MarkerID == "" {
		return m.session.Move(best.Position, zoom)
	}
	return m.session.Focus(ctx, best.MarkerID, best.Position, zoom)
}

// defaults fills the initial view from the message, falling back to the
// configured map defaults.
func (m *mapConn) defaults(msg clientMessage) usecases.MapDefaults {
	cfg := m.deps.Map
	d := usecases.MapDefaults{
		Center:  domain.GeoPoint{Lat: cfg.CenterLat, Lon: cfg.CenterLon},
		Zoom:    cfg.Zoom,
		TileURL: cfg.TileURL,
		Tiles: domain.TileOptions{
			Attribution: cfg.Attribution,
			MaxZoom:     cfg.MaxZoom,
		},
	}
	if msg.Center != nil {
		d.Center = *msg.Center
	}
	if msg.Zoom != nil {
		d.Zoom = *msg.Zoom
	}
	return d
}

// reportError sends err to the browser.
func (m *mapConn) reportError(err error) {
	payload := wsmap.ErrorPayload{Code: errorCode(err), Message: err.Error()}
	if sendErr := m.sender.Send(wsmap.Message{Type: wsmap.MsgError, Payload: payload}); sendErr != nil {
		m.logger.Debug("ws error not delivered", "error", sendErr)
	}
}

func (m *mapConn) close() {
	if m.registered {
		m.deps.Sessions.Remove(m.session.ID())
	}
	m.session.Close()
}

func zoomOrKeep(z *int) int {
	if z == nil {
		return viewport.KeepZoom
	}
	return *z
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errUnknownMessage), errors.Is(err, wsmap.ErrUnknownInteraction):
		return codeUnknownMessage
	case errors.Is(err, viewport.ErrNotInitialized), errors.Is(err, wsmap.ErrNoWidget):
		return codeNotInitialized
	case errors.Is(err, viewport.ErrAlreadyInitialized):
		return codeAlreadyInitialized
	case errors.Is(err, errInvalidMessage),
		errors.Is(err, domain.ErrInvalidBounds),
		errors.Is(err, domain.ErrUnknownVehicle),
		errors.Is(err, domain.ErrTooFewWaypoints),
		errors.Is(err, domain.ErrInvalidWaypoints):
		return codeBadRequest
	case errors.Is(err, osrm.ErrNoRoute):
		return codeNotFound
	case errors.Is(err, wheelmap.ErrUpstream), errors.Is(err, osrm.ErrUpstream), errors.Is(err, photon.ErrUpstream):
		return codeUpstream
	case errors.Is(err, viewport.ErrNoRouter), errors.Is(err, usecases.ErrSearchDisabled):
		return codeUnavailable
	}
	return codeInternal
}

// MapSessionHandler returns a handler that drives one server-side map per
// websocket connection. The browser reports interactions; the server
// debounces them, reloads the markers of the settled viewport and sends
// the resulting layer commands back.
func MapSessionHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sender := &wsSender{conn: c}
		mc := newMapConn(ctx, deps, sender)
		defer mc.close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		mc.logger.Info("ws map connected", "remote_addr", c.RemoteAddr().String())

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := sender.ping(); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				break
			}

			var msg clientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				mc.reportError(fmt.Errorf("%w: %v", errInvalidMessage, err))
				continue
			}
			if err := mc.handle(ctx, msg); err != nil {
				mc.logger.Debug("ws message failed", "type", msg.Type, "error", err)
				mc.reportError(err)
			}
		}

		mc.logger.Info("ws map disconnected")
	}
}
