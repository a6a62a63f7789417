// Package live pushes league standings to WebSocket subscribers.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/middleware"
	"github.com/csl-racing/api/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
	sendBuffer     = 16
)

// MessageTypeStandings tags a full standings snapshot
const MessageTypeStandings = "standings"

// Message is the frame sent to subscribers
type Message struct {
	Type      string            `json:"type"`
	LeagueID  int               `json:"league_id"`
	Standings []models.Standing `json:"standings"`
}

// StandingsSource computes the current table of a league
type StandingsSource interface {
	Standings(ctx context.Context, leagueID int) ([]models.Standing, error)
}

// Hub tracks subscribers per league
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	source   StandingsSource
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

type client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	leagueID int
}

// NewHub creates a Hub. Origins lists the browser origins allowed to
// connect; "*" allows any.
func NewHub(source StandingsSource, origins []string) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		source:  source,
		logger:  log.With().Str("component", "live").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
		},
	}
	return h
}

// ServeWS upgrades GET /leagues/{id}/live and sends the current standings
// followed by a fresh snapshot after every change.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	leagueID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || leagueID <= 0 {
		middleware.WriteError(w, r, apperr.Validation("Invalid league id"))
		return
	}

	standings, err := h.source.Standings(r.Context(), leagueID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	snapshot, err := encode(leagueID, standings)
	if err != nil {
		middleware.WriteError(w, r, apperr.Store("encode standings", err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		h.logger.Warn().Err(err).Int("league_id", leagueID).Msg("websocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), leagueID: leagueID}
	c.send <- snapshot
	h.register(c)

	go c.writePump()
	c.readPump()
}

// LeagueChanged pushes fresh standings to the league's subscribers
func (h *Hub) LeagueChanged(ctx context.Context, leagueID int) {
	if h.subscribers(leagueID) == 0 {
		return
	}

	standings, err := h.source.Standings(ctx, leagueID)
	if err != nil {
		h.logger.Error().Err(err).Int("league_id", leagueID).Msg("failed to load standings for broadcast")
		return
	}
	data, err := encode(leagueID, standings)
	if err != nil {
		h.logger.Error().Err(err).Int("league_id", leagueID).Msg("failed to encode standings")
		return
	}
	h.broadcast(leagueID, data)
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug().Int("league_id", c.leagueID).Int("clients", total).Msg("subscriber connected")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) subscribers(leagueID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.leagueID == leagueID {
			n++
		}
	}
	return n
}

func (h *Hub) broadcast(leagueID int, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.leagueID != leagueID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Slow consumer
			delete(h.clients, c)
			close(c.send)
			h.logger.Warn().Int("league_id", leagueID).Msg("dropping slow subscriber")
		}
	}
}

func encode(leagueID int, standings []models.Standing) ([]byte, error) {
	if standings == nil {
		standings = []models.Standing{}
	}
	return json.Marshal(Message{Type: MessageTypeStandings, LeagueID: leagueID, Standings: standings})
}

// readPump discards client frames and keeps the read deadline alive on pong
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug().Err(err).Int("league_id", c.leagueID).Msg("websocket read error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
