package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// BroadcastInterval is the snapshot push cadence. 20 Hz is enough for the
	// browser client to interpolate between frames.
	BroadcastInterval = 50 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		if IsAllowedOrigin(origin) {
			return true
		}

		// Log rejected origin for security monitoring
		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// inputMessage is what the browser client sends: key edges and touch taps.
type inputMessage struct {
	Type    string  `json:"type"` // "input" or "tap"
	Mode    string  `json:"mode"`
	Key     string  `json:"key"`
	Pressed bool    `json:"pressed"`
	Y       float64 `json:"y"` // Viewport-relative, taps only
}

// wsClient tracks a WebSocket connection with its source IP and input budget.
type wsClient struct {
	conn   *websocket.Conn
	ip     string
	budget *rate.Limiter // Per-connection input message budget
}

// WebSocketHub manages all WebSocket connections with DoS protection.
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	director       *Director
	inputPerSecond float64

	// Connection limiting per IP
	wsLimiter *WebSocketRateLimiter
}

// NewWebSocketHub creates a new hub with connection limiting. Input messages
// from each connection are throttled to inputPerSecond.
func NewWebSocketHub(director *Director, inputPerSecond float64) *WebSocketHub {
	if inputPerSecond <= 0 {
		inputPerSecond = 120
	}
	return &WebSocketHub{
		clients:        make(map[*websocket.Conn]*wsClient),
		broadcast:      make(chan []byte, 256),
		register:       make(chan *wsClient),
		unregister:     make(chan *websocket.Conn),
		director:       director,
		inputPerSecond: inputPerSecond,
		wsLimiter:      NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// Run starts the hub.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			h.mu.Unlock()

			count := h.ClientCount()
			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				h.wsLimiter.Release(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

			count := h.ClientCount()
			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn, client := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.wsLimiter.Release(client.ip)
					delete(h.clients, conn)
					conn.Close()
				}
			}
			h.mu.Unlock()
			IncrementWSMessages()
		}
	}
}

// Broadcast sends an event to all connected clients.
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes live snapshots for every active mode on a fixed
// cadence, and refreshes journal gauges while it is at it.
func (h *WebSocketHub) StartBroadcastLoop() {
	ticker := time.NewTicker(BroadcastInterval)

	go func() {
		for range ticker.C {
			if h.ClientCount() == 0 {
				continue
			}

			for _, mode := range []string{ModeRunner, ModeElimination, ModeDrift} {
				start := time.Now()
				snap, err := h.director.State(mode)
				if err != nil {
					continue // No active run in this mode
				}
				h.Broadcast(mode+":state", snap)
				RecordSnapshot(mode, time.Since(start))
			}

			if j := h.director.cfg.Journal; j != nil {
				UpdateJournalStats(j.TotalCount(), j.DroppedCount())
			}
		}
	}()
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	// Check total connection limit
	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	// Check per-IP connection limit
	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip) // Release the slot we reserved
		return
	}

	client := &wsClient{
		conn:   conn,
		ip:     ip,
		budget: rate.NewLimiter(rate.Limit(h.inputPerSecond), int(h.inputPerSecond)),
	}
	h.register <- client

	// Reader goroutine: input messages from the client.
	go func() {
		defer func() {
			h.unregister <- conn
		}()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				break
			}

			if !client.budget.Allow() {
				RecordConnectionRejected("input_budget")
				continue
			}

			var msg inputMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				continue
			}
			h.handleInput(client, msg)
		}
	}()
}

// handleInput routes a parsed client message into the live simulation.
// Errors are dropped: a key event racing a run that just ended is routine
// and not worth a log line per message.
func (h *WebSocketHub) handleInput(client *wsClient, msg inputMessage) {
	switch msg.Type {
	case "input":
		_ = h.director.Input(msg.Mode, msg.Key, msg.Pressed)
	case "tap":
		_ = h.director.Tap(msg.Mode, msg.Y)
	}
}
