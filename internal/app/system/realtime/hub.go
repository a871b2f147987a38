// Package realtime fans domain events out to connected browser sessions over
// WebSockets. Each connection belongs to one user and subscribes to named
// streams; publishers address a stream and a set of users.
package realtime

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Streams clients can subscribe to.
const (
	StreamPairs    = "pairs"
	StreamLearning = "learning"
	StreamEvents   = "events"
)

// AllStreams is what a connection subscribes to when it names none.
var AllStreams = []string{StreamPairs, StreamLearning, StreamEvents}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10

	sendBuffer = 64
)

// Message is the JSON frame delivered to subscribers.
type Message struct {
	Stream string `json:"stream"`
	Event  string `json:"event"`
	Data   any    `json:"data,omitempty"`
}

type controlMessage struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

// Publisher is the capability domain code uses to push events. It is
// satisfied by *Hub and by test fakes.
type Publisher interface {
	Publish(stream string, userIDs []string, msg Message)
}

// Hub tracks subscriptions as stream -> user -> connections.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[string]map[string]map[*connection]struct{}
	upgrader      websocket.Upgrader
	log           *zap.Logger

	// OnConnect and OnDisconnect, when set, observe connection counts.
	OnConnect    func()
	OnDisconnect func()
}

// NewHub constructs a hub. allowedOrigins lists extra origins (besides the
// request host and loopback) that may open connections.
func NewHub(log *zap.Logger, allowedOrigins ...string) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if h := hostWithoutPort(o); h != "" {
			allowed[h] = struct{}{}
		}
	}
	return &Hub{
		subscriptions: make(map[string]map[string]map[*connection]struct{}),
		log:           log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				oh := hostWithoutPort(origin)
				if _, ok := allowed[oh]; ok {
					return true
				}
				return oh == hostWithoutPort(r.Host) || isLoopback(oh)
			},
		},
	}
}

// Serve upgrades the request and blocks until the connection closes.
func (h *Hub) Serve(userID string, streams []string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("realtime upgrade failed", zap.Error(err))
		return
	}
	if len(streams) == 0 {
		streams = AllStreams
	}

	c := &connection{
		hub:     h,
		socket:  conn,
		userID:  userID,
		streams: make(map[string]struct{}),
		send:    make(chan Message, sendBuffer),
		done:    make(chan struct{}),
	}
	h.subscribe(c, streams)
	if h.OnConnect != nil {
		h.OnConnect()
	}

	go c.writeLoop()
	c.readLoop()
}

// Publish delivers msg on stream to every connection of the given users.
func (h *Hub) Publish(stream string, userIDs []string, msg Message) {
	stream = normalizeStream(stream)
	if stream == "" {
		return
	}
	msg.Stream = stream

	var slow []*connection
	h.mu.RLock()
	byUser := h.subscriptions[stream]
	for _, uid := range userIDs {
		for c := range byUser[uid] {
			if !c.offer(msg) {
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	h.dropSlow(slow)
}

// Broadcast delivers msg to every subscriber of stream.
func (h *Hub) Broadcast(stream string, msg Message) {
	stream = normalizeStream(stream)
	if stream == "" {
		return
	}
	msg.Stream = stream

	var slow []*connection
	h.mu.RLock()
	for _, conns := range h.subscriptions[stream] {
		for c := range conns {
			if !c.offer(msg) {
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	h.dropSlow(slow)
}

// Subscribers returns how many connections listen on stream.
func (h *Hub) Subscribers(stream string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.subscriptions[normalizeStream(stream)] {
		n += len(conns)
	}
	return n
}

func (h *Hub) dropSlow(conns []*connection) {
	for _, c := range conns {
		h.log.Warn("realtime client too slow, disconnecting", zap.String("user_id", c.userID))
		c.close()
	}
}

func (h *Hub) subscribe(c *connection, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A subscribe frame read just before the connection closed must not
	// re-add it after unregister.
	select {
	case <-c.done:
		return
	default:
	}

	for _, stream := range uniqueStreams(streams) {
		if !knownStream(stream) {
			continue
		}
		if _, ok := c.streams[stream]; ok {
			continue
		}
		if h.subscriptions[stream] == nil {
			h.subscriptions[stream] = make(map[string]map[*connection]struct{})
		}
		if h.subscriptions[stream][c.userID] == nil {
			h.subscriptions[stream][c.userID] = make(map[*connection]struct{})
		}
		c.streams[stream] = struct{}{}
		h.subscriptions[stream][c.userID][c] = struct{}{}
	}
}

func (h *Hub) unsubscribe(c *connection, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, stream := range uniqueStreams(streams) {
		h.removeLocked(c, stream)
	}
}

// unregister removes c everywhere and closes c.done under the same lock
// subscribe checks it with.
func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for stream := range c.streams {
		h.removeLocked(c, stream)
	}
	close(c.done)
}

func (h *Hub) removeLocked(c *connection, stream string) {
	delete(c.streams, stream)
	byUser, ok := h.subscriptions[stream]
	if !ok {
		return
	}
	conns := byUser[c.userID]
	delete(conns, c)
	if len(conns) == 0 {
		delete(byUser, c.userID)
	}
	if len(byUser) == 0 {
		delete(h.subscriptions, stream)
	}
}

type connection struct {
	hub     *Hub
	socket  *websocket.Conn
	userID  string
	streams map[string]struct{} // guarded by hub.mu
	send    chan Message
	done    chan struct{}
	once    sync.Once
}

// offer queues msg without blocking. false means the buffer is full.
func (c *connection) offer(msg Message) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("realtime connection closed", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
		case "subscribe":
			c.hub.subscribe(c, ctrl.Streams)
		case "unsubscribe":
			c.hub.unsubscribe(c, ctrl.Streams)
		case "ping":
			c.offer(Message{Event: "pong"})
		}
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close is safe to call from any goroutine, any number of times. The send
// channel is never closed; done tells the loops to stop.
func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		_ = c.socket.Close()
		if c.hub.OnDisconnect != nil {
			c.hub.OnDisconnect()
		}
	})
}

func knownStream(s string) bool {
	for _, k := range AllStreams {
		if s == k {
			return true
		}
	}
	return false
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		if u, err := url.Parse(host); err == nil {
			return hostWithoutPort(u.Host)
		}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

func uniqueStreams(streams []string) []string {
	seen := make(map[string]struct{}, len(streams))
	var out []string
	for _, s := range streams {
		if s = normalizeStream(s); s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
