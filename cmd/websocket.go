package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"trusthire/internal/logger"
	"trusthire/internal/metrics"
)

const (
	readLimit          = 1 << 16
	readDeadline       = 120 * time.Second // extended by every pong
	writeDeadline      = 5 * time.Second
	pingInterval       = 15 * time.Second
	firstHelloDeadline = 30 * time.Second
	pushBuffer         = 256
)

// feedFrame is what every connected client receives.
type feedFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type directMsg struct {
	userID int
	frame  feedFrame
}

type client struct {
	userID int
	conn   *websocket.Conn
}

// Hub owns every live feed connection. A user may hold several (one per tab).
type Hub struct {
	clients    map[int]map[*websocket.Conn]struct{}
	direct     chan directMsg
	register   chan client
	unregister chan client
	stopped    chan struct{} // closed when Run returns
	log        logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[int]map[*websocket.Conn]struct{}),
		direct:     make(chan directMsg, pushBuffer),
		register:   make(chan client),
		unregister: make(chan client),
		stopped:    make(chan struct{}),
		log:        log,
	}
}

// Push implements services.Feed. It never blocks the caller; frames are
// dropped when the hub is saturated.
func (h *Hub) Push(userIDs []int, event string, payload interface{}) {
	for _, uid := range userIDs {
		if uid == 0 {
			continue
		}
		select {
		case h.direct <- directMsg{userID: uid, frame: feedFrame{Event: event, Data: payload}}:
		default:
			h.log.Errorf("ws: push buffer full, dropping %s for user=%d", event, uid)
		}
	}
}

// join hands c to the hub. It reports false once the hub has stopped.
func (h *Hub) join(c client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) leave(c client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Run serializes all access to clients until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for conn := range conns {
					_ = writeClose(conn, websocket.CloseGoingAway, "server shutdown")
					_ = conn.Close()
				}
			}
			return

		case c := <-h.register:
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*websocket.Conn]struct{})
			}
			h.clients[c.userID][c.conn] = struct{}{}
			metrics.FeedConnections.Inc()
			h.log.Infof("ws register user=%d", c.userID)

		case c := <-h.unregister:
			h.remove(c.userID, c.conn)

		case dm := <-h.direct:
			for conn := range h.clients[dm.userID] {
				_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := conn.WriteJSON(dm.frame); err != nil {
					h.log.Errorf("ws send error to=%d: %v", dm.userID, err)
					h.remove(dm.userID, conn)
				}
			}
		}
	}
}

func (h *Hub) remove(userID int, conn *websocket.Conn) {
	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; !ok {
		return
	}
	_ = conn.Close()
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
	metrics.FeedConnections.Dec()
	h.log.Infof("ws unregister user=%d", userID)
}

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WebSocketHandler expects {"token": "<access token>"} as the first frame.
func (app *application) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.log.Errorf("ws upgrade error: %v", err)
		return
	}

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(firstHelloDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	var hello struct {
		Token string `json:"token"`
	}
	if err := conn.ReadJSON(&hello); err != nil || hello.Token == "" {
		_ = writeClose(conn, websocket.ClosePolicyViolation, "token required")
		_ = conn.Close()
		return
	}
	claims, err := app.tokens.Parse(hello.Token)
	if err != nil {
		_ = writeClose(conn, websocket.ClosePolicyViolation, "invalid token")
		_ = conn.Close()
		return
	}
	conn.SetReadDeadline(time.Now().Add(readDeadline))

	c := client{userID: int(claims.UserID), conn: conn}
	if !app.hub.join(c) {
		_ = writeClose(conn, websocket.CloseGoingAway, "server shutdown")
		_ = conn.Close()
		return
	}

	done := make(chan struct{})
	go pingLoop(app.hub, c, done)
	go readLoop(app.hub, c, done)
}

func pingLoop(h *Hub, c client, done <-chan struct{}) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				h.leave(c)
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close frames are processed.
// The feed is server-to-client only; messages are sent over HTTP.
func readLoop(h *Hub, c client, done chan<- struct{}) {
	defer func() {
		close(done)
		h.leave(c)
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeClose(conn *websocket.Conn, code int, reason string) error {
	return conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeDeadline),
	)
}
