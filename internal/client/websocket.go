package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	// A connection with no traffic for this long is considered stale; a
	// non-forced reconnect will redial it.
	wsStaleAfter = 90 * time.Second
)

// WSEvent is a single event frame from the realtime transport.
type WSEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Seq   int64           `json:"seq"`
}

// WSHandler holds typed callback fields for realtime events. Components
// register by setting the relevant field(s). Nil callbacks are silently
// skipped.
type WSHandler struct {
	OnEvent        func(WSEvent)
	OnConnected    func()
	OnDisconnected func()
	OnError        func(error)
}

// WSClient maintains the websocket connection to the server, including the
// auth handshake and reconnect support. Safe for concurrent use.
type WSClient struct {
	url     string
	token   string
	handler *WSHandler

	mu       sync.Mutex
	conn     *websocket.Conn
	lastRecv time.Time
	closed   bool
}

// NewWSClient creates a websocket client for the given server. The handler
// must be set before Run.
func NewWSClient(baseURL, token string, handler *WSHandler) *WSClient {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + apiPrefix + "/websocket"
	return &WSClient{
		url:     wsURL,
		token:   token,
		handler: handler,
	}
}

// Run connects and reads events until ctx is cancelled. Dropped connections
// are redialed with backoff.
func (w *WSClient) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := w.dial(ctx)
		if err != nil {
			slog.Warn("websocket dial failed", "error", err)
			if w.handler.OnError != nil {
				w.handler.OnError(err)
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		w.setConn(conn)
		if w.handler.OnConnected != nil {
			w.handler.OnConnected()
		}

		w.readLoop(ctx, conn)

		if w.handler.OnDisconnected != nil {
			w.handler.OnDisconnected()
		}
	}
}

// Reconnect tears down the current connection so the run loop redials.
// When forced is false, a connection that has seen recent traffic is left
// alone; the idle-wake monitor uses this to avoid churning healthy
// connections.
func (w *WSClient) Reconnect(forced bool) {
	w.mu.Lock()
	conn := w.conn
	fresh := time.Since(w.lastRecv) < wsStaleAfter
	w.mu.Unlock()

	if conn == nil {
		return
	}
	if !forced && fresh {
		slog.Debug("skipping reconnect, connection is fresh")
		return
	}

	slog.Info("reconnecting realtime transport", "forced", forced)
	conn.Close()
}

// Close shuts the connection down permanently.
func (w *WSClient) Close() {
	w.mu.Lock()
	w.closed = true
	conn := w.conn
	w.conn = nil
	w.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (w *WSClient) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+w.token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, w.url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	// Auth challenge: the server expects the token as the first frame even
	// when the header is present, for parity with browser clients.
	auth := map[string]any{
		"seq":    1,
		"action": "authentication_challenge",
		"data":   map[string]string{"token": w.token},
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(auth); err != nil {
		conn.Close()
		return nil, fmt.Errorf("websocket auth: %w", err)
	}
	return conn, nil
}

func (w *WSClient) setConn(conn *websocket.Conn) {
	w.mu.Lock()
	if w.conn != nil {
		w.conn.Close()
	}
	w.conn = conn
	w.lastRecv = time.Now()
	w.mu.Unlock()
}

func (w *WSClient) readLoop(ctx context.Context, conn *websocket.Conn) {
	pingDone := make(chan struct{})
	defer close(pingDone)

	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					conn.Close()
					return
				}
			case <-pingDone:
				return
			case <-ctx.Done():
				conn.Close()
				return
			}
		}
	}()

	for {
		var ev WSEvent
		if err := conn.ReadJSON(&ev); err != nil {
			w.mu.Lock()
			closed := w.closed
			w.mu.Unlock()
			if !closed && ctx.Err() == nil {
				slog.Warn("websocket read failed", "error", err)
			}
			return
		}

		w.mu.Lock()
		w.lastRecv = time.Now()
		w.mu.Unlock()

		if ev.Event != "" && w.handler.OnEvent != nil {
			w.handler.OnEvent(ev)
		}
	}
}
