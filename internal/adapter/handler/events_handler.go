package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/events"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/httputil"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type clientFrame struct {
	Type string `json:"type"`
}

// wsWriter serializes writes; gorilla allows one concurrent writer.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) Write(message []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.TextMessage, message)
}

func (w *wsWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (w *wsWriter) Close() error {
	return w.conn.Close()
}

type EventsHandler struct {
	registry ConnectionRegistry
	logger   *zap.Logger
}

func NewEventsHandler(registry ConnectionRegistry, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{registry: registry, logger: logger}
}

// Serve godoc
//
//	@Summary		Live events
//	@Description	Websocket carrying device.revoked and conflict.opened events. Authenticate with ?token=.
//	@Tags			events
//	@Param			token	query	string	true	"Access token"
//	@Success		101		"Switching protocols"
//	@Failure		401		{object}	httputil.ErrorResponse
//	@Router			/ws [get]
func (h *EventsHandler) Serve(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	writer := &wsWriter{conn: ws}
	conn := &events.Connection{
		UserID:   httputil.GetUserID(c),
		DeviceID: httputil.GetDeviceID(c),
		Writer:   writer,
	}
	h.registry.Register(conn)
	defer func() {
		h.registry.Unregister(conn)
		_ = ws.Close()
	}()

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := writer.ping(); err != nil {
					_ = ws.Close()
					return
				}
			}
		}
	}()

	pong, _ := json.Marshal(clientFrame{Type: "pong"})
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Type == "ping" {
			_ = writer.Write(pong)
		}
	}
}
