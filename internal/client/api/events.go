package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is one live signal as received over the events socket.
type Event struct {
	Type       string          `json:"type"`
	UserID     uuid.UUID       `json:"user_id"`
	DeviceID   *uuid.UUID      `json:"device_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Events holds the live socket. Close it when done.
type Events struct {
	conn *websocket.Conn
}

// DialEvents opens the live channel. The access token travels as a query
// parameter because browsers cannot set headers on the upgrade.
func (c *Client) DialEvents(ctx context.Context) (*Events, error) {
	access, _ := c.Tokens()
	if access == "" {
		return nil, ErrNotSignedIn
	}

	u, err := url.Parse(c.baseURL + apiPrefix + "/ws")
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.RawQuery = url.Values{"token": {access}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			if resp.StatusCode >= http.StatusBadRequest {
				return nil, decodeError(resp)
			}
		}
		return nil, fmt.Errorf("dialing events: %w", err)
	}
	return &Events{conn: conn}, nil
}

// Next blocks until the next event. Once the server closes the socket, for
// example after the device is revoked, it returns the close error.
func (e *Events) Next() (*Event, error) {
	for {
		_, message, err := e.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		var evt Event
		if err := json.Unmarshal(message, &evt); err != nil {
			return nil, fmt.Errorf("decoding event: %w", err)
		}
		if evt.Type == "pong" {
			continue
		}
		return &evt, nil
	}
}

func (e *Events) Close() error {
	_ = e.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return e.conn.Close()
}
