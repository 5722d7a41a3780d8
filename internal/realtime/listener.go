// Package realtime receives group events pushed by the backend over a websocket.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types pushed by the backend
const (
	EventPhotoUploaded = "photo_uploaded"
	EventPhotoLiked    = "photo_liked"
	EventPhotoUnliked  = "photo_unliked"
	EventMemberJoined  = "member_joined"
)

// Event represents a websocket message about a group
type Event struct {
	Type      string `json:"type"`
	GroupID   string `json:"groupId,omitempty"`
	PhotoID   string `json:"photoId,omitempty"`
	ActorID   string `json:"actorId,omitempty"`
	LikeCount *int   `json:"likeCount,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Listener connects to the backend websocket and hands events to a callback
type Listener struct {
	url    string
	dialer *websocket.Dialer
}

// NewListener creates a listener for the websocket endpoint at wsURL
func NewListener(wsURL string) *Listener {
	return &Listener{
		url: wsURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Listen connects with token and calls handle for every event until ctx ends
// or the connection drops. It returns ctx.Err() when stopped by the context.
func (l *Listener) Listen(ctx context.Context, token string, handle func(Event)) error {
	if token == "" {
		return errors.New("token required")
	}

	u, err := url.Parse(l.url)
	if err != nil {
		return fmt.Errorf("failed to parse websocket url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := l.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect websocket (http %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to connect websocket: %w", err)
	}
	defer conn.Close()

	log.Info().Str("url", l.url).Msg("WebSocket connected")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read websocket message: %w", err)
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			log.Warn().Err(err).Msg("Failed to parse WebSocket message")
			continue
		}
		handle(event)
	}
}
