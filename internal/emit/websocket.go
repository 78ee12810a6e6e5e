package emit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType is the first element of every bridge message
type MessageType int

const (
	MessageTypeBatch MessageType = 8
	MessageTypeAck   MessageType = 9
)

// BatchEvent names batch messages on the bridge
const BatchEvent = "OnGridBatch"

// ErrRejected is returned when the bridge acknowledges a batch with a failure
var ErrRejected = errors.New("batch rejected by bridge")

// BatchPayload is the third element of a batch message
type BatchPayload struct {
	ID    string `json:"id"`
	Batch *Batch `json:"batch"`
}

// Ack is the third element of an ack message
type Ack struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// WebSocketSink pushes batches to a grid-transport bridge as
// [type, event, payload] messages and waits for the matching ack
type WebSocketSink struct {
	url        string
	header     http.Header
	dialer     websocket.Dialer
	ackTimeout time.Duration
	log        *zap.Logger
}

// NewWebSocketSink creates a sink for the bridge at url (ws:// or wss://)
func NewWebSocketSink(url string, ackTimeout time.Duration, log *zap.Logger) *WebSocketSink {
	if ackTimeout <= 0 {
		ackTimeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocketSink{
		url:        url,
		header:     http.Header{},
		dialer:     websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		ackTimeout: ackTimeout,
		log:        log.Named("emit"),
	}
}

// SetBasicAuth sends basic credentials with the handshake
func (s *WebSocketSink) SetBasicAuth(username, password string) {
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	s.header.Set("Authorization", "Basic "+token)
}

// Write sends b and blocks until the bridge acknowledges it, ctx ends or the ack
// timeout passes
func (s *WebSocketSink) Write(ctx context.Context, b *Batch) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		return fmt.Errorf("failed to connect to bridge: %w", err)
	}
	defer conn.Close()

	id := uuid.NewString()
	msg := []interface{}{MessageTypeBatch, BatchEvent, BatchPayload{ID: id, Batch: b}}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	s.log.Debug("Batch sent", zap.String("id", id), zap.String("url", s.url))

	deadline := time.Now().Add(s.ackTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetReadDeadline(deadline)

	// unblock the read when ctx is cancelled before the deadline
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed waiting for ack: %w", err)
		}

		ack, ok := parseAck(data)
		if !ok || ack.ID != id {
			continue
		}

		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

		if !ack.OK {
			return fmt.Errorf("%w: %s", ErrRejected, ack.Error)
		}
		s.log.Info("Batch acknowledged", zap.String("id", id))
		return nil
	}
}

// parseAck decodes [9, "OnGridBatch", {...}]; anything else is ignored
func parseAck(data []byte) (Ack, bool) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) < 3 {
		return Ack{}, false
	}

	var msgType MessageType
	if err := json.Unmarshal(raw[0], &msgType); err != nil || msgType != MessageTypeAck {
		return Ack{}, false
	}

	var event string
	if err := json.Unmarshal(raw[1], &event); err != nil || event != BatchEvent {
		return Ack{}, false
	}

	var ack Ack
	if err := json.Unmarshal(raw[2], &ack); err != nil {
		return Ack{}, false
	}
	return ack, true
}

var (
	_ Sink = (*JSONSink)(nil)
	_ Sink = (*WebSocketSink)(nil)
)
