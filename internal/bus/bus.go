package bus

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shealert/internal/alert"
)

const (
	Shard     = "shealert"
	KindAlert = "alert"
)

type Message struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Kind    string         `json:"kind"`
	Content string         `json:"content"`
	Outcome *alert.Outcome `json:"outcome,omitempty"`
}

// Bus is a websocket connection to the event hub. Writes redial once after a
// dropped connection.
type Bus struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

func Dial(wsURL string) (*Bus, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	b := &Bus{url: u.String()}
	if err := b.dial(); err != nil {
		return nil, err
	}
	log.Info("Connected to bus", "url", b.url)
	return b, nil
}

func (b *Bus) dial() error {
	d := *websocket.DefaultDialer
	d.HandshakeTimeout = 5 * time.Second
	conn, _, err := d.Dial(b.url, nil)
	if err != nil {
		return fmt.Errorf("dial bus: %w", err)
	}
	b.conn = conn
	return nil
}

func (b *Bus) Write(m *Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		if err = b.conn.WriteMessage(websocket.TextMessage, data); err == nil {
			return nil
		}
		log.Warn("Bus write failed, redialing", "err", err)
		b.conn.Close()
		b.conn = nil
	}

	if err := b.dial(); err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bus) Read() (*Message, error) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("bus not connected")
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}

// PublishAlert is meant to be registered with alert.Trigger.OnFired.
func (b *Bus) PublishAlert(out alert.Outcome) {
	msg := &Message{
		From:    Shard,
		To:      "ALL",
		Kind:    KindAlert,
		Content: fmt.Sprintf("Emergency alert at %s from %s", out.Timestamp, out.Address),
		Outcome: &out,
	}
	if err := b.Write(msg); err != nil {
		log.Error("Failed to publish alert", "err", err)
	}
}

// IsClosed reports whether err is a normal end of the bus connection.
func IsClosed(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure)
}
