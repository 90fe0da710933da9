package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Options struct {
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
}

func (o Options) withDefaults() Options {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 120 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	return o
}

type outboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type sendPayload struct {
	Channel int    `json:"channel_idx"`
	Text    string `json:"text"`
}

// RunBridgeOnce dials the bridge and pumps events into handler until the
// connection drops, the handler errors, or ctx is canceled.
func RunBridgeOnce(ctx context.Context, wsURL string, handler EventHandler, opts Options) error {
	if strings.TrimSpace(wsURL) == "" {
		return fmt.Errorf("wsURL is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	opts = opts.withDefaults()

	dialer := websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var writeMu sync.Mutex
	writeFrame := func(typ string, payload any) error {
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		frame, err := json.Marshal(outboundFrame{Type: typ, Payload: body})
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
		return conn.WriteMessage(websocket.TextMessage, frame)
	}

	send := func(text string, channel int) error {
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("empty outbound text")
		}
		return writeFrame("send_channel_message", sendPayload{Channel: channel, Text: text})
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"), time.Now().Add(2*time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(opts.ReadTimeout))
		return nil
	})

	if err := handler(ctx, Event{Type: EventConnected}, send); err != nil {
		return err
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(opts.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		ev, ok := decodeEvent(msg)
		if !ok {
			continue
		}
		if err := handler(ctx, ev, send); err != nil {
			return err
		}
	}
}
