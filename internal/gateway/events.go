// Package gateway maintains the websocket session to the MeshCore bridge.
// The bridge forwards radio events as JSON frames and accepts outbound
// channel messages on the same connection.
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// SendFunc transmits one outbound text on a mesh channel.
type SendFunc func(text string, channel int) error

// EventHandler processes one decoded bridge event. Returning an error tears
// the connection down; the reconnect loop will dial again.
type EventHandler func(ctx context.Context, ev Event, send SendFunc) error

const (
	EventChannelMessage = "channel_message"
	EventAdvert         = "advert"
	EventRxLog          = "rx_log"

	// EventConnected is synthesized locally after each successful dial so
	// handlers can capture the session's send function.
	EventConnected = "connected"
)

// Event is one decoded bridge frame. Message is set only for channel
// messages; Raw always carries the original frame for event types the bot
// does not model.
type Event struct {
	Type    string
	Message *ChannelMessage
	Raw     []byte
}

// ChannelMessage is an inbound text on a mesh channel with its reception
// metadata.
type ChannelMessage struct {
	SenderID string // pubkey prefix of the originating node
	Channel  int
	Text     string

	SNR     float64
	HasSNR  bool
	RSSI    int
	HasRSSI bool

	// Path lists the repeater pubkey prefixes the packet traversed,
	// nearest-to-sender first.
	Path []string

	ReceivedAt time.Time
}

// Hops is the number of repeaters the packet traversed.
func (m *ChannelMessage) Hops() int { return len(m.Path) }

// SenderName returns the display name embedded in "Name: text" payloads,
// falling back to the sender's pubkey prefix.
func (m *ChannelMessage) SenderName() string {
	if i := strings.Index(m.Text, ":"); i > 0 {
		if name := strings.TrimSpace(m.Text[:i]); name != "" {
			return name
		}
	}
	return m.SenderID
}

// decodeEvent parses one bridge frame. Frames without a type are dropped;
// unknown types pass through with Raw only.
func decodeEvent(raw []byte) (Event, bool) {
	if !gjson.ValidBytes(raw) {
		return Event{}, false
	}
	root := gjson.ParseBytes(raw)
	typ := strings.TrimSpace(root.Get("type").String())
	if typ == "" {
		return Event{}, false
	}

	ev := Event{Type: typ, Raw: raw}
	if typ != EventChannelMessage {
		return ev, true
	}

	p := root.Get("payload")
	msg := &ChannelMessage{
		SenderID:   strings.ToLower(strings.TrimSpace(p.Get("pubkey_prefix").String())),
		Channel:    int(p.Get("channel_idx").Int()),
		Text:       p.Get("text").String(),
		ReceivedAt: time.Now(),
	}
	if v := p.Get("snr"); v.Exists() {
		msg.SNR = v.Float()
		msg.HasSNR = true
	}
	if v := p.Get("rssi"); v.Exists() {
		msg.RSSI = int(v.Int())
		msg.HasRSSI = true
	}
	if ts := p.Get("timestamp").Int(); ts > 0 {
		msg.ReceivedAt = time.Unix(ts, 0)
	}
	msg.Path = decodePath(p.Get("path"))

	ev.Message = msg
	return ev, true
}

// decodePath accepts either a JSON array of hop prefixes or a comma-joined
// hex string, which is how older bridge builds report it.
func decodePath(v gjson.Result) []string {
	var hops []string
	appendHop := func(s string) {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			hops = append(hops, s)
		}
	}
	if v.IsArray() {
		for _, e := range v.Array() {
			appendHop(e.String())
		}
		return hops
	}
	for _, part := range strings.Split(v.String(), ",") {
		appendHop(part)
	}
	return hops
}
