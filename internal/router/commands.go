package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/THOM-AwS/meshcore-bot/internal/directory"
	"github.com/THOM-AwS/meshcore-bot/internal/gateway"
)

// Commands maps every trigger word, aliases included, to its canonical
// command name. The classifier consumes this so the two sides cannot drift.
func Commands() map[string]string {
	return map[string]string{
		"test": "test", "t": "test",
		"ping":   "ping",
		"status": "status",
		"help":   "help",
		"path": "path", "route": "path", "trace": "path",
	}
}

func (r *Router) runCommand(ctx context.Context, name string, msg *gateway.ChannelMessage) string {
	switch name {
	case "test":
		return r.ackLine(ctx, msg)
	case "ping":
		return "pong" + signalSuffix(msg)
	case "status":
		return r.statusLine(ctx)
	case "help":
		return "Commands: test, ping, status, help, path | Ask: 'jeff <question>' or 'who owns <node>'"
	case "path":
		return r.pathLine(ctx, msg)
	default:
		return fmt.Sprintf("Unknown command '%s'", name)
	}
}

// ackLine is the test-command reply: who we heard, via what path, and how
// well.
func (r *Router) ackLine(ctx context.Context, msg *gateway.ChannelMessage) string {
	parts := []string{
		"ack " + msg.SenderName(),
		r.renderPath(ctx, msg.Path),
	}
	if msg.HasSNR {
		parts = append(parts, fmt.Sprintf("SNR: %g dB", msg.SNR))
	}
	if msg.HasRSSI {
		parts = append(parts, fmt.Sprintf("RSSI: %d dBm", msg.RSSI))
	}
	parts = append(parts, "Received at: "+msg.ReceivedAt.Format("15:04:05"))
	return strings.Join(parts, " | ")
}

func (r *Router) statusLine(ctx context.Context) string {
	sc, sr := r.dir.ActiveCounts(ctx, directory.RegionMetro, statusWindow)
	wc, wr := r.dir.ActiveCounts(ctx, directory.RegionWide, statusWindow)
	return fmt.Sprintf("Online | Sydney: %d companions, %d repeaters | NSW: %d companions, %d repeaters", sc, sr, wc, wr)
}

func (r *Router) pathLine(ctx context.Context, msg *gateway.ChannelMessage) string {
	if msg.Hops() == 0 {
		return "Direct (0 hops)" + signalSuffix(msg)
	}
	return fmt.Sprintf("Path (%d hops): %s%s", msg.Hops(), r.renderPath(ctx, msg.Path), signalSuffix(msg))
}

// renderPath resolves hop pubkey prefixes to node names where the directory
// knows them.
func (r *Router) renderPath(ctx context.Context, hops []string) string {
	if len(hops) == 0 {
		return "Direct"
	}
	names := make([]string, 0, len(hops))
	for _, hop := range hops {
		if n, ok := r.dir.Lookup(ctx, hop); ok {
			names = append(names, n.Name)
			continue
		}
		names = append(names, hop)
	}
	return strings.Join(names, " > ")
}

func signalSuffix(msg *gateway.ChannelMessage) string {
	var parts []string
	if msg.HasSNR {
		parts = append(parts, fmt.Sprintf("SNR: %g dB", msg.SNR))
	}
	if msg.HasRSSI {
		parts = append(parts, fmt.Sprintf("RSSI: %d dBm", msg.RSSI))
	}
	if len(parts) == 0 {
		return ""
	}
	return " | " + strings.Join(parts, " | ")
}
