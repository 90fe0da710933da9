// Package router turns a trigger decision into the outbound reply text.
// Every triggered message gets exactly one reply, capped at the radio's
// payload limit; LLM failure degrades to a fixed notice, never silence.
package router

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/THOM-AwS/meshcore-bot/internal/conversation"
	"github.com/THOM-AwS/meshcore-bot/internal/directory"
	"github.com/THOM-AwS/meshcore-bot/internal/gateway"
	"github.com/THOM-AwS/meshcore-bot/internal/llm"
	"github.com/THOM-AwS/meshcore-bot/internal/textutil"
	"github.com/THOM-AwS/meshcore-bot/internal/trigger"
)

// Directory is the read side of the regional node cache.
type Directory interface {
	Lookup(ctx context.Context, query string) (directory.NodeRecord, bool)
	TopNodes(ctx context.Context, region directory.Region, n int) []directory.NodeRecord
	ActiveCounts(ctx context.Context, region directory.Region, within time.Duration) (companions, repeaters int)
}

// Router resolves classified messages into reply text.
type Router struct {
	dir       Directory
	backend   llm.Backend
	conv      *conversation.Tracker
	logPrefix string
}

func New(dir Directory, backend llm.Backend, conv *conversation.Tracker, logPrefix string) *Router {
	return &Router{dir: dir, backend: backend, conv: conv, logPrefix: logPrefix}
}

// Respond produces the reply for one triggered message. The result is never
// empty and never exceeds MaxMessageChars.
func (r *Router) Respond(ctx context.Context, d trigger.Decision, msg *gateway.ChannelMessage) string {
	var reply string
	switch d.Kind {
	case trigger.FixedCommand:
		reply = r.runCommand(ctx, d.Command, msg)
	case trigger.NodeQuery:
		reply = r.nodeQuery(ctx, d.Search)
	case trigger.FreeFormQuestion:
		reply = r.freeForm(ctx, d, msg)
	default:
		return ""
	}
	return textutil.Truncate(strings.TrimSpace(reply), MaxMessageChars)
}

func (r *Router) nodeQuery(ctx context.Context, search string) string {
	n, ok := r.dir.Lookup(ctx, search)
	if !ok {
		return fmt.Sprintf("No match for '%s'", search)
	}
	return n.SummaryLine()
}

// freeForm assembles the bounded context bundle and asks the LLM.
func (r *Router) freeForm(ctx context.Context, d trigger.Decision, msg *gateway.ChannelMessage) string {
	req := llm.Request{Question: d.Question}

	for _, n := range r.dir.TopNodes(ctx, directory.RegionMetro, contextNodeLimit) {
		req.NodeContext = append(req.NodeContext, n.ContextLine())
	}
	if d.IsFollowUp && r.conv != nil {
		if e, ok := r.conv.FollowUpContext(msg.SenderID, msg.Channel); ok {
			req.PriorResponse = e.LastResponse
			req.History = e.History
		}
	}
	req.Signal = signalDescription(msg)

	out, err := r.backend.Complete(ctx, req)
	if err != nil {
		log.Printf("%s llm failed: sender=%s channel=%d err=%v", r.logPrefix, msg.SenderID, msg.Channel, err)
		return llmUnavailableNotice
	}
	return out
}

func signalDescription(msg *gateway.ChannelMessage) string {
	var parts []string
	if msg.HasSNR {
		parts = append(parts, fmt.Sprintf("SNR: %g dB", msg.SNR))
	}
	if msg.HasRSSI {
		parts = append(parts, fmt.Sprintf("RSSI: %d dBm", msg.RSSI))
	}
	if msg.Hops() > 0 {
		parts = append(parts, fmt.Sprintf("%d hops", msg.Hops()))
	}
	return strings.Join(parts, ", ")
}
